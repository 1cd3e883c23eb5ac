// Package net talks to the submission server: it fetches the file under
// review and stores the baked feedback file.
package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ReviewBoard/internal/export"
	"ReviewBoard/internal/state"
)

const DefaultTimeout = 60 * time.Second

// UploadRequest attaches a feedback file to a submission. When
// ReplaceFeedbackFileID is set the existing feedback file is superseded.
type UploadRequest struct {
	SubmissionID           int
	File                   export.Artifact
	SourceSubmissionFileID *int
	ReplaceFeedbackFileID  *int
}

// FeedbackFile is the server's record of a stored feedback file.
type FeedbackFile struct {
	ID                     int    `json:"id"`
	SubmissionID           int    `json:"submission_id"`
	SourceSubmissionFileID *int   `json:"source_submission_file_id"`
	FileName               string `json:"file_name"`
	FilePath               string `json:"file_path"`
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the HTTP bridge to the submission server.
type Client struct {
	httpClient *http.Client
	origin     string
	token      string
	log        zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	origin, err := NormalizeOrigin(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		origin:     origin,
		token:      cfg.Token,
		log:        log.With().Str("component", "net").Logger(),
	}, nil
}

// Fetch downloads the file at a server-relative path.
func (c *Client) Fetch(ctx context.Context, filePath string) ([]byte, error) {
	target := ResolvePath(c.origin, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrFetchFailed, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", state.ErrFetchFailed, filePath, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", state.ErrFetchFailed, err)
	}
	c.log.Debug().Str("path", filePath).Int("bytes", len(data)).Msg("fetched source")
	return data, nil
}

// Save creates or replaces the feedback file of a submission.
func (c *Client) Save(ctx context.Context, r UploadRequest) (FeedbackFile, error) {
	method := http.MethodPost
	target := fmt.Sprintf("%s/api/submissions/%d/feedback-files", c.origin, r.SubmissionID)
	if r.ReplaceFeedbackFileID != nil {
		method = http.MethodPut
		target = fmt.Sprintf("%s/%d", target, *r.ReplaceFeedbackFileID)
	}

	body, contentType, err := feedbackForm(r)
	if err != nil {
		return FeedbackFile{}, fmt.Errorf("%w: build form: %v", state.ErrUploadFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return FeedbackFile{}, fmt.Errorf("%w: %v", state.ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FeedbackFile{}, fmt.Errorf("%w: %v", state.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return FeedbackFile{}, fmt.Errorf("%w: read response: %v", state.ErrUploadFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FeedbackFile{}, fmt.Errorf("%w: %s", state.ErrUploadFailed, errorDetail(resp.StatusCode, raw))
	}

	var out FeedbackFile
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			c.log.Warn().Err(err).Msg("unexpected upload response body")
		}
	}
	c.log.Info().
		Str("method", method).
		Int("submission", r.SubmissionID).
		Str("file", r.File.Name).
		Int("bytes", len(r.File.Data)).
		Msg("upload done")
	return out, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func feedbackForm(r UploadRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(filePartHeader(r.File))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(r.File.Data); err != nil {
		return nil, "", err
	}
	if r.SourceSubmissionFileID != nil {
		if err := w.WriteField("source_submission_file_id", strconv.Itoa(*r.SourceSubmissionFileID)); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func filePartHeader(a export.Artifact) textproto.MIMEHeader {
	name := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a.Name)
	mime := a.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, name)},
		"Content-Type":        {mime},
	}
}

// errorDetail extracts the server's "detail" message, or falls back to the
// status line.
func errorDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(payload.Detail, &msg); err == nil {
			return msg
		}
		return string(payload.Detail)
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		return text
	}
	return fmt.Sprintf("server returned %d %s", status, http.StatusText(status))
}
