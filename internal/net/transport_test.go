package net

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewBoard/internal/export"
	"ReviewBoard/internal/state"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func intPtr(v int) *int { return &v }

func TestFetch_ResolvesRelativePaths(t *testing.T) {
	var got []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("payload"))
	}))

	for _, p := range []string{"./uploads/a.pdf", "/uploads/a.pdf", "uploads/a.pdf"} {
		data, err := c.Fetch(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	}
	assert.Equal(t, []string{"/uploads/a.pdf", "/uploads/a.pdf", "/uploads/a.pdf"}, got)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	_, err := c.Fetch(context.Background(), "uploads/missing.png")
	assert.ErrorIs(t, err, state.ErrFetchFailed)
}

func TestSave_CreatesFeedbackFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/submissions/7/feedback-files", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "12", r.FormValue("source_submission_file_id"))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "hw_checked.pdf", hdr.Filename)
		assert.Equal(t, export.MIMEPDF, hdr.Header.Get("Content-Type"))
		data, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 31, "submission_id": 7, "file_name": "hw_checked.pdf"}`))
	}))

	out, err := c.Save(context.Background(), UploadRequest{
		SubmissionID:           7,
		File:                   export.Artifact{Name: "hw_checked.pdf", MIME: export.MIMEPDF, Data: []byte("%PDF-1.4"), Pages: 2},
		SourceSubmissionFileID: intPtr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, 31, out.ID)
	assert.Equal(t, "hw_checked.pdf", out.FileName)
}

func TestSave_ReplacesFeedbackFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/submissions/7/feedback-files/31", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Empty(t, r.FormValue("source_submission_file_id"))
		_, _ = w.Write([]byte(`{"id": 31}`))
	}))

	_, err := c.Save(context.Background(), UploadRequest{
		SubmissionID:          7,
		File:                  export.Artifact{Name: "a_checked.png", MIME: export.MIMEPNG, Data: []byte{1}},
		ReplaceFeedbackFileID: intPtr(31),
	})
	require.NoError(t, err)
}

func TestSave_SurfacesServerDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "Only the course instructor can upload feedback"}`))
	}))

	_, err := c.Save(context.Background(), UploadRequest{SubmissionID: 1, File: export.Artifact{Name: "x.png"}})
	require.ErrorIs(t, err, state.ErrUploadFailed)
	assert.Contains(t, err.Error(), "Only the course instructor can upload feedback")
}

func TestErrorDetail_Fallbacks(t *testing.T) {
	assert.Equal(t, "server returned 502 Bad Gateway", errorDetail(502, nil))
	assert.Equal(t, "boom", errorDetail(500, []byte("boom")))
	assert.Equal(t, `[{"msg":"field required"}]`, errorDetail(422, []byte(`{"detail":[{"msg":"field required"}]}`)))
}

func TestNormalizeOrigin(t *testing.T) {
	o, err := NormalizeOrigin("https://school.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://school.example.com", o)

	_, err = NormalizeOrigin("school.example.com")
	assert.Error(t, err)
	_, err = NormalizeOrigin("")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "http://h/uploads/a.png", ResolvePath("http://h", "./uploads/a.png"))
	assert.Equal(t, "http://h/uploads/a.png", ResolvePath("http://h", "//uploads/a.png"))
	assert.Equal(t, "https://cdn/x.png", ResolvePath("http://h", "https://cdn/x.png"))
}
