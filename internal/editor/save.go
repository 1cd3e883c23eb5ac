package editor

import (
	"context"
	"image"

	"ReviewBoard/internal/net"
	"ReviewBoard/internal/state"
)

// SaveOptions targets the submission that receives the feedback file.
// ReplaceFeedbackFileID supersedes an earlier feedback file instead of
// adding a new one.
type SaveOptions struct {
	SubmissionID          int
	ReplaceFeedbackFileID *int
}

type SaveResult struct {
	FileName string
	MIME     string
	Pages    int
	Bytes    int
	Feedback net.FeedbackFile
	Replaced bool
	Message  string
}

type pageSnapshot struct {
	page    state.Page
	overlay *image.RGBA
	texts   []state.TextAnnotation
}

// Save bakes every page and uploads the result. A second call while one is
// running returns ErrSaveInProgress. A successful save ends the session; on
// failure the session is left untouched so the reviewer can retry.
func (e *Editor) Save(ctx context.Context, opts SaveOptions) (SaveResult, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return SaveResult{}, state.ErrSaveInProgress
	}
	if e.asset == nil {
		e.mu.Unlock()
		return SaveResult{}, state.ErrNoAsset
	}
	if len(e.pages) == 0 {
		e.mu.Unlock()
		return SaveResult{}, state.ErrNoPagesToExport
	}
	e.saving = true
	gen := e.gen
	asset := *e.asset
	snaps := make([]pageSnapshot, len(e.pages))
	for i, p := range e.pages {
		snaps[i] = pageSnapshot{
			page:    p,
			overlay: cloneRGBA(e.store.Peek(i)),
			texts:   e.text.ForPage(i),
		}
	}
	e.mu.Unlock()

	res, err := e.bake(ctx, asset, snaps, opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.log.Warn().Err(err).Str("file", asset.SourceFileName).Msg("save failed")
		return SaveResult{}, err
	}
	if gen == e.gen {
		e.gen++
		e.releaseLocked()
		e.asset = nil
		e.status = StatusClosed
	}
	return res, nil
}

func (e *Editor) bake(ctx context.Context, asset state.ReviewAsset, snaps []pageSnapshot, opts SaveOptions) (SaveResult, error) {
	composites := make([]*image.RGBA, 0, len(snaps))
	for _, s := range snaps {
		if err := ctx.Err(); err != nil {
			return SaveResult{}, err
		}
		img, err := e.deps.Compositor.Compose(s.page, s.overlay, s.texts)
		if err != nil {
			return SaveResult{}, err
		}
		composites = append(composites, img)
	}

	artifact, err := e.deps.Exporter.Export(asset, composites)
	if err != nil {
		return SaveResult{}, err
	}

	source := asset.SubmissionFileID
	feedback, err := e.deps.Uploader.Save(ctx, net.UploadRequest{
		SubmissionID:           opts.SubmissionID,
		File:                   artifact,
		SourceSubmissionFileID: &source,
		ReplaceFeedbackFileID:  opts.ReplaceFeedbackFileID,
	})
	if err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{
		FileName: artifact.Name,
		MIME:     artifact.MIME,
		Pages:    artifact.Pages,
		Bytes:    len(artifact.Data),
		Feedback: feedback,
		Replaced: opts.ReplaceFeedbackFileID != nil,
		Message:  "Feedback file saved",
	}
	if res.Replaced {
		res.Message = "Feedback file updated"
	}
	e.log.Info().Str("file", res.FileName).Int("pages", res.Pages).Bool("replaced", res.Replaced).Msg("feedback saved")
	return res, nil
}
