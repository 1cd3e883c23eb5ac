package state

import "errors"

// Failures of a review session. None of them is fatal to the host: they are
// reported to the reviewer and the session stays open.
var (
	ErrFetchFailed       = errors.New("fetch failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoPagesToExport   = errors.New("no pages to export")
	ErrEncodingFailed    = errors.New("encoding failed")
	ErrUploadFailed      = errors.New("upload failed")

	ErrSaveInProgress    = errors.New("save already in progress")
	ErrNoAsset           = errors.New("no review asset loaded")
	ErrUnknownPage       = errors.New("unknown page")
	ErrUnknownAnnotation = errors.New("unknown text annotation")
	ErrLoadSuperseded    = errors.New("load superseded")
)
