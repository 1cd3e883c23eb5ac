package script

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewBoard/internal/decode"
	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/export"
	"ReviewBoard/internal/net"
	"ReviewBoard/internal/state"
)

const review = `
asset:
  source_file_name: hw.pdf
  review_kind: pdf
  review_file_path: ./uploads/hw.pdf
  submission_file_id: 12
submission_id: 7
replace_feedback_file_id: 31
marks:
  - page: 0
    tool: pen
    color: "#0000ff"
    width: 6
    points: [[10, 10], [90, 10], [90, 90]]
  - page: 1
    tool: text
    at: [20, 30]
    size: [300, 90]
    font_size: 22
    text: Good job
  - page: 1
    tool: text
    at: [5, 5]
    text: "   "
`

type blankDoc struct{ n int }

func (d blankDoc) NumPages() int { return d.n }
func (d blankDoc) RenderPage(int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 400, 400)), nil
}
func (d blankDoc) Close() error { return nil }

type memFetcher struct{}

func (memFetcher) Fetch(context.Context, string) ([]byte, error) { return []byte("%PDF"), nil }

type nopUploader struct{}

func (nopUploader) Save(_ context.Context, r net.UploadRequest) (net.FeedbackFile, error) {
	return net.FeedbackFile{FileName: r.File.Name}, nil
}

func loadedEditor(t *testing.T, s *Script) *editor.Editor {
	t.Helper()
	ts, err := export.NewTypesetter()
	require.NoError(t, err)
	log := zerolog.Nop()
	open := func([]byte) (decode.PageRenderer, error) { return blankDoc{n: 2}, nil }
	e := editor.New(editor.Deps{
		Fetcher:    memFetcher{},
		Uploader:   nopUploader{},
		Decoder:    decode.NewDecoder(open, 0, log),
		Compositor: export.NewCompositor(ts),
		Exporter:   export.NewExporter(log),
		Tools:      state.NewToolState(state.DefaultColor, state.DefaultStrokeWidth),
	}, log)
	require.NoError(t, e.Load(context.Background(), s.Asset))
	return e
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(review))
	require.NoError(t, err)
	assert.Equal(t, "hw.pdf", s.Asset.SourceFileName)
	assert.Equal(t, state.KindPDF, s.Asset.ReviewKind)
	assert.Equal(t, 12, s.Asset.SubmissionFileID)
	require.Len(t, s.Marks, 3)
	assert.Equal(t, state.ToolPen, s.Marks[0].Tool)
	assert.Len(t, s.Marks[0].Points, 3)

	opts := s.SaveOptions()
	assert.Equal(t, 7, opts.SubmissionID)
	require.NotNil(t, opts.ReplaceFeedbackFileID)
	assert.Equal(t, 31, *opts.ReplaceFeedbackFileID)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte(review), 0o600))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Marks, 3)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no path":    "asset: {review_kind: pdf}\n",
		"bad kind":   "asset: {review_kind: video, review_file_path: x}\n",
		"bad tool":   "asset: {review_kind: pdf, review_file_path: x}\nmarks: [{tool: spray, points: [[1, 1]]}]\n",
		"no points":  "asset: {review_kind: pdf, review_file_path: x}\nmarks: [{tool: pen}]\n",
		"bad point":  "asset: {review_kind: pdf, review_file_path: x}\nmarks: [{tool: pen, points: [[1]]}]\n",
		"text no at": "asset: {review_kind: pdf, review_file_path: x}\nmarks: [{tool: text, text: hi}]\n",
		"bad color":  "asset: {review_kind: pdf, review_file_path: x}\nmarks: [{tool: pen, color: nope, points: [[1, 1]]}]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	s, err := Parse([]byte(review))
	require.NoError(t, err)
	e := loadedEditor(t, s)

	require.NoError(t, s.Apply(e))

	overlay := e.Overlay(0)
	require.NotNil(t, overlay)
	_, _, _, a := overlay.At(50, 10).RGBA()
	assert.NotZero(t, a)
	r, _, b, _ := overlay.At(50, 10).RGBA()
	assert.Greater(t, b, r, "stroke uses the scripted colour")

	texts := e.Texts(1)
	require.Len(t, texts, 1, "whitespace-only box is dropped")
	assert.Equal(t, "Good job", texts[0].Text)
	assert.Equal(t, 22.0, texts[0].FontSize)
	assert.Equal(t, 300.0, texts[0].Width)
	assert.Equal(t, 90.0, texts[0].Height)
	assert.Equal(t, "#0000ff", texts[0].Color.Hex())

	res, err := e.Save(context.Background(), s.SaveOptions())
	require.NoError(t, err)
	assert.Equal(t, "hw_checked.pdf", res.FileName)
	assert.True(t, res.Replaced)
}

func TestApply_UnknownPage(t *testing.T) {
	s, err := Parse([]byte(review))
	require.NoError(t, err)
	e := loadedEditor(t, s)
	s.Marks = []Mark{{Page: 5, Tool: state.ToolPen, Points: [][]float64{{1, 1}}}}
	assert.ErrorIs(t, s.Apply(e), state.ErrUnknownPage)
}
