package export

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeWidth measures one unit per rune.
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func TestWrapLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits on one line", "good job", 10, []string{"good job"}},
		{"greedy", "aa bb cc dd", 5, []string{"aa bb", "cc dd"}},
		{"long word split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"only the long word splits", "hi abcdefghij yo", 4, []string{"hi", "abcd", "efgh", "ij", "yo"}},
		{"empty paragraphs kept", "a\n\nb", 10, []string{"a", "", "b"}},
		{"trailing newline", "a\n", 10, []string{"a", ""}},
		{"no width keeps paragraphs", "a b\nc", 0, []string{"a b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapLines(tt.text, tt.width, runeWidth))
		})
	}
}

func TestTypesetter_WrapFitsWidth(t *testing.T) {
	ts, err := NewTypesetter()
	require.NoError(t, err)

	lines, err := ts.Wrap(strings.Repeat("feedback on the derivation ", 6), 16, 124)
	require.NoError(t, err)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.NotEmpty(t, l)
		assert.False(t, strings.HasPrefix(l, " "), l)
	}
}

func TestTypesetter_LayoutDropsLinesPastTheBox(t *testing.T) {
	ts, err := NewTypesetter()
	require.NoError(t, err)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 12)

	tests := []struct {
		name          string
		width, height float64
		size          float64
	}{
		{"minimum box", 140, 64, 16},
		{"tall box", 200, 300, 20},
		{"font taller than box", 140, 64, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := annotation(0, 0, tt.width, tt.height, tt.size, text)
			wrapped, err := ts.Wrap(text, tt.size, tt.width-16)
			require.NoError(t, err)

			l, err := ts.Layout(a)
			require.NoError(t, err)
			lineHeight := tt.size * LineHeightFactor
			assert.Equal(t, lineHeight, l.LineHeight)

			capacity := max(1, int(math.Floor((tt.height-8)/lineHeight)))
			assert.Len(t, l.Lines, min(capacity, len(wrapped)))
			assert.Equal(t, wrapped[:len(l.Lines)], l.Lines)
		})
	}
}

func TestTypesetter_LayoutMinimumBoxKeepsTwoLines(t *testing.T) {
	ts, err := NewTypesetter()
	require.NoError(t, err)

	l, err := ts.Layout(annotation(0, 0, 140, 64, 16, strings.Repeat("lorem ipsum dolor sit amet ", 12)))
	require.NoError(t, err)
	assert.Len(t, l.Lines, 2)
}
