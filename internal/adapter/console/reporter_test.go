package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nabot/internal/domain/model"
)

func TestReporterPrintsBlocks(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 0)

	matches := []model.Match{
		{Entry: model.Entry{ArxivID: "1", Title: "Finite elements", Authors: "A. Buffa,\n  R. Hiptmair", Link: "https://arxiv.org/abs/1"}},
		{Entry: model.Entry{ArxivID: "2", Title: "", Authors: "", Link: "https://arxiv.org/abs/2"}},
	}
	require.NoError(t, r.Report(context.Background(), "math.NA", matches))

	want := "Finite elements\nA. Buffa, R. Hiptmair\nhttps://arxiv.org/abs/1\n\n" +
		"\n\nhttps://arxiv.org/abs/2\n\n"
	assert.Equal(t, want, buf.String())
}

func TestReporterNoMatchesPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, 0).Report(context.Background(), "math.NA", nil))
	assert.Empty(t, buf.String())
}

func TestReporterWidth(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 20)

	matches := []model.Match{{Entry: model.Entry{
		Title:   "A very long title about discontinuous Galerkin methods",
		Authors: "Joachim Schöberl, Annalisa Buffa, Ralf Hiptmair",
		Link:    "https://arxiv.org/abs/3",
	}}}
	require.NoError(t, r.Report(context.Background(), "math.NA", matches))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Greater(t, len(lines), 3)
	for _, line := range lines[:len(lines)-1] {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 20, "line %q", line)
	}
	assert.Equal(t, "https://arxiv.org/abs/3", lines[len(lines)-1])
	assert.True(t, strings.HasSuffix(lines[len(lines)-2], "..."))
}
