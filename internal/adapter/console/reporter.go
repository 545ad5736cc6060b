package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"nabot/internal/domain/model"
	"nabot/internal/domain/ports"
)

// Reporter prints one block per match: title, authors, link and a blank line.
type Reporter struct {
	out   io.Writer
	width int
}

var _ ports.Reporter = (*Reporter)(nil)

// New creates a console reporter. A positive width wraps titles and truncates
// author lines to that many terminal cells.
func New(out io.Writer, width int) *Reporter {
	return &Reporter{out: out, width: width}
}

// Report writes the matches in order.
func (r *Reporter) Report(_ context.Context, _ string, matches []model.Match) error {
	w := bufio.NewWriter(r.out)
	for _, m := range matches {
		if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n\n", r.title(m.Entry.Title), r.authors(m.Entry.Authors), m.Entry.Link); err != nil {
			return fmt.Errorf("write match %s: %w", m.Entry.ArxivID, err)
		}
	}
	return w.Flush()
}

func (r *Reporter) title(s string) string {
	s = collapse(s)
	if r.width <= 0 {
		return s
	}
	return runewidth.Wrap(s, r.width)
}

func (r *Reporter) authors(s string) string {
	s = collapse(s)
	if r.width <= 0 {
		return s
	}
	return runewidth.Truncate(s, r.width, "...")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
