package usecase

import (
	"strings"

	"nabot/internal/domain/model"
)

// Filter matches entries by case-insensitive substring containment.
type Filter struct {
	keywords []needle
	authors  []needle
}

type needle struct {
	raw   string
	lower string
}

// NewFilter builds a Filter. Blank needles are ignored so they cannot match everything.
func NewFilter(keywords, authors []string) Filter {
	return Filter{
		keywords: buildNeedles(keywords),
		authors:  buildNeedles(authors),
	}
}

func buildNeedles(values []string) []needle {
	out := make([]needle, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, needle{raw: v, lower: strings.ToLower(v)})
	}
	return out
}

// Empty reports whether the filter can never match.
func (f Filter) Empty() bool {
	return len(f.keywords) == 0 && len(f.authors) == 0
}

// Match checks keywords against the title and author needles against the author line.
func (f Filter) Match(entry model.Entry) (model.Match, bool) {
	title := strings.ToLower(entry.Title)
	authors := strings.ToLower(entry.Authors)

	m := model.Match{Entry: entry}
	for _, k := range f.keywords {
		if strings.Contains(title, k.lower) {
			m.Keywords = append(m.Keywords, k.raw)
		}
	}
	for _, a := range f.authors {
		if strings.Contains(authors, a.lower) {
			m.Authors = append(m.Authors, a.raw)
		}
	}

	return m, len(m.Keywords) > 0 || len(m.Authors) > 0
}

// Select returns the matching entries in listing order.
func (f Filter) Select(subject string, entries []model.Entry) []model.Match {
	if f.Empty() {
		return nil
	}

	matches := make([]model.Match, 0)
	for _, e := range entries {
		if m, ok := f.Match(e); ok {
			m.Subject = subject
			matches = append(matches, m)
		}
	}
	return matches
}
