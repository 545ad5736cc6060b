package model

// Entry represents one paper listed on an arXiv subject page.
type Entry struct {
	ArxivID string
	Title   string
	Authors string
	Link    string
}

// Match is an entry that satisfied the watchlist, with the needles that hit.
type Match struct {
	Entry    Entry
	Subject  string
	Keywords []string
	Authors  []string
}
