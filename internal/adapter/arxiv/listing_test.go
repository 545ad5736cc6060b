package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nabot/internal/domain/model"
)

const listingFixture = `<!DOCTYPE html>
<html><body>
<dl id="articles">
<dt>
  <a name="item1">[1]</a>
  <a href="/abs/2410.00001" title="Abstract" id="2410.00001">arXiv:2410.00001</a>
  [<a href="/pdf/2410.00001" title="Download PDF">pdf</a>]
</dt>
<dd>
  <div class="meta">
    <div class="list-title mathjax"><span class="descriptor">Title:</span>
      A Finite Element Method for Braginskii Plasmas
    </div>
    <div class="list-authors"><a href="#">Annalisa Buffa</a>, <a href="#">Ralf Hiptmair</a></div>
  </div>
</dd>
<dt>
  <a name="item2">[2]</a>
  <a href="/pdf/2410.00002" title="Download PDF">pdf</a>
</dt>
<dd>
  <div class="meta">
    <div class="list-title mathjax"><span class="descriptor">Title:</span> Skipped Without Abstract Link</div>
  </div>
</dd>
<dt>
  <a href="/abs/2410.00003" title="Abstract">arXiv:2410.00003</a>
</dt>
<dd>
  <div class="meta">
    <div class="list-authors"><span class="descriptor">Authors:</span> Joachim Sch&ouml;berl</div>
  </div>
</dd>
<dt>
  <a href="/abs/2410.00004" title="Abstract">arXiv:2410.00004</a>
</dt>
</dl>
</body></html>`

func TestParseListing(t *testing.T) {
	entries, err := ParseListing(strings.NewReader(listingFixture))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, model.Entry{
		ArxivID: "2410.00001",
		Title:   "A Finite Element Method for Braginskii Plasmas",
		Authors: "Annalisa Buffa, Ralf Hiptmair",
		Link:    "https://arxiv.org/abs/2410.00001",
	}, entries[0])

	assert.Equal(t, "2410.00003", entries[1].ArxivID)
	assert.Equal(t, "", entries[1].Title)
	assert.Equal(t, "Joachim Schöberl", entries[1].Authors)
	assert.Equal(t, "https://arxiv.org/abs/2410.00003", entries[1].Link)
}

func TestParseListingEmptyDocument(t *testing.T) {
	entries, err := ParseListing(strings.NewReader("<html><body><p>no listings</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListingURL(t *testing.T) {
	assert.Equal(t,
		"https://arxiv.org/list/math.NA/recent?skip=0&show=1000",
		ListingURL(defaultBaseURL, "math.NA", 1000))
}

func TestFetchListing(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingFixture))
	}))
	defer srv.Close()

	p := NewListingProvider(5*time.Second, nil, nil).WithBaseURL(srv.URL + "/")
	entries, err := p.FetchListing(context.Background(), "math.NA", 50)
	require.NoError(t, err)

	assert.Len(t, entries, 2)
	assert.Equal(t, "/list/math.NA/recent", gotPath)
	assert.Equal(t, "skip=0&show=50", gotQuery)
	assert.Contains(t, gotAgent, "nabot")
}

func TestFetchListingDecodesLatin1(t *testing.T) {
	page := "<dl><dt><a title=\"Abstract\">arXiv:2410.00009</a></dt>" +
		"<dd><div class=\"list-authors\">J. Sch\xf6berl</div></dd></dl>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p := NewListingProvider(5*time.Second, nil, nil).WithBaseURL(srv.URL)
	entries, err := p.FetchListing(context.Background(), "math.NA", 25)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "J. Schöberl", entries[0].Authors)
}

func TestFetchListingFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewListingProvider(5*time.Second, nil, nil).WithBaseURL(srv.URL)
	_, err := p.FetchListing(context.Background(), "math.NA", 25)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchListingHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingFixture))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewListingProvider(5*time.Second, nil, nil).WithBaseURL(srv.URL)
	_, err := p.FetchListing(ctx, "math.NA", 25)
	assert.ErrorIs(t, err, context.Canceled)
}
