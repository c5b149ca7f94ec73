package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>News search</title>
<item><title>Deal reached at climate summit &amp; more</title><link>https://news.example.com/a</link>
<pubDate>Sun, 10 Dec 2023 09:30:00 GMT</pubDate><source url="https://news.example.com">Example News</source></item>
<item><title>Duplicate</title><link>https://news.example.com/a</link></item>
<item><title>Mail link</title><link>mailto:desk@example.com</link></item>
<item><title>Guid only</title><guid>https://other.example.org/b</guid></item>
<item><title>Third</title><link>https://third.example.net/c</link></item>
</channel></rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Atom</title>
<entry><title>First</title><link rel="alternate" href="https://blog.example.com/1"/><updated>2023-12-10T09:30:00Z</updated><author><name>Ann</name></author></entry>
<entry><title>Second</title><link href="https://blog.example.com/2"/></entry>
</feed>`

const rdfDoc = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel><title>RDF</title></channel>
<item><title>Old school</title><link>https://rdf.example.com/x</link><dc:date>2023-12-10</dc:date></item>
</rdf:RDF>`

func TestParse_RSS(t *testing.T) {
	items, err := Parse([]byte(rssDoc))

	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "Deal reached at climate summit & more", items[0].Title)
	assert.Equal(t, "Example News", items[0].Source)
	assert.Equal(t, 2023, items[0].Published.Year())
	assert.Equal(t, "https://other.example.org/b", items[3].Link)
}

func TestParse_Atom(t *testing.T) {
	items, err := Parse([]byte(atomDoc))

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://blog.example.com/1", items[0].Link)
	assert.Equal(t, "Ann", items[0].Source)
	assert.Equal(t, time.December, items[0].Published.Month())
	assert.Equal(t, "https://blog.example.com/2", items[1].Link)
}

func TestParse_RDF(t *testing.T) {
	items, err := Parse([]byte(rdfDoc))

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://rdf.example.com/x", items[0].Link)
	assert.Equal(t, 10, items[0].Published.Day())
}

func TestParse_Malformed(t *testing.T) {
	for _, doc := range []string{"", "<rss><channel><item>", "<html><body>nope</body></html>"} {
		items, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, ErrNotFeed, doc)
		assert.Empty(t, items)
	}
}

func TestTopicURLs(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer srv.Close()

	d := NewDiscoverer(srv.URL+"/rss/search?q=%s&hl=en", "scout-test", time.Second)
	urls, err := d.TopicURLs(context.Background(), "climate summit 2023", 3)

	require.NoError(t, err)
	assert.Equal(t, "climate summit 2023", gotQuery)
	assert.Equal(t, "scout-test", gotUA)
	assert.Equal(t, []string{
		"https://news.example.com/a",
		"https://other.example.org/b",
		"https://third.example.net/c",
	}, urls)
}

func TestTopicURLs_MalformedFeedIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a feed"))
	}))
	defer srv.Close()

	urls, err := NewDiscoverer(srv.URL+"?q=%s", "", time.Second).TopicURLs(context.Background(), "x", 5)

	require.NoError(t, err)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestTopicURLs_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	d := NewDiscoverer(srv.URL+"?q=%s", "", time.Second)

	_, err := d.TopicURLs(context.Background(), "x", 5)
	assert.ErrorContains(t, err, "status 503")

	_, err = d.TopicURLs(context.Background(), "   ", 5)
	assert.Error(t, err)
}
