// Package feed parses RSS, Atom and RDF feeds and uses a news search feed
// to discover candidate URLs for a topic.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"html"
	"strings"
	"time"
)

// Item is one feed entry.
type Item struct {
	Title     string
	Link      string
	Source    string
	Published time.Time
}

// ErrNotFeed is returned for documents that are not RSS, Atom or RDF.
var ErrNotFeed = errors.New("feed: not valid RSS or Atom")

type rssRoot struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Source  string `xml:"source"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Link      []atomLink `xml:"link"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

type rdfRoot struct {
	XMLName xml.Name `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
	Items   []struct {
		Title string `xml:"title"`
		Link  string `xml:"link"`
		Date  string `xml:"http://purl.org/dc/elements/1.1/ date"`
	} `xml:"item"`
}

// Parse reads an RSS 2.0, Atom or RSS 1.0 (RDF) document.
func Parse(data []byte) ([]Item, error) {
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})

	var rss rssRoot
	if err := xml.Unmarshal(data, &rss); err == nil {
		items := make([]Item, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			link := strings.TrimSpace(it.Link)
			if link == "" && strings.HasPrefix(it.GUID, "http") {
				link = strings.TrimSpace(it.GUID)
			}
			items = append(items, Item{
				Title:     cleanText(it.Title),
				Link:      link,
				Source:    cleanText(it.Source),
				Published: parseDate(it.PubDate),
			})
		}
		return items, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(data, &atom); err == nil {
		items := make([]Item, 0, len(atom.Entries))
		for _, e := range atom.Entries {
			var link string
			for _, l := range e.Link {
				if l.Rel == "alternate" || l.Rel == "" {
					link = strings.TrimSpace(l.Href)
					break
				}
			}
			items = append(items, Item{
				Title:     cleanText(e.Title),
				Link:      link,
				Source:    cleanText(e.Author.Name),
				Published: parseDate(firstNonEmpty(e.Published, e.Updated)),
			})
		}
		return items, nil
	}

	var rdf rdfRoot
	if err := xml.Unmarshal(data, &rdf); err == nil {
		items := make([]Item, 0, len(rdf.Items))
		for _, it := range rdf.Items {
			items = append(items, Item{
				Title:     cleanText(it.Title),
				Link:      strings.TrimSpace(it.Link),
				Published: parseDate(it.Date),
			})
		}
		return items, nil
	}

	return nil, ErrNotFeed
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// parseDate returns the zero time for unknown formats.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
