package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsCurator/internal/feed"
)

// RSSFetcher pulls items from RSS 2.0 and Atom feeds. The envelope is
// decoded with encoding/xml: an HTML parser treats RSS <link> as a void
// element and loses the URL, so feed XML must be read as XML.
type RSSFetcher struct {
	client *http.Client
}

var _ feed.Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher wires an HTTP client; a default with timeout is used when nil.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSFetcher{client: client}
}

// Name identifies the strategy inside the registry.
func (f *RSSFetcher) Name() string {
	return "rss"
}

// feedDocument covers both feed shapes: RSS 2.0 nests items under
// channel, Atom keeps entries at the root.
type feedDocument struct {
	Channel struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
	Entries []feedItem `xml:"entry"`
}

type feedItem struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	Summary     string     `xml:"summary"`
	GUID        string     `xml:"guid"`
	ID          string     `xml:"id"`
	Links       []feedLink `xml:"link"`
	Author      string     `xml:"author"`
	Creator     string     `xml:"creator"`
	PubDate     string     `xml:"pubDate"`
	Published   string     `xml:"published"`
	Updated     string     `xml:"updated"`
	Enclosure   feedMedia  `xml:"enclosure"`
	Media       feedMedia  `xml:"content"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
	Text string `xml:",chardata"`
}

type feedMedia struct {
	URL string `xml:"url,attr"`
}

// Fetch downloads the feed document and extracts its items. Field contents
// are returned raw; normalization happens in the strategy source.
func (f *RSSFetcher) Fetch(ctx context.Context, req feed.Request) ([]feed.Entry, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("source %s has no url", req.SourceName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("source %s: build request: %w", req.SourceName, err)
	}
	httpReq.Header.Set("User-Agent", "NewsCurator/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("source %s: request feed: %w", req.SourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s: feed returned %s", req.SourceName, resp.Status)
	}

	var doc feedDocument
	decoder := xml.NewDecoder(resp.Body)
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("source %s: parse feed: %w", req.SourceName, err)
	}

	items := append(doc.Channel.Items, doc.Entries...)
	entries := make([]feed.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.toEntry())
	}

	return entries, nil
}

func (it feedItem) toEntry() feed.Entry {
	entry := feed.Entry{
		Title:       strings.TrimSpace(it.Title),
		Description: strings.TrimSpace(firstNonEmpty(it.Description, it.Summary)),
		Author:      strings.TrimSpace(firstNonEmpty(it.Author, it.Creator)),
	}

	entry.ExternalID = strings.TrimSpace(firstNonEmpty(it.GUID, it.ID, it.linkURL()))
	entry.ImageURL = firstNonEmpty(it.Enclosure.URL, it.Media.URL)

	dateText := strings.TrimSpace(firstNonEmpty(it.PubDate, it.Published, it.Updated))
	entry.PublishedAt = ResolveDate(dateText, time.Now().UTC())

	return entry
}

// linkURL prefers element text (RSS puts the URL there) and falls back to
// the href attribute (Atom).
func (it feedItem) linkURL() string {
	for _, link := range it.Links {
		if text := strings.TrimSpace(link.Text); text != "" {
			return text
		}
	}
	for _, link := range it.Links {
		if link.Href != "" {
			return link.Href
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
