package feeds

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/feed"
)

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	relativeExpr   = regexp.MustCompile(`(?i)^(\d+)\s+(minute|hour|day)s?\s+ago$`)
)

// dateLayouts are tried in order when parsing absolute publication dates.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
}

// NormalizeEntry converts a raw feed entry into a canonical post: HTML
// stripped and unescaped, whitespace collapsed, best-available image kept.
func NormalizeEntry(source string, entry feed.Entry) domain.Post {
	description := StripHTML(entry.Description)

	imageURL := entry.ImageURL
	if imageURL == "" {
		imageURL = firstImageURL(entry.Description)
	}

	publishedAt := entry.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	return domain.Post{
		ExternalID:  strings.TrimSpace(entry.ExternalID),
		Title:       StripHTML(entry.Title),
		Description: description,
		Author:      collapseSpace(html.UnescapeString(entry.Author), source),
		ImageURL:    imageURL,
		PublishedAt: publishedAt,
	}
}

// StripHTML removes tags, unescapes entities, and collapses whitespace.
func StripHTML(raw string) string {
	text := raw
	if strings.ContainsAny(raw, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
		text = html.UnescapeString(text)
	}
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

// ResolveDate parses absolute layouts and common relative phrases
// ("today", "yesterday", "3 hours ago") against the reference time.
func ResolveDate(text string, now time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return now
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.UTC()
		}
	}

	switch strings.ToLower(text) {
	case "today":
		return now.Truncate(24 * time.Hour)
	case "yesterday":
		return now.Truncate(24 * time.Hour).Add(-24 * time.Hour)
	}

	if m := relativeExpr.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour)
		case "day":
			return now.Add(-time.Duration(n) * 24 * time.Hour)
		}
	}

	return now
}

func firstImageURL(rawHTML string) string {
	if !strings.Contains(rawHTML, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

func collapseSpace(text, fallback string) string {
	text = strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
	if text == "" {
		return fallback
	}
	return text
}
