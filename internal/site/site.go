// Package site builds sitemap.xml and robots.txt.
package site

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/starford/folio/internal/models"
)

// Lister enumerates published content. Implementations degrade to empty
// results on failure.
type Lister interface {
	ListPortfolios(ctx context.Context) []models.Portfolio
	ListBlogPosts(ctx context.Context) []models.BlogPost
}

// Change frequencies.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// Entry is one sitemap URL.
type Entry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

type staticRoute struct {
	path     string
	freq     string
	priority float64
}

var staticRoutes = []staticRoute{
	{"/", Weekly, 1.0},
	{"/about", Monthly, 0.8},
	{"/portfolio", Weekly, 0.9},
	{"/blog", Daily, 0.9},
	{"/contact", Monthly, 0.5},
}

// Sitemap lists the static routes followed by every published portfolio item
// and post. A nil lister yields static routes only.
func Sitemap(ctx context.Context, baseURL string, l Lister, now time.Time) []Entry {
	base := strings.TrimRight(baseURL, "/")
	entries := make([]Entry, 0, len(staticRoutes))
	for _, r := range staticRoutes {
		entries = append(entries, Entry{Loc: base + r.path, LastMod: now, ChangeFreq: r.freq, Priority: r.priority})
	}
	if l == nil {
		return entries
	}
	for _, p := range l.ListPortfolios(ctx) {
		entries = append(entries, Entry{
			Loc:        base + "/portfolio/" + url.PathEscape(p.ID),
			LastMod:    p.CreatedAt,
			ChangeFreq: Monthly,
			Priority:   0.7,
		})
	}
	for _, p := range l.ListBlogPosts(ctx) {
		lastMod := p.UpdatedAt
		if lastMod.IsZero() {
			lastMod = p.PublishedAt
		}
		entries = append(entries, Entry{
			Loc:        base + "/blog/" + url.PathEscape(p.Slug),
			LastMod:    lastMod,
			ChangeFreq: Weekly,
			Priority:   0.8,
		})
	}
	return entries
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// WriteSitemap encodes entries in the sitemaps.org format.
func WriteSitemap(w io.Writer, entries []Entry) error {
	set := xmlURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: make([]xmlURL, 0, len(entries))}
	for _, e := range entries {
		u := xmlURL{Loc: e.Loc, ChangeFreq: e.ChangeFreq, Priority: fmt.Sprintf("%.1f", e.Priority)}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("site: encode sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Robots returns robots.txt allowing the site and excluding the API.
func Robots(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	return "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + base + "/sitemap.xml\n"
}
