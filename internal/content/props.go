// Package content maps Notion database records onto folio's domain types and
// exposes the cached query functions the site is built from.
package content

import (
	"strings"
	"time"

	"github.com/starford/folio/internal/notion"
)

// Prop returns the first property present under any of names, or nil. Aliases
// let a renamed column keep resolving; a removed one yields nil and therefore
// the extractor default.
func Prop(page *notion.Page, names ...string) notion.Property {
	if page == nil {
		return nil
	}
	for _, name := range names {
		if p, ok := page.Properties[name]; ok {
			return p
		}
	}
	return nil
}

// Text concatenates title or rich text spans. Default "".
func Text(p notion.Property) string {
	switch v := p.(type) {
	case notion.TitleProperty:
		return strings.TrimSpace(notion.PlainText(v.Text))
	case notion.RichTextProperty:
		return strings.TrimSpace(notion.PlainText(v.Text))
	}
	return ""
}

// Labels returns multi-select option names in source order. A single select
// yields one label. Default is an empty, non-nil slice.
func Labels(p notion.Property) []string {
	out := []string{}
	switch v := p.(type) {
	case notion.MultiSelectProperty:
		for _, o := range v.Options {
			if o.Name != "" {
				out = append(out, o.Name)
			}
		}
	case notion.SelectProperty:
		if v.Option != nil && v.Option.Name != "" {
			out = append(out, v.Option.Name)
		}
	}
	return out
}

// Label returns a select's option name, or the text of a rich text column.
func Label(p notion.Property) string {
	switch v := p.(type) {
	case notion.SelectProperty:
		if v.Option != nil {
			return v.Option.Name
		}
		return ""
	case notion.MultiSelectProperty:
		if len(v.Options) > 0 {
			return v.Options[0].Name
		}
		return ""
	}
	return Text(p)
}

// FileURL returns the first attachment's URL, hosted or external. Default "".
func FileURL(p notion.Property) string {
	switch v := p.(type) {
	case notion.FilesProperty:
		for _, f := range v.Files {
			if f.URL != "" {
				return f.URL
			}
		}
	case notion.URLProperty:
		return v.URL
	}
	return ""
}

// URL returns a url column's value. Default "".
func URL(p notion.Property) string {
	switch v := p.(type) {
	case notion.URLProperty:
		return strings.TrimSpace(v.URL)
	case notion.RichTextProperty:
		return strings.TrimSpace(notion.PlainText(v.Text))
	}
	return ""
}

// Checkbox returns a checkbox value. Default false.
func Checkbox(p notion.Property) bool {
	if v, ok := p.(notion.CheckboxProperty); ok {
		return v.Checked
	}
	return false
}

// Number returns a number column's value and whether it was set.
func Number(p notion.Property) (float64, bool) {
	if v, ok := p.(notion.NumberProperty); ok && v.Value != nil {
		return *v.Value, true
	}
	return 0, false
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000", "2006-01-02"}

// Date returns the start of a date column, or fallback when it is unset or
// unparseable. Timestamp columns are accepted too.
func Date(p notion.Property, fallback time.Time) time.Time {
	switch v := p.(type) {
	case notion.DateProperty:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.Start); err == nil {
				return t
			}
		}
	case notion.TimestampProperty:
		if !v.Time.IsZero() {
			return v.Time
		}
	}
	return fallback
}
