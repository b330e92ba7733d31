package notion

import (
	"strings"
)

// Query is the body of a database query request.
type Query struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// Filter is a property condition or a conjunction of filters.
type Filter struct {
	Property string             `json:"property,omitempty"`
	Checkbox *CheckboxCondition `json:"checkbox,omitempty"`
	RichText *TextCondition     `json:"rich_text,omitempty"`
	And      []Filter           `json:"and,omitempty"`
}

// CheckboxCondition matches a checkbox value.
type CheckboxCondition struct {
	Equals bool `json:"equals"`
}

// TextCondition matches a text value exactly.
type TextCondition struct {
	Equals string `json:"equals"`
}

// Sort directions.
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Sort orders results by a property or by a record timestamp.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// CheckboxEquals builds a checkbox equality filter.
func CheckboxEquals(property string, v bool) Filter {
	return Filter{Property: property, Checkbox: &CheckboxCondition{Equals: v}}
}

// RichTextEquals builds a text equality filter.
func RichTextEquals(property, v string) Filter {
	return Filter{Property: property, RichText: &TextCondition{Equals: v}}
}

// And combines filters.
func And(filters ...Filter) Filter {
	return Filter{And: filters}
}

// SortBy orders by a property.
func SortBy(property, direction string) Sort {
	return Sort{Property: property, Direction: direction}
}

// Match evaluates the filter against a page locally. A missing property never
// matches a property condition.
func (f Filter) Match(p *Page) bool {
	for _, sub := range f.And {
		if !sub.Match(p) {
			return false
		}
	}
	if f.Property == "" {
		return true
	}
	prop, ok := p.Properties[f.Property]
	if !ok {
		return false
	}
	if f.Checkbox != nil {
		cb, ok := prop.(CheckboxProperty)
		if !ok || cb.Checked != f.Checkbox.Equals {
			return false
		}
	}
	if f.RichText != nil {
		text, ok := propertyText(prop)
		if !ok || text != f.RichText.Equals {
			return false
		}
	}
	return true
}

func propertyText(prop Property) (string, bool) {
	switch v := prop.(type) {
	case TitleProperty:
		return PlainText(v.Text), true
	case RichTextProperty:
		return PlainText(v.Text), true
	case URLProperty:
		return v.URL, true
	case SelectProperty:
		if v.Option == nil {
			return "", true
		}
		return v.Option.Name, true
	}
	return "", false
}

// Less reports whether a sorts before b under the given sort keys.
func Less(sorts []Sort, a, b *Page) bool {
	for _, s := range sorts {
		c := compareKey(s, a, b)
		if c == 0 {
			continue
		}
		if s.Direction == Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareKey(s Sort, a, b *Page) int {
	switch s.Timestamp {
	case "created_time":
		return a.CreatedTime.Compare(b.CreatedTime)
	case "last_edited_time":
		return a.LastEditedTime.Compare(b.LastEditedTime)
	}
	return compareProperty(a.Properties[s.Property], b.Properties[s.Property])
}

// compareProperty orders values of the same kind; absent values sort first.
func compareProperty(a, b Property) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case CheckboxProperty:
		bv, _ := b.(CheckboxProperty)
		return boolRank(av.Checked) - boolRank(bv.Checked)
	case NumberProperty:
		bv, _ := b.(NumberProperty)
		return compareNumber(av.Value, bv.Value)
	case DateProperty:
		bv, _ := b.(DateProperty)
		return strings.Compare(av.Start, bv.Start)
	case TimestampProperty:
		bv, _ := b.(TimestampProperty)
		return av.Time.Compare(bv.Time)
	}
	at, _ := propertyText(a)
	bt, _ := propertyText(b)
	return strings.Compare(at, bt)
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func compareNumber(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
