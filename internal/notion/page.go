package notion

import (
	"encoding/json"
	"strings"
	"time"
)

// PropertyKind names the type of a database property.
type PropertyKind string

// Property kinds folio understands. Anything else decodes as UnknownProperty.
const (
	KindTitle          PropertyKind = "title"
	KindRichText       PropertyKind = "rich_text"
	KindMultiSelect    PropertyKind = "multi_select"
	KindSelect         PropertyKind = "select"
	KindFiles          PropertyKind = "files"
	KindURL            PropertyKind = "url"
	KindCheckbox       PropertyKind = "checkbox"
	KindDate           PropertyKind = "date"
	KindNumber         PropertyKind = "number"
	KindCreatedTime    PropertyKind = "created_time"
	KindLastEditedTime PropertyKind = "last_edited_time"
)

// Property is a closed union over the supported property kinds.
type Property interface {
	Kind() PropertyKind
}

type (
	TitleProperty       struct{ Text []RichText }
	RichTextProperty    struct{ Text []RichText }
	MultiSelectProperty struct{ Options []SelectOption }
	SelectProperty      struct{ Option *SelectOption }
	FilesProperty       struct{ Files []File }
	URLProperty         struct{ URL string }
	CheckboxProperty    struct{ Checked bool }
	NumberProperty      struct{ Value *float64 }
	// DateProperty holds the raw ISO-8601 start/end strings; Start is empty
	// when the date is unset.
	DateProperty struct {
		Start string
		End   string
	}
	TimestampProperty struct {
		Type PropertyKind
		Time time.Time
	}
	UnknownProperty struct{ Type PropertyKind }
)

func (TitleProperty) Kind() PropertyKind       { return KindTitle }
func (RichTextProperty) Kind() PropertyKind    { return KindRichText }
func (MultiSelectProperty) Kind() PropertyKind { return KindMultiSelect }
func (SelectProperty) Kind() PropertyKind      { return KindSelect }
func (FilesProperty) Kind() PropertyKind       { return KindFiles }
func (URLProperty) Kind() PropertyKind         { return KindURL }
func (CheckboxProperty) Kind() PropertyKind    { return KindCheckbox }
func (NumberProperty) Kind() PropertyKind      { return KindNumber }
func (DateProperty) Kind() PropertyKind        { return KindDate }
func (p TimestampProperty) Kind() PropertyKind { return p.Type }
func (p UnknownProperty) Kind() PropertyKind   { return p.Type }

// SelectOption is one select or multi-select choice.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Annotations are the inline styles of a rich text span.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color,omitempty"`
}

// RichText is one styled span of text.
type RichText struct {
	PlainText   string      `json:"plain_text"`
	Href        string      `json:"href,omitempty"`
	Annotations Annotations `json:"annotations"`
}

// PlainText concatenates the plain text of all spans.
func PlainText(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.PlainText)
	}
	return b.String()
}

// File origins.
const (
	OriginHosted   = "file"
	OriginExternal = "external"
)

// File is an attachment hosted by the content service or linked externally.
type File struct {
	Name   string
	Origin string
	URL    string
}

// UnmarshalJSON accepts both {"type":"file","file":{"url":..}} and
// {"type":"external","external":{"url":..}}.
func (f *File) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		File     *struct {
			URL string `json:"url"`
		} `json:"file"`
		External *struct {
			URL string `json:"url"`
		} `json:"external"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = raw.Name
	f.Origin = raw.Type
	switch {
	case raw.Type == OriginExternal && raw.External != nil:
		f.URL = raw.External.URL
	case raw.File != nil:
		f.URL = raw.File.URL
		if f.Origin == "" {
			f.Origin = OriginHosted
		}
	case raw.External != nil:
		f.URL = raw.External.URL
		f.Origin = OriginExternal
	}
	return nil
}

// Properties maps property names to typed values.
type Properties map[string]Property

// UnmarshalJSON decodes each property by its declared type. A property whose
// payload does not match its declared type becomes UnknownProperty rather than
// failing the whole record.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for name, msg := range raw {
		out[name] = decodeProperty(msg)
	}
	*p = out
	return nil
}

func decodeProperty(msg json.RawMessage) Property {
	var head struct {
		Type PropertyKind `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return UnknownProperty{}
	}

	var (
		prop Property
		err  error
	)
	switch head.Type {
	case KindTitle:
		var v struct {
			Title []RichText `json:"title"`
		}
		err = json.Unmarshal(msg, &v)
		prop = TitleProperty{Text: v.Title}
	case KindRichText:
		var v struct {
			RichText []RichText `json:"rich_text"`
		}
		err = json.Unmarshal(msg, &v)
		prop = RichTextProperty{Text: v.RichText}
	case KindMultiSelect:
		var v struct {
			MultiSelect []SelectOption `json:"multi_select"`
		}
		err = json.Unmarshal(msg, &v)
		prop = MultiSelectProperty{Options: v.MultiSelect}
	case KindSelect:
		var v struct {
			Select *SelectOption `json:"select"`
		}
		err = json.Unmarshal(msg, &v)
		prop = SelectProperty{Option: v.Select}
	case KindFiles:
		var v struct {
			Files []File `json:"files"`
		}
		err = json.Unmarshal(msg, &v)
		prop = FilesProperty{Files: v.Files}
	case KindURL:
		var v struct {
			URL *string `json:"url"`
		}
		err = json.Unmarshal(msg, &v)
		u := URLProperty{}
		if v.URL != nil {
			u.URL = *v.URL
		}
		prop = u
	case KindCheckbox:
		var v struct {
			Checkbox bool `json:"checkbox"`
		}
		err = json.Unmarshal(msg, &v)
		prop = CheckboxProperty{Checked: v.Checkbox}
	case KindNumber:
		var v struct {
			Number *float64 `json:"number"`
		}
		err = json.Unmarshal(msg, &v)
		prop = NumberProperty{Value: v.Number}
	case KindDate:
		var v struct {
			Date *struct {
				Start string  `json:"start"`
				End   *string `json:"end"`
			} `json:"date"`
		}
		err = json.Unmarshal(msg, &v)
		d := DateProperty{}
		if v.Date != nil {
			d.Start = v.Date.Start
			if v.Date.End != nil {
				d.End = *v.Date.End
			}
		}
		prop = d
	case KindCreatedTime, KindLastEditedTime:
		var v map[string]json.RawMessage
		err = json.Unmarshal(msg, &v)
		ts := TimestampProperty{Type: head.Type}
		if err == nil {
			err = json.Unmarshal(v[string(head.Type)], &ts.Time)
		}
		prop = ts
	default:
		return UnknownProperty{Type: head.Type}
	}
	if err != nil {
		return UnknownProperty{Type: head.Type}
	}
	return prop
}

// Parent identifies where a page lives.
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// Page is one database record.
type Page struct {
	ID             string     `json:"id"`
	CreatedTime    time.Time  `json:"created_time"`
	LastEditedTime time.Time  `json:"last_edited_time"`
	Archived       bool       `json:"archived"`
	URL            string     `json:"url"`
	Parent         Parent     `json:"parent"`
	Cover          *File      `json:"cover"`
	Properties     Properties `json:"properties"`
}

// PageList is one page of database query results.
type PageList struct {
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// SameID compares identifiers ignoring hyphens and case, since the service
// accepts both the dashed and compact forms.
func SameID(a, b string) bool {
	return CompactID(a) == CompactID(b)
}

// CompactID strips hyphens and lowercases an identifier.
func CompactID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
