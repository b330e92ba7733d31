package notion

import (
	"encoding/json"
	"fmt"
)

// BlockType is the declared kind of a content block.
type BlockType string

const (
	BlockParagraph  BlockType = "paragraph"
	BlockHeading1   BlockType = "heading_1"
	BlockHeading2   BlockType = "heading_2"
	BlockHeading3   BlockType = "heading_3"
	BlockBulleted   BlockType = "bulleted_list_item"
	BlockNumbered   BlockType = "numbered_list_item"
	BlockQuote      BlockType = "quote"
	BlockCode       BlockType = "code"
	BlockImage      BlockType = "image"
	BlockCallout    BlockType = "callout"
	BlockToggle     BlockType = "toggle"
	BlockColumnList BlockType = "column_list"
	BlockColumn     BlockType = "column"
	BlockDivider    BlockType = "divider"
)

// Block is one node of a page's content tree. Children is nil until the
// subtree has been fetched; an empty non-nil slice means "fetched, no children".
type Block struct {
	ID          string
	Type        BlockType
	HasChildren bool
	Children    []Block
	Content     BlockContent
}

// BlockContent is a closed union over the kind-specific block payloads.
type BlockContent interface {
	blockContent()
}

type (
	Paragraph struct{ Text []RichText }
	Heading   struct {
		Level      int
		Text       []RichText
		Toggleable bool
	}
	Quote struct{ Text []RichText }
	Code  struct {
		Text     []RichText
		Language string
		Caption  []RichText
	}
	Image struct {
		Source  File
		Caption []RichText
	}
	Callout struct {
		Text []RichText
		Icon Icon
	}
	Toggle   struct{ Text []RichText }
	ListItem struct {
		Numbered bool
		Text     []RichText
	}
	ColumnList  struct{}
	Column      struct{}
	Divider     struct{}
	Unsupported struct{ Type BlockType }
)

func (Paragraph) blockContent()   {}
func (Heading) blockContent()     {}
func (Quote) blockContent()       {}
func (Code) blockContent()        {}
func (Image) blockContent()       {}
func (Callout) blockContent()     {}
func (Toggle) blockContent()      {}
func (ListItem) blockContent()    {}
func (ColumnList) blockContent()  {}
func (Column) blockContent()      {}
func (Divider) blockContent()     {}
func (Unsupported) blockContent() {}

// Icon is a callout or page icon: an emoji or an image URL.
type Icon struct {
	Emoji string
	URL   string
}

// UnmarshalJSON handles {"type":"emoji","emoji":".."} and the file shapes.
func (i *Icon) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "emoji" {
		i.Emoji = raw.Emoji
		return nil
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	i.URL = f.URL
	return nil
}

// blockPayload is the superset of fields found under a block's type key.
type blockPayload struct {
	RichText     []RichText `json:"rich_text"`
	Language     string     `json:"language"`
	Caption      []RichText `json:"caption"`
	Icon         *Icon      `json:"icon"`
	IsToggleable bool       `json:"is_toggleable"`
	Children     []Block    `json:"children"`
}

// UnmarshalJSON decodes the common header and the payload keyed by type.
// Payloads may embed a "children" array, in which case the subtree counts as
// already materialized.
func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		ID          string    `json:"id"`
		Type        BlockType `json:"type"`
		HasChildren bool      `json:"has_children"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("notion: decode block: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("notion: decode block %s: %w", head.ID, err)
	}

	b.ID = head.ID
	b.Type = head.Type
	b.HasChildren = head.HasChildren
	b.Children = nil

	raw := fields[string(head.Type)]
	var p blockPayload
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &p); err != nil {
			b.Content = Unsupported{Type: head.Type}
			return nil
		}
	}
	if p.Children != nil {
		b.Children = p.Children
		b.HasChildren = len(p.Children) > 0
	}

	switch head.Type {
	case BlockParagraph:
		b.Content = Paragraph{Text: p.RichText}
	case BlockHeading1, BlockHeading2, BlockHeading3:
		level := int(head.Type[len(head.Type)-1] - '0')
		b.Content = Heading{Level: level, Text: p.RichText, Toggleable: p.IsToggleable}
	case BlockQuote:
		b.Content = Quote{Text: p.RichText}
	case BlockCode:
		b.Content = Code{Text: p.RichText, Language: p.Language, Caption: p.Caption}
	case BlockImage:
		var f File
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &f)
		}
		b.Content = Image{Source: f, Caption: p.Caption}
	case BlockCallout:
		c := Callout{Text: p.RichText}
		if p.Icon != nil {
			c.Icon = *p.Icon
		}
		b.Content = c
	case BlockToggle:
		b.Content = Toggle{Text: p.RichText}
	case BlockBulleted:
		b.Content = ListItem{Text: p.RichText}
	case BlockNumbered:
		b.Content = ListItem{Numbered: true, Text: p.RichText}
	case BlockColumnList:
		b.Content = ColumnList{}
	case BlockColumn:
		b.Content = Column{}
	case BlockDivider:
		b.Content = Divider{}
	default:
		b.Content = Unsupported{Type: head.Type}
	}
	return nil
}

// WithChildren returns a copy of b carrying children.
func (b Block) WithChildren(children []Block) Block {
	b.Children = children
	return b
}

// BlockList is one page of a block's direct children.
type BlockList struct {
	Results    []Block `json:"results"`
	NextCursor string  `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}
