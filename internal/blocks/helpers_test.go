package blocks

import "github.com/starford/folio/internal/notion"

func txt(s string) []notion.RichText { return []notion.RichText{{PlainText: s}} }

func para(id, s string, children ...notion.Block) notion.Block {
	return notion.Block{ID: id, Type: notion.BlockParagraph, Content: notion.Paragraph{Text: txt(s)}, Children: kids(children)}
}

func bullet(id, s string, children ...notion.Block) notion.Block {
	return notion.Block{ID: id, Type: notion.BlockBulleted, Content: notion.ListItem{Text: txt(s)}, Children: kids(children)}
}

func numbered(id, s string) notion.Block {
	return notion.Block{ID: id, Type: notion.BlockNumbered, Content: notion.ListItem{Numbered: true, Text: txt(s)}}
}

func code(id, lang, s string) notion.Block {
	return notion.Block{ID: id, Type: notion.BlockCode, Content: notion.Code{Text: txt(s), Language: lang}}
}

// parent marks a block as having unfetched children.
func parent(b notion.Block) notion.Block {
	b.HasChildren = true
	b.Children = nil
	return b
}

func kids(children []notion.Block) []notion.Block {
	if len(children) == 0 {
		return nil
	}
	return children
}

func ids(blocks []notion.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}
