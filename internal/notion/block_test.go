package notion

import (
	"encoding/json"
	"testing"
)

const blocksJSON = `{"object":"list","next_cursor":null,"has_more":false,"results":[
 {"object":"block","id":"p1","type":"paragraph","has_children":false,
  "paragraph":{"rich_text":[{"plain_text":"Hi","annotations":{"italic":true}}],"color":"default"}},
 {"object":"block","id":"h2","type":"heading_2","has_children":false,
  "heading_2":{"rich_text":[{"plain_text":"Title"}],"is_toggleable":false}},
 {"object":"block","id":"c1","type":"code","has_children":false,
  "code":{"rich_text":[{"plain_text":"fmt.Println()"}],"language":"go","caption":[]}},
 {"object":"block","id":"i1","type":"image","has_children":false,
  "image":{"type":"external","external":{"url":"https://images.unsplash.com/x.jpg"},"caption":[{"plain_text":"cap"}]}},
 {"object":"block","id":"co","type":"callout","has_children":true,
  "callout":{"rich_text":[{"plain_text":"Note"}],"icon":{"type":"emoji","emoji":"💡"}}},
 {"object":"block","id":"t1","type":"toggle","has_children":true,
  "toggle":{"rich_text":[{"plain_text":"More"}],
   "children":[{"object":"block","id":"t1c","type":"paragraph","has_children":false,"paragraph":{"rich_text":[]}}]}},
 {"object":"block","id":"n1","type":"numbered_list_item","has_children":false,"numbered_list_item":{"rich_text":[{"plain_text":"one"}]}},
 {"object":"block","id":"b1","type":"bulleted_list_item","has_children":false,"bulleted_list_item":{"rich_text":[{"plain_text":"dot"}]}},
 {"object":"block","id":"d1","type":"divider","has_children":false,"divider":{}},
 {"object":"block","id":"u1","type":"synced_block","has_children":true,"synced_block":{"synced_from":null}}
]}`

func TestBlockListDecode(t *testing.T) {
	var list BlockList
	if err := json.Unmarshal([]byte(blocksJSON), &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(list.Results) != 10 || list.HasMore || list.NextCursor != "" {
		t.Fatalf("list = %d results, has_more=%v, cursor=%q", len(list.Results), list.HasMore, list.NextCursor)
	}
	r := list.Results

	if p, ok := r[0].Content.(Paragraph); !ok || PlainText(p.Text) != "Hi" || !p.Text[0].Annotations.Italic {
		t.Errorf("paragraph = %#v", r[0].Content)
	}
	if h, ok := r[1].Content.(Heading); !ok || h.Level != 2 || PlainText(h.Text) != "Title" {
		t.Errorf("heading = %#v", r[1].Content)
	}
	if c, ok := r[2].Content.(Code); !ok || c.Language != "go" {
		t.Errorf("code = %#v", r[2].Content)
	}
	if img, ok := r[3].Content.(Image); !ok || img.Source.URL != "https://images.unsplash.com/x.jpg" || PlainText(img.Caption) != "cap" {
		t.Errorf("image = %#v", r[3].Content)
	}
	if co, ok := r[4].Content.(Callout); !ok || co.Icon.Emoji != "💡" || !r[4].HasChildren || r[4].Children != nil {
		t.Errorf("callout = %#v children=%v", r[4].Content, r[4].Children)
	}
	if len(r[5].Children) != 1 || r[5].Children[0].ID != "t1c" {
		t.Errorf("embedded children not materialized: %#v", r[5].Children)
	}
	if li, ok := r[6].Content.(ListItem); !ok || !li.Numbered {
		t.Errorf("numbered = %#v", r[6].Content)
	}
	if li, ok := r[7].Content.(ListItem); !ok || li.Numbered {
		t.Errorf("bulleted = %#v", r[7].Content)
	}
	if _, ok := r[8].Content.(Divider); !ok {
		t.Errorf("divider = %#v", r[8].Content)
	}
	if u, ok := r[9].Content.(Unsupported); !ok || u.Type != "synced_block" {
		t.Errorf("unsupported = %#v", r[9].Content)
	}
}

func TestWithChildrenCopies(t *testing.T) {
	orig := Block{ID: "a", HasChildren: true}
	withKids := orig.WithChildren([]Block{{ID: "b"}})
	if orig.Children != nil {
		t.Error("WithChildren mutated the receiver")
	}
	if len(withKids.Children) != 1 {
		t.Error("children not attached")
	}
}
