package blocks

import "github.com/starford/folio/internal/notion"

// Node is a top-level render unit: a single block or a list of items.
type Node interface {
	node()
}

// BlockNode wraps one non-grouped block.
type BlockNode struct {
	Block notion.Block
}

// ListNode is a run of consecutive list items of one kind.
type ListNode struct {
	Ordered bool
	Items   []notion.Block
}

func (BlockNode) node() {}
func (ListNode) node()  {}

// Nodes lifts blocks into ungrouped nodes.
func Nodes(blocks []notion.Block) []Node {
	out := make([]Node, len(blocks))
	for i, b := range blocks {
		out[i] = BlockNode{Block: b}
	}
	return out
}

// Group coalesces consecutive numbered items into ordered lists and
// consecutive bulleted items into unordered lists. Item order is preserved and
// Group(Group(x)) equals Group(x).
func Group(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	var run *ListNode
	flush := func() {
		if run != nil {
			out = append(out, *run)
			run = nil
		}
	}
	extend := func(ordered bool, items ...notion.Block) {
		if run != nil && run.Ordered != ordered {
			flush()
		}
		if run == nil {
			run = &ListNode{Ordered: ordered}
		}
		run.Items = append(run.Items, items...)
	}

	for _, n := range nodes {
		switch v := n.(type) {
		case ListNode:
			extend(v.Ordered, v.Items...)
		case BlockNode:
			if item, ok := v.Block.Content.(notion.ListItem); ok {
				extend(item.Numbered, v.Block)
				continue
			}
			flush()
			out = append(out, v)
		}
	}
	flush()
	return out
}
