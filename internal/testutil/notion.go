package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/notion"
)

// Source is an in-memory notion.Source that counts calls.
type Source struct {
	mu        sync.Mutex
	databases map[string][]notion.Page
	blocks    map[string][]notion.Block
	calls     map[string]int
	failing   map[string]error

	// IgnoreFilter returns every record regardless of query filter and sorts,
	// like a service that silently dropped an unknown filter.
	IgnoreFilter bool
	// BlockPageSize limits children per ListBlockChildren call. Default 100.
	BlockPageSize int
	// Delay is applied to every call.
	Delay time.Duration
}

// NewSource returns an empty source.
func NewSource() *Source {
	return &Source{
		databases: make(map[string][]notion.Page),
		blocks:    make(map[string][]notion.Block),
		calls:     make(map[string]int),
		failing:   make(map[string]error),
	}
}

// AddPages appends records to a database, setting their parent.
func (s *Source) AddPages(databaseID string, pages ...notion.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pages {
		p.Parent = notion.Parent{Type: "database_id", DatabaseID: databaseID}
		s.databases[databaseID] = append(s.databases[databaseID], p)
	}
}

// SetChildren sets the direct children of a block or page.
func (s *Source) SetChildren(parentID string, children ...notion.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[parentID] = children
}

// Fail makes every call with the given id (database, page or block) fail.
func (s *Source) Fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = err
}

// Calls returns how many times op ("query", "page", "children") was called.
func (s *Source) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Source) enter(ctx context.Context, op, id string) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.failing[id]
}

func (s *Source) QueryDatabase(ctx context.Context, databaseID string, q notion.Query) (*notion.PageList, error) {
	if err := s.enter(ctx, "query", databaseID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	all := append([]notion.Page(nil), s.databases[databaseID]...)
	s.mu.Unlock()

	var matched []notion.Page
	for i := range all {
		if s.IgnoreFilter || q.Filter == nil || q.Filter.Match(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	if !s.IgnoreFilter && len(q.Sorts) > 0 {
		sort.SliceStable(matched, func(i, j int) bool { return notion.Less(q.Sorts, &matched[i], &matched[j]) })
	}
	start, end, next := page(len(matched), q.StartCursor, q.PageSize)
	return &notion.PageList{Results: matched[start:end], NextCursor: next, HasMore: next != ""}, nil
}

func (s *Source) RetrievePage(ctx context.Context, pageID string) (*notion.Page, error) {
	if err := s.enter(ctx, "page", pageID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pages := range s.databases {
		for i := range pages {
			if notion.SameID(pages[i].ID, pageID) {
				p := pages[i]
				return &p, nil
			}
		}
	}
	return nil, fmt.Errorf("page %s: %w", pageID, apperr.ErrNotFound)
}

func (s *Source) ListBlockChildren(ctx context.Context, blockID, cursor string) (*notion.BlockList, error) {
	if err := s.enter(ctx, "children", blockID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	children := s.blocks[blockID]
	s.mu.Unlock()
	size := s.BlockPageSize
	if size <= 0 {
		size = notion.MaxPageSize
	}
	start, end, next := page(len(children), cursor, size)
	out := append([]notion.Block(nil), children[start:end]...)
	return &notion.BlockList{Results: out, NextCursor: next, HasMore: next != ""}, nil
}

func page(n int, cursor string, size int) (start, end int, next string) {
	if size <= 0 || size > notion.MaxPageSize {
		size = notion.MaxPageSize
	}
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	start = min(max(start, 0), n)
	end = min(start+size, n)
	if end < n {
		next = strconv.Itoa(end)
	}
	return start, end, next
}

// PortfolioPage builds a portfolio record.
func PortfolioPage(id, title string, published, featured bool, order float64, tech ...string) notion.Page {
	opts := make([]notion.SelectOption, 0, len(tech))
	for _, t := range tech {
		opts = append(opts, notion.SelectOption{Name: t})
	}
	return notion.Page{
		ID:          id,
		CreatedTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Properties: notion.Properties{
			"Name":         notion.TitleProperty{Text: []notion.RichText{{PlainText: title}}},
			"Published":    notion.CheckboxProperty{Checked: published},
			"Featured":     notion.CheckboxProperty{Checked: featured},
			"Order":        notion.NumberProperty{Value: &order},
			"Technologies": notion.MultiSelectProperty{Options: opts},
		},
	}
}

// PostPage builds a blog record. An empty slug leaves the Slug column unset.
func PostPage(id, title, slug string, published bool, date string) notion.Page {
	props := notion.Properties{
		"Title":          notion.TitleProperty{Text: []notion.RichText{{PlainText: title}}},
		"Published":      notion.CheckboxProperty{Checked: published},
		"Published Date": notion.DateProperty{Start: date},
	}
	if slug != "" {
		props["Slug"] = notion.RichTextProperty{Text: []notion.RichText{{PlainText: slug}}}
	}
	return notion.Page{
		ID:             id,
		CreatedTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LastEditedTime: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Properties:     props,
	}
}

// Snapshot writes files (path relative to root → content) into a temp dir and
// returns its root.
func Snapshot(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
