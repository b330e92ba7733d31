package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

// Snapshot directory layout.
const (
	SnapshotDatabases = "databases"
	SnapshotPages     = "pages"
	SnapshotBlocks    = "blocks"
)

// Snapshot is a Source backed by recorded API responses on disk:
//
//	databases/<id>.json  query response ({"results": [...]}) holding every row
//	pages/<id>.json      optional single page; falls back to database rows
//	blocks/<id>.json     children list of a page or block
//
// Filters, sorts and pagination are applied locally so it behaves like the
// live service for the queries folio issues.
type Snapshot struct {
	root string // absolute path to the snapshot directory
}

var _ Source = (*Snapshot)(nil)

// NewSnapshot creates a Snapshot rooted at dir. The directory must exist.
func NewSnapshot(dir string) (*Snapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("notion: resolve snapshot root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("notion: stat snapshot root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notion: snapshot root is not a directory: %s", abs)
	}
	return &Snapshot{root: abs}, nil
}

// Root returns the absolute snapshot directory.
func (s *Snapshot) Root() string { return s.root }

// safePath resolves kind/id.json under the root and rejects identifiers that
// would escape it.
func (s *Snapshot) safePath(kind, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("notion: invalid id %q: %w", id, apperr.ErrInvalidInput)
	}
	abs := filepath.Join(s.root, kind, id+".json")
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("notion: path escapes snapshot root: %s", id)
	}
	return abs, nil
}

// readJSON loads kind/id.json, trying the id as given and in compact form.
func (s *Snapshot) readJSON(kind, id string, out any) error {
	var lastErr error
	for _, candidate := range []string{id, CompactID(id)} {
		p, err := s.safePath(kind, candidate)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			lastErr = fmt.Errorf("notion: %s/%s: %w", kind, id, apperr.ErrNotFound)
			continue
		}
		if err != nil {
			return fmt.Errorf("notion: read %s: %w", p, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("notion: decode %s: %w", p, err)
		}
		return nil
	}
	return lastErr
}

// QueryDatabase filters, sorts and paginates the recorded rows.
func (s *Snapshot) QueryDatabase(_ context.Context, databaseID string, q Query) (*PageList, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("notion: query database: %w", apperr.ErrNotConfigured)
	}
	var all PageList
	if err := s.readJSON(SnapshotDatabases, databaseID, &all); err != nil {
		return nil, err
	}

	rows := make([]Page, 0, len(all.Results))
	for i := range all.Results {
		if all.Results[i].Archived {
			continue
		}
		if q.Filter != nil && !q.Filter.Match(&all.Results[i]) {
			continue
		}
		rows = append(rows, all.Results[i])
	}
	if len(q.Sorts) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return Less(q.Sorts, &rows[i], &rows[j])
		})
	}

	start, end, next := window(len(rows), q.StartCursor, q.PageSize)
	return &PageList{Results: rows[start:end], NextCursor: next, HasMore: next != ""}, nil
}

// RetrievePage returns pages/<id>.json or, failing that, the matching row of
// any recorded database.
func (s *Snapshot) RetrievePage(_ context.Context, pageID string) (*Page, error) {
	var p Page
	err := s.readJSON(SnapshotPages, pageID, &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	entries, readErr := os.ReadDir(filepath.Join(s.root, SnapshotDatabases))
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("notion: list databases: %w", readErr)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var list PageList
		if err := s.readJSON(SnapshotDatabases, strings.TrimSuffix(e.Name(), ".json"), &list); err != nil {
			continue
		}
		for i := range list.Results {
			if SameID(list.Results[i].ID, pageID) {
				return &list.Results[i], nil
			}
		}
	}
	return nil, fmt.Errorf("notion: page %s: %w", pageID, apperr.ErrNotFound)
}

// ListBlockChildren returns up to MaxPageSize recorded children from cursor.
func (s *Snapshot) ListBlockChildren(_ context.Context, blockID, cursor string) (*BlockList, error) {
	var all BlockList
	if err := s.readJSON(SnapshotBlocks, blockID, &all); err != nil {
		return nil, err
	}
	start, end, next := window(len(all.Results), cursor, MaxPageSize)
	return &BlockList{Results: all.Results[start:end], NextCursor: next, HasMore: next != ""}, nil
}

// window computes one page of n items. Cursors are decimal offsets.
func window(n int, cursor string, size int) (start, end int, next string) {
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	if cursor != "" {
		if off, err := strconv.Atoi(cursor); err == nil && off >= 0 {
			start = off
		}
	}
	if start > n {
		start = n
	}
	end = start + size
	if end >= n {
		return start, n, ""
	}
	return start, end, strconv.Itoa(end)
}
