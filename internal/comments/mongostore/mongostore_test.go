package mongostore

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/comments"
)

// testStore connects to FOLIO_TEST_MONGO_URI and uses a per-test database
// that is dropped on cleanup.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("FOLIO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FOLIO_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	name := "folio_test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Connect(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.comments.Database().Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, comments.NewComment{PostSlug: "p", AuthorName: "A", AuthorEmail: "a@x.io", Content: "hi"})
	require.NoError(t, err)

	listed, err := s.ListApproved(ctx, "p")
	require.NoError(t, err)
	require.Empty(t, listed)

	require.NoError(t, s.Approve(ctx, id))
	listed, err = s.ListApproved(ctx, "p")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "mongo", listed[0].SystemType)

	liked, n, err := s.ToggleLike(ctx, id, "1.1.1.1")
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, n)
	liked, n, err = s.ToggleLike(ctx, id, "1.1.1.1")
	require.NoError(t, err)
	require.False(t, liked)
	require.Equal(t, 0, n)

	require.NoError(t, s.Report(ctx, id, "1.1.1.1", "spam"))
	require.NoError(t, s.Report(ctx, id, "1.1.1.1", "spam"))

	require.NoError(t, s.SoftDelete(ctx, id))
	listed, _ = s.ListApproved(ctx, "p")
	require.Empty(t, listed)
}

func TestStore_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "missing")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
	require.ErrorIs(t, s.Approve(context.Background(), "missing"), apperr.ErrNotFound)
}
