// Package testutil provides shared test helpers: an in-memory content source,
// record builders, snapshot directories and comment databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/folio/internal/comments/sqlitestore"
)

// CommentDB creates a temporary SQLite comments database that is
// automatically cleaned up.
func CommentDB(t *testing.T) *sqlitestore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlitestore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
