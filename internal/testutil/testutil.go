package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

// collectionSchema is the subset of the Anki collection schema the
// repository reads. Deck names and note fields use the \x1f separator like
// real collections.
const collectionSchema = `
CREATE TABLE decks (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE notes (
	id INTEGER PRIMARY KEY,
	mid INTEGER NOT NULL,
	flds TEXT NOT NULL
);
CREATE TABLE cards (
	id INTEGER PRIMARY KEY,
	nid INTEGER NOT NULL,
	did INTEGER NOT NULL,
	queue INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE revlog (
	id INTEGER PRIMARY KEY,
	cid INTEGER NOT NULL
);
CREATE TABLE fields (
	ntid INTEGER NOT NULL,
	ord INTEGER NOT NULL,
	name TEXT NOT NULL
);
`

// NewCollectionDB creates an in-memory Anki-shaped collection database.
func NewCollectionDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(collectionSchema)
	require.NoError(t, err, "failed to create collection schema")

	return db
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
