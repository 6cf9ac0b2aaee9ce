// Package sqlite implements the storage backends on a local SQLite file,
// for standalone deployments where one relay instance owns its data directory.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

// OpenDB opens (and creates if needed) the SQLite database file.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids SQLITE_BUSY
	// churn under concurrent webhook handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// NewStores creates all stores backed by a SQLite file.
func NewStores(path string) (*store.Stores, *sql.DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, nil, err
	}
	return &store.Stores{
		Entries:  NewEntryStore(db),
		Messages: NewMessageStore(db),
		AIState:  NewAIStateStore(db),
	}, db, nil
}
