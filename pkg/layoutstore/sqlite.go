package layoutstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS layouts (
	root       TEXT PRIMARY KEY,
	positions  TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps layouts in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create layout table")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, root string) (graph.Layout, error) {
	var (
		raw     string
		updated time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT positions, updated_at FROM layouts WHERE root = ?`, root,
	).Scan(&raw, &updated)
	if err == sql.ErrNoRows {
		return graph.Layout{}, notFound(root)
	}
	if err != nil {
		return graph.Layout{}, err
	}
	l := graph.Layout{Root: root, UpdatedAt: updated}
	if err := json.Unmarshal([]byte(raw), &l.Positions); err != nil {
		return graph.Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout %s", root)
	}
	return l, nil
}

func (s *SQLiteStore) Save(ctx context.Context, l graph.Layout) error {
	if err := stamp(&l); err != nil {
		return err
	}
	if l.Positions == nil {
		l.Positions = map[string]geometry.Point{}
	}
	raw, err := json.Marshal(l.Positions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO layouts (root, positions, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(root) DO UPDATE SET positions = excluded.positions, updated_at = excluded.updated_at`,
		l.Root, string(raw), l.UpdatedAt)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, root string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE root = ?`, root)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
