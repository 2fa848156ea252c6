package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"apogeecore/pkg/domain"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists the in-memory catalog to a single SQLite table as JSON
// blobs. It snapshots the full state after every successful mutation.
type SQLiteStore struct {
	*Memory
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (or creates) a snapshotting SQLite-backed catalog.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "apogeecore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &SQLiteStore{Memory: NewMemory(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var catalogBuckets = []string{"propellants", "designs"}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := Snapshot{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "propellants":
			if err := json.Unmarshal(payload, &snapshot.Propellants); err != nil {
				return fmt.Errorf("decode propellants: %w", err)
			}
		case "designs":
			if err := json.Unmarshal(payload, &snapshot.Designs); err != nil {
				return fmt.Errorf("decode designs: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *SQLiteStore) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range catalogBuckets {
		var data []byte
		switch bucket {
		case "propellants":
			data, err = json.Marshal(snapshot.Propellants)
		case "designs":
			data, err = json.Marshal(snapshot.Designs)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) PutPropellant(ctx context.Context, spec domain.PropellantSpec) error {
	if err := s.Memory.PutPropellant(ctx, spec); err != nil {
		return err
	}
	return s.persist()
}

func (s *SQLiteStore) PutDesign(ctx context.Context, spec domain.MotorSpec) error {
	if err := s.Memory.PutDesign(ctx, spec); err != nil {
		return err
	}
	return s.persist()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }
