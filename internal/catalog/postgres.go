package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"apogeecore/pkg/domain"
)

var _ Store = (*PostgresStore)(nil)

const (
	pgDriver = "pgx"
	// Default DSN keeps parity with OpenStore defaults while allowing overrides via env.
	pgDefaultDSN = "postgres://localhost/apogeecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresStore persists the catalog to Postgres while reusing the in-memory
// implementation for reads and validation.
type PostgresStore struct {
	*Memory
	db *sql.DB
	mu sync.Mutex
}

// NewPostgresStore opens a Postgres-backed catalog using the provided DSN
// (falls back to the default). It ensures the snapshot table exists and
// hydrates the in-memory catalog from any existing snapshot.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = pgDefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(pgDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	snapshot, err := loadPostgresSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := NewMemory()
	mem.ImportState(snapshot)
	return &PostgresStore{Memory: mem, db: db}, nil
}

func loadPostgresSnapshot(ctx context.Context, db *sql.DB) (Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "propellants":
			if err := json.Unmarshal(payload, &snapshot.Propellants); err != nil {
				return Snapshot{}, fmt.Errorf("decode propellants: %w", err)
			}
		case "designs":
			if err := json.Unmarshal(payload, &snapshot.Designs); err != nil {
				return Snapshot{}, fmt.Errorf("decode designs: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *PostgresStore) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
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
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (s *PostgresStore) PutPropellant(ctx context.Context, spec domain.PropellantSpec) error {
	if err := s.Memory.PutPropellant(ctx, spec); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *PostgresStore) PutDesign(ctx context.Context, spec domain.MotorSpec) error {
	if err := s.Memory.PutDesign(ctx, spec); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
