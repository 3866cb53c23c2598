package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/schema"
)

// PostgresStore persists registry entries in a single table with a JSONB
// document column. The active swap runs inside one transaction, so the
// single-active invariant holds for concurrent readers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchemaDDL = `
CREATE TABLE IF NOT EXISTS schema_entries (
	id                   TEXT PRIMARY KEY,
	entity               TEXT NOT NULL,
	variant              TEXT NOT NULL DEFAULT '',
	version              TEXT NOT NULL,
	min_supported_client TEXT NOT NULL,
	document             JSONB NOT NULL,
	migration_script     TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	updated_at           BIGINT NOT NULL,
	UNIQUE (entity, variant, version)
);
CREATE INDEX IF NOT EXISTS schema_entries_active_idx
	ON schema_entries (entity, variant, status);
`

// NewPostgresStore connects to PostgreSQL and ensures the entries table.
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchemaDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema_entries table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, e *registry.Entry) error {
	doc, err := json.Marshal(e.Document)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO schema_entries
			(id, entity, variant, version, min_supported_client, document, migration_script, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Entity, e.Variant, e.Version, e.MinSupportedClient,
		doc, e.MigrationScript, string(e.Status), e.UpdatedAt.UnixNano())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return registry.ErrExists
		}
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*registry.Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entity, variant, version, min_supported_client, document, migration_script, status, updated_at
		FROM schema_entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, e *registry.Entry, expected time.Time) error {
	doc, err := json.Marshal(e.Document)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE schema_entries
		SET entity = $2, variant = $3, version = $4, min_supported_client = $5,
			document = $6, migration_script = $7, updated_at = $8
		WHERE id = $1 AND status = $9 AND updated_at = $10`,
		e.ID, e.Entity, e.Variant, e.Version, e.MinSupportedClient,
		doc, e.MigrationScript, e.UpdatedAt.UnixNano(),
		string(registry.StatusDraft), expected.UnixNano())
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	cur, err := s.Get(ctx, e.ID)
	if err != nil {
		return err
	}
	if cur.Status != registry.StatusDraft {
		return registry.ErrState
	}
	return registry.ErrConflict
}

func (s *PostgresStore) SwapActive(ctx context.Context, id string, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var entity, variant string
	err = tx.QueryRow(ctx,
		`SELECT entity, variant FROM schema_entries WHERE id = $1 FOR UPDATE`, id).
		Scan(&entity, &variant)
	if errors.Is(err, pgx.ErrNoRows) {
		return registry.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("fetching entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE schema_entries SET status = $1, updated_at = $2
		WHERE entity = $3 AND variant = $4 AND status = $5 AND id <> $6`,
		string(registry.StatusDeprecated), at.UnixNano(),
		entity, variant, string(registry.StatusActive), id)
	if err != nil {
		return fmt.Errorf("demoting previous active entry: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE schema_entries SET status = $1, updated_at = $2 WHERE id = $3`,
		string(registry.StatusActive), at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("promoting entry: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) DeleteDraft(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM schema_entries WHERE id = $1 AND status = $2`,
		id, string(registry.StatusDraft))
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return registry.ErrState
}

func (s *PostgresStore) Active(ctx context.Context, entity, variant string) (*registry.Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entity, variant, version, min_supported_client, document, migration_script, status, updated_at
		FROM schema_entries WHERE entity = $1 AND variant = $2 AND status = $3`,
		entity, variant, string(registry.StatusActive))
	return scanEntry(row)
}

func (s *PostgresStore) ByStatus(ctx context.Context, entity string, status registry.Status) ([]*registry.Entry, error) {
	query := `
		SELECT id, entity, variant, version, min_supported_client, document, migration_script, status, updated_at
		FROM schema_entries WHERE status = $1`
	args := []any{string(status)}
	if entity != "" {
		query += ` AND entity = $2`
		args = append(args, entity)
	}
	query += ` ORDER BY entity, variant, version`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var out []*registry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

func scanEntry(row pgx.Row) (*registry.Entry, error) {
	var (
		e        registry.Entry
		doc      []byte
		status   string
		updatedN int64
	)
	err := row.Scan(&e.ID, &e.Entity, &e.Variant, &e.Version, &e.MinSupportedClient,
		&doc, &e.MigrationScript, &status, &updatedN)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	e.Document = &schema.Document{}
	if err := json.Unmarshal(doc, e.Document); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}
	e.Status = registry.Status(status)
	e.UpdatedAt = time.Unix(0, updatedN).UTC()
	return &e, nil
}
