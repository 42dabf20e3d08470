package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/push-ai/mta-rtf/internal/common/logger"
	"github.com/push-ai/mta-rtf/internal/static"
)

// DB wraps the Postgres connection.
type DB struct {
	conn   *sql.DB
	logger logger.Logger
}

func New(connStr string, log logger.Logger) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{
		conn:   conn,
		logger: log,
	}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Loader writes resources into a schema, applying each resource's
// disposition: merge tables upsert by key, append tables bulk-insert via
// COPY. Rows are stored as jsonb payloads so upstream schema drift never
// requires DDL here.
type Loader struct {
	db     *DB
	schema string
	logger logger.Logger
}

func NewLoader(db *DB, schema string, log logger.Logger) *Loader {
	return &Loader{
		db:     db,
		schema: schema,
		logger: log,
	}
}

// Load writes one resource and returns the number of rows loaded. The
// whole resource goes in a single transaction; any row error rolls it back.
func (l *Loader) Load(ctx context.Context, res Resource) (int64, error) {
	if _, err := l.db.conn.ExecContext(ctx,
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(l.schema))); err != nil {
		return 0, fmt.Errorf("creating schema %s: %w", l.schema, err)
	}

	if _, err := l.db.conn.ExecContext(ctx, createTableSQL(l.schema, res)); err != nil {
		return 0, fmt.Errorf("creating table %s: %w", res.Name, err)
	}

	start := time.Now()

	var loaded int64
	var err error
	switch res.Disposition {
	case static.Merge:
		loaded, err = l.merge(ctx, res)
	case static.Append:
		loaded, err = l.append(ctx, res)
	default:
		return 0, fmt.Errorf("resource %s has unsupported disposition %q", res.Name, res.Disposition)
	}
	if err != nil {
		return 0, err
	}

	l.logger.Info("Loaded resource",
		"resource", res.Name,
		"disposition", string(res.Disposition),
		"rows", loaded,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return loaded, nil
}

func (l *Loader) merge(ctx context.Context, res Resource) (int64, error) {
	tx, err := l.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(l.schema, res.Name))
	if err != nil {
		return 0, fmt.Errorf("preparing upsert for %s: %w", res.Name, err)
	}
	defer stmt.Close()

	var n int64
	for row, rowErr := range res.Rows {
		if rowErr != nil {
			return 0, rowErr
		}

		key, err := mergeKey(row, res.PrimaryKey)
		if err != nil {
			return 0, fmt.Errorf("resource %s: %w", res.Name, err)
		}

		payload, err := json.Marshal(row)
		if err != nil {
			return 0, fmt.Errorf("encoding row for %s: %w", res.Name, err)
		}

		if _, err := stmt.ExecContext(ctx, key, payload); err != nil {
			return 0, fmt.Errorf("upserting into %s: %w", res.Name, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s: %w", res.Name, err)
	}
	return n, nil
}

func (l *Loader) append(ctx context.Context, res Resource) (int64, error) {
	tx, err := l.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(l.schema, res.Name, "payload", "loaded_at"))
	if err != nil {
		return 0, fmt.Errorf("preparing copy for %s: %w", res.Name, err)
	}

	loadedAt := time.Now().UTC()
	var n int64
	for row, rowErr := range res.Rows {
		if rowErr != nil {
			stmt.Close()
			return 0, rowErr
		}

		payload, err := json.Marshal(row)
		if err != nil {
			stmt.Close()
			return 0, fmt.Errorf("encoding row for %s: %w", res.Name, err)
		}

		if _, err := stmt.ExecContext(ctx, string(payload), loadedAt); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("copying into %s: %w", res.Name, err)
		}
		n++
	}

	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("flushing copy for %s: %w", res.Name, err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("closing copy for %s: %w", res.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s: %w", res.Name, err)
	}
	return n, nil
}

// createTableSQL builds the DDL for a resource's table. Merge tables get a
// key column with a primary-key constraint; append tables are keyless.
func createTableSQL(schema string, res Resource) string {
	table := fmt.Sprintf("%s.%s", pq.QuoteIdentifier(schema), pq.QuoteIdentifier(res.Name))
	if res.Disposition == static.Merge {
		return fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (resource_key text PRIMARY KEY, payload jsonb NOT NULL, loaded_at timestamptz NOT NULL DEFAULT now())",
			table)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (payload jsonb NOT NULL, loaded_at timestamptz NOT NULL DEFAULT now())",
		table)
}

// upsertSQL builds the merge statement for a table.
func upsertSQL(schema, name string) string {
	table := fmt.Sprintf("%s.%s", pq.QuoteIdentifier(schema), pq.QuoteIdentifier(name))
	return fmt.Sprintf(
		"INSERT INTO %s (resource_key, payload, loaded_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (resource_key) DO UPDATE SET payload = EXCLUDED.payload, loaded_at = now()",
		table)
}

// mergeKey pulls the primary-key value out of a row. Merge rows must carry
// a non-null string key.
func mergeKey(row Row, column string) (string, error) {
	if column == "" {
		return "", fmt.Errorf("merge resource has no primary key column")
	}
	value, ok := row[column]
	if !ok || value == nil {
		return "", fmt.Errorf("row is missing merge key %q", column)
	}
	key, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("merge key %q is %T, want string", column, value)
	}
	return key, nil
}
