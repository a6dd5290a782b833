// Package postgres loads the output table into PostgreSQL with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"falcon/internal/storage"
)

const Kind = "postgres"

func init() {
	storage.Register(Kind, New)
}

// conn is the subset of *pgxpool.Pool the writer uses.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Close()
}

// Writer streams batches into the table with CopyFrom.
type Writer struct {
	db      conn
	cfg     storage.Config
	table   pgx.Identifier
	columns []string
	batch   *storage.Batch
}

func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if cfg.DSN == "" || cfg.Table == "" {
		return nil, errors.New("postgres: dsn and table are required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return newWriter(pool, cfg), nil
}

func newWriter(db conn, cfg storage.Config) *Writer {
	w := &Writer{db: db, cfg: cfg, table: splitQualifiedName(cfg.Table)}
	w.batch = storage.NewBatch(cfg.BatchSize, w.copy)
	return w
}

// WriteHeader fixes the column list and creates schema and table when
// configured.
func (w *Writer) WriteHeader(ctx context.Context, header []string) error {
	spec, err := storage.NewTableSpec(w.cfg.Table, header, "text")
	if err != nil {
		return err
	}
	w.columns = spec.ColumnNames()
	if !w.cfg.CreateTable {
		return nil
	}

	schemaSQL, tableSQL := buildCreateSQL(spec)
	if schemaSQL != "" {
		if _, err := w.db.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema for %s: %w", spec.Name, err)
		}
	}
	if _, err := w.db.Exec(ctx, tableSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

func (w *Writer) WriteRow(ctx context.Context, row []string) error {
	if w.columns == nil {
		return errors.New("postgres: WriteRow before WriteHeader")
	}
	return w.batch.Add(ctx, row)
}

// Close copies the pending batch and closes the pool.
func (w *Writer) Close(ctx context.Context) error {
	defer w.db.Close()
	if w.columns == nil {
		return nil
	}
	return w.batch.Flush(ctx)
}

func (w *Writer) copy(ctx context.Context, rows [][]any) error {
	n, err := w.db.CopyFrom(ctx, w.table, w.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", w.cfg.Table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", w.cfg.Table, n, len(rows))
	}
	return nil
}

// splitQualifiedName turns "schema.table" into an identifier; a bare name
// stays unqualified.
func splitQualifiedName(name string) pgx.Identifier {
	parts := strings.SplitN(name, ".", 2)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return pgx.Identifier(parts)
}

func buildCreateSQL(t storage.TableSpec) (schemaSQL, tableSQL string) {
	id := splitQualifiedName(t.Name)
	if len(id) == 2 {
		schemaSQL = "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{id[0]}.Sanitize()
	}

	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, pgx.Identifier{c.Name}.Sanitize()+" "+c.Type)
	}
	tableSQL = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", id.Sanitize(), strings.Join(defs, ", "))
	return schemaSQL, tableSQL
}
