// Package sqlite loads the output table into SQLite through modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"falcon/internal/storage"
)

const Kind = "sqlite"

// maxParams stays under SQLITE_MAX_VARIABLE_NUMBER for current builds.
const maxParams = 32000

func init() {
	storage.Register(Kind, New)
}

// Writer inserts rows in batches. Every column is TEXT.
type Writer struct {
	db      *sql.DB
	cfg     storage.Config
	columns []string
	batch   *storage.Batch
}

func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if cfg.DSN == "" || cfg.Table == "" {
		return nil, errors.New("sqlite: dsn and table are required")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWriter(db, cfg), nil
}

// NewWriter uses an already open handle. Close closes db.
func NewWriter(db *sql.DB, cfg storage.Config) *Writer {
	w := &Writer{db: db, cfg: cfg}
	w.batch = storage.NewBatch(cfg.BatchSize, w.insert)
	return w
}

// WriteHeader fixes the column list and creates the table when configured.
func (w *Writer) WriteHeader(ctx context.Context, header []string) error {
	spec, err := storage.NewTableSpec(w.cfg.Table, header, "TEXT")
	if err != nil {
		return err
	}
	w.columns = spec.ColumnNames()
	if !w.cfg.CreateTable {
		return nil
	}
	if _, err := w.db.ExecContext(ctx, buildCreateSQL(spec)); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

func (w *Writer) WriteRow(ctx context.Context, row []string) error {
	if w.columns == nil {
		return errors.New("sqlite: WriteRow before WriteHeader")
	}
	return w.batch.Add(ctx, row)
}

// Close flushes the pending batch and closes the database.
func (w *Writer) Close(ctx context.Context) error {
	var err error
	if w.columns != nil {
		err = w.batch.Flush(ctx)
	}
	return multierr.Append(err, w.db.Close())
}

func (w *Writer) insert(ctx context.Context, rows [][]any) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, chunk := range storage.Chunk(rows, len(w.columns), maxParams) {
		q, args := buildInsertSQL(w.cfg.Table, w.columns, chunk)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return multierr.Append(fmt.Errorf("insert into %s: %w", w.cfg.Table, err), tx.Rollback())
		}
	}
	return tx.Commit()
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// tableIdent quotes each part of a possibly schema-qualified name.
func tableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = sqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

func buildCreateSQL(t storage.TableSpec) string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, sqlIdent(c.Name)+" "+c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableIdent(t.Name), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(tableIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		args = append(args, row...)
	}
	return b.String(), args
}
