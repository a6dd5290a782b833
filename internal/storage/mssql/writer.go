// Package mssql loads the output table into Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/multierr"

	"falcon/internal/storage"
)

const Kind = "mssql"

// SQL Server rejects statements with more than 2100 parameters.
const maxParams = 2000

func init() {
	storage.Register(Kind, New)
}

// dbConn is a small interface over *sql.DB used to make this package testable.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// Writer inserts rows with multi-row INSERT ... VALUES statements.
type Writer struct {
	db      dbConn
	cfg     storage.Config
	columns []string
	batch   *storage.Batch
}

// New opens a connection with the "sqlserver" driver and checks it.
func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if cfg.DSN == "" || cfg.Table == "" {
		return nil, errors.New("mssql: dsn and table are required")
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newWriter(db, cfg), nil
}

func newWriter(db dbConn, cfg storage.Config) *Writer {
	w := &Writer{db: db, cfg: cfg}
	w.batch = storage.NewBatch(cfg.BatchSize, w.insert)
	return w
}

// WriteHeader fixes the column list and creates the table when configured.
func (w *Writer) WriteHeader(ctx context.Context, header []string) error {
	spec, err := storage.NewTableSpec(w.cfg.Table, header, "NVARCHAR(MAX)")
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
		return errors.New("mssql: WriteRow before WriteHeader")
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
	for _, chunk := range storage.Chunk(rows, len(w.columns), maxParams) {
		q, args := buildBulkInsertSQL(w.cfg.Table, w.columns, chunk)
		if _, err := w.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", w.cfg.Table, err)
		}
	}
	return nil
}

// buildCreateSQL wraps CREATE TABLE in an existence check; SQL Server has no
// CREATE TABLE IF NOT EXISTS.
func buildCreateSQL(t storage.TableSpec) string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, mssqlIdent(c.Name)+" "+c.Type+" NULL")
	}
	name := mssqlTableIdent(t.Name)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(name, "'", "''"), name, strings.Join(defs, ", "),
	)
}

// buildBulkInsertSQL builds a single INSERT ... VALUES statement for all rows.
func buildBulkInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent returns a bracket-quoted identifier for schema-qualified names.
//
// Example:
//
//	"dbo.imports" -> [dbo].[imports]
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
