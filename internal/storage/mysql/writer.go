// Package mysql loads the output table into MySQL or MariaDB through
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/multierr"

	"falcon/internal/storage"
)

const Kind = "mysql"

// The protocol caps prepared statements at 65535 placeholders.
const maxParams = 60000

func init() {
	storage.Register(Kind, New)
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// Writer inserts rows with multi-row INSERT statements. Every column is
// LONGTEXT.
type Writer struct {
	db      dbConn
	cfg     storage.Config
	columns []string
	batch   *storage.Batch
}

// New opens cfg.DSN (go-sql-driver format, e.g.
// "user:pass@tcp(host:3306)/db") and checks the connection.
func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if cfg.DSN == "" || cfg.Table == "" {
		return nil, errors.New("mysql: dsn and table are required")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
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
	spec, err := storage.NewTableSpec(w.cfg.Table, header, "LONGTEXT")
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
		return errors.New("mysql: WriteRow before WriteHeader")
	}
	return w.batch.Add(ctx, row)
}

// Close flushes the pending batch and closes the connection pool.
func (w *Writer) Close(ctx context.Context) error {
	var err error
	if w.columns != nil {
		err = w.batch.Flush(ctx)
	}
	return multierr.Append(err, w.db.Close())
}

func (w *Writer) insert(ctx context.Context, rows [][]any) error {
	for _, chunk := range storage.Chunk(rows, len(w.columns), maxParams) {
		q, args := buildInsertSQL(w.cfg.Table, w.columns, chunk)
		if _, err := w.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", w.cfg.Table, err)
		}
	}
	return nil
}

func mysqlIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// tableIdent quotes "db.table" as `db`.`table`.
func tableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mysqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

func buildCreateSQL(t storage.TableSpec) string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, mysqlIdent(c.Name)+" "+c.Type+" NULL")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) DEFAULT CHARSET=utf8mb4",
		tableIdent(t.Name), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, len(columns))
	for i, c := range columns {
		colList[i] = mysqlIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", tableIdent(table), strings.Join(colList, ", "))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
		args = append(args, row...)
	}
	return b.String(), args
}
