package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"falcon/internal/config"
	"falcon/internal/datasource/file"
	_ "falcon/internal/storage/csvfile"
	"falcon/internal/transformer"
)

func TestRunner_Run_CSVFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("\uFEFFid;value\n1;1.234\n2;2\n3;N/A\n"), 0o644))

	job := Job{
		Input:  in,
		Output: out,
		Config: config.Config{
			Delimiter:      ";",
			FractionDigits: intPtr(1),
			Replacement:    []config.Replacement{{Old: "N/A", New: ""}},
			Selected: []config.Selected{
				{Name: "value", Rename: strPtr("v")},
				{Name: "id"},
			},
		},
	}

	stats, err := New(nil).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.RowsWritten)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "v,id\n1.2,1\n2.0,2\n,3\n", string(got))
}

func TestRunner_Run_ConfigErrorCreatesNoOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("a\n1\n"), 0o644))

	job := Job{
		Input:  in,
		Output: out,
		Config: config.Config{Selected: []config.Selected{{Name: "b"}}},
	}
	_, err := New(nil).Run(context.Background(), job)
	require.ErrorIs(t, err, transformer.ErrColumnNotFound)
	assert.ErrorContains(t, err, "'b'")

	_, statErr := os.Stat(out)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunner_Run_InputErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := New(nil).Run(context.Background(), Job{Input: filepath.Join(dir, "missing.csv"), Output: filepath.Join(dir, "o.csv")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = New(nil).Run(context.Background(), Job{Input: empty, Output: filepath.Join(dir, "o.csv")})
	assert.ErrorContains(t, err, "no header")

	_, err = New(nil).Run(context.Background(), Job{
		Input:  empty,
		Output: filepath.Join(dir, "o.csv"),
		Config: config.Config{Encoding: "klingon"},
	})
	assert.ErrorIs(t, err, file.ErrUnknownEncoding)
}

func TestJob_StorageConfig(t *testing.T) {
	t.Parallel()

	j := Job{Output: "out.csv"}
	sc := j.StorageConfig()
	assert.Equal(t, config.OutputCSV, sc.Kind)
	assert.Equal(t, "out.csv", sc.Path)

	j.Config.Output = config.Output{Kind: config.OutputSQLite, DSN: "x.db", Table: "t", CreateTable: true, BatchSize: 10}
	sc = j.StorageConfig()
	assert.Equal(t, "sqlite", sc.Kind)
	assert.Equal(t, "x.db", sc.DSN)
	assert.Equal(t, "t", sc.Table)
	assert.True(t, sc.CreateTable)
	assert.Equal(t, 10, sc.BatchSize)
}
