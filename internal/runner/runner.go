package runner

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"falcon/internal/config"
	"falcon/internal/datasource/file"
	csvparser "falcon/internal/parser/csv"
	"falcon/internal/storage"
)

// Job is one conversion of an input file.
type Job struct {
	Input  string
	Output string // CSV output path; database sinks take the target from Config.Output
	Config config.Config
}

// StorageConfig maps the job to the sink configuration.
func (j Job) StorageConfig() storage.Config {
	o := j.Config.Output
	kind := o.Kind
	if kind == "" {
		kind = config.OutputCSV
	}
	return storage.Config{
		Kind:        kind,
		Path:        j.Output,
		DSN:         o.DSN,
		Table:       o.Table,
		CreateTable: o.CreateTable,
		BatchSize:   o.BatchSize,
	}
}

// Runner runs jobs against real files and registered sinks.
type Runner struct {
	log *zap.Logger

	// Seams for tests; production uses the file data source and the storage
	// registry.
	openSource func(ctx context.Context, path, encoding string) (io.ReadCloser, error)
	newWriter  func(ctx context.Context, cfg storage.Config) (storage.Writer, error)
}

// New returns a Runner. The sink kinds a job may use must be linked in,
// typically through falcon/internal/storage/all.
func New(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		log: log,
		openSource: func(ctx context.Context, path, encoding string) (io.ReadCloser, error) {
			return file.NewLocal(path).WithEncoding(encoding).Open(ctx)
		},
		newWriter: storage.New,
	}
}

// Run converts job.Input. The input is closed before Run returns.
func (r *Runner) Run(ctx context.Context, job Job) (stats Stats, err error) {
	log := r.log.With(zap.String("input", job.Input))

	src, err := r.openSource(ctx, job.Input, job.Config.Encoding)
	if err != nil {
		return stats, err
	}
	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	rows, err := csvparser.NewReader(src, csvparser.Options{Comma: job.Config.Comma()})
	if err != nil {
		return stats, fmt.Errorf("%s: %w", job.Input, err)
	}

	sc := job.StorageConfig()
	open := func(ctx context.Context) (storage.Writer, error) {
		log.Debug("opening output", zap.String("kind", sc.Kind), zap.String("path", sc.Path), zap.String("table", sc.Table))
		return r.newWriter(ctx, sc)
	}
	return Stream(ctx, job.Config, rows, open, log)
}
