// Package metrics is the backend-neutral instrumentation surface. Code records
// through the package-level helpers; the binary picks a backend with
// SetBackend. The default backend drops everything.
package metrics

import (
	"sync"
	"time"
)

// Metric names recorded by falcon.
const (
	RowsTotal           = "falcon_rows_total"            // labels: kind=read|written|skipped
	RunsTotal           = "falcon_runs_total"            // labels: status=ok|error
	StepDurationSeconds = "falcon_step_duration_seconds" // labels: step, status
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer observations.
type Flusher interface {
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the current backend if it buffers.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordRows counts rows by kind. Zero counts are dropped.
func RecordRows(kind string, n int64) {
	if n <= 0 {
		return
	}
	IncCounter(RowsTotal, float64(n), Labels{"kind": kind})
}

// RecordStep observes the duration of one named step.
func RecordStep(step string, err error, d time.Duration) {
	ObserveHistogram(StepDurationSeconds, d.Seconds(), Labels{"step": step, "status": status(err)})
}

// RecordRun counts a finished run.
func RecordRun(err error) {
	IncCounter(RunsTotal, 1, Labels{"status": status(err)})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
