package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind   string
	name   string
	value  float64
	labels Labels
}

type recorder struct {
	mu      sync.Mutex
	calls   []call
	flushed int
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"counter", name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"histogram", name, value, labels})
}

func (r *recorder) Flush() error {
	r.flushed++
	return nil
}

// Tests in this file swap the process-wide backend and must not run in
// parallel.

func TestHelpersRouteToBackend(t *testing.T) {
	rec := &recorder{}
	SetBackend(rec)
	t.Cleanup(func() { SetBackend(nil) })

	RecordRows("read", 5)
	RecordRows("skipped", 0)
	RecordStep("stream", nil, 1500*time.Millisecond)
	RecordRun(errors.New("x"))
	require.NoError(t, Flush())

	require.Len(t, rec.calls, 3)
	assert.Equal(t, call{"counter", RowsTotal, 5, Labels{"kind": "read"}}, rec.calls[0])
	assert.Equal(t, call{"histogram", StepDurationSeconds, 1.5, Labels{"step": "stream", "status": "ok"}}, rec.calls[1])
	assert.Equal(t, call{"counter", RunsTotal, 1, Labels{"status": "error"}}, rec.calls[2])
	assert.Equal(t, 1, rec.flushed)
}

func TestNopBackend(t *testing.T) {
	SetBackend(nil)

	assert.NotPanics(t, func() {
		IncCounter(RowsTotal, 1, nil)
		ObserveHistogram(StepDurationSeconds, 1, nil)
	})
	assert.NoError(t, Flush())
}
