package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"falcon/internal/config"
	"falcon/internal/metrics"
	"falcon/internal/metrics/datadog"
)

type fakeBackend struct {
	closeErr error
	flushErr error
	closed   atomic.Int64
	flushed  atomic.Int64
}

func (b *fakeBackend) IncCounter(string, float64, metrics.Labels)       {}
func (b *fakeBackend) ObserveHistogram(string, float64, metrics.Labels) {}

func (b *fakeBackend) Close() error {
	b.closed.Add(1)
	return b.closeErr
}

func (b *fakeBackend) Flush() error {
	b.flushed.Add(1)
	return b.flushErr
}

// swapSeams replaces the backend constructors for one test.
func swapSeams(t *testing.T) (sets *[]metrics.Backend) {
	t.Helper()
	oldDD, oldPush, oldSet := newDatadogBackend, newPushBackend, setMetricsBackend
	t.Cleanup(func() {
		newDatadogBackend, newPushBackend, setMetricsBackend = oldDD, oldPush, oldSet
	})

	var got []metrics.Backend
	setMetricsBackend = func(b metrics.Backend) { got = append(got, b) }
	newDatadogBackend = func(context.Context, datadog.Options) (closingBackend, error) {
		t.Fatalf("newDatadogBackend must not be called")
		return nil, nil
	}
	newPushBackend = func(string, string) (metrics.Backend, error) {
		t.Fatalf("newPushBackend must not be called")
		return nil, nil
	}
	return &got
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestInitMetrics_None(t *testing.T) {
	t.Setenv("METRICS_BACKEND", "")
	sets := swapSeams(t)

	for _, backend := range []string{"", "none", " NONE "} {
		cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: backend}, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, cleanup)
		cleanup()
	}
	assert.Empty(t, *sets)
}

func TestInitMetrics_Datadog(t *testing.T) {
	t.Setenv("METRICS_TAGS", "team:data, env:ci")
	sets := swapSeams(t)

	b := &fakeBackend{}
	var got datadog.Options
	newDatadogBackend = func(_ context.Context, opts datadog.Options) (closingBackend, error) {
		got = opts
		return b, nil
	}

	log, logs := observed()
	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "datadog", Tags: []string{"svc:falcon"}}, log)
	require.NoError(t, err)

	assert.Equal(t, defaultJobName, got.JobName)
	assert.Equal(t, []string{"svc:falcon", "team:data", "env:ci"}, got.Tags)
	require.Len(t, *sets, 1)
	assert.Same(t, b, (*sets)[0])

	cleanup()
	assert.EqualValues(t, 1, b.closed.Load())
	require.Len(t, *sets, 2)
	assert.Nil(t, (*sets)[1])
	assert.Zero(t, logs.FilterMessage("metrics: datadog close error").Len())
}

func TestInitMetrics_DatadogCloseErrorIsLogged(t *testing.T) {
	swapSeams(t)
	b := &fakeBackend{closeErr: errors.New("flush failed")}
	newDatadogBackend = func(context.Context, datadog.Options) (closingBackend, error) { return b, nil }

	log, logs := observed()
	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "dd", Job: "nightly"}, log)
	require.NoError(t, err)
	cleanup()

	entries := logs.FilterMessage("metrics: datadog close error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "flush failed", entries[0].ContextMap()["error"])
}

func TestInitMetrics_DatadogInitError(t *testing.T) {
	sets := swapSeams(t)
	newDatadogBackend = func(context.Context, datadog.Options) (closingBackend, error) {
		return nil, errors.New("no api key")
	}

	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "datadog"}, zap.NewNop())
	require.EqualError(t, err, "no api key")
	require.NotNil(t, cleanup)
	cleanup()
	assert.Empty(t, *sets)
}

func TestInitMetrics_Pushgateway(t *testing.T) {
	t.Setenv("PUSHGATEWAY_URL", "http://gateway:9091")
	sets := swapSeams(t)

	b := &fakeBackend{}
	var gotJob, gotURL string
	newPushBackend = func(job, url string) (metrics.Backend, error) {
		gotJob, gotURL = job, url
		return b, nil
	}

	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "pushgateway", Job: "nightly"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "nightly", gotJob)
	assert.Equal(t, "http://gateway:9091", gotURL)

	cleanup()
	assert.EqualValues(t, 1, b.flushed.Load())
	assert.Len(t, *sets, 2)
}

func TestInitMetrics_PushgatewayConfigURLWins(t *testing.T) {
	t.Setenv("PUSHGATEWAY_URL", "http://env:9091")
	swapSeams(t)

	var gotURL string
	newPushBackend = func(_, url string) (metrics.Backend, error) {
		gotURL = url
		return &fakeBackend{}, nil
	}

	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "pushgateway", PushgatewayURL: "http://cfg:9091"}, zap.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, "http://cfg:9091", gotURL)
}

func TestInitMetrics_EnvBackend(t *testing.T) {
	t.Setenv("METRICS_BACKEND", "pushgateway")
	t.Setenv("PUSHGATEWAY_URL", "")
	swapSeams(t)

	var gotURL string
	newPushBackend = func(_, url string) (metrics.Backend, error) {
		gotURL = url
		return &fakeBackend{}, nil
	}

	cleanup, err := initMetrics(context.Background(), config.Metrics{}, zap.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, defaultPushGateway, gotURL)
}

func TestInitMetrics_UnknownBackendIsDisabled(t *testing.T) {
	sets := swapSeams(t)

	log, logs := observed()
	cleanup, err := initMetrics(context.Background(), config.Metrics{Backend: "statsd"}, log)
	require.NoError(t, err)
	cleanup()

	assert.Empty(t, *sets)
	assert.Equal(t, 1, logs.FilterMessage("metrics: unknown backend; metrics disabled").Len())
}
