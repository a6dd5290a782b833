package main

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"falcon/internal/config"
	"falcon/internal/metrics"
	"falcon/internal/metrics/datadog"
	"falcon/internal/metrics/prompush"
)

const (
	defaultJobName     = "falcon"
	defaultPushGateway = "http://localhost:9091"
)

// closingBackend is a metrics backend that owns a background flush loop.
type closingBackend interface {
	metrics.Backend
	Close() error
}

// Seams for tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (closingBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	newPushBackend = func(job, url string) (metrics.Backend, error) {
		return prompush.NewBackend(job, url)
	}
	setMetricsBackend = metrics.SetBackend
)

// initMetrics installs the backend named by m.Backend and returns a cleanup
// that flushes it. Cleanup is never nil. Unknown backends disable metrics
// with a warning, matching what `falcon validate` reports.
//
// Environment fallbacks: METRICS_BACKEND, PUSHGATEWAY_URL, METRICS_TAGS.
func initMetrics(ctx context.Context, m config.Metrics, log *zap.Logger) (func(), error) {
	noop := func() {}

	backend := strings.ToLower(strings.TrimSpace(m.Backend))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_BACKEND")))
	}
	job := m.Job
	if job == "" {
		job = defaultJobName
	}

	switch backend {
	case "", "none":
		return noop, nil

	case "datadog", "dd":
		tags := append([]string(nil), m.Tags...)
		tags = append(tags, datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))...)

		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    job,
			Tags:       tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return noop, err
		}
		setMetricsBackend(b)
		log.Info("metrics enabled", zap.String("backend", "datadog"), zap.String("job", job), zap.Strings("tags", tags))

		return func() {
			if err := b.Close(); err != nil {
				log.Warn("metrics: datadog close error", zap.Error(err))
			}
			setMetricsBackend(nil)
		}, nil

	case "pushgateway":
		url := m.PushgatewayURL
		if url == "" {
			url = os.Getenv("PUSHGATEWAY_URL")
		}
		if url == "" {
			url = defaultPushGateway
		}

		b, err := newPushBackend(job, url)
		if err != nil {
			return noop, err
		}
		setMetricsBackend(b)
		log.Info("metrics enabled", zap.String("backend", "pushgateway"), zap.String("url", url), zap.String("job", job))

		return func() {
			if f, ok := b.(metrics.Flusher); ok {
				if err := f.Flush(); err != nil {
					log.Warn("metrics: pushgateway flush error", zap.Error(err))
				}
			}
			setMetricsBackend(nil)
		}, nil

	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", backend))
		return noop, nil
	}
}
