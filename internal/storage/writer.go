// Package storage defines the output sink contract and a registry of sink
// kinds. Sink packages register themselves from init; import storage/all to
// link every kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config is what a sink factory needs to open an output.
//
// Edge cases:
//   - Kind must match a registered sink.
//   - Path is used by file sinks, DSN and Table by database sinks.
//   - BatchSize <= 0 selects the sink's default.
type Config struct {
	Kind        string
	Path        string
	DSN         string
	Table       string
	CreateTable bool
	BatchSize   int
}

// Writer receives the transformed table: one header, then data rows.
//
// Rows passed to WriteRow may be reused by the caller after the call returns;
// sinks that buffer must copy. Close flushes anything buffered and releases
// the sink, and must be called exactly once even after a failed write.
type Writer interface {
	WriteHeader(ctx context.Context, header []string) error
	WriteRow(ctx context.Context, row []string) error
	Close(ctx context.Context) error
}

// Factory opens a Writer for cfg.
type Factory func(ctx context.Context, cfg Config) (Writer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a sink available under kind. Call it from an init function
// in the sink package.
//
// Panics if kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New opens a Writer using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Writer, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// Kinds lists the registered sink kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
