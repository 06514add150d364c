package history

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Backend names accepted by history.backend.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// ErrExportUnsupported is returned when the backing store cannot export.
var ErrExportUnsupported = errors.New("history backend does not support export")

// Exporter is implemented by stores that can dump every report to a file.
type Exporter interface {
	ExportJSON(ctx context.Context, dest string) error
}

// Open returns the store for backend under dir. A SQLite store that cannot be
// opened falls back to the jsonl file store.
func Open(backend, dir string, logger ports.Logger) ports.ReportStore {
	jsonl := filepath.Join(dir, "history.jsonl")
	if backend == BackendFile {
		return NewFileStore(jsonl)
	}
	store, err := NewSQLiteStore(filepath.Join(dir, "history.db"))
	if err != nil {
		if logger != nil {
			logger.Warn("sqlite history unavailable, using file store", map[string]interface{}{"error": err.Error()})
		}
		return NewFileStore(jsonl)
	}
	return store
}

// Dir returns the default history directory of a project.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, domain.StateDirName, "history")
}

// LazyStore defers opening the backing store until first use, so commands
// that never touch history do not create the state directory.
type LazyStore struct {
	mu    sync.Mutex
	open  func() ports.ReportStore
	store ports.ReportStore
}

// NewLazyStore wraps open, which is called at most once.
func NewLazyStore(open func() ports.ReportStore) *LazyStore {
	return &LazyStore{open: open}
}

func (l *LazyStore) get() ports.ReportStore {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		l.store = l.open()
	}
	return l.store
}

func (l *LazyStore) Save(ctx context.Context, report domain.HealthReport) error {
	return l.get().Save(ctx, report)
}

func (l *LazyStore) List(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	return l.get().List(ctx, limit)
}

func (l *LazyStore) Load(ctx context.Context, runID string) (domain.HealthReport, error) {
	return l.get().Load(ctx, runID)
}

func (l *LazyStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	return l.get().Prune(ctx, olderThan)
}

func (l *LazyStore) Clear(ctx context.Context) error {
	return l.get().Clear(ctx)
}

// ExportJSON delegates to the backing store when it supports export.
func (l *LazyStore) ExportJSON(ctx context.Context, dest string) error {
	if exp, ok := l.get().(Exporter); ok {
		return exp.ExportJSON(ctx, dest)
	}
	return ErrExportUnsupported
}

// Close closes the backing store if it was opened.
func (l *LazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ ports.ReportStore = (*LazyStore)(nil)
	_ Exporter          = (*SQLiteStore)(nil)
	_ Exporter          = (*FileStore)(nil)
)
