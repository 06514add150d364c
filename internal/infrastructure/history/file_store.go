package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// FileStore appends reports to a jsonl file. It is the fallback when SQLite is
// unavailable or history.backend is "file".
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path, normally <project>/.vitals/history/history.jsonl.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.ReportStore.
func (f *FileStore) Save(_ context.Context, report domain.HealthReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(append(data, '\n'))
	return err
}

// List returns run summaries, newest first.
func (f *FileStore) List(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	f.mu.Lock()
	reports, err := f.reports()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].StartedAt.After(reports[j].StartedAt) })
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	records := make([]domain.HistoryRecord, 0, len(reports))
	for _, r := range reports {
		records = append(records, domain.NewHistoryRecord(r))
	}
	return records, nil
}

// Load returns the full report of a run. The latest write of a run id wins.
func (f *FileStore) Load(_ context.Context, runID string) (domain.HealthReport, error) {
	f.mu.Lock()
	reports, err := f.reports()
	f.mu.Unlock()
	if err != nil {
		return domain.HealthReport{}, err
	}
	for i := len(reports) - 1; i >= 0; i-- {
		if reports[i].RunID == runID {
			return reports[i], nil
		}
	}
	return domain.HealthReport{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
}

// Prune rewrites the file without runs started before olderThan.
func (f *FileStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reports, err := f.reports()
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	removed := 0
	for _, r := range reports {
		if r.StartedAt.Before(olderThan) {
			removed++
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			return 0, err
		}
		buf.Write(append(data, '\n'))
	}
	if removed == 0 {
		return 0, nil
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), domain.FilePermissions); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return removed, nil
}

// Clear removes the history file.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ExportJSON copies the stored reports, oldest first, to a jsonl file.
func (f *FileStore) ExportJSON(_ context.Context, dest string) error {
	f.mu.Lock()
	reports, err := f.reports()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].StartedAt.Before(reports[j].StartedAt) })

	var buf bytes.Buffer
	for _, r := range reports {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		buf.Write(append(data, '\n'))
	}
	return os.WriteFile(dest, buf.Bytes(), domain.FilePermissions)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// reports loads all entries (best-effort: undecodable lines are skipped).
func (f *FileStore) reports() ([]domain.HealthReport, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var reports []domain.HealthReport
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r domain.HealthReport
		if err := json.Unmarshal(line, &r); err == nil {
			reports = append(reports, r)
		}
	}
	return reports, scanner.Err()
}

var _ ports.ReportStore = (*FileStore)(nil)
