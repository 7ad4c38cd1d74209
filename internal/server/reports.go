package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hyperjump/reviewlens/internal/models"
)

// ErrNoReport is returned when no run has produced a report yet.
var ErrNoReport = errors.New("no run report available")

// ReportProvider returns the most recent run report.
type ReportProvider interface {
	Latest() (*models.RunReport, error)
}

// FileReports serves the report.json a run wrote, reloading it when the file
// changes on disk.
type FileReports struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	report  *models.RunReport
}

// NewFileReports reads reports from path.
func NewFileReports(path string) *FileReports {
	return &FileReports{path: path}
}

// Latest returns the report at the configured path.
func (f *FileReports) Latest() (*models.RunReport, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("stat report: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.report != nil && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return f.report, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	f.report, f.modTime, f.size = &report, info.ModTime(), info.Size()
	return f.report, nil
}
