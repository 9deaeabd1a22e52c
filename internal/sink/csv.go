// Package sink writes export files to the local filesystem.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stacklok/catalog-exporter/internal/export"
)

// CSVSink appends records to CSV files inside a single run directory
type CSVSink struct {
	dir string

	mu      sync.Mutex
	written map[string]int
}

var _ export.Sink = (*CSVSink)(nil)

// NewCSVSink creates the directory and returns a sink writing into it
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &CSVSink{dir: dir, written: make(map[string]int)}, nil
}

// Dir returns the run directory
func (s *CSVSink) Dir() string {
	return s.dir
}

// Path implements export.Sink
func (s *CSVSink) Path(fileName string) string {
	return filepath.Join(s.dir, fileName)
}

// Append implements export.Sink
func (s *CSVSink) Append(fileName string, records [][]string) error {
	if fileName == "" || filepath.Base(fileName) != fileName {
		return fmt.Errorf("invalid file name %q", fileName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(fileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fileName, err)
	}

	s.written[fileName] += len(records)
	return nil
}

// Files returns the names of the files written so far, sorted
func (s *CSVSink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.written))
	for name := range s.written {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns the number of records (header rows included) written to a file
func (s *CSVSink) Records(fileName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[fileName]
}
