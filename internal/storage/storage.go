package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maltedev/product-page-scraper/internal/models"
)

// DefaultHeader uses the column names of the shop's locale.
var DefaultHeader = []string{"Название", "Цена", "Описание"}

const fileTimestampLayout = "20060102_1504"

// CSVSink appends result rows to a CSV file. Every row is written through a
// freshly opened handle that is closed before AppendRow returns, so rows
// written before a crash stay on disk.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

// FileName returns the results file name for a run started at now.
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format(fileTimestampLayout))
}

// NewCSVSink creates (or truncates) the results file and writes the header.
func NewCSVSink(dir, prefix string, header []string, now time.Time) (*CSVSink, error) {
	if len(header) == 0 {
		header = DefaultHeader
	}

	path := filepath.Join(dir, FileName(prefix, now))
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	if err := writeRecord(f, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close csv file: %w", err)
	}

	return &CSVSink{path: path}, nil
}

func (s *CSVSink) Path() string {
	return s.path
}

// AppendRow writes exactly one row to the end of the file.
func (s *CSVSink) AppendRow(row models.OutputRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}

	if err := writeRecord(f, row.Strings()); err != nil {
		f.Close()
		return fmt.Errorf("write csv record: %w", err)
	}

	return f.Close()
}

func writeRecord(f *os.File, record []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
