package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/gauntlet/internal/results"
)

// CSVStore keeps a result table in a comma-separated file with a header row.
type CSVStore struct {
	path string
}

var _ Store = (*CSVStore)(nil)

// NewCSV returns a store for the CSV file at path. The file need not exist.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the file location.
func (s *CSVStore) Path() string {
	return s.path
}

// Load reads the whole file. A missing or empty file yields an empty table
// with the reserved columns.
func (s *CSVStore) Load(ctx context.Context) (*results.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return results.EmptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return results.EmptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}
	if err := checkColumns(header); err != nil {
		return nil, fmt.Errorf("results %s: %w", s.path, err)
	}

	t := results.NewTable(header...)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		row := make(results.Row, len(header))
		for i, col := range header {
			row[col] = results.ParseCell(rec[i])
		}
		t.Rows = append(t.Rows, row.Sparse())
	}
	return t, nil
}

// Write replaces the file atomically: the table is written to a temporary
// file in the same directory which is then renamed over the target.
func (s *CSVStore) Write(ctx context.Context, t *results.Table, front []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cols := OrderColumns(t.Columns, front)
	if err := checkColumns(cols); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return s.replace(func(w *csv.Writer) error {
		if err := w.Write(cols); err != nil {
			return err
		}
		for _, row := range t.Rows {
			if err := w.Write(record(row, cols)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Appender opens the file for streaming. When the existing header lacks
// some of columns, the file is first rewritten with the widened header.
func (s *CSVStore) Appender(ctx context.Context, columns []string) (Appender, error) {
	if err := checkColumns(columns); err != nil {
		return nil, fmt.Errorf("append %s: %w", s.path, err)
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	fresh := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		fresh = false
	}
	layout := widen(existing.Columns, columns)
	if fresh || len(layout) != len(existing.Columns) {
		if err := s.Write(ctx, existing, layout); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s for append: %w", s.path, err)
	}
	return &csvAppender{f: f, w: csv.NewWriter(f), columns: layout}, nil
}

// Close is a no-op; CSVStore holds no open handles between calls.
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) replace(fill func(*csv.Writer) error) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := fill(w); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func record(row results.Row, cols []string) []string {
	rec := make([]string, len(cols))
	for i, c := range cols {
		rec[i] = results.Cell(row.Get(c))
	}
	return rec
}

type csvAppender struct {
	f       *os.File
	w       *csv.Writer
	columns []string
}

func (a *csvAppender) Append(row results.Row) error {
	if err := a.w.Write(record(row, a.columns)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (a *csvAppender) Columns() []string {
	return a.columns
}

func (a *csvAppender) Close() error {
	a.w.Flush()
	werr := a.w.Error()
	cerr := a.f.Close()
	return errors.Join(werr, cerr)
}
