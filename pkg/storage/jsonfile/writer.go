// Package jsonfile keeps one file per service under
// <directory>/<stream>/<rid>.<format>, rewriting it whole on every append.
package jsonfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Writer is an emit.RecordWriter backed by a filesystem.
type Writer struct {
	fs        afero.Fs
	directory string
	format    Format

	mu sync.Mutex
}

func NewWriter(fs afero.Fs, directory string, format Format) *Writer {
	if format == "" {
		format = FormatJSON
	}

	return &Writer{fs: fs, directory: directory, format: format}
}

// ErrInvalidName is returned for a stream or rid that cannot be used as a
// single path element.
var ErrInvalidName = errors.New("invalid file name")

// Path returns the file that holds a stream's rows for one service. Both
// names must be plain path elements so the file stays under the directory.
func (w *Writer) Path(stream string, rid string) (string, error) {
	for _, name := range []string{stream, rid} {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}

	return filepath.Join(w.directory, stream, rid+"."+string(w.format)), nil
}

func (w *Writer) WriteSchedule(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := w.Path(kind, rid)
	if err != nil {
		return err
	}

	return appendRows(w, path, records)
}

func (w *Writer) WriteMovement(ctx context.Context, rid string, rows []movement.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := w.Path(emit.StreamMovement, rid)
	if err != nil {
		return err
	}

	return appendRows(w, path, rows)
}

// ReadSchedule returns every record stored for a stream and service.
func (w *Writer) ReadSchedule(kind string, rid string) ([]schedule.Record, error) {
	path, err := w.Path(kind, rid)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return readRows[schedule.Record](w, path)
}

// ReadMovement returns every movement row stored for a service.
func (w *Writer) ReadMovement(rid string) ([]movement.Row, error) {
	path, err := w.Path(emit.StreamMovement, rid)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return readRows[movement.Row](w, path)
}

func appendRows[T any](w *Writer, path string, rows []T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := readRows[T](w, path)
	if err != nil {
		return err
	}

	data, err := encodeRows(w.format, append(existing, rows...))
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	temporary := path + ".tmp"
	if err := afero.WriteFile(w.fs, temporary, data, 0o644); err != nil {
		return err
	}

	return w.fs.Rename(temporary, path)
}

func readRows[T any](w *Writer, path string) ([]T, error) {
	data, err := afero.ReadFile(w.fs, path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var rows []T

	switch w.format {
	case FormatCSV:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var row T
			if err := json.Unmarshal(line, &row); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			rows = append(rows, row)
		}

		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

func encodeRows[T any](format Format, rows []T) ([]byte, error) {
	if format == FormatCSV {
		return gocsv.MarshalBytes(rows)
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return nil, err
		}
	}

	return buffer.Bytes(), nil
}
