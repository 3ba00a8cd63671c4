package views

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
)

// CSVWriter is a concurrency-safe, buffered CSV writer for dataset export.
//
// The underlying bufio.Writer absorbs syscall overhead; encoding errors are
// buffered by encoding/csv and surface on Flush or Close.
type CSVWriter struct {
	mu   sync.Mutex
	file io.Closer
	buf  *bufio.Writer
	csv  *csv.Writer
	rows uint64
}

// NewCSVWriter creates a file and writes the CSV header row.
func NewCSVWriter(path string, bufSizeBytes int, writeHeader bool, header []string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv create %s: %w", path, err)
	}
	w, err := newCSVWriter(f, f, bufSizeBytes, writeHeader, header)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewCSVStreamWriter writes to an arbitrary stream. Close flushes but leaves
// the stream open.
func NewCSVStreamWriter(out io.Writer, bufSizeBytes int, writeHeader bool, header []string) (*CSVWriter, error) {
	return newCSVWriter(out, nil, bufSizeBytes, writeHeader, header)
}

func newCSVWriter(out io.Writer, closer io.Closer, bufSizeBytes int, writeHeader bool, header []string) (*CSVWriter, error) {
	if bufSizeBytes <= 0 {
		bufSizeBytes = 256 * 1024 // 256 KB default
	}

	bw := bufio.NewWriterSize(out, bufSizeBytes)
	cw := csv.NewWriter(bw)

	w := &CSVWriter{
		file: closer,
		buf:  bw,
		csv:  cw,
	}

	if writeHeader && len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return nil, fmt.Errorf("csv write header: %w", err)
		}
	}

	return w, nil
}

// WriteRow appends a single CSV row. Thread-safe.
func (w *CSVWriter) WriteRow(row []string) {
	w.mu.Lock()
	_ = w.csv.Write(row) // error is buffered; checked on Flush
	w.rows++
	w.mu.Unlock()
}

// Flush pushes the buffered data to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *CSVWriter) flushLocked() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("csv encode: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return nil
}

// Close flushes remaining data and closes the file, if the writer owns one.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.flushLocked()
	if w.file != nil {
		if cerr := w.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csv close: %w", cerr)
		}
		w.file = nil
	}
	return err
}

// Rows returns the number of data rows written (excludes header).
func (w *CSVWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}
