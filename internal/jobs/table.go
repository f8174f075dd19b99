package jobs

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
	"github.com/wolfeidau/dewrangle/internal/telemetry"
)

// Table is a materialised CSV result. The first CSV line is Header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Written describes a persisted table.
type Written struct {
	Path     string
	Bytes    int64
	Checksum string // base58 encoded CRC64-NVME of the file contents
}

// WriteCSV persists the table as <basename>.csv. The file is written to a
// temporary path and renamed into place.
func (t *Table) WriteCSV(ctx context.Context, basename string) (*Written, error) {
	path := basename
	if !strings.HasSuffix(path, ".csv") {
		path += ".csv"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := t.encode(tmp)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	telemetry.GetMetrics().RecordResultWritten(ctx, written.Bytes)

	written.Path = path
	return written, nil
}

func (t *Table) encode(w io.Writer) (*Written, error) {
	hash := crc64nvme.New()
	counter := &countingWriter{w: io.MultiWriter(w, hash)}

	cw := csv.NewWriter(counter)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return nil, err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return nil, err
	}

	return &Written{
		Bytes:    counter.n,
		Checksum: base58.Encode(hash.Sum(nil)),
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
