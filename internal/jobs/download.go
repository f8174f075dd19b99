package jobs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/models"
)

// Download is the outcome of a result download. Table is nil while the
// job is incomplete.
type Download struct {
	Status      Status
	Job         *models.Job
	ResultJobID string
	Table       *Table
	Bytes       int64
}

// DownloadResult fetches the CSV result of a completed job. For a list and
// hash job the hash child's result is downloaded.
func (t *Tracker) DownloadResult(ctx context.Context, dl client.Downloader, id string) (*Download, error) {
	status, job, err := t.Status(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &Download{Status: status, Job: job}
	if status != StatusComplete {
		return out, nil
	}

	if out.ResultJobID, err = HashResultJob(job); err != nil {
		return out, err
	}

	body, err := dl.Get(ctx, out.ResultJobID)
	if err != nil {
		return out, err
	}
	defer body.Close()

	counter := &countingReader{r: body}

	if out.Table, err = ReadTable(counter); err != nil {
		return out, fmt.Errorf("failed to read result of job %s: %w", out.ResultJobID, err)
	}
	out.Bytes = counter.n

	t.metrics.RecordResultReceived(ctx, out.Bytes)

	zerolog.Ctx(ctx).Debug().
		Str("job_id", out.ResultJobID).
		Int("rows", len(out.Table.Rows)).
		Int64("bytes", out.Bytes).
		Msg("downloaded job result")

	return out, nil
}

// ReadTable materialises CSV with a header line. An empty body is an empty
// table.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	table := &Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
