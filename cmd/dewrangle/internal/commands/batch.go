package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/jobs"
	"github.com/wolfeidau/dewrangle/internal/provision"
)

// batchColumns maps accepted CSV header names to request fields. "account"
// is accepted as an alias of "study".
var batchColumns = map[string]string{
	"bucket":        "bucket",
	"volume":        "bucket",
	"study":         "study",
	"account":       "study",
	"region":        "region",
	"prefix":        "prefix",
	"billing":       "billing",
	"billing_group": "billing",
	"credential":    "credential",
}

// BatchError reports how many rows of a batch failed.
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d volumes failed", e.Failed, e.Total)
}

type batchRow struct {
	Bucket   string `json:"bucket" yaml:"bucket"`
	Study    string `json:"study" yaml:"study"`
	VolumeID string `json:"volume_id,omitempty" yaml:"volume_id,omitempty"`
	JobID    string `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Created  bool   `json:"created" yaml:"created"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HashBatchCmd hashes every volume listed in a CSV file, adding the ones
// that are not yet attached to their study.
type HashBatchCmd struct {
	File string `help:"CSV file with bucket, study, region, prefix, billing and credential columns." short:"f" required:"" type:"existingfile"`
	Out  string `help:"Write the input rows with job ids to this CSV file." short:"o"`
}

func (h *HashBatchCmd) Run(ctx context.Context, globals *Globals) error {
	requests, err := readBatch(h.File)
	if err != nil {
		return err
	}

	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	log := zerolog.Ctx(ctx)
	p := provision.New(exec)

	results := make([]batchRow, 0, len(requests))
	failed := 0

	for _, req := range requests {
		row := batchRow{Bucket: req.Bucket, Study: req.Study}

		res, err := p.EnsureAndHash(ctx, req)
		row.VolumeID = res.VolumeID
		row.JobID = res.JobID
		row.Created = res.Created
		if err != nil {
			failed++
			row.Error = err.Error()
			log.Error().Err(err).Str("bucket", req.Bucket).Str("study", req.Study).Msg("failed to hash volume")
		}

		results = append(results, row)
	}

	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, table.Row{r.Bucket, r.Study, r.VolumeID, r.JobID, r.Created, r.Error})
	}

	if err := globals.render(table.Row{"Bucket", "Study", "Volume", "Job", "Created", "Error"}, rows, results); err != nil {
		return err
	}

	if h.Out != "" {
		if err := writeBatchResults(ctx, h.Out, results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return &BatchError{Failed: failed, Total: len(results)}
	}

	return nil
}

func readBatch(path string) ([]provision.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	tbl, err := jobs.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	index := make(map[string]int)
	for i, name := range tbl.Header {
		if field, ok := batchColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			index[field] = i
		}
	}
	for _, required := range []string{"bucket", "study"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("batch file %s has no %s column", path, required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	requests := make([]provision.Request, 0, len(tbl.Rows))
	for n, row := range tbl.Rows {
		req := provision.Request{
			Bucket:       cell(row, "bucket"),
			Study:        cell(row, "study"),
			Region:       cell(row, "region"),
			PathPrefix:   cell(row, "prefix"),
			BillingGroup: cell(row, "billing"),
			Credential:   cell(row, "credential"),
		}
		if req.Bucket == "" || req.Study == "" {
			return nil, fmt.Errorf("batch file %s line %d: bucket and study are required", path, n+2)
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func writeBatchResults(ctx context.Context, path string, results []batchRow) error {
	tbl := &jobs.Table{Header: []string{"bucket", "study", "volume_id", "job_id", "created", "error"}}
	for _, r := range results {
		tbl.Rows = append(tbl.Rows, []string{r.Bucket, r.Study, r.VolumeID, r.JobID, fmt.Sprint(r.Created), r.Error})
	}

	if _, err := tbl.WriteCSV(ctx, path); err != nil {
		return fmt.Errorf("failed to write batch results: %w", err)
	}

	return nil
}
