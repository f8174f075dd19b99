package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wolfeidau/dewrangle/internal/catalog"
	"github.com/wolfeidau/dewrangle/internal/jobs"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

type jobView struct {
	ID           string     `json:"id" yaml:"id"`
	Operation    string     `json:"operation" yaml:"operation"`
	Status       string     `json:"status" yaml:"status"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	BillingGroup string     `json:"billing_group,omitempty" yaml:"billing_group,omitempty"`
	CostCents    *int       `json:"cost_cents,omitempty" yaml:"cost_cents,omitempty"`
	Errors       []string   `json:"errors,omitempty" yaml:"errors,omitempty"`
	ParentID     string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Children     []jobView  `json:"children,omitempty" yaml:"children,omitempty"`
}

func newJobView(job *models.Job) jobView {
	view := jobView{
		ID:           job.ID,
		Operation:    string(job.Operation),
		Status:       string(jobs.StatusOf(job)),
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
		BillingGroup: job.BillingGroup,
		CostCents:    job.CostCents,
		Errors:       job.Errors,
	}
	if job.ParentJob != nil {
		view.ParentID = job.ParentJob.ID
	}
	for i := range job.Children {
		view.Children = append(view.Children, newJobView(&job.Children[i]))
	}
	return view
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// JobsCmd lists the jobs run against a volume and the most recent list and
// hash jobs.
type JobsCmd struct {
	VolumeSelector
}

func (j *JobsCmd) Run(ctx context.Context, globals *Globals) error {
	selector, err := j.selector()
	if err != nil {
		return err
	}

	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	study, err := resolveStudy(ctx, cat, j.Study)
	if err != nil {
		return err
	}

	volumes, err := cat.StudyVolumes(ctx, study.ID)
	if err != nil {
		return err
	}

	volumeID, err := resolver.Resolve(volumes, selector, resolver.Volumes)
	if err != nil {
		return err
	}

	volumeJobs, err := jobs.NewTracker(exec).VolumeJobs(ctx, volumeID)
	if err != nil {
		return err
	}

	latestHash, _ := jobs.Latest(volumeJobs, models.OperationHash)
	latestList, _ := jobs.Latest(volumeJobs, models.OperationList)

	var (
		rows  []table.Row
		views []jobView
	)
	for i := range volumeJobs {
		job := &volumeJobs[i]

		marker := ""
		if job.ID == latestHash || job.ID == latestList {
			marker = "*"
		}

		rows = append(rows, table.Row{job.ID, job.Operation, formatTime(&job.CreatedAt), formatTime(job.CompletedAt), marker})
		views = append(views, newJobView(job))
	}

	if err := globals.render(table.Row{"ID", "Operation", "Created", "Completed", "Latest"}, rows, views); err != nil {
		return err
	}

	if latestHash != "" {
		globals.printf("\nMost recent hash job: %s\n", latestHash)
	}
	if latestList != "" {
		globals.printf("Most recent list job: %s\n", latestList)
	}

	return nil
}

// JobStatusCmd shows whether a job has completed, with its child jobs.
type JobStatusCmd struct {
	Job string `help:"Job id." short:"j" required:""`
}

func (j *JobStatusCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	status, job, err := jobs.NewTracker(exec).Status(ctx, j.Job)
	if err != nil {
		return err
	}

	if globals.structured() {
		return globals.render(nil, nil, newJobView(job))
	}

	l := list.NewWriter()
	l.SetOutputMirror(globals.out())
	l.AppendItem(fmt.Sprintf("%s %s: %s", job.ID, job.Operation, status))
	l.Indent()
	appendJobDetails(l, job)
	for i := range job.Children {
		child := &job.Children[i]
		l.AppendItem(fmt.Sprintf("%s %s: %s", child.ID, child.Operation, jobs.StatusOf(child)))
		l.Indent()
		appendJobDetails(l, child)
		l.UnIndent()
	}
	l.UnIndent()
	l.SetStyle(list.StyleConnectedRounded)
	l.Render()

	return nil
}

func appendJobDetails(l list.Writer, job *models.Job) {
	l.AppendItem("created: " + formatTime(&job.CreatedAt))
	if job.CompletedAt != nil {
		l.AppendItem("completed: " + formatTime(job.CompletedAt))
	}
	if job.BillingGroup != "" {
		l.AppendItem("billing group: " + job.BillingGroup)
	}
	if job.CostCents != nil {
		l.AppendItem(fmt.Sprintf("cost: $%d.%02d", *job.CostCents/100, *job.CostCents%100))
	}
	if job.ParentJob != nil {
		l.AppendItem("parent: " + job.ParentJob.ID)
	}
	if len(job.Errors) > 0 {
		l.AppendItem("errors: " + strings.Join(job.Errors, "; "))
	}
}

// DownloadCmd saves the CSV result of a completed job.
type DownloadCmd struct {
	Job      string `help:"Job id." short:"j" required:""`
	Basename string `help:"Output file name without extension (default <job id>_output)." short:"o"`
}

func (d *DownloadCmd) Run(ctx context.Context, globals *Globals) error {
	exec, dl, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := jobs.NewTracker(exec).DownloadResult(ctx, dl, d.Job)
	if err != nil {
		return err
	}

	if res.Status != jobs.StatusComplete {
		globals.printf("Job %s is %s, no result to download yet.\n", d.Job, strings.ToLower(string(res.Status)))
		return globals.render(
			table.Row{"Job", "Status"},
			[]table.Row{{d.Job, res.Status}},
			map[string]any{"job_id": d.Job, "status": res.Status},
		)
	}

	basename := d.Basename
	if basename == "" {
		basename = d.Job + "_output"
	}

	written, err := res.Table.WriteCSV(ctx, basename)
	if err != nil {
		return err
	}

	return globals.render(
		table.Row{"Job", "Result Job", "File", "Rows", "Size", "Checksum"},
		[]table.Row{{d.Job, res.ResultJobID, written.Path, len(res.Table.Rows), humanize.Bytes(uint64(written.Bytes)), written.Checksum}},
		map[string]any{
			"job_id":        d.Job,
			"result_job_id": res.ResultJobID,
			"status":        res.Status,
			"path":          written.Path,
			"rows":          len(res.Table.Rows),
			"bytes":         written.Bytes,
			"checksum":      written.Checksum,
		},
	)
}
