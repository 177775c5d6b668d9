package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"hackathon-sync/internal/merge"
	"hackathon-sync/internal/model"
)

const (
	StatusOK        = "ok"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// SourceReport: итог одного источника за прогон.
type SourceReport struct {
	Source     model.Source  `json:"source"`
	Status     string        `json:"status"`
	Seen       int           `json:"listings_seen"`
	Extracted  int           `json:"extracted"`
	Failures   int           `json:"failures"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

func (sr *SourceReport) setErr(err error) {
	sr.Err = err
	sr.Error = err.Error()
}

// Report: итог прогона; покрывает все источники, даже упавшие.
type Report struct {
	RunID      string         `json:"run_id"`
	Mode       merge.Mode     `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceReport `json:"sources"`
}

func (r *Report) FailedCount() int {
	n := 0
	for _, sr := range r.Sources {
		if sr.Status != StatusOK && sr.Status != StatusPartial {
			n++
		}
	}
	return n
}

// AllFailed: ни один источник не дошёл до записи.
func (r *Report) AllFailed() bool {
	return len(r.Sources) > 0 && r.FailedCount() == len(r.Sources)
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "run %s (%s) %s\n", r.RunID, r.Mode, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tSEEN\tEXTRACTED\tFAILURES\tINSERTED\tUPDATED\tSKIPPED\tDURATION\tERROR")
	for _, sr := range r.Sources {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			sr.Source, sr.Status, sr.Seen, sr.Extracted, sr.Failures,
			sr.Inserted, sr.Updated, sr.Skipped, sr.Duration.Round(time.Millisecond), sr.Error)
	}
	return tw.Flush()
}
