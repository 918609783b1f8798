package schemas

import (
	"fmt"
	"time"
)

// StatusKind classifies the outcome of one identifier lookup.
type StatusKind string

const (
	StatusOK           StatusKind = "ok"
	StatusNoPrice      StatusKind = "no_price"
	StatusTypingFailed StatusKind = "typing_failed"
	StatusError        StatusKind = "error"
)

// Status is a StatusKind plus, for StatusError, the failure detail.
type Status struct {
	Kind   StatusKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

// OK, NoPrice, TypingFailed and Errored build the four status variants.
func OK() Status           { return Status{Kind: StatusOK} }
func NoPrice() Status      { return Status{Kind: StatusNoPrice} }
func TypingFailed() Status { return Status{Kind: StatusTypingFailed} }
func Errored(detail string) Status {
	return Status{Kind: StatusError, Detail: detail}
}

// String renders the status the way it is written to the result sink.
func (s Status) String() string {
	if s.Kind == StatusError {
		return fmt.Sprintf("error: %s", s.Detail)
	}
	return string(s.Kind)
}

// WorkItem is one identifier's full processing outcome.
type WorkItem struct {
	ID     string `json:"id"`
	Price  string `json:"price"`
	Status Status `json:"status"`
}

// Row returns the item as the sink's ID, Price, Status columns.
func (w WorkItem) Row() []string {
	return []string{w.ID, w.Price, w.Status.String()}
}

// ReportColumns is the header row of every tabular sink.
var ReportColumns = []string{"ID", "Price", "Status"}

// RunReport is the ordered, append-only set of WorkItems for a run.
type RunReport struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Items      []WorkItem `json:"items"`
}

// Append adds an item to the end of the report.
func (r *RunReport) Append(item WorkItem) {
	r.Items = append(r.Items, item)
}

// Counts tallies items per status kind.
func (r *RunReport) Counts() map[StatusKind]int {
	counts := make(map[StatusKind]int, 4)
	for _, it := range r.Items {
		counts[it.Status.Kind]++
	}
	return counts
}
