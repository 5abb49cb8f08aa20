// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/validators"
)

// Result is the output of one validation run. Accepted and Rejected preserve
// the original batch order.
type Result struct {
	RunID    string
	Total    int
	Accepted []record.Record
	Rejected []Rejection
}

// Rejection pairs a rejected record with the verdicts that failed it. Index
// is the record's position in the input batch.
type Rejection struct {
	Index    int
	Record   record.Record
	Verdicts []validators.Verdict
}

// Report is the serializable diagnostic summary of a run. It carries enough
// detail per rejection (column, rule kind, reason) to reproduce and fix the
// failure without re-running the engine.
type Report struct {
	RunID      string            `json:"run_id"`
	Total      int               `json:"total_records"`
	Accepted   int               `json:"accepted_count"`
	Rejected   int               `json:"rejected_count"`
	Rejections []RejectionReport `json:"rejections,omitempty"`
}

type RejectionReport struct {
	Index    int                  `json:"index"`
	Failures []validators.Verdict `json:"failures"`
}

func (r *Result) Report() *Report {
	report := &Report{
		RunID:    r.RunID,
		Total:    r.Total,
		Accepted: len(r.Accepted),
		Rejected: len(r.Rejected),
	}
	for _, rej := range r.Rejected {
		report.Rejections = append(report.Rejections, RejectionReport{
			Index:    rej.Index,
			Failures: rej.Verdicts,
		})
	}
	return report
}
