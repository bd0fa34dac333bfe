package driver

import (
	"encoding/json"
	"fmt"

	"markc/internal/diag"
	"markc/internal/observ"
	"markc/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic attaches a timing report to bag as an info entry
// whose note carries the JSON payload. It ignores the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, path string, report observ.Report) {
	if bag == nil || len(report.Phases) == 0 {
		return
	}
	data, err := json.Marshal(timingPayload{Kind: "document", Path: path, TotalMS: report.TotalMS, Phases: report.Phases})
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  fmt.Sprintf("timings: total %.2f ms", report.TotalMS),
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
