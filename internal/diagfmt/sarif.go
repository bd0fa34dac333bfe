package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"markc/internal/diag"
	"markc/internal/source"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Related   []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifLocation struct {
	Physical sarifPhysical `json:"physicalLocation"`
	Message  *sarifMessage `json:"message,omitempty"`
}

type sarifPhysical struct {
	Artifact sarifArtifact `json:"artifactLocation"`
	Region   sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
}

// SarifInput is one document's diagnostics with the file set they point into.
type SarifInput struct {
	Bag     *diag.Bag
	FileSet *source.FileSet
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0).
// Таймингов в SARIF нет: они не относятся к коду.
func Sarif(w io.Writer, inputs []SarifInput, meta SarifRunMeta) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion}},
		Results: []sarifResult{},
	}
	rules := map[diag.Code]bool{}
	failed := false
	for _, in := range inputs {
		if in.Bag == nil {
			continue
		}
		for _, d := range in.Bag.Items() {
			if !located(&d) {
				continue
			}
			if d.Severity >= diag.SevError {
				failed = true
			}
			rules[d.Code] = true
			res := sarifResult{
				RuleID:  d.Code.ID(),
				Level:   sarifLevel(d.Severity),
				Message: sarifMessage{Text: d.Message},
			}
			if loc, ok := sarifLoc(in.FileSet, d.Primary, ""); ok {
				res.Locations = append(res.Locations, loc)
			}
			for _, n := range d.Notes {
				if loc, ok := sarifLoc(in.FileSet, n.Span, n.Msg); ok {
					res.Related = append(res.Related, loc)
				}
			}
			run.Results = append(run.Results, res)
		}
	}

	codes := make([]diag.Code, 0, len(rules))
	for c := range rules {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, c := range codes {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: c.ID(), ShortDescription: sarifMessage{Text: c.Title()}})
	}
	run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !failed}}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

func sarifLoc(fs *source.FileSet, span source.Span, msg string) (sarifLocation, bool) {
	f := fileOf(fs, span)
	if f == nil {
		return sarifLocation{}, false
	}
	start, end := fs.Resolve(span)
	loc := sarifLocation{Physical: sarifPhysical{
		Artifact: sarifArtifact{URI: f.Path},
		Region:   sarifRegion{StartLine: start.Line, StartColumn: start.Col, EndLine: end.Line, EndColumn: end.Col},
	}}
	if msg != "" {
		loc.Message = &sarifMessage{Text: msg}
	}
	return loc, true
}
