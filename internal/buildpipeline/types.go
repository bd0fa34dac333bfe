// Package buildpipeline describes per-document progress of a markc build.
package buildpipeline

import "time"

// Stage is one step of compiling a document.
type Stage string

const (
	StageParse    Stage = "parse"
	StageBind     Stage = "bind"
	StageValidate Stage = "validate"
	StageRewrite  Stage = "rewrite"
	StageEmit     Stage = "emit"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageParse, StageBind, StageValidate, StageRewrite, StageEmit}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole build when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Terminal reports whether no further events follow for the file.
func (e Event) Terminal() bool {
	return e.Status == StatusDone || e.Status == StatusError || e.Status == StatusCached
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use: documents compile in parallel.
type ProgressSink interface {
	OnEvent(Event)
}
