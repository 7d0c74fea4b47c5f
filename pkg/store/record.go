package store

import (
	"time"

	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runtime"
)

// Record is one stored run
type Record struct {
	ID        uint64                    `json:"id" boltholdKey:"ID"`
	RunID     string                    `json:"runId" boltholdIndex:"RunID"`
	Program   string                    `json:"program" boltholdIndex:"Program"`
	File      string                    `json:"file,omitempty"`
	Source    string                    `json:"source,omitempty"`
	Status    runtime.Status            `json:"status"`
	Globals   []runtime.BindingSnapshot `json:"globals"`
	Output    []string                  `json:"output"`
	Events    []*runtime.TraceEvent     `json:"events,omitempty"`
	Steps     int                       `json:"steps"`
	MaxDepth  int                       `json:"maxDepth"`
	Duration  time.Duration             `json:"duration"`
	CreatedAt int64                     `json:"createdAt" boltholdIndex:"CreatedAt"`
}

// NewRecord captures a finished run of program
func NewRecord(program *model.Program, result *runtime.Result) *Record {
	rec := &Record{
		RunID:    result.RunID,
		Program:  result.Program,
		Status:   result.Status,
		Globals:  result.Globals,
		Output:   result.Output,
		Events:   result.Events(),
		Steps:    result.Steps,
		MaxDepth: result.MaxDepth,
		Duration: result.Duration,
	}
	if program != nil {
		rec.File = program.File
		rec.Source = program.Source()
	}
	return rec
}

// Summary returns a copy without the trace
func (r *Record) Summary() *Record {
	rtn := *r
	rtn.Events = nil
	rtn.Source = ""
	return &rtn
}

// Report returns the renderable view of the record
func (r *Record) Report() *render.Report {
	return &render.Report{
		Program: r.Program,
		RunID:   r.RunID,
		Status:  r.Status,
		Globals: r.Globals,
		Events:  r.Events,
	}
}

// Created is the time the record was saved
func (r *Record) Created() time.Time {
	return time.Unix(0, r.CreatedAt)
}
