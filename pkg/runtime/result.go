package runtime

import (
	"errors"
	"fmt"
	"time"
)

// StatusKind is the terminal outcome of a run
type StatusKind string

const (
	StatusCompleted     StatusKind = "Completed"
	StatusThrown        StatusKind = "Thrown"
	StatusStackOverflow StatusKind = "StackOverflow"
	StatusAborted       StatusKind = "Aborted"
)

// Status describes how a run ended
type Status struct {
	Kind        StatusKind  `json:"kind"`
	ErrorKind   ErrorKind   `json:"errorKind,omitempty"`
	Name        string      `json:"name,omitempty"`
	Message     string      `json:"message,omitempty"`
	ContextKind ContextKind `json:"contextKind,omitempty"`
	Depth       int         `json:"depth,omitempty"`
}

func (s Status) String() string {
	switch s.Kind {
	case StatusThrown:
		return fmt.Sprintf("Thrown(%s, %q)", s.ErrorKind, s.Name)
	case StatusStackOverflow:
		return fmt.Sprintf("StackOverflow(%d)", s.Depth)
	case StatusAborted:
		return fmt.Sprintf("Aborted(%s)", s.Message)
	}
	return string(s.Kind)
}

// OK reports whether the run completed normally
func (s Status) OK() bool {
	return s.Kind == StatusCompleted
}

func statusOf(err error) Status {
	if err == nil {
		return Status{Kind: StatusCompleted}
	}
	var rtErr *Error
	if !errors.As(err, &rtErr) {
		return Status{Kind: StatusThrown, ErrorKind: InternalError, Message: err.Error()}
	}
	s := Status{
		Kind:        StatusThrown,
		ErrorKind:   rtErr.Kind,
		Name:        rtErr.Name,
		Message:     rtErr.Message,
		ContextKind: rtErr.ContextKind,
	}
	switch rtErr.Kind {
	case StackOverflow:
		s.Kind = StatusStackOverflow
		s.Depth = rtErr.Depth
	case Aborted:
		s.Kind = StatusAborted
	}
	return s
}

// Result is everything a run produced
type Result struct {
	RunID    string            `json:"runId"`
	Program  string            `json:"program"`
	Status   Status            `json:"status"`
	Globals  []BindingSnapshot `json:"globals"`
	Trace    *Trace            `json:"-"`
	Output   []string          `json:"output"`
	Steps    int               `json:"steps"`
	MaxDepth int               `json:"maxDepth"`
	Duration time.Duration     `json:"duration"`
	Err      error             `json:"-"`

	globals *Environment
}

// Global returns a snapshot of a global binding
func (r *Result) Global(name string) (BindingSnapshot, bool) {
	for _, b := range r.Globals {
		if b.Name == name {
			return b, true
		}
	}
	return BindingSnapshot{}, false
}

// GlobalValue returns the live value of a global binding
func (r *Result) GlobalValue(name string) (Value, bool) {
	if r.globals == nil {
		return nil, false
	}
	b, ok := r.globals.Lookup(name)
	if !ok || !b.Initialized() {
		return nil, false
	}
	return b.Value, true
}

// Events returns the recorded trace events
func (r *Result) Events() []*TraceEvent {
	if r.Trace == nil {
		return nil
	}
	return r.Trace.Events
}
