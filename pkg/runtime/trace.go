package runtime

// EventKind names a trace event
type EventKind string

const (
	EventPush   EventKind = "PUSH"
	EventPop    EventKind = "POP"
	EventHoist  EventKind = "HOIST"
	EventRead   EventKind = "READ"
	EventWrite  EventKind = "WRITE"
	EventOutput EventKind = "OUTPUT"
	EventThrow  EventKind = "THROW"
)

// TraceEvent is one entry of a run's ordered trace
type TraceEvent struct {
	Seq         int         `json:"seq"`
	Kind        EventKind   `json:"kind"`
	Context     string      `json:"context"`
	ContextKind ContextKind `json:"contextKind"`
	Depth       int         `json:"depth"`
	Name        string      `json:"name,omitempty"`
	Binding     BindingKind `json:"binding,omitempty"`
	Value       string      `json:"value,omitempty"`
	ErrorKind   ErrorKind   `json:"errorKind,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Failed reports whether the event recorded an error outcome
func (ev *TraceEvent) Failed() bool {
	return ev.ErrorKind != ""
}

// Trace collects events for a single run. It is not safe for concurrent use;
// each run owns its own Trace.
type Trace struct {
	Events    []*TraceEvent
	listeners []func(*TraceEvent)
}

// NewTrace creates an empty trace
func NewTrace() *Trace {
	return &Trace{}
}

// OnEvent registers a callback invoked for every recorded event
func (t *Trace) OnEvent(fn func(*TraceEvent)) {
	t.listeners = append(t.listeners, fn)
}

func (t *Trace) record(ev *TraceEvent) {
	ev.Seq = len(t.Events) + 1
	t.Events = append(t.Events, ev)
	for _, fn := range t.listeners {
		fn(ev)
	}
}

// Filter returns the events of the given kinds, in order
func (t *Trace) Filter(kinds ...EventKind) []*TraceEvent {
	var rtn []*TraceEvent
	for _, ev := range t.Events {
		for _, k := range kinds {
			if ev.Kind == k {
				rtn = append(rtn, ev)
				break
			}
		}
	}
	return rtn
}
