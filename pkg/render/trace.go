package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nektos/stackscope/pkg/runtime"
)

// Mode selects how much of a trace is written after a run
type Mode string

const (
	ModeNone   Mode = "none"
	ModeEvents Mode = "events"
	ModeStack  Mode = "stack"
)

// ParseMode validates a trace mode name, empty meaning none
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case "":
		return ModeNone, nil
	case ModeNone, ModeEvents, ModeStack:
		return m, nil
	}
	return "", fmt.Errorf("unknown trace mode %q, expected none, events or stack", s)
}

// Report is the renderable part of a run, live or stored
type Report struct {
	Program string
	RunID   string
	Status  runtime.Status
	Globals []runtime.BindingSnapshot
	Events  []*runtime.TraceEvent
}

// FromResult builds a report from a finished run
func FromResult(r *runtime.Result) *Report {
	return &Report{
		Program: r.Program,
		RunID:   r.RunID,
		Status:  r.Status,
		Globals: r.Globals,
		Events:  r.Events(),
	}
}

type palette struct {
	kinds  map[runtime.EventKind]*color.Color
	ok     *color.Color
	failed *color.Color
	faint  *color.Color
}

func newPalette(colored bool) *palette {
	p := &palette{
		kinds: map[runtime.EventKind]*color.Color{
			runtime.EventPush:   color.New(color.FgGreen, color.Bold),
			runtime.EventPop:    color.New(color.FgGreen),
			runtime.EventHoist:  color.New(color.FgMagenta),
			runtime.EventRead:   color.New(color.FgCyan),
			runtime.EventWrite:  color.New(color.FgYellow),
			runtime.EventOutput: color.New(color.FgWhite, color.Bold),
			runtime.EventThrow:  color.New(color.FgRed, color.Bold),
		},
		ok:     color.New(color.FgGreen, color.Bold),
		failed: color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
	}
	all := []*color.Color{p.ok, p.failed, p.faint}
	for _, c := range p.kinds {
		all = append(all, c)
	}
	for _, c := range all {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// FormatEvent renders one trace event without colors
func FormatEvent(ev *runtime.TraceEvent) string {
	return formatEvent(ev, newPalette(false))
}

func formatEvent(ev *runtime.TraceEvent, p *palette) string {
	var detail string
	switch ev.Kind {
	case runtime.EventPush, runtime.EventPop:
		detail = frameLabel(ev)
	case runtime.EventHoist:
		detail = fmt.Sprintf("%s %s", ev.Binding, ev.Name)
	case runtime.EventRead, runtime.EventWrite:
		detail = ev.Name
		if ev.Failed() {
			detail += " " + p.failed.Sprintf("%s", ev.ErrorKind)
		} else {
			detail += " = " + ev.Value
		}
	case runtime.EventOutput:
		detail = ev.Value
	case runtime.EventThrow:
		detail = p.failed.Sprintf("%s: %s", ev.ErrorKind, ev.Error)
	}
	kind := string(ev.Kind)
	if c, ok := p.kinds[ev.Kind]; ok {
		kind = c.Sprintf("%-6s", ev.Kind)
	}
	indent := strings.Repeat("  ", max(ev.Depth-1, 0))
	return fmt.Sprintf("%s %s%s %s", p.faint.Sprintf("%4d", ev.Seq), indent, kind, detail)
}

func frameLabel(ev *runtime.TraceEvent) string {
	switch ev.ContextKind {
	case runtime.ContextGlobal:
		return "global"
	case runtime.ContextEval:
		return "eval"
	}
	return ev.Context + "()"
}

// WriteEvents writes every event on its own line, indented by stack depth
func WriteEvents(w io.Writer, events []*runtime.TraceEvent, colored bool) error {
	p := newPalette(colored)
	for _, ev := range events {
		if _, err := fmt.Fprintln(w, formatEvent(ev, p)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes the terminal status followed by the global bindings
func WriteSummary(w io.Writer, report *Report, colored bool) error {
	p := newPalette(colored)
	status := p.ok
	if !report.Status.OK() {
		status = p.failed
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", report.Program, status.Sprint(report.Status.String())); err != nil {
		return err
	}
	if report.Status.Message != "" && !report.Status.OK() {
		fmt.Fprintf(w, "  %s\n", report.Status.Message)
	}

	width := 0
	for _, g := range report.Globals {
		width = max(width, len(g.Name))
	}
	for _, g := range report.Globals {
		value := g.Value
		if g.State == runtime.Uninitialized {
			value = p.faint.Sprint("<uninitialized>")
		}
		if _, err := fmt.Fprintf(w, "  %-*s %-9s %s\n", width, g.Name, g.Kind, value); err != nil {
			return err
		}
	}
	return nil
}

// Write renders a report according to mode
func Write(w io.Writer, report *Report, mode Mode, colored bool) error {
	if err := WriteSummary(w, report, colored); err != nil {
		return err
	}
	switch mode {
	case ModeEvents:
		return WriteEvents(w, report.Events, colored)
	case ModeStack:
		return WriteStack(w, report.Events, colored)
	}
	return nil
}
