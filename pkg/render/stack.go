package render

import (
	"fmt"
	"io"

	"github.com/nektos/stackscope/pkg/runtime"
)

const (
	maxStackRows   = 40
	maxStackFrames = 6
)

// StackSnapshots replays PUSH and POP events and returns the stack, bottom
// first, as it stood after every push. The first offset pushes are skipped
// and at most limit snapshots are kept (no limit when limit <= 0); the
// number of pushes left out after the window is returned as well.
func StackSnapshots(events []*runtime.TraceEvent, offset, limit int) ([][]string, int) {
	var frames []string
	var snapshots [][]string
	pushes, more := 0, 0
	for _, ev := range events {
		switch ev.Kind {
		case runtime.EventPush:
			frames = append(frames[:min(len(frames), max(ev.Depth-1, 0))], frameLabel(ev))
			pushes++
			switch {
			case pushes <= offset:
			case limit > 0 && len(snapshots) >= limit:
				more++
			default:
				snapshots = append(snapshots, append([]string(nil), frames...))
			}
		case runtime.EventPop:
			frames = frames[:min(len(frames), max(ev.Depth-1, 0))]
		}
	}
	return snapshots, more
}

// collapse keeps the bottom and the top of a deep stack
func collapse(frames []string) []string {
	if len(frames) <= maxStackFrames {
		return frames
	}
	keep := maxStackFrames / 2
	hidden := len(frames) - 2*keep
	rtn := append([]string(nil), frames[:keep]...)
	rtn = append(rtn, fmt.Sprintf("… %d more", hidden))
	return append(rtn, frames[len(frames)-keep:]...)
}

// StackDrawings draws each stack snapshot as a row of boxes joined by arrows
func StackDrawings(events []*runtime.TraceEvent, colored bool) []*Drawing {
	framePen := NewPen(StyleSingleLine, 96, colored)
	arrowPen := NewPen(StyleNoLine, 97, colored)

	snapshots, more := StackSnapshots(events, 0, maxStackRows)
	drawings := make([]*Drawing, 0, 2*len(snapshots)+1)
	for i, frames := range snapshots {
		if i > 0 {
			drawings = append(drawings, arrowPen.DrawArrow())
		}
		drawings = append(drawings, framePen.DrawBoxes(collapse(frames)...))
	}
	if more > 0 {
		drawings = append(drawings, arrowPen.DrawText(fmt.Sprintf("… %d more pushes", more)))
	}
	return drawings
}

// WriteStack writes the stack drawings for a trace
func WriteStack(w io.Writer, events []*runtime.TraceEvent, colored bool) error {
	DrawAll(w, StackDrawings(events, colored))
	return nil
}
