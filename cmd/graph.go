package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runtime"
)

// graphDrawer draws the call stack history of each finished run
type graphDrawer struct {
	out     io.Writer
	colored bool
	mu      sync.Mutex
}

func (g *graphDrawer) draw(program *model.Program, result *runtime.Result) {
	drawings := make([]*render.Drawing, 0)

	programPen := render.NewPen(render.StyleDoubleLine, 91, g.colored)
	arrowPen := render.NewPen(render.StyleNoLine, 97, g.colored)
	statusPen := render.NewPen(render.StyleDashedLine, 92, g.colored)
	if !result.Status.OK() {
		statusPen = render.NewPen(render.StyleDashedLine, 91, g.colored)
	}

	drawings = append(drawings, programPen.DrawBoxes(fmt.Sprintf("PROGRAM: %s", program.Name)))
	if stack := render.StackDrawings(result.Events(), g.colored); len(stack) > 0 {
		drawings = append(drawings, arrowPen.DrawArrow())
		drawings = append(drawings, stack...)
	}
	drawings = append(drawings, arrowPen.DrawArrow(), statusPen.DrawBoxes(result.Status.String()))

	g.mu.Lock()
	defer g.mu.Unlock()
	render.DrawAll(g.out, drawings)
}
