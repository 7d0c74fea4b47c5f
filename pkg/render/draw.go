package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Style is a specific style
type Style int

// Styles
const (
	StyleDoubleLine = iota
	StyleSingleLine
	StyleDashedLine
	StyleNoLine
)

// NewPen creates a new pen. Without colored the pen writes no escape codes.
func NewPen(style Style, color int, colored bool) *Pen {
	return &Pen{
		style:   style,
		color:   color,
		bgcolor: 49,
		colored: colored,
	}
}

type styleDef struct {
	cornerTL string
	cornerTR string
	cornerBL string
	cornerBR string
	lineH    string
	lineV    string
}

var styleDefs = []styleDef{
	{"╔", "╗", "╚", "╝", "═", "║"},
	{"╭", "╮", "╰", "╯", "─", "│"},
	{"┌", "┐", "└", "┘", "╌", "╎"},
	{" ", " ", " ", " ", " ", " "},
}

// Pen draws boxes and arrows
type Pen struct {
	style   Style
	color   int
	bgcolor int
	colored bool
}

// Drawing is a rendered block of lines
type Drawing struct {
	buf   *strings.Builder
	width int
}

func (p *Pen) start(buf io.Writer) {
	if p.colored {
		fmt.Fprintf(buf, "\x1b[%d;%dm", p.color, p.bgcolor)
	}
}

func (p *Pen) reset(buf io.Writer) {
	if p.colored {
		fmt.Fprintf(buf, "\x1b[%dm", 0)
	}
}

func (p *Pen) drawBars(buf io.Writer, left, right string, labels ...string) {
	style := styleDefs[p.style]
	for _, label := range labels {
		bar := strings.Repeat(style.lineH, utf8.RuneCountInString(label)+2)
		fmt.Fprintf(buf, " ")
		p.start(buf)
		fmt.Fprintf(buf, "%s%s%s", left, bar, right)
		p.reset(buf)
	}
	fmt.Fprintf(buf, "\n")
}

func (p *Pen) drawLabels(buf io.Writer, labels ...string) {
	style := styleDefs[p.style]
	for _, label := range labels {
		fmt.Fprintf(buf, " ")
		p.start(buf)
		fmt.Fprintf(buf, "%s %s %s", style.lineV, label, style.lineV)
		p.reset(buf)
	}
	fmt.Fprintf(buf, "\n")
}

// DrawArrow between boxes
func (p *Pen) DrawArrow() *Drawing {
	drawing := &Drawing{
		buf:   new(strings.Builder),
		width: 1,
	}
	if p.colored {
		fmt.Fprintf(drawing.buf, "\x1b[%dm", p.color)
	}
	fmt.Fprintf(drawing.buf, "⬇")
	p.reset(drawing.buf)
	return drawing
}

// DrawText renders a plain line with the pen's color
func (p *Pen) DrawText(text string) *Drawing {
	drawing := &Drawing{
		buf:   new(strings.Builder),
		width: utf8.RuneCountInString(text),
	}
	if p.colored {
		fmt.Fprintf(drawing.buf, "\x1b[%dm", p.color)
	}
	fmt.Fprint(drawing.buf, text)
	p.reset(drawing.buf)
	return drawing
}

// DrawBoxes draws one box per label on a single row
func (p *Pen) DrawBoxes(labels ...string) *Drawing {
	width := 0
	for _, l := range labels {
		width += utf8.RuneCountInString(l) + 2 + 2 + 1
	}
	style := styleDefs[p.style]
	drawing := &Drawing{
		buf:   new(strings.Builder),
		width: width,
	}
	p.drawBars(drawing.buf, style.cornerTL, style.cornerTR, labels...)
	p.drawLabels(drawing.buf, labels...)
	p.drawBars(drawing.buf, style.cornerBL, style.cornerBR, labels...)

	return drawing
}

// Draw to writer
func (d *Drawing) Draw(writer io.Writer, centerOnWidth int) {
	padSize := (centerOnWidth - d.GetWidth()) / 2
	if padSize < 0 {
		padSize = 0
	}
	for _, l := range strings.Split(d.buf.String(), "\n") {
		if len(l) > 0 {
			padding := strings.Repeat(" ", padSize)
			fmt.Fprintf(writer, "%s%s\n", padding, l)
		}
	}
}

// GetWidth of drawing
func (d *Drawing) GetWidth() int {
	return d.width
}

// DrawAll writes drawings centered on the widest one
func DrawAll(writer io.Writer, drawings []*Drawing) {
	maxWidth := 0
	for _, d := range drawings {
		if d.GetWidth() > maxWidth {
			maxWidth = d.GetWidth()
		}
	}
	for _, d := range drawings {
		d.Draw(writer, maxWidth)
	}
}
