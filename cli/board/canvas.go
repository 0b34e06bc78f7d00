package board

import (
	"math"
	"strings"

	pb "github.com/ponyo877/sketchsphere/grpc"
)

// Default board size in drawing units, matching the browser canvas.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

const (
	inkGlyph   = '#'
	blankGlyph = ' '
)

// Canvas rasterizes drawn operations onto a character grid so a terminal can
// show the board. Board coordinates (0..Width, 0..Height) are scaled to
// Cols x Rows cells.
type Canvas struct {
	Cols, Rows    int
	Width, Height float64
	cells         [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{Cols: max(cols, 1), Rows: max(rows, 1), Width: DefaultWidth, Height: DefaultHeight}
	c.reset()
	return c
}

func (c *Canvas) reset() {
	c.cells = make([][]rune, c.Rows)
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(string(blankGlyph), c.Cols))
	}
}

// Render draws ops in order on a blank grid and returns one string per row.
func (c *Canvas) Render(ops []pb.Operation) []string {
	c.reset()
	for _, op := range ops {
		c.draw(op)
	}
	lines := make([]string, c.Rows)
	for y, row := range c.cells {
		lines[y] = string(row)
	}
	return lines
}

func (c *Canvas) draw(op pb.Operation) {
	glyph := rune(inkGlyph)
	switch op.Tool {
	case "eraser":
		glyph = blankGlyph
		fallthrough
	case "", "pen":
		if len(op.Path) > 1 {
			for i := 1; i < len(op.Path); i++ {
				c.line(op.Path[i-1].X, op.Path[i-1].Y, op.Path[i].X, op.Path[i].Y, glyph)
			}
			return
		}
		c.line(op.StartX, op.StartY, op.EndX, op.EndY, glyph)
	case "line":
		c.line(op.StartX, op.StartY, op.EndX, op.EndY, glyph)
	case "rectangle":
		c.line(op.StartX, op.StartY, op.EndX, op.StartY, glyph)
		c.line(op.EndX, op.StartY, op.EndX, op.EndY, glyph)
		c.line(op.EndX, op.EndY, op.StartX, op.EndY, glyph)
		c.line(op.StartX, op.EndY, op.StartX, op.StartY, glyph)
	case "circle":
		c.circle(op.StartX, op.StartY, math.Hypot(op.EndX-op.StartX, op.EndY-op.StartY), glyph)
	case "text":
		x, y := c.cell(op.StartX, op.StartY)
		for i, r := range []rune(op.Text) {
			c.set(x+i, y, r)
		}
	}
}

func (c *Canvas) cell(x, y float64) (int, int) {
	return int(math.Floor(x / c.Width * float64(c.Cols))), int(math.Floor(y / c.Height * float64(c.Rows)))
}

func (c *Canvas) set(x, y int, glyph rune) {
	if x < 0 || y < 0 || x >= c.Cols || y >= c.Rows {
		return
	}
	c.cells[y][x] = glyph
}

// line plots a segment in cell space with Bresenham's algorithm.
func (c *Canvas) line(x0, y0, x1, y1 float64, glyph rune) {
	ax, ay := c.cell(x0, y0)
	bx, by := c.cell(x1, y1)
	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(ax, ay, glyph)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ax += sx
		}
		if e2 <= dx {
			err += dx
			ay += sy
		}
	}
}

func (c *Canvas) circle(cx, cy, radius float64, glyph rune) {
	if radius <= 0 {
		x, y := c.cell(cx, cy)
		c.set(x, y, glyph)
		return
	}
	steps := max(16, int(radius/c.Width*float64(c.Cols)*8))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x, y := c.cell(cx+radius*math.Cos(a), cy+radius*math.Sin(a))
		c.set(x, y, glyph)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
