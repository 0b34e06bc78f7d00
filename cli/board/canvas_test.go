package board

import (
	"testing"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasRendersLine(t *testing.T) {
	c := NewCanvas(8, 6)
	lines := c.Render([]pb.Operation{{Tool: "line", StartX: 0, StartY: 0, EndX: 799, EndY: 0}})

	require.Len(t, lines, 6)
	assert.Equal(t, "########", lines[0])
	assert.Equal(t, "        ", lines[1])
}

func TestCanvasEraserAndText(t *testing.T) {
	c := NewCanvas(8, 6)
	lines := c.Render([]pb.Operation{
		{Tool: "pen", Path: []pb.Point{{X: 0, Y: 100}, {X: 799, Y: 100}}},
		{Tool: "eraser", StartX: 200, StartY: 100, EndX: 399, EndY: 100},
		{Tool: "text", StartX: 0, StartY: 500, Text: "hi"},
	})

	assert.Equal(t, "##  ####", lines[1])
	assert.Equal(t, "hi      ", lines[5])
}

func TestCanvasRectangleOutline(t *testing.T) {
	c := NewCanvas(8, 6)
	lines := c.Render([]pb.Operation{{Tool: "rectangle", StartX: 0, StartY: 0, EndX: 300, EndY: 200}})

	assert.Equal(t, "####    ", lines[0])
	assert.Equal(t, "#  #    ", lines[1])
	assert.Equal(t, "####    ", lines[2])
}

func TestCanvasClipsOutOfRange(t *testing.T) {
	c := NewCanvas(4, 3)
	lines := c.Render([]pb.Operation{
		{Tool: "line", StartX: -500, StartY: -500, EndX: -100, EndY: -100},
		{Tool: "circle", StartX: 400, StartY: 300, EndX: 400, EndY: 300},
	})

	assert.Equal(t, []string{"    ", "  # ", "    "}, lines)
}
