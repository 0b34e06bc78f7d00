package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultColor     = "#000000"
	DefaultLineWidth = 2.0
	MaxLineWidth     = 200.0
	MaxPathPoints    = 10000
)

type OperationType string

const (
	OperationDraw  OperationType = "draw"
	OperationClear OperationType = "clear"
)

type Tool string

const (
	ToolPen       Tool = "pen"
	ToolEraser    Tool = "eraser"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolText      Tool = "text"
)

func (t Tool) IsValid() bool {
	switch t {
	case ToolPen, ToolEraser, ToolLine, ToolRectangle, ToolCircle, ToolText:
		return true
	default:
		return false
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Operation is one entry of a room's operation log: either a Draw or the
// Clear sentinel. It must not be modified once appended.
type Operation struct {
	ID        string        `json:"id,omitempty"`
	Type      OperationType `json:"type"`
	RoomID    string        `json:"roomId"`
	UserID    string        `json:"userId,omitempty"`
	Tool      Tool          `json:"tool,omitempty"`
	Color     string        `json:"color,omitempty"`
	LineWidth float64       `json:"lineWidth,omitempty"`
	StartX    float64       `json:"startX"`
	StartY    float64       `json:"startY"`
	EndX      float64       `json:"endX"`
	EndY      float64       `json:"endY"`
	Path      []Point       `json:"path,omitempty"`
	Text      string        `json:"text,omitempty"`
	FillColor string        `json:"fillColor,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func NewDrawOperation(roomID string, tool Tool, color string, lineWidth, startX, startY, endX, endY float64) Operation {
	return Operation{
		Type:      OperationDraw,
		RoomID:    roomID,
		Tool:      tool,
		Color:     color,
		LineWidth: lineWidth,
		StartX:    startX,
		StartY:    startY,
		EndX:      endX,
		EndY:      endY,
	}
}

func NewClearOperation(roomID string) Operation {
	return Operation{
		Type:   OperationClear,
		RoomID: roomID,
	}
}

func (o Operation) IsDraw() bool {
	return o.Type == OperationDraw
}

func (o Operation) IsClear() bool {
	return o.Type == OperationClear
}

// Normalize validates o and returns a copy with defaults filled in. A missing
// type means draw. The returned operation never shares its path with o.
func (o Operation) Normalize() (Operation, error) {
	if o.Type == "" {
		o.Type = OperationDraw
	}
	if o.RoomID == "" {
		return Operation{}, fmt.Errorf("%w: missing room id", ErrInvalidOperation)
	}

	switch o.Type {
	case OperationClear:
		return Operation{
			ID:        o.ID,
			Type:      OperationClear,
			RoomID:    o.RoomID,
			UserID:    o.UserID,
			CreatedAt: o.CreatedAt,
		}, nil
	case OperationDraw:
	default:
		return Operation{}, fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, o.Type)
	}

	if o.Tool == "" {
		o.Tool = ToolPen
	}
	if !o.Tool.IsValid() {
		return Operation{}, fmt.Errorf("%w: unknown tool %q", ErrInvalidOperation, o.Tool)
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.LineWidth == 0 {
		o.LineWidth = DefaultLineWidth
	}
	if !finite(o.LineWidth) || o.LineWidth < 0 || o.LineWidth > MaxLineWidth {
		return Operation{}, fmt.Errorf("%w: line width %v out of range", ErrInvalidOperation, o.LineWidth)
	}
	if !finite(o.StartX, o.StartY, o.EndX, o.EndY) {
		return Operation{}, fmt.Errorf("%w: non-finite coordinates", ErrInvalidOperation)
	}
	if len(o.Path) > MaxPathPoints {
		return Operation{}, fmt.Errorf("%w: path has %d points", ErrInvalidOperation, len(o.Path))
	}
	if o.Tool == ToolText && o.Text == "" {
		return Operation{}, fmt.Errorf("%w: text tool without text", ErrInvalidOperation)
	}

	if o.Path != nil {
		path := make([]Point, len(o.Path))
		for i, p := range o.Path {
			if !finite(p.X, p.Y) {
				return Operation{}, fmt.Errorf("%w: non-finite path point %d", ErrInvalidOperation, i)
			}
			path[i] = p
		}
		o.Path = path
	}
	return o, nil
}

func (o Operation) String() string {
	if o.IsClear() {
		return "clear@" + o.RoomID
	}
	return fmt.Sprintf("%s %s (%g,%g)->(%g,%g)@%s", o.Tool, o.Color, o.StartX, o.StartY, o.EndX, o.EndY, o.RoomID)
}

// Drawings returns the draw operations that survive the last Clear in log,
// in log order. Replaying them on a blank surface reproduces the board.
func Drawings(log []Operation) []Operation {
	start := 0
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].IsClear() {
			start = i + 1
			break
		}
	}
	drawings := make([]Operation, 0, len(log)-start)
	for _, op := range log[start:] {
		if op.IsDraw() {
			drawings = append(drawings, op)
		}
	}
	return drawings
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
