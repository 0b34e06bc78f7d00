package cmd

import (
	"testing"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want SessionCommand
	}{
		{"chat", "hello there", SessionCommand{Name: "chat", Arg: "hello there"}},
		{"pen", "/draw 0 0 10 10", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "pen", EndX: 10, EndY: 10}}},
		{"pen with options", "/draw 1 2 3 4 #ff0000 5", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "pen", StartX: 1, StartY: 2, EndX: 3, EndY: 4, Color: "#ff0000", LineWidth: 5}}},
		{"line", "/line 0 0 100 0 blue", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "line", EndX: 100, Color: "blue"}}},
		{"eraser", "/erase 0 0 5 5 20", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "eraser", EndX: 5, EndY: 5, LineWidth: 20}}},
		{"rectangle", "/rect 0 0 50 40 #000 #eee", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "rectangle", EndX: 50, EndY: 40, Color: "#000", FillColor: "#eee"}}},
		{"circle", "/circle 100 100 25 red", SessionCommand{Name: "draw", Op: pb.Operation{Tool: "circle", StartX: 100, StartY: 100, EndX: 125, EndY: 100, Color: "red"}}},
		{"quoted text", `/text 10 20 "hello world" again`, SessionCommand{Name: "draw", Op: pb.Operation{Tool: "text", StartX: 10, StartY: 20, EndX: 10, EndY: 20, Text: "hello world again"}}},
		{"undo", "/undo", SessionCommand{Name: "undo"}},
		{"case insensitive", "/REDO", SessionCommand{Name: "redo"}},
		{"join", "/join lobby", SessionCommand{Name: "join", Arg: "lobby"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSessionCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSessionCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"/",
		"/paint 0 0 1 1",
		"/draw 0 0 1",
		"/draw a b c d",
		"/draw 0 0 1 1 #000 -3",
		"/undo now",
		"/join",
		"/text 1 2",
		"/circle 1 2",
		`/text 1 2 "unterminated`,
	} {
		_, err := ParseSessionCommand(line)
		assert.Error(t, err, line)
	}
}
