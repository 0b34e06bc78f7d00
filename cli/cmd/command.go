package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	pb "github.com/ponyo877/sketchsphere/grpc"
)

// SessionCommand is one line typed into the board session input. Lines that
// do not start with "/" are chat messages.
type SessionCommand struct {
	Name string
	Op   pb.Operation
	Arg  string
}

const sessionHelp = `/draw x1 y1 x2 y2 [color] [width]   pen stroke
/line x1 y1 x2 y2 [color] [width]   straight line
/erase x1 y1 x2 y2 [width]          eraser stroke
/rect x1 y1 x2 y2 [color] [fill]    rectangle
/circle cx cy r [color]             circle
/text x y words...                  text
/undo /redo /clear /sync            board history
/join room  /leave  /quit  /help
anything else is sent as chat`

func ParseSessionCommand(line string) (SessionCommand, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return SessionCommand{}, fmt.Errorf("empty input")
	}
	if !strings.HasPrefix(line, "/") {
		return SessionCommand{Name: "chat", Arg: line}, nil
	}

	args, err := shellwords.Parse(line[1:])
	if err != nil {
		return SessionCommand{}, fmt.Errorf("failed to parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return SessionCommand{}, fmt.Errorf("missing command")
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "undo", "redo", "clear", "sync", "leave", "quit", "help":
		if len(args) != 0 {
			return SessionCommand{}, fmt.Errorf("/%s takes no arguments", name)
		}
		return SessionCommand{Name: name}, nil
	case "join":
		if len(args) != 1 {
			return SessionCommand{}, fmt.Errorf("usage: /join room")
		}
		return SessionCommand{Name: name, Arg: args[0]}, nil
	case "text":
		if len(args) < 3 {
			return SessionCommand{}, fmt.Errorf("usage: /text x y words...")
		}
		xy, err := parseCoords(args[:2])
		if err != nil {
			return SessionCommand{}, err
		}
		op := pb.Operation{Tool: "text", StartX: xy[0], StartY: xy[1], EndX: xy[0], EndY: xy[1], Text: strings.Join(args[2:], " ")}
		return SessionCommand{Name: "draw", Op: op}, nil
	case "circle":
		if len(args) < 3 || len(args) > 4 {
			return SessionCommand{}, fmt.Errorf("usage: /circle cx cy r [color]")
		}
		v, err := parseCoords(args[:3])
		if err != nil {
			return SessionCommand{}, err
		}
		op := pb.Operation{Tool: "circle", StartX: v[0], StartY: v[1], EndX: v[0] + v[2], EndY: v[1]}
		if len(args) == 4 {
			op.Color = args[3]
		}
		return SessionCommand{Name: "draw", Op: op}, nil
	}

	tool, ok := map[string]string{"draw": "pen", "line": "line", "erase": "eraser", "rect": "rectangle"}[name]
	if !ok {
		return SessionCommand{}, fmt.Errorf("unknown command /%s", name)
	}
	return parseSegment(tool, args)
}

func parseSegment(tool string, args []string) (SessionCommand, error) {
	if len(args) < 4 || len(args) > 6 {
		return SessionCommand{}, fmt.Errorf("usage: x1 y1 x2 y2 [options] for %s", tool)
	}
	v, err := parseCoords(args[:4])
	if err != nil {
		return SessionCommand{}, err
	}
	op := pb.Operation{Tool: tool, StartX: v[0], StartY: v[1], EndX: v[2], EndY: v[3]}
	extra := args[4:]

	switch tool {
	case "eraser":
		if len(extra) > 1 {
			return SessionCommand{}, fmt.Errorf("usage: /erase x1 y1 x2 y2 [width]")
		}
		if len(extra) == 1 {
			if op.LineWidth, err = parseWidth(extra[0]); err != nil {
				return SessionCommand{}, err
			}
		}
	case "rectangle":
		if len(extra) > 0 {
			op.Color = extra[0]
		}
		if len(extra) > 1 {
			op.FillColor = extra[1]
		}
	default:
		if len(extra) > 0 {
			op.Color = extra[0]
		}
		if len(extra) > 1 {
			if op.LineWidth, err = parseWidth(extra[1]); err != nil {
				return SessionCommand{}, err
			}
		}
	}
	return SessionCommand{Name: "draw", Op: op}, nil
}

func parseCoords(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func parseWidth(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w <= 0 {
		return 0, fmt.Errorf("invalid line width %q", s)
	}
	return w, nil
}
