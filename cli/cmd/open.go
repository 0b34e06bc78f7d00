package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/ponyo877/sketchsphere/cli/board"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var openCmd = &cobra.Command{
	Use:   "open <room>",
	Short: "Opens a room in an interactive board session.",
	Long: `Joins a room and shows the live board, the event log and the chat.
Type a message to chat, or a slash command such as "/draw 0 0 100 100" to
draw. "/help" lists the commands, Ctrl+C leaves.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(0),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBoardUI(displayName(cmd), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Board UI error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringP("name", "n", "", "Your name for the session (defaults to display_name in config)")
}

func runBoardUI(userName, roomID string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := board.Connect(ctx, boardClient, userName)
	if err != nil {
		return err
	}
	defer client.Close()

	app := tview.NewApplication()

	statusBar := tview.NewTextView()
	canvasView := tview.NewBox().SetBorder(true).SetTitle(" board ")
	canvasView.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		x, y, width, height = x+1, y+1, width-2, height-2
		lines := board.NewCanvas(width, height).Render(client.Board().Drawings())
		for i, line := range lines {
			tview.Print(screen, tview.Escape(line), x, y+i, width, tview.AlignLeft, tcell.ColorWhite)
		}
		return x, y, width, height
	})
	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()
	logView.SetBorder(true).SetTitle(" events ")

	label := userName
	if label == "" {
		label = "guest"
	}
	inputField := tview.NewInputField().
		SetLabel(label + " ❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(512))

	body := tview.NewFlex().
		AddItem(canvasView, 0, 2, false).
		AddItem(logView, 0, 1, false)
	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statusBar, 1, 0, false).
		AddItem(body, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	logf := func(format string, a ...any) {
		fmt.Fprintf(logView, format+"\n", a...)
		logView.ScrollToEnd()
	}
	// the canvas box renders from the mirror on every draw
	redraw := func() {
		statusBar.SetText(client.Board().Summary())
	}
	redraw()

	if err := client.Join(roomID); err != nil {
		return err
	}
	logf("[green]Joined %s. Type /help for commands, Ctrl+C to exit.", tview.Escape(roomID))

	go func() {
		for {
			env, line, err := client.Recv()
			if status.Code(err) == codes.Canceled {
				return
			}
			if errors.Is(err, io.EOF) {
				app.QueueUpdateDraw(func() { logf("[red]Stream closed by server.") })
				return
			}
			if err != nil && env.Event == "" {
				app.QueueUpdateDraw(func() { logf("[red]Error receiving event: %v", err) })
				return
			}
			app.QueueUpdateDraw(func() {
				if err != nil {
					logf("[red]Skipped %s: %v", env.Event, err)
					return
				}
				logf("[white]%s", tview.Escape(line))
				redraw()
			})
		}
	}()

	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := inputField.GetText()
		inputField.SetText("")
		if strings.TrimSpace(text) == "" {
			return
		}
		c, err := ParseSessionCommand(text)
		if err != nil {
			logf("[red]%v", tview.Escape(err.Error()))
			return
		}
		if c.Name == "quit" {
			app.Stop()
			return
		}
		if c.Name == "help" {
			logf("[yellow]%s", tview.Escape(sessionHelp))
			return
		}
		if err := runSessionCommand(client, c); err != nil {
			logf("[red]%v", tview.Escape(err.Error()))
			return
		}
		if c.Name == "join" || c.Name == "leave" {
			redraw()
		}
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			app.Stop()
			return nil
		}
		return event
	})

	return app.Run()
}

// runSessionCommand sends the request a parsed session command stands for.
func runSessionCommand(client *board.Client, c SessionCommand) error {
	switch c.Name {
	case "chat":
		return client.Chat(c.Arg)
	case "draw":
		_, err := client.Draw(c.Op)
		return err
	case "undo":
		return client.Undo()
	case "redo":
		return client.Redo()
	case "clear":
		return client.Clear()
	case "sync":
		return client.Sync()
	case "join":
		return client.Join(c.Arg)
	case "leave":
		return client.Leave()
	}
	return fmt.Errorf("unsupported command %q", c.Name)
}
