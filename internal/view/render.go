package view

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

// Render writes v as plain text. The last move is shown as [X], winning cells as *X*.
func Render(w io.Writer, v View) error {
	out := bufio.NewWriter(w)

	if v.Title != "" {
		fmt.Fprintln(out, v.Title)
	}

	switch {
	case v.Kind == KindReplay && v.NoData:
		fmt.Fprintln(out, "  -- no move data --")
	case v.Board != nil:
		renderBoard(out, v)
	}

	if v.Kind == KindReplay {
		fmt.Fprintf(out, "step %d / %d\n", v.Step, v.Steps)
	}

	if v.Result != "" {
		fmt.Fprintf(out, "*** %s ***\n", v.Result)
	}

	status := v.Status
	if v.ShowTimer {
		status += "  " + v.Timer
	}

	if status != "" {
		fmt.Fprintln(out, status)
	}

	if v.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", v.Warning)
	}

	switch {
	case v.UndoPrompt:
		fmt.Fprintln(out, "opponent asks to undo: type 'accept' or 'decline'")
	case v.UndoPending:
		fmt.Fprintln(out, "undo requested, waiting for the opponent")
	case v.CanUndo:
		fmt.Fprintln(out, "type 'undo' to ask for a take-back")
	}

	for _, msg := range v.Chat {
		fmt.Fprintf(out, "  <%s> %s\n", msg.Sender, msg.Message)
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to render view: %w", err)
	}

	return nil
}

func renderBoard(out io.Writer, v View) {
	shape := v.Board.Shape()

	highlight := make(map[entity.Coord]bool, len(v.Highlight))
	for _, coord := range v.Highlight {
		highlight[coord] = true
	}

	var header strings.Builder
	header.WriteString("   ")
	for c := 0; c < shape.Cols; c++ {
		fmt.Fprintf(&header, "%3d", c)
	}
	fmt.Fprintln(out, header.String())

	for r := 0; r < shape.Rows; r++ {
		var line strings.Builder
		fmt.Fprintf(&line, "%3d", r)

		for c := 0; c < shape.Cols; c++ {
			value, _ := v.Board.Get(r, c)
			coord := entity.Coord{Row: r, Col: c}

			switch {
			case highlight[coord]:
				fmt.Fprintf(&line, "*%s*", value.Mark())
			case v.LastMove != nil && *v.LastMove == coord:
				fmt.Fprintf(&line, "[%s]", value.Mark())
			default:
				fmt.Fprintf(&line, " %s ", value.Mark())
			}
		}

		fmt.Fprintln(out, line.String())
	}
}
