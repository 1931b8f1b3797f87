// Package main implements a local interactive chess session on the terminal.
// Both sides are played at the keyboard with a select-then-move flow.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"chesscore/internal/core"
	"chesscore/internal/game"
)

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorYellow + "chess > " + colorReset,
		HistoryFile:     ".chess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sLocal Chess%s\n", colorCyan, colorReset)
	fmt.Printf("Type 'help' for commands\n\n")

	g := game.New()
	renderBoard(g.Board().ToASCII())

	for {
		rl.SetPrompt(buildPrompt(g))

		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		fields := strings.Fields(line)
		g = execute(g, fields[0], fields[1:])
	}
}

// execute runs one command and returns the (possibly replaced) game
func execute(g *game.Game, cmd string, args []string) *game.Game {
	switch cmd {
	case "help", "h":
		printHelp()

	case "new":
		fen := strings.Join(args, " ")
		if fen == "" {
			g = game.New()
		} else {
			ng, err := game.NewFromFEN(fen)
			if err != nil {
				printError(err.Error())
				return g
			}
			g = ng
		}
		renderBoard(g.Board().ToASCII())

	case "select", "s":
		if len(args) != 1 {
			printError("usage: select <square>")
			return g
		}
		pos, ok := core.ParseSquare(args[0])
		if !ok {
			printError("invalid square: " + args[0])
			return g
		}
		moves, err := g.SelectPiece(pos)
		if err != nil {
			printError(err.Error())
			return g
		}
		if len(moves) == 0 {
			printInfo("no legal moves for " + args[0])
			return g
		}
		squares := make([]string, len(moves))
		for i, m := range moves {
			squares[i] = m.String()
		}
		printInfo("legal destinations: " + strings.Join(squares, " "))

	case "cancel", "c":
		g.CancelSelection()

	case "move", "m":
		if len(args) < 1 || len(args) > 2 {
			printError("usage: move <square> [queen|rook|bishop|knight]")
			return g
		}
		pos, ok := core.ParseSquare(args[0])
		if !ok {
			printError("invalid square: " + args[0])
			return g
		}
		promotion := core.Queen
		if len(args) == 2 {
			kind, ok := core.ParseKind(args[1])
			if !ok {
				printError("invalid promotion piece: " + args[1])
				return g
			}
			promotion = kind
		}
		state, err := g.MoveSelected(pos, promotion)
		if err != nil {
			printError(err.Error())
			return g
		}
		renderBoard(g.Board().ToASCII())
		switch state {
		case core.StateCheckmate:
			printInfo("checkmate")
		case core.StateStalemate:
			printInfo("stalemate")
		case core.StateDraw:
			printInfo("draw")
		default:
			if g.InCheck() {
				printInfo("check")
			}
		}

	case "board", "b":
		renderBoard(g.Board().ToASCII())

	case "history":
		moves := g.Moves()
		if len(moves) == 0 {
			printInfo("no moves yet")
			return g
		}
		for i, m := range moves {
			fmt.Printf("%3d. %s\n", i+1, m)
		}

	case "undo", "u":
		count := 1
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &count); err != nil || count < 1 {
				printError("usage: undo [count]")
				return g
			}
		}
		if err := g.Undo(count); err != nil {
			printError(err.Error())
			return g
		}
		renderBoard(g.Board().ToASCII())

	case "fen":
		fmt.Println(g.FEN())

	default:
		printError("unknown command: " + cmd + " (try 'help')")
	}
	return g
}

func buildPrompt(g *game.Game) string {
	turn := colorForTurn(g.Player().String())
	status := ""
	if g.Over() {
		status = " " + colorRed + g.State().String() + colorReset
	} else if g.InCheck() {
		status = " " + colorRed + "check" + colorReset
	}
	return colorYellow + "chess [" + colorReset + turn + colorYellow + "]" + colorReset + status + colorYellow + " > " + colorReset
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  select <square>           pick the piece to move (e.g. select e2)")
	fmt.Println("  move <square> [piece]     move to a destination, optional promotion piece")
	fmt.Println("  cancel                    discard the current selection")
	fmt.Println("  board                     redraw the board")
	fmt.Println("  history                   list moves played so far")
	fmt.Println("  undo [count]              take back moves")
	fmt.Println("  fen                       print the current position")
	fmt.Println("  new [fen]                 start a new game, optionally from a position")
	fmt.Println("  exit                      quit")
}
