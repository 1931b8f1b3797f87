// Package core holds the vocabulary shared by every layer: colors, piece
// kinds, positions and game states, plus error values and API types.
package core

import "fmt"

type Color int8

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

type Kind int8

const (
	King Kind = iota + 1
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

func (k Kind) String() string {
	switch k {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return "unknown"
	}
}

// ParseKind maps a promotion name from the API to a piece kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "queen":
		return Queen, true
	case "rook":
		return Rook, true
	case "bishop":
		return Bishop, true
	case "knight":
		return Knight, true
	}
	return 0, false
}

// Position addresses a board cell. Row 0 is the top of the board (rank 8,
// black's back rank); row 7 is white's back rank.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

// String renders the position as a coordinate square, e.g. {6,4} -> "e2".
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%c", byte('a'+p.Col), byte('8'-p.Row))
}

// ParseSquare converts a coordinate square like "e2" back to a Position.
func ParseSquare(s string) (Position, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, false
	}
	return Position{Row: int('8' - s[1]), Col: int(s[0] - 'a')}, true
}

// GameState classifies a position. Running is the only non-terminal value;
// whether the side to move is in check is reported separately.
type GameState int

const (
	StateRunning GameState = iota
	StateCheckmate
	StateStalemate
	StateDraw
)

func (s GameState) String() string {
	switch s {
	case StateCheckmate:
		return "checkmate"
	case StateStalemate:
		return "stalemate"
	case StateDraw:
		return "draw"
	default:
		return "running"
	}
}

func (s GameState) Terminal() bool {
	return s != StateRunning
}
