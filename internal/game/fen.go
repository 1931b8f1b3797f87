package game

import (
	"fmt"
	"strings"

	"chesscore/internal/board"
	"chesscore/internal/core"
	"chesscore/internal/rules"
)

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FEN returns the full six-field FEN string for the current position.
func (g *Game) FEN() string {
	var sb strings.Builder
	sb.WriteString(g.board.Placement())
	sb.WriteByte(' ')
	sb.WriteString(g.active.String())
	sb.WriteByte(' ')
	sb.WriteString(castlingField(g.rights))
	sb.WriteByte(' ')
	if g.epTarget != nil {
		sb.WriteString(g.epTarget.String())
	} else {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, " %d %d", g.halfmove, g.fullmove)
	return sb.String()
}

// repetitionKey identifies a position for the threefold-repetition rule:
// the FEN fields minus the move counters.
func (g *Game) repetitionKey() string {
	ep := "-"
	if g.epTarget != nil {
		ep = g.epTarget.String()
	}
	return g.board.Placement() + " " + g.active.String() + " " + castlingField(g.rights) + " " + ep
}

func castlingField(r rules.Rights) string {
	var sb strings.Builder
	if r.WhiteKingside {
		sb.WriteByte('K')
	}
	if r.WhiteQueenside {
		sb.WriteByte('Q')
	}
	if r.BlackKingside {
		sb.WriteByte('k')
	}
	if r.BlackQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

var kindLetters = map[byte]core.Kind{
	'k': core.King,
	'q': core.Queen,
	'r': core.Rook,
	'b': core.Bishop,
	'n': core.Knight,
	'p': core.Pawn,
}

// NewFromFEN creates a game from an arbitrary position. The position is
// classified immediately, so a FEN describing a finished game yields a
// terminal state.
func NewFromFEN(fen string) (*Game, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 6 parts, got %d", len(parts))
	}

	b, err := parsePlacement(parts[0])
	if err != nil {
		return nil, err
	}

	g := &Game{
		board:     b,
		repeats:   make(map[string]int),
		drawRules: DefaultDrawRules,
	}

	switch parts[1] {
	case "w":
		g.active = core.ColorWhite
	case "b":
		g.active = core.ColorBlack
	default:
		return nil, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}

	if parts[2] != "-" {
		for _, ch := range parts[2] {
			switch ch {
			case 'K':
				g.rights.WhiteKingside = true
			case 'Q':
				g.rights.WhiteQueenside = true
			case 'k':
				g.rights.BlackKingside = true
			case 'q':
				g.rights.BlackQueenside = true
			default:
				return nil, fmt.Errorf("invalid FEN: castling field %q", parts[2])
			}
		}
	}

	if parts[3] != "-" {
		ep, ok := core.ParseSquare(parts[3])
		if !ok {
			return nil, fmt.Errorf("invalid FEN: en passant square %q", parts[3])
		}
		g.epTarget = &ep
	}

	if _, err := fmt.Sscanf(parts[4], "%d", &g.halfmove); err != nil {
		return nil, fmt.Errorf("invalid FEN: halfmove counter")
	}
	if _, err := fmt.Sscanf(parts[5], "%d", &g.fullmove); err != nil {
		return nil, fmt.Errorf("invalid FEN: fullmove counter")
	}

	g.initialFEN = g.FEN()
	g.repeats[g.repetitionKey()] = 1
	g.evaluate()
	return g, nil
}

func parsePlacement(field string) (*board.Board, error) {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN: expected 8 ranks")
	}
	b := board.New()
	for row := 0; row < 8; row++ {
		col := 0
		for _, ch := range ranks[row] {
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			if col >= 8 {
				return nil, fmt.Errorf("invalid FEN: too many pieces in rank %d", 8-row)
			}
			color := core.ColorBlack
			lower := byte(ch)
			if ch >= 'A' && ch <= 'Z' {
				color = core.ColorWhite
				lower = byte(ch) + ('a' - 'A')
			}
			kind, ok := kindLetters[lower]
			if !ok {
				return nil, fmt.Errorf("invalid FEN: piece %q", ch)
			}
			if err := b.Place(board.Piece{Color: color, Kind: kind}, core.Position{Row: row, Col: col}); err != nil {
				return nil, err
			}
			col++
		}
		if col != 8 {
			return nil, fmt.Errorf("invalid FEN: rank %d has %d files", 8-row, col)
		}
	}
	return b, nil
}
