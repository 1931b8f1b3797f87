package game

import (
	"chesscore/internal/core"
	"chesscore/internal/rules"
)

// DrawRule is an auxiliary draw condition checked after every move while
// the game is otherwise still running.
type DrawRule func(*Game) bool

// DefaultDrawRules are the conditions a standard ruleset enables.
var DefaultDrawRules = []DrawRule{
	InsufficientMaterial,
	FiftyMoveRule,
	ThreefoldRepetition,
}

// evaluate classifies the position for the side to move:
//
//	attacked + no legal move  -> checkmate
//	attacked + legal move     -> running, check flagged
//	safe     + no legal move  -> stalemate
//	safe     + legal move     -> running
//
// then applies the draw rules to otherwise-running positions.
func (g *Game) evaluate() {
	check := rules.InCheck(g.board, g.active)
	hasMove := rules.HasAnyLegalMove(g.board, g.active, g.context())

	g.check = check
	switch {
	case check && !hasMove:
		g.state = core.StateCheckmate
	case !check && !hasMove:
		g.state = core.StateStalemate
	default:
		g.state = core.StateRunning
		for _, rule := range g.drawRules {
			if rule(g) {
				g.state = core.StateDraw
				break
			}
		}
	}
}

// InsufficientMaterial reports positions where no sequence of legal moves
// can deliver mate: bare kings, or king plus a single minor piece.
func InsufficientMaterial(g *Game) bool {
	minors := 0
	for _, c := range []core.Color{core.ColorWhite, core.ColorBlack} {
		for _, pc := range g.board.Pieces(c) {
			switch pc.Kind {
			case core.King:
			case core.Bishop, core.Knight:
				minors++
			default:
				// Any pawn, rook or queen keeps mating material alive.
				return false
			}
		}
	}
	return minors <= 1
}

// FiftyMoveRule reports fifty full moves without a capture or pawn move.
func FiftyMoveRule(g *Game) bool {
	return g.halfmove >= 100
}

// ThreefoldRepetition reports the current position occurring for the third
// time, counting side to move, castling rights and en passant target.
func ThreefoldRepetition(g *Game) bool {
	return g.repeats[g.repetitionKey()] >= 3
}
