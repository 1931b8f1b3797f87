// Package rules implements piece movement: raw per-kind move generation,
// attack detection, and the legality filter that enforces king safety and
// synthesizes castling, en passant and promotion.
package rules

import (
	"chesscore/internal/board"
	"chesscore/internal/core"
)

type offset struct{ dr, dc int }

var (
	kingOffsets = []offset{
		{-1, -1}, {-1, 0}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 0}, {1, 1},
	}
	knightOffsets = []offset{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
	orthoRays = []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagRays  = []offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// pawnDir is the row delta a pawn of the given color advances by. White
// starts on row 6 and moves toward row 0.
func pawnDir(c core.Color) int {
	if c == core.ColorWhite {
		return -1
	}
	return 1
}

func pawnHomeRow(c core.Color) int {
	if c == core.ColorWhite {
		return 6
	}
	return 1
}

// FarRank is the promotion row for the given color.
func FarRank(c core.Color) int {
	if c == core.ColorWhite {
		return 0
	}
	return 7
}

// RawMoves produces the candidate destinations of pc ignoring king safety.
// epTarget is the square a just-double-advanced enemy pawn passed over, or
// nil; it only affects pawns. Castling is not part of the raw set, the
// legality filter layers it on.
func RawMoves(b *board.Board, pc *board.Piece, epTarget *core.Position) []core.Position {
	switch pc.Kind {
	case core.King:
		return stepMoves(b, pc, kingOffsets)
	case core.Knight:
		return stepMoves(b, pc, knightOffsets)
	case core.Rook:
		return slideMoves(b, pc, orthoRays)
	case core.Bishop:
		return slideMoves(b, pc, diagRays)
	case core.Queen:
		return append(slideMoves(b, pc, orthoRays), slideMoves(b, pc, diagRays)...)
	case core.Pawn:
		return pawnMoves(b, pc, epTarget)
	default:
		return nil
	}
}

// stepMoves filters fixed offsets to board bounds and same-color occupancy.
func stepMoves(b *board.Board, pc *board.Piece, offs []offset) []core.Position {
	var out []core.Position
	for _, o := range offs {
		to := core.Position{Row: pc.Pos.Row + o.dr, Col: pc.Pos.Col + o.dc}
		if !to.InBounds() {
			continue
		}
		if occ, _ := b.At(to); occ != nil && occ.Color == pc.Color {
			continue
		}
		out = append(out, to)
	}
	return out
}

// slideMoves walks each ray until the first occupied square, inclusive for
// an enemy occupant (capture), exclusive for a same-color one.
func slideMoves(b *board.Board, pc *board.Piece, rays []offset) []core.Position {
	var out []core.Position
	for _, ray := range rays {
		to := core.Position{Row: pc.Pos.Row + ray.dr, Col: pc.Pos.Col + ray.dc}
		for to.InBounds() {
			occ, _ := b.At(to)
			if occ == nil {
				out = append(out, to)
				to = core.Position{Row: to.Row + ray.dr, Col: to.Col + ray.dc}
				continue
			}
			if occ.Color != pc.Color {
				out = append(out, to)
			}
			break
		}
	}
	return out
}

func pawnMoves(b *board.Board, pc *board.Piece, epTarget *core.Position) []core.Position {
	var out []core.Position
	dir := pawnDir(pc.Color)

	one := core.Position{Row: pc.Pos.Row + dir, Col: pc.Pos.Col}
	if one.InBounds() {
		if occ, _ := b.At(one); occ == nil {
			out = append(out, one)
			two := core.Position{Row: pc.Pos.Row + 2*dir, Col: pc.Pos.Col}
			if pc.Pos.Row == pawnHomeRow(pc.Color) && two.InBounds() {
				if occ, _ := b.At(two); occ == nil {
					out = append(out, two)
				}
			}
		}
	}

	for _, dc := range []int{-1, 1} {
		to := core.Position{Row: pc.Pos.Row + dir, Col: pc.Pos.Col + dc}
		if !to.InBounds() {
			continue
		}
		if occ, _ := b.At(to); occ != nil && occ.Color != pc.Color {
			out = append(out, to)
		} else if occ == nil && epTarget != nil && to == *epTarget {
			out = append(out, to)
		}
	}
	return out
}
