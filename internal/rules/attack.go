package rules

import (
	"chesscore/internal/board"
	"chesscore/internal/core"
)

// IsAttacked reports whether any piece of color by attacks sq. Unlike raw
// pawn moves, pawn attack squares count regardless of occupancy, which is
// what castling transit checks need.
func IsAttacked(b *board.Board, sq core.Position, by core.Color) bool {
	// Pawn: a pawn attacks diagonally forward, so look one row behind sq
	// relative to the attacker's direction of travel.
	pr := sq.Row - pawnDir(by)
	for _, dc := range []int{-1, 1} {
		from := core.Position{Row: pr, Col: sq.Col + dc}
		if !from.InBounds() {
			continue
		}
		if occ, _ := b.At(from); occ != nil && occ.Color == by && occ.Kind == core.Pawn {
			return true
		}
	}

	if attackedByStep(b, sq, by, knightOffsets, core.Knight) {
		return true
	}
	if attackedByStep(b, sq, by, kingOffsets, core.King) {
		return true
	}
	if attackedBySlider(b, sq, by, orthoRays, core.Rook) {
		return true
	}
	if attackedBySlider(b, sq, by, diagRays, core.Bishop) {
		return true
	}
	return false
}

func attackedByStep(b *board.Board, sq core.Position, by core.Color, offs []offset, kind core.Kind) bool {
	for _, o := range offs {
		from := core.Position{Row: sq.Row + o.dr, Col: sq.Col + o.dc}
		if !from.InBounds() {
			continue
		}
		if occ, _ := b.At(from); occ != nil && occ.Color == by && occ.Kind == kind {
			return true
		}
	}
	return false
}

// attackedBySlider walks rays outward from sq; the first piece on a ray
// decides it. Queens attack along both ray families.
func attackedBySlider(b *board.Board, sq core.Position, by core.Color, rays []offset, kind core.Kind) bool {
	for _, ray := range rays {
		from := core.Position{Row: sq.Row + ray.dr, Col: sq.Col + ray.dc}
		for from.InBounds() {
			occ, _ := b.At(from)
			if occ == nil {
				from = core.Position{Row: from.Row + ray.dr, Col: from.Col + ray.dc}
				continue
			}
			if occ.Color == by && (occ.Kind == kind || occ.Kind == core.Queen) {
				return true
			}
			break
		}
	}
	return false
}
