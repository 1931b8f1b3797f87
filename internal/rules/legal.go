package rules

import (
	"fmt"

	"chesscore/internal/board"
	"chesscore/internal/core"
)

type CastleSide int8

const (
	CastleNone CastleSide = iota
	CastleKingside
	CastleQueenside
)

// Rights tracks which castlings are still permitted. A right is lost the
// moment its king or rook moves, or the rook is captured.
type Rights struct {
	WhiteKingside  bool
	WhiteQueenside bool
	BlackKingside  bool
	BlackQueenside bool
}

func AllRights() Rights {
	return Rights{WhiteKingside: true, WhiteQueenside: true, BlackKingside: true, BlackQueenside: true}
}

func (r Rights) Allowed(c core.Color, side CastleSide) bool {
	if c == core.ColorWhite {
		if side == CastleKingside {
			return r.WhiteKingside
		}
		return r.WhiteQueenside
	}
	if side == CastleKingside {
		return r.BlackKingside
	}
	return r.BlackQueenside
}

// Context carries the history-derived state move legality depends on.
type Context struct {
	EPTarget *core.Position // en passant target square, if the last move was a pawn double-advance
	Castling Rights
}

// Move is a fully qualified legal move. Promotes marks a pawn reaching the
// far rank; the promotion kind is chosen when the move is committed.
type Move struct {
	From      core.Position
	To        core.Position
	EnPassant bool
	Castle    CastleSide
	Promotes  bool
}

// String renders the move in coordinate form, e.g. "e2e4".
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// LegalMoves filters pc's raw candidates down to moves that leave its own
// king safe, and layers castling on top for kings.
func LegalMoves(b *board.Board, pc *board.Piece, ctx Context) []Move {
	var out []Move
	for _, to := range RawMoves(b, pc, ctx.EPTarget) {
		m := Move{From: pc.Pos, To: to}
		if pc.Kind == core.Pawn {
			if ctx.EPTarget != nil && to == *ctx.EPTarget && to.Col != pc.Pos.Col {
				m.EnPassant = true
			}
			if to.Row == FarRank(pc.Color) {
				m.Promotes = true
			}
		}
		if leavesKingAttacked(b, m, pc.Color) {
			continue
		}
		out = append(out, m)
	}
	if pc.Kind == core.King {
		out = append(out, castleMoves(b, pc, ctx)...)
	}
	return out
}

// Destinations projects moves onto their target squares.
func Destinations(moves []Move) []core.Position {
	out := make([]core.Position, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To)
	}
	return out
}

// HasAnyLegalMove reports whether color has at least one legal move.
func HasAnyLegalMove(b *board.Board, c core.Color, ctx Context) bool {
	for _, pc := range b.Pieces(c) {
		if len(LegalMoves(b, pc, ctx)) > 0 {
			return true
		}
	}
	return false
}

// InCheck reports whether color's king is currently attacked.
func InCheck(b *board.Board, c core.Color) bool {
	king, ok := b.King(c)
	if !ok {
		return false
	}
	return IsAttacked(b, king.Pos, core.OppositeColor(c))
}

// Apply commits m to b, handling capture, en passant removal, the castling
// rook co-move and promotion substitution. promotion is only consulted for
// promoting moves and defaults to queen.
func Apply(b *board.Board, m Move, promotion core.Kind) error {
	if m.EnPassant {
		pc, err := b.At(m.From)
		if err != nil {
			return err
		}
		if pc == nil {
			return fmt.Errorf("%w: %s", core.ErrEmptySource, m.From)
		}
		// The captured pawn sits beside the capturer, not on the target.
		victim := core.Position{Row: m.To.Row - pawnDir(pc.Color), Col: m.To.Col}
		if err := b.Remove(victim); err != nil {
			return err
		}
	}
	if err := b.Move(m.From, m.To); err != nil {
		return err
	}
	if m.Castle != CastleNone {
		rookFrom, rookTo := rookCastleSquares(m.To.Row, m.Castle)
		if err := b.Move(rookFrom, rookTo); err != nil {
			return err
		}
	}
	if m.Promotes {
		if promotion == 0 {
			promotion = core.Queen
		}
		pc, err := b.At(m.To)
		if err != nil {
			return err
		}
		pc.Kind = promotion
	}
	return nil
}

func rookCastleSquares(row int, side CastleSide) (from, to core.Position) {
	if side == CastleKingside {
		return core.Position{Row: row, Col: 7}, core.Position{Row: row, Col: 5}
	}
	return core.Position{Row: row, Col: 0}, core.Position{Row: row, Col: 3}
}

// leavesKingAttacked simulates m on a snapshot and asks whether c's king is
// attacked afterwards. Copy-and-discard keeps the live board free of
// partial-undo bugs.
func leavesKingAttacked(b *board.Board, m Move, c core.Color) bool {
	snap := b.Snapshot()
	if err := Apply(snap, m, core.Queen); err != nil {
		return true
	}
	return InCheck(snap, c)
}

// castleMoves synthesizes both castlings for the king when the rights are
// intact, the between-squares are empty, and the king neither stands in,
// passes through, nor lands on an attacked square.
func castleMoves(b *board.Board, king *board.Piece, ctx Context) []Move {
	homeRow := 7
	if king.Color == core.ColorBlack {
		homeRow = 0
	}
	if king.Pos != (core.Position{Row: homeRow, Col: 4}) {
		return nil
	}
	if IsAttacked(b, king.Pos, core.OppositeColor(king.Color)) {
		return nil
	}

	var out []Move
	for _, side := range []CastleSide{CastleKingside, CastleQueenside} {
		if !ctx.Castling.Allowed(king.Color, side) {
			continue
		}
		if !castleLaneClear(b, king, homeRow, side) {
			continue
		}
		kingTo := core.Position{Row: homeRow, Col: 6}
		if side == CastleQueenside {
			kingTo = core.Position{Row: homeRow, Col: 2}
		}
		out = append(out, Move{From: king.Pos, To: kingTo, Castle: side})
	}
	return out
}

func castleLaneClear(b *board.Board, king *board.Piece, row int, side CastleSide) bool {
	rookCol, between, transit := 7, []int{5, 6}, []int{5, 6}
	if side == CastleQueenside {
		rookCol, between, transit = 0, []int{1, 2, 3}, []int{3, 2}
	}

	rook, _ := b.At(core.Position{Row: row, Col: rookCol})
	if rook == nil || rook.Kind != core.Rook || rook.Color != king.Color {
		return false
	}
	for _, col := range between {
		if occ, _ := b.At(core.Position{Row: row, Col: col}); occ != nil {
			return false
		}
	}
	enemy := core.OppositeColor(king.Color)
	for _, col := range transit {
		if IsAttacked(b, core.Position{Row: row, Col: col}, enemy) {
			return false
		}
	}
	return true
}
