// Package game implements the turn controller: the two-phase selection
// protocol, move application, history, and game-state classification.
package game

import (
	"fmt"

	"chesscore/internal/board"
	"chesscore/internal/core"
	"chesscore/internal/rules"
)

// Phase is the controller's position in the two-phase selection protocol.
type Phase int8

const (
	PhaseSelectSource Phase = iota
	PhaseSelectDestination
)

// MoveRecord is one applied half-move.
type MoveRecord struct {
	Move      rules.Move
	Promotion core.Kind
	Notation  string // coordinate form, e.g. "e2e4" or "e7e8q"
	Color     core.Color
	FENAfter  string
}

// Game owns the board and sequences play. Callers must serialize calls per
// Game instance; the service layer holds one mutex per game.
type Game struct {
	board    *board.Board
	active   core.Color
	state    core.GameState
	check    bool
	phase    Phase
	selected core.Position
	pending  []rules.Move

	rights   rules.Rights
	epTarget *core.Position
	halfmove int
	fullmove int

	history    []MoveRecord
	initialFEN string
	repeats    map[string]int
	drawRules  []DrawRule
}

// New creates a game with the standard starting position, white to move.
func New() *Game {
	g := &Game{
		board:     board.NewInitial(),
		active:    core.ColorWhite,
		rights:    rules.AllRights(),
		fullmove:  1,
		repeats:   make(map[string]int),
		drawRules: DefaultDrawRules,
	}
	g.initialFEN = g.FEN()
	g.repeats[g.repetitionKey()] = 1
	g.evaluate()
	return g
}

// SelectPiece is the source-selection phase: it verifies the cell holds a
// piece of the active player and returns its legal destinations. An empty
// result keeps the controller in source selection; otherwise the next call
// must be MoveSelected.
func (g *Game) SelectPiece(pos core.Position) ([]core.Position, error) {
	if g.state.Terminal() {
		return nil, core.ErrGameOver
	}
	if g.phase != PhaseSelectSource {
		return nil, fmt.Errorf("%w: selection already pending for %s", core.ErrProtocolViolation, g.selected)
	}
	pc, err := g.board.At(pos)
	if err != nil {
		return nil, err
	}
	if pc == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyCell, pos)
	}
	if pc.Color != g.active {
		return nil, fmt.Errorf("%w: %s piece selected on %s's turn", core.ErrWrongTurn, pc.Color, g.active)
	}
	moves := rules.LegalMoves(g.board, pc, g.context())
	if len(moves) == 0 {
		return nil, nil
	}
	g.phase = PhaseSelectDestination
	g.selected = pos
	g.pending = moves
	return rules.Destinations(moves), nil
}

// CancelSelection abandons a pending source selection. It is idempotent.
func (g *Game) CancelSelection() {
	g.phase = PhaseSelectSource
	g.pending = nil
}

// MoveSelected is the destination-selection phase: pos must be one of the
// destinations returned by the preceding SelectPiece. On success the move
// is applied, the active player switches, and the new classification is
// returned. promotion is consulted only for far-rank pawn moves; zero
// means queen.
func (g *Game) MoveSelected(pos core.Position, promotion core.Kind) (core.GameState, error) {
	if g.state.Terminal() {
		return g.state, core.ErrGameOver
	}
	if g.phase != PhaseSelectDestination {
		return g.state, fmt.Errorf("%w: no source selected", core.ErrProtocolViolation)
	}
	for _, m := range g.pending {
		if m.To == pos {
			if err := g.applyMove(m, promotion); err != nil {
				return g.state, err
			}
			g.phase = PhaseSelectSource
			g.pending = nil
			return g.state, nil
		}
	}
	return g.state, fmt.Errorf("%w: %s", core.ErrIllegalDestination, pos)
}

// applyMove commits an already-validated move and advances every piece of
// derived state: castling rights, en passant target, clocks, repetition
// counts, history, and the classification for the next player.
func (g *Game) applyMove(m rules.Move, promotion core.Kind) error {
	pc, err := g.board.At(m.From)
	if err != nil {
		return err
	}
	if pc == nil {
		return fmt.Errorf("%w: %s", core.ErrEmptySource, m.From)
	}
	target, _ := g.board.At(m.To)
	capture := target != nil || m.EnPassant
	pawnMove := pc.Kind == core.Pawn

	g.updateRights(pc, m, target)

	if m.Promotes && promotion == 0 {
		promotion = core.Queen
	}
	if err := rules.Apply(g.board, m, promotion); err != nil {
		return err
	}

	g.epTarget = nil
	if pawnMove && abs(m.To.Row-m.From.Row) == 2 {
		g.epTarget = &core.Position{Row: (m.From.Row + m.To.Row) / 2, Col: m.From.Col}
	}

	if capture || pawnMove {
		g.halfmove = 0
	} else {
		g.halfmove++
	}
	if g.active == core.ColorBlack {
		g.fullmove++
	}

	notation := m.String()
	if m.Promotes {
		notation += promotionLetter(promotion)
	}
	mover := g.active
	g.active = core.OppositeColor(g.active)
	g.repeats[g.repetitionKey()]++
	g.evaluate()

	g.history = append(g.history, MoveRecord{
		Move:      m,
		Promotion: promotion,
		Notation:  notation,
		Color:     mover,
		FENAfter:  g.FEN(),
	})
	return nil
}

// updateRights drops castling rights when a king or corner rook moves, or
// when a corner rook is captured.
func (g *Game) updateRights(pc *board.Piece, m rules.Move, target *board.Piece) {
	if pc.Kind == core.King {
		if pc.Color == core.ColorWhite {
			g.rights.WhiteKingside, g.rights.WhiteQueenside = false, false
		} else {
			g.rights.BlackKingside, g.rights.BlackQueenside = false, false
		}
	}
	loseRookRight := func(pos core.Position) {
		switch pos {
		case core.Position{Row: 7, Col: 0}:
			g.rights.WhiteQueenside = false
		case core.Position{Row: 7, Col: 7}:
			g.rights.WhiteKingside = false
		case core.Position{Row: 0, Col: 0}:
			g.rights.BlackQueenside = false
		case core.Position{Row: 0, Col: 7}:
			g.rights.BlackKingside = false
		}
	}
	if pc.Kind == core.Rook {
		loseRookRight(m.From)
	}
	if target != nil && target.Kind == core.Rook {
		loseRookRight(m.To)
	}
}

// Undo reverts count half-moves by replaying the remaining history from
// the initial position.
func (g *Game) Undo(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}
	if count > len(g.history) {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, len(g.history))
	}
	replayed, err := NewFromFEN(g.initialFEN)
	if err != nil {
		return fmt.Errorf("replay from initial position: %w", err)
	}
	keep := g.history[:len(g.history)-count]
	for _, rec := range keep {
		if err := replayed.applyMove(rec.Move, rec.Promotion); err != nil {
			return fmt.Errorf("replay %s: %w", rec.Notation, err)
		}
	}
	replayed.initialFEN = g.initialFEN
	*g = *replayed
	return nil
}

// Board returns an independently-owned snapshot of the current position.
func (g *Game) Board() *board.Board {
	return g.board.Snapshot()
}

// Player returns the active player.
func (g *Game) Player() core.Color {
	return g.active
}

func (g *Game) State() core.GameState {
	return g.state
}

// InCheck reports whether the active player's king is attacked.
func (g *Game) InCheck() bool {
	return g.check
}

// Over reports whether the game reached a terminal state.
func (g *Game) Over() bool {
	return g.state.Terminal()
}

func (g *Game) Phase() Phase {
	return g.phase
}

// Moves returns the applied half-moves in coordinate notation.
func (g *Game) Moves() []string {
	out := make([]string, 0, len(g.history))
	for _, rec := range g.history {
		out = append(out, rec.Notation)
	}
	return out
}

// History returns the applied move records.
func (g *Game) History() []MoveRecord {
	return g.history
}

func (g *Game) InitialFEN() string {
	return g.initialFEN
}

func (g *Game) context() rules.Context {
	return rules.Context{EPTarget: g.epTarget, Castling: g.rights}
}

func promotionLetter(k core.Kind) string {
	switch k {
	case core.Rook:
		return "r"
	case core.Bishop:
		return "b"
	case core.Knight:
		return "n"
	default:
		return "q"
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
