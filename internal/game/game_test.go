package game

import (
	"errors"
	"testing"

	"chesscore/internal/core"
)

func sq(t *testing.T, s string) core.Position {
	t.Helper()
	pos, ok := core.ParseSquare(s)
	if !ok {
		t.Fatalf("bad square %q", s)
	}
	return pos
}

// play runs a sequence of select/move pairs given as coordinate moves
func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if len(mv) != 4 {
			t.Fatalf("bad move %q", mv)
		}
		if _, err := g.SelectPiece(sq(t, mv[:2])); err != nil {
			t.Fatalf("select %s: %v", mv[:2], err)
		}
		if _, err := g.MoveSelected(sq(t, mv[2:]), 0); err != nil {
			t.Fatalf("move %s: %v", mv, err)
		}
	}
}

func TestNewGameStartsWhiteRunning(t *testing.T) {
	g := New()
	if g.Player() != core.ColorWhite {
		t.Error("new game does not start with white")
	}
	if g.State() != core.StateRunning || g.Over() || g.InCheck() {
		t.Error("new game not in a clean running state")
	}
	if got := g.FEN(); got != StartingFEN {
		t.Errorf("FEN() = %q, want %q", got, StartingFEN)
	}
}

func TestTurnAlternation(t *testing.T) {
	g := New()
	play(t, g, "e2e4")
	if g.Player() != core.ColorBlack {
		t.Error("black not on move after white's move")
	}
	play(t, g, "e7e5")
	if g.Player() != core.ColorWhite {
		t.Error("white not on move after black's move")
	}
	if len(g.Moves()) != 2 {
		t.Errorf("history length %d, want 2", len(g.Moves()))
	}
}

func TestSelectWrongColor(t *testing.T) {
	g := New()
	before := g.Board()

	// Every black piece is off limits on white's first turn
	for _, s := range []string{"e7", "a8", "b8", "d8", "e8"} {
		_, err := g.SelectPiece(sq(t, s))
		if !errors.Is(err, core.ErrWrongTurn) {
			t.Errorf("select %s: %v, want ErrWrongTurn", s, err)
		}
	}

	if !g.Board().Equal(before) {
		t.Error("failed selections mutated the board")
	}
	if g.Phase() != PhaseSelectSource {
		t.Error("failed selection advanced the phase")
	}
}

func TestSelectEmptyCell(t *testing.T) {
	g := New()
	_, err := g.SelectPiece(sq(t, "e4"))
	if !errors.Is(err, core.ErrEmptyCell) {
		t.Errorf("select empty: %v, want ErrEmptyCell", err)
	}
}

func TestSelectOutOfRange(t *testing.T) {
	g := New()
	_, err := g.SelectPiece(core.Position{Row: 9, Col: 0})
	if !errors.Is(err, core.ErrOutOfRange) {
		t.Errorf("select out of range: %v, want ErrOutOfRange", err)
	}
}

func TestSelectPieceWithNoMovesStaysInSourcePhase(t *testing.T) {
	g := New()
	// The a1 rook is boxed in at the start
	moves, err := g.SelectPiece(sq(t, "a1"))
	if err != nil {
		t.Fatalf("select a1: %v", err)
	}
	if len(moves) != 0 {
		t.Errorf("boxed-in rook has %d moves", len(moves))
	}
	if g.Phase() != PhaseSelectSource {
		t.Error("empty move set advanced to destination phase")
	}

	// The game must accept a different selection immediately
	if _, err := g.SelectPiece(sq(t, "e2")); err != nil {
		t.Errorf("follow-up selection rejected: %v", err)
	}
}

func TestProtocolViolations(t *testing.T) {
	t.Run("move without selection", func(t *testing.T) {
		g := New()
		_, err := g.MoveSelected(sq(t, "e4"), 0)
		if !errors.Is(err, core.ErrProtocolViolation) {
			t.Errorf("got %v, want ErrProtocolViolation", err)
		}
	})

	t.Run("second selection while pending", func(t *testing.T) {
		g := New()
		if _, err := g.SelectPiece(sq(t, "e2")); err != nil {
			t.Fatal(err)
		}
		before := g.Board()
		_, err := g.SelectPiece(sq(t, "d2"))
		if !errors.Is(err, core.ErrProtocolViolation) {
			t.Errorf("got %v, want ErrProtocolViolation", err)
		}
		if !g.Board().Equal(before) {
			t.Error("violation mutated the board")
		}
		// The original selection is still live
		if _, err := g.MoveSelected(sq(t, "e4"), 0); err != nil {
			t.Errorf("pending selection lost after violation: %v", err)
		}
	})
}

func TestCancelSelection(t *testing.T) {
	g := New()
	if _, err := g.SelectPiece(sq(t, "e2")); err != nil {
		t.Fatal(err)
	}
	g.CancelSelection()
	if g.Phase() != PhaseSelectSource {
		t.Error("cancel did not reset the phase")
	}
	// Idempotent
	g.CancelSelection()

	if _, err := g.SelectPiece(sq(t, "d2")); err != nil {
		t.Errorf("selection after cancel rejected: %v", err)
	}
}

func TestIllegalDestination(t *testing.T) {
	g := New()
	if _, err := g.SelectPiece(sq(t, "e2")); err != nil {
		t.Fatal(err)
	}
	_, err := g.MoveSelected(sq(t, "e5"), 0)
	if !errors.Is(err, core.ErrIllegalDestination) {
		t.Errorf("got %v, want ErrIllegalDestination", err)
	}
	// Selection stays pending, a legal destination still works
	if _, err := g.MoveSelected(sq(t, "e4"), 0); err != nil {
		t.Errorf("legal destination after illegal attempt: %v", err)
	}
}

func TestFoolsMate(t *testing.T) {
	g := New()
	play(t, g, "f2f3", "e7e5", "g2g4")

	if _, err := g.SelectPiece(sq(t, "d8")); err != nil {
		t.Fatal(err)
	}
	state, err := g.MoveSelected(sq(t, "h4"), 0)
	if err != nil {
		t.Fatalf("mating move: %v", err)
	}
	if state != core.StateCheckmate {
		t.Errorf("state = %s, want checkmate", state)
	}
	if !g.Over() {
		t.Error("game not over after checkmate")
	}

	// Terminal game refuses further play
	if _, err := g.SelectPiece(sq(t, "e2")); !errors.Is(err, core.ErrGameOver) {
		t.Errorf("select after mate: %v, want ErrGameOver", err)
	}
	if _, err := g.MoveSelected(sq(t, "e4"), 0); !errors.Is(err, core.ErrGameOver) {
		t.Errorf("move after mate: %v, want ErrGameOver", err)
	}
}

func TestCheckFlagged(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "f7f6", "d1h5")
	if !g.InCheck() {
		t.Error("black not flagged in check after Qh5+")
	}
	if g.State() != core.StateRunning {
		t.Errorf("state = %s, want running (check is not terminal)", g.State())
	}
}

func TestCheckMustBeResolved(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "f7f6", "d1h5")

	// A move ignoring the check is excluded from the legal set
	moves, err := g.SelectPiece(sq(t, "a7"))
	if err != nil {
		t.Fatalf("select a7: %v", err)
	}
	if len(moves) != 0 {
		t.Errorf("a-pawn has %d moves while king is in check", len(moves))
	}

	// Blocking with g6 is legal
	play(t, g, "g7g6")
	if g.InCheck() {
		t.Error("check persists after a legal block")
	}
}

func TestStalemateFromFEN(t *testing.T) {
	g, err := NewFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if g.State() != core.StateStalemate {
		t.Errorf("state = %s, want stalemate", g.State())
	}
	if g.InCheck() {
		t.Error("stalemated king reported in check")
	}
}

func TestCheckmateFromFEN(t *testing.T) {
	g, err := NewFromFEN("7k/6Q1/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if g.State() != core.StateCheckmate {
		t.Errorf("state = %s, want checkmate", g.State())
	}
}

func TestInsufficientMaterialDraw(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want core.GameState
	}{
		{"bare kings", "8/8/8/8/8/4k3/8/4K3 w - - 0 1", core.StateDraw},
		{"king and knight", "8/8/8/8/8/4k3/8/3NK3 w - - 0 1", core.StateDraw},
		{"king and bishop", "8/8/8/8/8/4k3/8/3BK3 w - - 0 1", core.StateDraw},
		{"two minors keep playing", "8/8/8/8/8/3nk3/8/3NK3 w - - 0 1", core.StateRunning},
		{"lone pawn keeps playing", "8/8/8/8/8/4k3/4P3/4K3 b - - 0 1", core.StateRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewFromFEN(tt.fen)
			if err != nil {
				t.Fatalf("NewFromFEN: %v", err)
			}
			if g.State() != tt.want {
				t.Errorf("state = %s, want %s", g.State(), tt.want)
			}
		})
	}
}

func TestFiftyMoveRuleDraw(t *testing.T) {
	g, err := NewFromFEN("7k/8/8/8/8/8/8/R6K w - - 99 80")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if g.State() != core.StateRunning {
		t.Fatalf("state = %s before the move", g.State())
	}

	play(t, g, "a1a2")
	if g.State() != core.StateDraw {
		t.Errorf("state = %s after 100th quiet halfmove, want draw", g.State())
	}
}

func TestPawnMoveResetsHalfmoveClock(t *testing.T) {
	g, err := NewFromFEN("7k/p7/8/8/8/8/8/R6K b - - 99 80")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	play(t, g, "a7a6")
	if g.State() != core.StateRunning {
		t.Errorf("state = %s, pawn move must reset the clock", g.State())
	}
}

func TestThreefoldRepetitionDraw(t *testing.T) {
	g := New()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	// Two full shuffles return to the start position for the third time
	play(t, g, shuffle...)
	if g.State() != core.StateRunning {
		t.Fatalf("draw after first shuffle: %s", g.State())
	}
	play(t, g, shuffle...)
	if g.State() != core.StateDraw {
		t.Errorf("state = %s after threefold repetition, want draw", g.State())
	}
}

func TestEnPassantWindow(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "a7a6", "e4e5", "d7d5")

	// The double advance just happened: en passant is available
	moves, err := g.SelectPiece(sq(t, "e5"))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range moves {
		if m == sq(t, "d6") {
			found = true
		}
	}
	if !found {
		t.Fatal("en passant capture missing right after double advance")
	}
	g.CancelSelection()

	// One move later the window is closed
	play(t, g, "h2h3", "h7h6")
	moves, err = g.SelectPiece(sq(t, "e5"))
	if err == nil {
		for _, m := range moves {
			if m == sq(t, "d6") {
				t.Error("en passant still available after an intervening move")
			}
		}
	}
}

func TestEnPassantCaptureRemovesPawn(t *testing.T) {
	g, err := NewFromFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	play(t, g, "e5d6")

	b := g.Board()
	if pc, _ := b.At(sq(t, "d5")); pc != nil {
		t.Error("captured pawn still on d5")
	}
	pc, _ := b.At(sq(t, "d6"))
	if pc == nil || pc.Color != core.ColorWhite {
		t.Error("capturing pawn not on d6")
	}
}

func TestCastlingThroughGame(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5")

	// White castles kingside
	moves, err := g.SelectPiece(sq(t, "e1"))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range moves {
		if m == sq(t, "g1") {
			found = true
		}
	}
	if !found {
		t.Fatal("kingside castle missing from king's moves")
	}
	if _, err := g.MoveSelected(sq(t, "g1"), 0); err != nil {
		t.Fatalf("castle: %v", err)
	}

	b := g.Board()
	if pc, _ := b.At(sq(t, "f1")); pc == nil || pc.Kind != core.Rook {
		t.Error("rook not relocated to f1 by castling")
	}
}

func TestCastlingRightsLostAfterKingMove(t *testing.T) {
	g, err := NewFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	play(t, g, "e1e2", "a8a7", "e2e1", "a7a8")

	moves, err := g.SelectPiece(sq(t, "e1"))
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range moves {
		if m == sq(t, "g1") || m == sq(t, "c1") {
			t.Error("castling available after the king moved")
		}
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	g, err := NewFromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if _, err := g.SelectPiece(sq(t, "a7")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.MoveSelected(sq(t, "a8"), 0); err != nil {
		t.Fatalf("promote: %v", err)
	}

	pc, _ := g.Board().At(sq(t, "a8"))
	if pc == nil || pc.Kind != core.Queen {
		t.Errorf("promoted piece = %+v, want queen", pc)
	}
	if got := g.Moves()[0]; got != "a7a8q" {
		t.Errorf("notation = %q, want \"a7a8q\"", got)
	}
}

func TestPromotionToKnight(t *testing.T) {
	g, err := NewFromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if _, err := g.SelectPiece(sq(t, "a7")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.MoveSelected(sq(t, "a8"), core.Knight); err != nil {
		t.Fatalf("promote: %v", err)
	}

	pc, _ := g.Board().At(sq(t, "a8"))
	if pc == nil || pc.Kind != core.Knight {
		t.Errorf("promoted piece = %+v, want knight", pc)
	}
	if got := g.Moves()[0]; got != "a7a8n" {
		t.Errorf("notation = %q, want \"a7a8n\"", got)
	}
}

func TestBoardReturnsSnapshot(t *testing.T) {
	g := New()
	b1 := g.Board()
	b2 := g.Board()
	if !b1.Equal(b2) {
		t.Error("consecutive board reads differ")
	}

	// Mutating a returned board must not leak into the game
	if err := b1.Remove(sq(t, "e2")); err != nil {
		t.Fatal(err)
	}
	if pc, _ := g.Board().At(sq(t, "e2")); pc == nil {
		t.Error("external mutation reached the live board")
	}
}

func TestUndo(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "e7e5")
	fenAfterFirst := g.History()[0].FENAfter

	if err := g.Undo(1); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := g.FEN(); got != fenAfterFirst {
		t.Errorf("FEN after undo = %q, want %q", got, fenAfterFirst)
	}
	if len(g.Moves()) != 1 {
		t.Errorf("history length %d after undo, want 1", len(g.Moves()))
	}
	if g.Player() != core.ColorBlack {
		t.Error("wrong side to move after undo")
	}

	// Play can continue normally
	play(t, g, "e7e5", "g1f3")
}

func TestUndoAll(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "e7e5", "g1f3")

	if err := g.Undo(3); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := g.FEN(); got != StartingFEN {
		t.Errorf("FEN after full undo = %q, want start", got)
	}
}

func TestUndoBounds(t *testing.T) {
	g := New()
	if err := g.Undo(1); err == nil {
		t.Error("undo on fresh game succeeded")
	}
	if err := g.Undo(0); err == nil {
		t.Error("undo count 0 accepted")
	}
	play(t, g, "e2e4")
	if err := g.Undo(2); err == nil {
		t.Error("undo beyond history accepted")
	}
}

func TestFENRoundTrip(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "c7c5", "g1f3")
	fen := g.FEN()

	g2, err := NewFromFEN(fen)
	if err != nil {
		t.Fatalf("NewFromFEN(%q): %v", fen, err)
	}
	if g2.FEN() != fen {
		t.Errorf("round trip: %q != %q", g2.FEN(), fen)
	}
	if !g2.Board().Equal(g.Board()) {
		t.Error("round-tripped board differs")
	}
	if g2.Player() != g.Player() {
		t.Error("round-tripped turn differs")
	}
}

func TestNewFromFENRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq zz 0 1",
	}
	for _, fen := range bad {
		if _, err := NewFromFEN(fen); err == nil {
			t.Errorf("NewFromFEN(%q) accepted", fen)
		}
	}
}
