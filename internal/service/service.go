// Package service hosts games: it owns the registry of live games, the
// per-game locking required by the two-phase selection protocol, user
// accounts, and the storage and long-poll wiring around the rules core.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"chesscore/internal/core"
	"chesscore/internal/game"
	"chesscore/internal/storage"
)

const (
	SessionTTL         = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

var ErrGameNotFound = errors.New("game not found")

// hostedGame pairs a game with its players and the mutex that serializes
// the selection protocol. Interleaved phase calls from two clients are a
// protocol violation, never a data race.
type hostedGame struct {
	mu       sync.Mutex
	game     *game.Game
	players  map[core.Color]*core.Player
	lastMove *core.MoveInfo
}

// Service coordinates game state, user management, and storage
type Service struct {
	games     map[string]*hostedGame
	mu        sync.RWMutex
	store     *storage.Store
	jwtSecret []byte
	waiter    *WaitRegistry
}

// New creates a new service instance with optional storage
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*hostedGame),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GenerateGameID returns a fresh game identifier.
func (s *Service) GenerateGameID() string {
	return uuid.New().String()
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(gameID string, moveCount int, ctx context.Context) <-chan struct{} {
	return s.waiter.RegisterWait(gameID, moveCount, ctx)
}

// CreateGame creates and registers a game. An empty fen starts from the
// standard position.
func (s *Service) CreateGame(gameID string, white, black *core.Player, fen string) (core.GameResponse, error) {
	var g *game.Game
	var err error
	if fen == "" {
		g = game.New()
	} else {
		g, err = game.NewFromFEN(fen)
		if err != nil {
			return core.GameResponse{}, err
		}
	}

	hg := &hostedGame{
		game: g,
		players: map[core.Color]*core.Player{
			core.ColorWhite: white,
			core.ColorBlack: black,
		},
	}

	s.mu.Lock()
	if _, exists := s.games[gameID]; exists {
		s.mu.Unlock()
		return core.GameResponse{}, fmt.Errorf("game already exists: %s", gameID)
	}
	s.games[gameID] = hg
	s.mu.Unlock()

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:        gameID,
			InitialFEN:    g.InitialFEN(),
			WhitePlayerID: white.ID,
			WhiteName:     white.Name,
			BlackPlayerID: black.ID,
			BlackName:     black.Name,
			StartTimeUTC:  time.Now().UTC(),
		})
	}

	hg.mu.Lock()
	defer hg.mu.Unlock()
	return s.buildResponse(gameID, hg), nil
}

func (s *Service) lookup(gameID string) (*hostedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hg, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return hg, nil
}

// GameState returns the current view of a game.
func (s *Service) GameState(gameID string) (core.GameResponse, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return core.GameResponse{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	return s.buildResponse(gameID, hg), nil
}

// MoveCount returns the number of applied half-moves, for long-polling.
func (s *Service) MoveCount(gameID string) (int, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return 0, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	return len(hg.game.Moves()), nil
}

// SelectPiece runs the source-selection phase for a game.
func (s *Service) SelectPiece(gameID string, pos core.Position) (core.SelectResponse, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return core.SelectResponse{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()

	moves, err := hg.game.SelectPiece(pos)
	if err != nil {
		return core.SelectResponse{}, err
	}
	return core.SelectResponse{Selected: pos, Moves: moves}, nil
}

// CancelSelection abandons a pending selection.
func (s *Service) CancelSelection(gameID string) error {
	hg, err := s.lookup(gameID)
	if err != nil {
		return err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	hg.game.CancelSelection()
	return nil
}

// MovePiece runs the destination-selection phase, persists the applied
// move, and wakes long-poll waiters.
func (s *Service) MovePiece(gameID string, pos core.Position, promotion core.Kind) (core.GameResponse, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return core.GameResponse{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()

	if _, err := hg.game.MoveSelected(pos, promotion); err != nil {
		return core.GameResponse{}, err
	}

	history := hg.game.History()
	applied := history[len(history)-1]
	hg.lastMove = &core.MoveInfo{
		Move:        applied.Notation,
		PlayerColor: applied.Color.String(),
	}

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       gameID,
			MoveNumber:   len(history),
			MoveCoord:    applied.Notation,
			FENAfterMove: applied.FENAfter,
			PlayerColor:  applied.Color.String(),
			MoveTimeUTC:  time.Now().UTC(),
		})
	}

	s.waiter.NotifyGame(gameID, len(history))
	return s.buildResponse(gameID, hg), nil
}

// UndoMoves reverts count half-moves.
func (s *Service) UndoMoves(gameID string, count int) (core.GameResponse, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return core.GameResponse{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()

	if err := hg.game.Undo(count); err != nil {
		return core.GameResponse{}, err
	}
	hg.lastMove = nil

	remaining := len(hg.game.Moves())
	if s.store != nil {
		s.store.DeleteUndoneMoves(gameID, remaining)
	}
	s.waiter.NotifyGame(gameID, remaining)
	return s.buildResponse(gameID, hg), nil
}

// DeleteGame removes a game and releases its waiters.
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	_, ok := s.games[gameID]
	delete(s.games, gameID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	s.waiter.RemoveGame(gameID)
	return nil
}

// BoardView returns the FEN and ASCII rendering of a game's board.
func (s *Service) BoardView(gameID string) (core.BoardResponse, error) {
	hg, err := s.lookup(gameID)
	if err != nil {
		return core.BoardResponse{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()

	return core.BoardResponse{
		FEN:   hg.game.FEN(),
		Board: hg.game.Board().ToASCII(),
	}, nil
}

// buildResponse constructs the standard game response. Caller holds hg.mu.
func (s *Service) buildResponse(gameID string, hg *hostedGame) core.GameResponse {
	return core.GameResponse{
		GameID: gameID,
		FEN:    hg.game.FEN(),
		Turn:   hg.game.Player().String(),
		State:  hg.game.State().String(),
		Check:  hg.game.InCheck(),
		Moves:  hg.game.Moves(),
		Players: core.PlayersResponse{
			White: hg.players[core.ColorWhite],
			Black: hg.players[core.ColorBlack],
		},
		LastMove: hg.lastMove,
	}
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*hostedGame)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob runs periodic cleanup of expired sessions
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}
	if deleted, err := s.store.DeleteExpiredSessions(); err != nil {
		fmt.Printf("cleanup: failed to delete expired sessions: %v\n", err)
	} else if deleted > 0 {
		fmt.Printf("cleanup: deleted %d expired sessions\n", deleted)
	}
}
