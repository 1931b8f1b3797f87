package core

import "github.com/google/uuid"

// Player occupies one side of a game.
type Player struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Name  string `json:"name,omitempty"`
}

// PlayerConfig for API requests
type PlayerConfig struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=40"`
}

// NewPlayer creates a Player from PlayerConfig
func NewPlayer(config PlayerConfig, color Color) *Player {
	return &Player{
		ID:    uuid.New().String(),
		Color: color,
		Name:  config.Name,
	}
}

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white"`
	Black PlayerConfig `json:"black"`
	FEN   string       `json:"fen,omitempty" validate:"omitempty,max=100"`
}

// SelectRequest identifies the cell holding the piece to move.
type SelectRequest struct {
	Row int `json:"row" validate:"min=0,max=7"`
	Col int `json:"col" validate:"min=0,max=7"`
}

// MoveRequest identifies the destination cell for the selected piece.
// Promotion applies only when a pawn reaches the far rank; it defaults
// to queen when unspecified.
type MoveRequest struct {
	Row       int    `json:"row" validate:"min=0,max=7"`
	Col       int    `json:"col" validate:"min=0,max=7"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=queen rook bishop knight"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID   string          `json:"gameId"`
	FEN      string          `json:"fen"`
	Turn     string          `json:"turn"`  // "w" or "b"
	State    string          `json:"state"` // "running", "checkmate", ...
	Check    bool            `json:"check"`
	Moves    []string        `json:"moves"`
	Players  PlayersResponse `json:"players"`
	LastMove *MoveInfo       `json:"lastMove,omitempty"`
}

type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

type MoveInfo struct {
	Move        string `json:"move"` // coordinate form, e.g. "e2e4"
	PlayerColor string `json:"playerColor"`
}

// SelectResponse lists the legal destinations of the selected piece. An
// empty list means the selection was not retained.
type SelectResponse struct {
	Selected Position   `json:"selected"`
	Moves    []Position `json:"moves"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
