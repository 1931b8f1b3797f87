// Package processor dispatches unified commands from transport layers to
// the service and maps rule failures to API error codes.
package processor

import (
	"chesscore/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdGetGame
	CmdSelectPiece
	CmdCancelSelection
	CmdMovePiece
	CmdUndoMove
	CmdDeleteGame
	CmdGetBoard
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	GameID string
	Args   any
}

// Response wraps the result with metadata
type Response struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewSelectPieceCommand(gameID string, req core.SelectRequest) Command {
	return Command{
		Type:   CmdSelectPiece,
		GameID: gameID,
		Args:   req,
	}
}

func NewCancelSelectionCommand(gameID string) Command {
	return Command{
		Type:   CmdCancelSelection,
		GameID: gameID,
	}
}

func NewMovePieceCommand(gameID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMovePiece,
		GameID: gameID,
		Args:   req,
	}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{
		Type:   CmdUndoMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}
