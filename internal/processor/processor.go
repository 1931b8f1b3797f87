package processor

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"chesscore/internal/core"
	"chesscore/internal/service"
)

// FEN validation regex
var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+ \d+ \d+$`)

// Processor handles command execution against the service layer. All
// commands are synchronous: legality and classification run in-process
// with bounded cost.
type Processor struct {
	svc *service.Service
}

// New creates a processor
func New(svc *service.Service) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) Execute(cmd Command) Response {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdSelectPiece:
		return p.handleSelectPiece(cmd)
	case CmdCancelSelection:
		return p.handleCancelSelection(cmd)
	case CmdMovePiece:
		return p.handleMovePiece(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	default:
		return p.errorResponse("unknown command", core.CodeInvalidRequest)
	}
}

// isFENSafe rejects control characters and obviously malformed FEN before
// the parser sees it.
func isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) && r != ' ' {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}

func (p *Processor) handleCreateGame(cmd Command) Response {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.CodeInvalidRequest)
	}

	if args.FEN != "" && !isFENSafe(args.FEN) {
		return p.errorResponse("invalid FEN format or characters", core.CodeInvalidFEN)
	}

	gameID := p.svc.GenerateGameID()

	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	// Authenticated creators own the white seat unless a name was given
	// for both sides.
	if cmd.UserID != "" {
		whitePlayer.ID = cmd.UserID
	}

	response, err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer, args.FEN)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.CodeInvalidFEN)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

func (p *Processor) handleGetGame(cmd Command) Response {
	response, err := p.svc.GameState(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.CodeGameNotFound)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

// handleSelectPiece is the source-selection phase: it returns the legal
// destination set for the chosen cell.
func (p *Processor) handleSelectPiece(cmd Command) Response {
	args, ok := cmd.Args.(core.SelectRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.CodeInvalidRequest)
	}

	response, err := p.svc.SelectPiece(cmd.GameID, core.Position{Row: args.Row, Col: args.Col})
	if err != nil {
		return p.ruleError(err)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

func (p *Processor) handleCancelSelection(cmd Command) Response {
	if err := p.svc.CancelSelection(cmd.GameID); err != nil {
		return p.ruleError(err)
	}
	return Response{Success: true}
}

// handleMovePiece is the destination-selection phase: it applies the move
// and reports the resulting classification.
func (p *Processor) handleMovePiece(cmd Command) Response {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.CodeInvalidRequest)
	}

	var promotion core.Kind
	if args.Promotion != "" {
		kind, ok := core.ParseKind(args.Promotion)
		if !ok {
			return p.errorResponse("invalid promotion piece", core.CodeInvalidRequest)
		}
		promotion = kind
	}

	response, err := p.svc.MovePiece(cmd.GameID, core.Position{Row: args.Row, Col: args.Col}, promotion)
	if err != nil {
		return p.ruleError(err)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

func (p *Processor) handleUndoMove(cmd Command) Response {
	args := core.UndoRequest{Count: 1}
	if cmd.Args != nil {
		if req, ok := cmd.Args.(core.UndoRequest); ok {
			args = req
		}
	}

	response, err := p.svc.UndoMoves(cmd.GameID, args.Count)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			return p.errorResponse("game not found", core.CodeGameNotFound)
		}
		return p.errorResponse(err.Error(), core.CodeInvalidRequest)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

func (p *Processor) handleDeleteGame(cmd Command) Response {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.errorResponse("game not found", core.CodeGameNotFound)
	}
	return Response{Success: true}
}

func (p *Processor) handleGetBoard(cmd Command) Response {
	response, err := p.svc.BoardView(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.CodeGameNotFound)
	}

	return Response{
		Success: true,
		Data:    response,
	}
}

// ruleError maps service and rule failures to coded error responses.
func (p *Processor) ruleError(err error) Response {
	if errors.Is(err, service.ErrGameNotFound) {
		return p.errorResponse("game not found", core.CodeGameNotFound)
	}
	return p.errorResponse(err.Error(), core.ErrorCode(err))
}

// errorResponse creates an error response
func (p *Processor) errorResponse(message, code string) Response {
	return Response{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
