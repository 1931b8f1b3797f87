package core

import "errors"

// Rule and protocol failures. All are recoverable: a failed action leaves
// the game exactly as it was before the call.
var (
	ErrOutOfRange         = errors.New("position out of range")
	ErrEmptySource        = errors.New("no piece on source cell")
	ErrEmptyCell          = errors.New("no piece on selected cell")
	ErrWrongTurn          = errors.New("piece does not belong to active player")
	ErrIllegalDestination = errors.New("destination is not a legal move")
	ErrGameOver           = errors.New("game is over")
	ErrProtocolViolation  = errors.New("selection protocol violated")
)

// Error codes for API responses
const (
	CodeOutOfRange         = "OUT_OF_RANGE"
	CodeEmptyCell          = "EMPTY_CELL"
	CodeWrongTurn          = "WRONG_TURN"
	CodeIllegalDestination = "ILLEGAL_DESTINATION"
	CodeGameOver           = "GAME_OVER"
	CodeProtocolViolation  = "PROTOCOL_VIOLATION"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidFEN         = "INVALID_FEN"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInvalidContent     = "INVALID_CONTENT_TYPE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// ErrorCode maps a rule failure to its API error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return CodeOutOfRange
	case errors.Is(err, ErrEmptySource), errors.Is(err, ErrEmptyCell):
		return CodeEmptyCell
	case errors.Is(err, ErrWrongTurn):
		return CodeWrongTurn
	case errors.Is(err, ErrIllegalDestination):
		return CodeIllegalDestination
	case errors.Is(err, ErrGameOver):
		return CodeGameOver
	case errors.Is(err, ErrProtocolViolation):
		return CodeProtocolViolation
	default:
		return CodeInternalError
	}
}
