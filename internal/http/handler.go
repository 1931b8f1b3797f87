package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"chesscore/internal/core"
	"chesscore/internal/processor"
	"chesscore/internal/service"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	// Create handler
	h := NewHTTPHandler(proc, svc)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	// API v1 routes
	api := app.Group("/api/v1")

	// Auth routes carry tighter per-IP limits than the game routes
	auth := api.Group("/auth")
	validateToken := svc.ValidateToken

	auth.Post("/register", perMinuteLimit(5, "5 registrations per minute allowed"), h.RegisterHandler)
	auth.Post("/login", perMinuteLimit(10, "10 login attempts per minute allowed"), h.LoginHandler)
	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)
	auth.Post("/logout", AuthRequired(validateToken), h.LogoutHandler)

	// Game routes share one per-second limit, keyed by the first
	// X-Forwarded-For hop when the server sits behind a proxy
	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   time.Second,
		KeyGenerator: clientKey,
		LimitReached: rateLimited(fmt.Sprintf("%d requests per second allowed", maxReq)),
	}))

	// Content-Type validation for POST and PUT requests
	api.Use(contentTypeValidator)

	// Middleware validation for sanitization
	api.Use(validationMiddleware)

	// Register game routes with auth middleware
	api.Post("/games", OptionalAuth(validateToken), h.CreateGame) // Optional auth for player ID association
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Post("/games/:gameId/select", h.SelectPiece)
	api.Delete("/games/:gameId/select", h.CancelSelection)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Get("/games/:gameId/board", h.GetBoard)

	return app
}

// perMinuteLimit builds a per-IP limiter for the auth routes.
func perMinuteLimit(max int, detail string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimited(detail),
	})
}

func rateLimited(detail string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
			Error:   "rate limit exceeded",
			Code:    core.CodeRateLimitExceeded,
			Details: detail,
		})
	}
}

// clientKey identifies the caller for rate limiting: the first
// X-Forwarded-For hop if present, the peer address otherwise.
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.CodeInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler turns fiber-level errors (unknown routes, panics
// surfaced by recover, body limits) into the coded JSON shape the rest
// of the API speaks.
func customErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	resp := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.CodeInternalError,
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		resp.Error = fe.Message
		switch status {
		case fiber.StatusNotFound:
			resp.Code = core.CodeGameNotFound
		case fiber.StatusBadRequest:
			resp.Code = core.CodeInvalidRequest
		case fiber.StatusTooManyRequests:
			resp.Code = core.CodeRateLimitExceeded
		}
	}

	return c.Status(status).JSON(resp)
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// validatedRequest retrieves the parsed body stored by validationMiddleware.
// The bool result reports whether the middleware actually ran.
func validatedRequest[T any](c *fiber.Ctx) (T, bool) {
	var zero T
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return zero, false
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return zero, false
	}
	return *body, true
}

func validationMissing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "validation bypass detected",
		Code:  core.CodeInternalError,
	})
}

func invalidGameID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid game ID format",
		Code:    core.CodeInvalidRequest,
		Details: "game ID must be a valid UUID",
	})
}

// errorStatus maps processor error codes to HTTP status codes
func errorStatus(resp *core.ErrorResponse) int {
	switch resp.Code {
	case core.CodeGameNotFound:
		return fiber.StatusNotFound
	case core.CodeUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}

// CreateGame creates a new game with the given player names and
// optional starting position
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok := validatedRequest[core.CreateGameRequest](c)
	if !ok {
		return validationMissing(c)
	}

	// Retrieve authenticated user ID if available
	userID, _ := c.Locals("userID").(string)

	cmd := processor.NewCreateGameCommand(req)
	cmd.UserID = userID

	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp.Error)
	}

	return c.Status(fiber.StatusCreated).JSON(resp.Data)
}

// GetGame retrieves current game state
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	// Check for long-polling parameters
	waitStr := c.Query("wait", "false")
	moveCountStr := c.Query("moveCount", "-1")

	// Non-wait path
	if waitStr != "true" {
		cmd := processor.NewGetGameCommand(gameID)
		resp := h.proc.Execute(cmd)

		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}

		return c.JSON(resp.Data)
	}

	// Long-polling path
	moveCount, err := strconv.Atoi(moveCountStr)
	if err != nil {
		moveCount = -1
	}

	currentMoveCount, err := h.svc.MoveCount(gameID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.CodeGameNotFound,
		})
	}

	// If move count already different, return immediately
	if moveCount != currentMoveCount {
		cmd := processor.NewGetGameCommand(gameID)
		resp := h.proc.Execute(cmd)
		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}
		return c.JSON(resp.Data)
	}

	// Register wait with service
	ctx := c.Context()
	notify := h.svc.RegisterWait(gameID, moveCount, ctx)

	// Wait for notification, timeout, or client disconnect
	select {
	case <-notify:
		// State changed or timeout, get fresh game state
		cmd := processor.NewGetGameCommand(gameID)
		resp := h.proc.Execute(cmd)

		// Game might have been deleted
		if !resp.Success {
			return c.Status(fiber.StatusNotFound).JSON(resp.Error)
		}

		return c.JSON(resp.Data)

	case <-ctx.Done():
		// Client disconnected
		return nil
	}
}

// SelectPiece marks a square as the move source and returns the legal
// destinations for the piece on it
func (h *HTTPHandler) SelectPiece(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.SelectRequest](c)
	if !ok {
		return validationMissing(c)
	}

	cmd := processor.NewSelectPieceCommand(gameID, req)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(errorStatus(resp.Error)).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// CancelSelection discards a pending source selection
func (h *HTTPHandler) CancelSelection(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	cmd := processor.NewCancelSelectionCommand(gameID)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(errorStatus(resp.Error)).JSON(resp.Error)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// MakeMove commits the pending selection to the given destination
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.MoveRequest](c)
	if !ok {
		return validationMissing(c)
	}

	cmd := processor.NewMovePieceCommand(gameID, req)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(errorStatus(resp.Error)).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// UndoMove undoes one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.UndoRequest](c)
	if !ok {
		return validationMissing(c)
	}

	cmd := processor.NewUndoMoveCommand(gameID, req)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(errorStatus(resp.Error)).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	cmd := processor.NewDeleteGameCommand(gameID)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(fiber.StatusNotFound).JSON(resp.Error)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	cmd := processor.NewGetBoardCommand(gameID)
	resp := h.proc.Execute(cmd)

	if !resp.Success {
		return c.Status(fiber.StatusNotFound).JSON(resp.Error)
	}

	return c.JSON(resp.Data)
}
