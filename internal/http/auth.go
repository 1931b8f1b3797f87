package http

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"

	"chesscore/internal/core"
	"chesscore/internal/service"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest accepts either username or email as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token and the account it belongs to.
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse describes the authenticated account.
type UserResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func badRequest(c *fiber.Ctx, msg, details string) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   msg,
		Code:    core.CodeInvalidRequest,
		Details: details,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: msg,
		Code:  core.CodeInternalError,
	})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
		Error: msg,
		Code:  core.CodeUnauthorized,
	})
}

// RegisterHandler creates an account and logs it straight in.
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err.Error())
	}

	if !usernamePattern.MatchString(req.Username) {
		return badRequest(c, "invalid username format",
			"username must be 1-40 characters, alphanumeric and underscore only")
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return badRequest(c, "invalid email format",
			"email must be a valid email address")
	}
	if err := checkPasswordStrength(req.Password); err != nil {
		return badRequest(c, "weak password", err.Error())
	}

	// Accounts are stored lowercase so lookups are case-insensitive
	req.Username = strings.ToLower(req.Username)
	req.Email = strings.ToLower(req.Email)

	user, err := h.svc.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "user already exists",
				Code:    core.CodeInvalidRequest,
				Details: "username or email already taken",
			})
		}
		return internalError(c, "failed to create user")
	}

	token, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		return internalError(c, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.SessionTTL),
	})
}

// checkPasswordStrength requires 8-128 characters with at least one
// letter and one digit.
func checkPasswordStrength(password string) error {
	if n := len(password); n < 8 || n > 128 {
		return fmt.Errorf("password must be 8 to 128 characters")
	}
	var letter, digit bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsNumber(r)
	}
	if !letter || !digit {
		return fmt.Errorf("password must contain at least one letter and one number")
	}
	return nil
}

// LoginHandler verifies credentials and issues a token. Every failure
// looks the same to the caller so accounts cannot be enumerated.
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err.Error())
	}

	user, err := h.svc.AuthenticateUser(strings.ToLower(req.Identifier), req.Password)
	if err != nil {
		return unauthorized(c, "invalid credentials")
	}

	token, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		return internalError(c, "failed to generate token")
	}

	// Best effort; the login already succeeded
	_ = h.svc.UpdateLastLogin(user.UserID)
	_ = h.svc.CreateUserSession(user.UserID)

	return c.JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.SessionTTL),
	})
}

// GetCurrentUserHandler resolves the bearer token to its account.
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return unauthorized(c, "unauthorized")
	}

	user, err := h.svc.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.CodeInvalidRequest,
		})
	}

	return c.JSON(UserResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// LogoutHandler drops the user's session. The JWT itself stays valid
// until expiry; the session row is what the cleanup job audits.
func (h *HTTPHandler) LogoutHandler(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return unauthorized(c, "unauthorized")
	}
	_ = h.svc.DeleteUserSession(userID)
	return c.SendStatus(fiber.StatusNoContent)
}
