package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chesscore/internal/core"
)

var validate = validator.New()

// bodyFor maps a route shape to the request struct it carries. Only
// POST bodies are validated; nil means the route has no body schema.
func bodyFor(method, path string) any {
	if method != fiber.MethodPost {
		return nil
	}
	switch {
	case strings.HasSuffix(path, "/games"):
		return &core.CreateGameRequest{}
	case strings.HasSuffix(path, "/select"):
		return &core.SelectRequest{}
	case strings.HasSuffix(path, "/moves"):
		return &core.MoveRequest{}
	case strings.HasSuffix(path, "/undo"):
		return &core.UndoRequest{}
	}
	return nil
}

// validationMiddleware parses the body into the route's request struct,
// runs the struct tags, and stashes the result for the handler under
// Locals("validatedBody") with Locals("validated") as the marker.
func validationMiddleware(c *fiber.Ctx) error {
	body := bodyFor(c.Method(), c.Path())
	if body == nil {
		return c.Next()
	}

	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.CodeInvalidRequest,
			Details: err.Error(),
		})
	}

	if errs := validate.Struct(body); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.CodeInvalidRequest,
			Details: describeValidationErrors(errs.(validator.ValidationErrors)),
		})
	}

	c.Locals("validatedBody", body)
	c.Locals("validated", true)
	return c.Next()
}

func describeValidationErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		unit := ""
		if fe.Type().Kind() == reflect.String {
			unit = " characters"
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
