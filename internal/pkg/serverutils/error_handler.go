package serverutils

import (
	"errors"
	"log"

	"chromir-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// PublicError overrides the message shown to the client while keeping the cause for logs.
type PublicError struct {
	Message string
	Data    any
	Err     error
}

func (e *PublicError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *PublicError) Unwrap() error {
	return e.Err
}

// WithPublicMessage hides err behind message in the response body.
func WithPublicMessage(err error, message string, data any) error {
	if err == nil {
		return nil
	}
	return &PublicError{Message: message, Data: data, Err: err}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	code, message, data := Classify(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	return ctx.Status(code).JSON(ErrorResponseWithData(code, message, data))
}

// Classify picks status, public message and optional data for err.
func Classify(err error) (int, string, any) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, nil
	}

	code := apperror.HTTPStatus(err)

	var public *PublicError
	if errors.As(err, &public) {
		return code, public.Message, public.Data
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return code, "Validation failed", verr.Fields
	}

	if code == fiber.StatusInternalServerError {
		return code, "Internal server error", nil
	}
	return code, err.Error(), nil
}
