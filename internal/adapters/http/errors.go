package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// APIError is the body of every error response.
type APIError struct {
	Error string `json:"error"`
}

// Messages returned by POST /detect. Clients match on them, keep them stable.
const (
	msgNoImagePart   = "No image part in the request"
	msgNoSelected    = "No selected file"
	msgEmptyFile     = "The file is empty."
	msgDecodeFailed  = "Failed to decode image"
	msgTooLarge      = "Image too large"
	msgNoBuilding    = "No building detected in the image"
	msgProcessPrefix = "Error processing the image: "
)

func newError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIError{Error: message})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, msg)
}

// ErrorHandler renders errors that escape handlers and middleware (404 for
// unknown routes, 408 from the timeout middleware, 413 for oversized bodies)
// in the same shape as handler errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}
	return newError(c, code, msg)
}
