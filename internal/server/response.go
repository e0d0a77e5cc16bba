package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spigell/resume-scorer/internal/pipeline"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

const internalMessage = "Analysis failed due to an internal error"

func fail(c *fiber.Ctx, code int, message string, kind pipeline.ErrorKind) error {
	return c.Status(code).JSON(errorResponse{
		Success: false,
		Message: message,
		Kind:    string(kind),
	})
}

// failFor maps a pipeline error onto a status code. Internal errors never
// expose their message.
func failFor(c *fiber.Ctx, err error) error {
	kind := pipeline.KindOf(err)

	switch {
	case kind.IsInputError():
		return fail(c, fiber.StatusBadRequest, err.Error(), kind)
	case kind == pipeline.KindUpstreamUnavailable:
		return fail(c, fiber.StatusServiceUnavailable, err.Error(), kind)
	default:
		return fail(c, fiber.StatusInternalServerError, internalMessage, pipeline.KindInternal)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return fail(c, e.Code, e.Message, "")
	}
	return fail(c, fiber.StatusInternalServerError, internalMessage, pipeline.KindInternal)
}
