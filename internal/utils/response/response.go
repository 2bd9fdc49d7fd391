package response

import (
	"github.com/gofiber/fiber/v2"

	"merx/internal/validation"
)

// Success sends data with status 200.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

// Created sends data with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Error sends a JSON error body with the given status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// ValidationFailed sends a 422 with the per-field failure map.
func ValidationFailed(c *fiber.Ctx, verr *validation.Error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": verr.Fields,
	})
}

// BadRequest sends a JSON error with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a JSON error with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a JSON error with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a JSON error with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// InternalError sends a JSON error with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
