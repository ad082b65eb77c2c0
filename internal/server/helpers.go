package server

import (
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/skip query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination reads ?limit and ?skip. Missing, malformed or
// non-positive limits fall back to the default; limits above the maximum are
// capped and negative skips become zero.
func parsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", service.DefaultPostLimit)
	if limit <= 0 {
		limit = service.DefaultPostLimit
	}
	if limit > service.MaxPostLimit {
		limit = service.MaxPostLimit
	}

	offset := c.QueryInt("skip", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewFieldValidationError(param, "must be a positive integer")
	}
	return uint(id), nil
}

// currentUser returns the caller resolved by AuthRequired.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, models.NewUnauthorizedError("Could not validate credentials")
	}
	return user, nil
}

func invalidBody() error {
	return models.NewValidationError("Invalid request body")
}
