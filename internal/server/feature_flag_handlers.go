package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags godoc
// @Summary Feature flags for the caller
// @Tags flags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Failure 401 {object} models.ErrorResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(s.featureFlags.Snapshot(actor.ID))
}
