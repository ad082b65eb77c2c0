package server

import (
	"strings"

	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LoginRequest follows the OAuth2 password grant form: the email goes in
// username. JSON bodies with the same keys are accepted too.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login godoc
// @Summary Log in
// @Description Exchange an email and password for a bearer access token.
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param username formData string true "Account email"
// @Param password formData string true "Account password"
// @Success 200 {object} service.TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	if strings.TrimSpace(req.Username) == "" {
		return models.NewFieldValidationError("username", "is required")
	}
	if req.Password == "" {
		return models.NewFieldValidationError("password", "is required")
	}

	token, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(token)
}
