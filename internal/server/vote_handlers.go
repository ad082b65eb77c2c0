package server

import (
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// VoteRequest adds (dir=1) or removes (dir=0) the caller's vote on a post.
type VoteRequest struct {
	PostID uint `json:"post_id"`
	Dir    *int `json:"dir"`
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Vote godoc
// @Summary Vote on a post
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param vote body VoteRequest true "Vote"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /vote/ [post]
func (s *Server) Vote(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	if req.PostID == 0 {
		return models.NewFieldValidationError("post_id", "is required")
	}
	if req.Dir == nil {
		return models.NewFieldValidationError("dir", "is required")
	}

	msg, err := s.voteService.Vote(c.UserContext(), actor, service.VoteInput{
		PostID: req.PostID,
		Dir:    service.VoteDirection(*req.Dir),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(MessageResponse{Message: msg})
}
