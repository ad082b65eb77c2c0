package service

import (
	"context"
	"fmt"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// VoteDirection says whether a vote request adds or removes the caller's vote.
type VoteDirection int

const (
	VoteDown VoteDirection = 0
	VoteUp   VoteDirection = 1
)

func (d VoteDirection) String() string {
	switch d {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return fmt.Sprintf("VoteDirection(%d)", int(d))
	}
}

// Valid reports whether d is VoteUp or VoteDown.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

const (
	MessageVoteAdded   = "Successfully added vote"
	MessageVoteDeleted = "Successfully deleted vote"
)

type VoteService struct {
	store repository.Store
}

type VoteInput struct {
	PostID uint
	Dir    VoteDirection
}

func NewVoteService(store repository.Store) *VoteService {
	return &VoteService{store: store}
}

// Vote adds (VoteUp) or removes (VoteDown) the actor's vote on a post and
// returns a confirmation message. Adding twice or removing a vote that does
// not exist is a Conflict.
func (s *VoteService) Vote(ctx context.Context, actor *models.User, in VoteInput) (msg string, err error) {
	ctx, span := observability.StartSpan(ctx, "VoteService", "Vote",
		attribute.Int64("user.id", int64(actor.ID)),
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.String("vote.direction", in.Dir.String()),
	)
	defer func() {
		observability.VoteTransitions.WithLabelValues(in.Dir.String(), voteOutcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if !in.Dir.Valid() {
		return "", models.NewFieldValidationError("dir", "must be 0 or 1")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Posts().Exists(ctx, in.PostID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewNotFoundError("Post", in.PostID)
		}

		if in.Dir == VoteUp {
			voted, err := tx.Votes().Exists(ctx, in.PostID, actor.ID)
			if err != nil {
				return err
			}
			if voted {
				return models.NewConflictError(fmt.Sprintf("user %d has already voted on post %d", actor.ID, in.PostID))
			}
			// A concurrent insert loses on the primary key and surfaces as Conflict.
			return tx.Votes().Create(ctx, &models.Vote{PostID: in.PostID, UserID: actor.ID})
		}

		removed, err := tx.Votes().Delete(ctx, in.PostID, actor.ID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return models.NewConflictError("Vote does not exist")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if in.Dir == VoteUp {
		return MessageVoteAdded, nil
	}
	return MessageVoteDeleted, nil
}

func voteOutcome(err error) string {
	switch {
	case err == nil:
		return "applied"
	case models.HasCode(err, models.CodeConflict):
		return "conflict"
	case models.HasCode(err, models.CodeNotFound):
		return "not_found"
	case models.HasCode(err, models.CodeValidation):
		return "invalid"
	default:
		return "error"
	}
}
