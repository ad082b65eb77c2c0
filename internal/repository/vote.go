package repository

import (
	"context"
	"fmt"

	"postboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines persistence operations for votes. A vote row is
// inserted or deleted, never updated.
type VoteRepository interface {
	Exists(ctx context.Context, postID, userID uint) (bool, error)
	Create(ctx context.Context, vote *models.Vote) error
	// Delete removes the vote and returns how many rows went away.
	Delete(ctx context.Context, postID, userID uint) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository returns a new VoteRepository implementation.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, wrapDBError(err)
	}
	return count > 0, nil
}

func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(fmt.Sprintf("user %d has already voted on post %d", vote.UserID, vote.PostID))
		}
		return wrapDBError(err)
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, postID, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Vote{})
	if result.Error != nil {
		return 0, wrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
