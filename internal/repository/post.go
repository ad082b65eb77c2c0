package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"postboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListOptions filters and pages a post listing.
type ListOptions struct {
	Limit  int
	Offset int
	// Search matches a substring of the title. Empty means no filter.
	Search          string
	CaseInsensitive bool
}

// PostChanges are the columns an update overwrites. A nil Published keeps
// the stored value.
type PostChanges struct {
	Title     string
	Content   string
	Published *bool
	UpdatedAt time.Time
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	FindForUpdate(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]*models.Post, error)
	Update(ctx context.Context, id uint, changes PostChanges) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withVoteCount(r.db.WithContext(ctx)).
		Preload("Owner").
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, wrapDBError(err)
	}
	return &post, nil
}

// FindForUpdate reads the post row and locks it until the surrounding
// transaction ends. It returns nil without an error when the post is absent.
func (r *postRepository) FindForUpdate(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, wrapDBError(err)
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, opts ListOptions) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	query := r.withVoteCount(r.db.WithContext(ctx)).Preload("Owner")

	if opts.Search != "" {
		cond, arg := r.titleFilter(opts.Search, opts.CaseInsensitive)
		query = query.Where(cond, arg)
	}

	err := query.
		Order("posts.id ASC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, changes PostChanges) error {
	values := map[string]interface{}{
		"title":      changes.Title,
		"content":    changes.Content,
		"updated_at": changes.UpdatedAt,
	}
	if changes.Published != nil {
		values["published"] = *changes.Published
	}

	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return wrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return wrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// withVoteCount selects every post column plus the number of votes on the
// post. The outer join keeps posts without votes at zero.
func (r *postRepository) withVoteCount(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select("posts.*, COUNT(votes.post_id) AS votes").
		Joins("LEFT JOIN votes ON votes.post_id = posts.id").
		Group("posts.id")
}

// titleFilter builds the substring condition on posts.title. SQLite's LIKE
// ignores ASCII case, so the case-sensitive form there uses INSTR.
func (r *postRepository) titleFilter(search string, caseInsensitive bool) (string, string) {
	if caseInsensitive {
		return `LOWER(posts.title) LIKE ? ESCAPE '\'`, "%" + escapeLike(strings.ToLower(search)) + "%"
	}
	if r.db.Dialector.Name() == "sqlite" {
		return "INSTR(posts.title, ?) > 0", search
	}
	return `posts.title LIKE ? ESCAPE '\'`, "%" + escapeLike(search) + "%"
}

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
