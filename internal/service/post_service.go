package service

import (
	"context"
	"time"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
	"postboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPostLimit = 10
	MaxPostLimit     = 100
)

type PostService struct {
	store repository.Store
	now   func() time.Time
}

type ListPostsInput struct {
	Limit           int
	Offset          int
	Search          string
	CaseInsensitive bool
}

type CreatePostInput struct {
	Title     string
	Content   string
	Published *bool
}

type UpdatePostInput struct {
	Title     string
	Content   string
	Published *bool
}

// Access is the outcome of checking whether an actor may mutate a post.
type Access int

const (
	AccessOK Access = iota
	AccessNotFound
	AccessForbidden
)

func NewPostService(store repository.Store) *PostService {
	return &PostService{store: store, now: time.Now}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	return s.store.Posts().List(ctx, repository.ListOptions{
		Limit:           limit,
		Offset:          offset,
		Search:          in.Search,
		CaseInsensitive: in.CaseInsensitive,
	})
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.store.Posts().GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost", attribute.Int64("user.id", int64(actor.ID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:   in.Title,
		Content: in.Content,
		OwnerID: actor.ID,
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, err
	}

	post.Owner = *actor
	return post, nil
}

// UpdatePost overwrites title and content, and published when given, of a
// post the actor owns.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id uint, in UpdatePostInput) (updated *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "UpdatePost",
		attribute.Int64("user.id", int64(actor.ID)),
		attribute.Int64("post.id", int64(id)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := accessError(authorizeMutation(post, actor), id); err != nil {
			return err
		}

		changes := repository.PostChanges{
			Title:     in.Title,
			Content:   in.Content,
			Published: in.Published,
			UpdatedAt: s.now().UTC(),
		}
		if err := tx.Posts().Update(ctx, id, changes); err != nil {
			return err
		}

		updated, err = tx.Posts().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost removes a post the actor owns together with its votes.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("user.id", int64(actor.ID)),
		attribute.Int64("post.id", int64(id)),
	)
	defer func() { observability.EndSpan(span, err) }()

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := accessError(authorizeMutation(post, actor), id); err != nil {
			return err
		}
		return tx.Posts().Delete(ctx, id)
	})
}

// authorizeMutation checks existence before ownership, so a missing post is
// reported as such to every caller.
func authorizeMutation(post *models.Post, actor *models.User) Access {
	if post == nil {
		return AccessNotFound
	}
	if actor == nil || post.OwnerID != actor.ID {
		return AccessForbidden
	}
	return AccessOK
}

func accessError(access Access, postID uint) error {
	switch access {
	case AccessOK:
		return nil
	case AccessNotFound:
		return models.NewNotFoundError("Post", postID)
	default:
		return models.NewForbiddenError("Not authorized to perform requested operation")
	}
}

func validatePostFields(title, content string) error {
	if err := validation.ValidatePostTitle(title); err != nil {
		return models.NewFieldValidationError("title", err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return models.NewFieldValidationError("content", err.Error())
	}
	return nil
}
