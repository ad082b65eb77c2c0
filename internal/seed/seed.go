package seed

import (
	"context"
	"fmt"
	"log/slog"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options controls how much data the seeder writes.
type Options struct {
	Users           int
	PostsPerUser    int
	MaxVotesPerPost int
	MaxDays         int
	BcryptCost      int
	BatchSize       int
	RandomSeed      int64
}

// DefaultOptions returns the volumes used by cmd/seed.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    5,
		MaxVotesPerPost: 10,
		MaxDays:         90,
		BatchSize:       100,
	}
}

// Result reports what one Run wrote.
type Result struct {
	Users []*models.User
	Posts []*models.Post
	Votes int
}

type Seeder struct {
	db   *gorm.DB
	opts Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Seeder{db: db, opts: opts}
}

// ClearAll removes every vote, post and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE votes, posts, users RESTART IDENTITY CASCADE").Error
	}
	for _, table := range []string{"votes", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run inserts users, their posts and a random set of votes in one
// transaction.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	hasher := service.NewBcryptHasher(s.opts.BcryptCost, 1)
	hash, err := hasher.Hash(ctx, DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	factory := NewFactory(s.opts, hash)

	middleware.Logger.Info("Seeding database",
		slog.Int("users", s.opts.Users),
		slog.Int("posts_per_user", s.opts.PostsPerUser),
		slog.Int("max_votes_per_post", s.opts.MaxVotesPerPost),
	)

	result := &Result{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, s.opts.Users)
		for i := 0; i < s.opts.Users; i++ {
			users = append(users, factory.BuildUser())
		}
		if len(users) > 0 {
			if err := tx.CreateInBatches(users, s.opts.BatchSize).Error; err != nil {
				return fmt.Errorf("create users: %w", err)
			}
		}
		result.Users = users

		posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
		for _, u := range users {
			for i := 0; i < s.opts.PostsPerUser; i++ {
				posts = append(posts, factory.BuildPost(u))
			}
		}
		if len(posts) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(posts, s.opts.BatchSize).Error; err != nil {
				return fmt.Errorf("create posts: %w", err)
			}
		}
		result.Posts = posts

		var votes []*models.Vote
		for _, p := range posts {
			for _, voter := range factory.PickVoters(p, users, s.opts.MaxVotesPerPost) {
				votes = append(votes, &models.Vote{PostID: p.ID, UserID: voter.ID})
			}
		}
		if len(votes) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(votes, s.opts.BatchSize).Error; err != nil {
				return fmt.Errorf("create votes: %w", err)
			}
		}
		result.Votes = len(votes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("Seeding completed",
		slog.Int("users", len(result.Users)),
		slog.Int("posts", len(result.Posts)),
		slog.Int("votes", result.Votes),
	)
	return result, nil
}
