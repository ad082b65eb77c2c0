package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Votes() VoteRepository
	// Transaction runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db    *gorm.DB
	users UserRepository
	posts PostRepository
	votes VoteRepository
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:    db,
		users: NewUserRepository(db),
		posts: NewPostRepository(db),
		votes: NewVoteRepository(db),
	}
}

func (s *gormStore) Users() UserRepository { return s.users }
func (s *gormStore) Posts() PostRepository { return s.posts }
func (s *gormStore) Votes() VoteRepository { return s.votes }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
