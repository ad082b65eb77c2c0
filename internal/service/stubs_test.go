package service

import (
	"context"

	"postboard/internal/models"
	"postboard/internal/repository"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn     func(context.Context, *models.User) error
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	findForUpdateFn func(context.Context, uint) (*models.Post, error)
	existsFn        func(context.Context, uint) (bool, error)
	listFn          func(context.Context, repository.ListOptions) ([]*models.Post, error)
	updateFn        func(context.Context, uint, repository.PostChanges) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) FindForUpdate(ctx context.Context, id uint) (*models.Post, error) {
	return s.findForUpdateFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, opts repository.ListOptions) ([]*models.Post, error) {
	return s.listFn(ctx, opts)
}
func (s *postRepoStub) Update(ctx context.Context, id uint, changes repository.PostChanges) error {
	return s.updateFn(ctx, id, changes)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		findForUpdateFn: func(_ context.Context, _ uint) (*models.Post, error) { return nil, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return false, nil },
		listFn:          func(_ context.Context, _ repository.ListOptions) ([]*models.Post, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ uint, _ repository.PostChanges) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// voteRepoStub keeps votes in a set keyed by (post, user).
type voteRepoStub struct {
	votes     map[[2]uint]bool
	createErr error
}

func newVoteRepoStub() *voteRepoStub {
	return &voteRepoStub{votes: make(map[[2]uint]bool)}
}

func (s *voteRepoStub) Exists(_ context.Context, postID, userID uint) (bool, error) {
	return s.votes[[2]uint{postID, userID}], nil
}
func (s *voteRepoStub) Create(_ context.Context, vote *models.Vote) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.votes[[2]uint{vote.PostID, vote.UserID}] = true
	return nil
}
func (s *voteRepoStub) Delete(_ context.Context, postID, userID uint) (int64, error) {
	key := [2]uint{postID, userID}
	if !s.votes[key] {
		return 0, nil
	}
	delete(s.votes, key)
	return 1, nil
}

// storeStub runs transactions inline and counts them.
type storeStub struct {
	users        repository.UserRepository
	posts        repository.PostRepository
	votes        repository.VoteRepository
	transactions int
}

func (s *storeStub) Users() repository.UserRepository { return s.users }
func (s *storeStub) Posts() repository.PostRepository { return s.posts }
func (s *storeStub) Votes() repository.VoteRepository { return s.votes }

func (s *storeStub) Transaction(_ context.Context, fn func(repository.Store) error) error {
	s.transactions++
	return fn(s)
}

// hasherStub "hashes" by prefixing and records compared hashes.
type hasherStub struct {
	compared []string
}

func (h *hasherStub) Hash(_ context.Context, password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *hasherStub) Compare(_ context.Context, hash, password string) (bool, error) {
	h.compared = append(h.compared, hash)
	return hash != "" && hash == "hashed:"+password, nil
}
