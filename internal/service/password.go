package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Compare reports whether password matches hash. An empty hash is
	// compared against a throwaway hash and never matches.
	Compare(ctx context.Context, hash, password string) (bool, error)
}

// BcryptHasher is a PasswordHasher that bounds how many bcrypt operations run
// at once.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummyHash []byte
}

// NewBcryptHasher returns a hasher using cost. concurrency <= 0 means GOMAXPROCS.
func NewBcryptHasher(cost, concurrency int) *BcryptHasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	target := []byte(hash)
	if hash == "" {
		target = h.dummy()
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	// Malformed stored hashes and over-long passwords count as a mismatch.
	if err := bcrypt.CompareHashAndPassword(target, []byte(password)); err != nil {
		return false, nil
	}
	return hash != "", nil
}

func (h *BcryptHasher) dummy() []byte {
	h.dummyOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte("postboard-timing-equalizer"), h.cost)
		if err != nil {
			hashed, _ = bcrypt.GenerateFromPassword([]byte("postboard-timing-equalizer"), bcrypt.DefaultCost)
		}
		h.dummyHash = hashed
	})
	return h.dummyHash
}
