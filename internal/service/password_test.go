package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Compare(ctx, hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, hash, "wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Compare(ctx, "not-a-bcrypt-hash", "correct horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_EmptyHashNeverMatches(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	ok, err := h.Compare(context.Background(), "", "postboard-timing-equalizer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_RejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	_, err := h.Hash(context.Background(), strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestBcryptHasher_WaitHonoursContext(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.Compare(ctx, "", "pw")
	assert.Error(t, err)
}
