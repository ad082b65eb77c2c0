package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *hasherStub, *TokenService) {
	t.Helper()
	repo := &userRepoStub{
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			switch email {
			case "alice@example.com":
				return &models.User{ID: 11, Email: email, Password: "hashed:secret"}, nil
			case "broken@example.com":
				return nil, models.NewInternalError(errors.New("db down"))
			default:
				return nil, nil
			}
		},
	}
	hasher := &hasherStub{}
	tokens := newTestTokens(t, "HS256", 30*time.Minute)
	return NewAuthService(repo, hasher, tokens), hasher, tokens
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), "Alice@Example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)

	userID, err := tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(11), userID)
}

func TestAuthService_Login_UniformFailure(t *testing.T) {
	svc, hasher, _ := newAuthFixture(t)
	ctx := context.Background()

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "secret")
	_, wrongErr := svc.Login(ctx, "alice@example.com", "wrong")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.True(t, models.HasCode(unknownErr, models.CodeInvalidCredentials))
	assert.True(t, models.HasCode(wrongErr, models.CodeInvalidCredentials))
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	// The unknown-email path still runs a comparison.
	assert.Equal(t, []string{"", "hashed:secret"}, hasher.compared)
}

func TestAuthService_Login_StorageError(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	_, err := svc.Login(context.Background(), "broken@example.com", "secret")
	assert.True(t, models.HasCode(err, models.CodeInternal))
}
