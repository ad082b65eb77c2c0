// Package middleware provides Fiber middleware for authentication, rate limiting and observability.
package middleware

import (
	"context"
	"errors"
	"strings"

	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals populated by AuthGuard.
const (
	LocalsUserID = "userID"
	LocalsUser   = "user"
)

const credentialsMessage = "Could not validate credentials"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// UserFinder loads a user by id, failing with a NOT_FOUND AppError when absent.
type UserFinder interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthGuard rejects requests without a valid bearer token for an existing user.
// On success the user is stored in c.Locals(LocalsUser) and its id in
// c.Locals(LocalsUserID) and the request context.
func AuthGuard(tokens TokenVerifier, users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			observability.AuthFailures.WithLabelValues("missing_token").Inc()
			return models.NewUnauthorizedError(credentialsMessage)
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			observability.AuthFailures.WithLabelValues("invalid_token").Inc()
			return models.NewUnauthorizedError(credentialsMessage)
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				observability.AuthFailures.WithLabelValues("unknown_user").Inc()
				return models.NewUnauthorizedError(credentialsMessage)
			}
			return err
		}

		c.Locals(LocalsUserID, user.ID)
		c.Locals(LocalsUser, user)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))

		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthGuard.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsUser).(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
