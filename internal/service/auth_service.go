package service

import (
	"context"
	"log/slog"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
	"postboard/internal/validation"
)

// TokenTypeBearer is the token_type reported with every access token.
const TokenTypeBearer = "bearer"

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenService
}

func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, hasher: hasher, tokens: tokens}
}

// Login exchanges an email and password for an access token. An unknown email
// and a wrong password fail with the same InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, email, password string) (resp *TokenResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService", "Login")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if user == nil {
		// Pay for a comparison anyway so unknown emails are not faster to reject.
		if _, cmpErr := s.hasher.Compare(ctx, "", password); cmpErr != nil {
			return nil, cmpErr
		}
		observability.LoginAttempts.WithLabelValues("unknown_user").Inc()
		return nil, models.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Compare(ctx, user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.LoginAttempts.WithLabelValues("bad_password").Inc()
		middleware.Logger.InfoContext(ctx, "login rejected", slog.Uint64("user_id", uint64(user.ID)))
		return nil, models.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	return &TokenResponse{AccessToken: token, TokenType: TokenTypeBearer}, nil
}
