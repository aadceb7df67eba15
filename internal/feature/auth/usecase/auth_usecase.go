package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sns_backend/internal/feature/users/domain/entity"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/shared/apperror"
)

const (
	// minPasswordLength is the minimum number of characters in a password.
	minPasswordLength = 8

	// maxPasswordBytes is the longest password bcrypt can hash.
	maxPasswordBytes = 72

	// dummyPassword is hashed once at construction. Unknown emails are compared against its digest.
	dummyPassword = "dummy-password-for-unknown-emails"

	// fallbackDummyHash is a cost 10 digest used only when the hasher cannot produce one.
	fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserStore is the part of the users feature that auth depends on.
// Following Go convention, the consumer (usecase) defines the interface.
type UserStore interface {
	// Create persists an account with an already hashed password.
	// A duplicate name or email is reported as an apperror conflict.
	Create(ctx context.Context, name, email, hashedPassword string) (*entity.User, error)
	// GetByEmail returns an apperror not-found error when no account matches.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// TokenSigner signs and verifies JWTs.
type TokenSigner interface {
	Sign(subject uint, email string, kind jwtmw.Kind) (string, error)
	Verify(token string) (*jwtmw.Claims, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) bool
}

// TokenPair is what a successful login or registration returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// authUsecase implements the authentication business logic.
type authUsecase struct {
	users  UserStore
	tokens TokenSigner
	hasher PasswordHasher

	// dummyHash has the same cost as real digests, so an unknown email takes as long as a wrong password.
	dummyHash string
}

// NewAuthUsecase creates the auth usecase.
func NewAuthUsecase(users UserStore, tokens TokenSigner, hasher PasswordHasher) *authUsecase {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		slog.Warn("failed to hash dummy password, using fallback digest", "error", err)
		dummy = fallbackDummyHash
	}
	return &authUsecase{users: users, tokens: tokens, hasher: hasher, dummyHash: dummy}
}

// validatePassword checks that the password meets the security requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.Validation(fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return apperror.Validation(fmt.Sprintf("password must be at most %d bytes long", maxPasswordBytes))
	}
	return nil
}

// AuthenticateWithEmailAndPassword returns the account for the credentials.
// The password is compared even when the email is unknown, so that both failures take the same time.
func (u *authUsecase) AuthenticateWithEmailAndPassword(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := u.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	digest := u.dummyHash
	if err == nil {
		digest = user.Password
	}
	matched := u.hasher.Compare(password, digest)

	if err != nil || !matched {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginWithEmail authenticates the credentials and issues a fresh token pair.
func (u *authUsecase) LoginWithEmail(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := u.AuthenticateWithEmailAndPassword(ctx, email, password)
	if err != nil {
		return TokenPair{}, err
	}
	return u.issue(user)
}

// RegisterWithEmail creates an account and issues its first token pair.
// An account that already exists is reported as unauthorized.
func (u *authUsecase) RegisterWithEmail(ctx context.Context, name, email, password string) (TokenPair, error) {
	if err := validatePassword(password); err != nil {
		return TokenPair{}, err
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := u.users.Create(ctx, name, email, hashed)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return TokenPair{}, apperror.Unauthorized(apperror.PublicMessage(err), err)
		}
		return TokenPair{}, err
	}
	return u.issue(user)
}

// RotateToken signs a new access token, or a new refresh token when wantRefresh is set.
// Only a valid refresh token may be rotated.
func (u *authUsecase) RotateToken(ctx context.Context, token string, wantRefresh bool) (string, error) {
	claims, err := u.tokens.Verify(token)
	if err != nil {
		return "", apperror.Unauthorized(ErrInvalidToken.Message, err)
	}
	if claims.Type != jwtmw.KindRefresh {
		return "", apperror.Unauthorized(ErrInvalidToken.Message, ErrRefreshTokenRequired)
	}
	subject, err := claims.UserID()
	if err != nil {
		return "", apperror.Unauthorized(ErrInvalidToken.Message, err)
	}

	kind := jwtmw.KindAccess
	if wantRefresh {
		kind = jwtmw.KindRefresh
	}
	signed, err := u.tokens.Sign(subject, claims.Email, kind)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (u *authUsecase) issue(user *entity.User) (TokenPair, error) {
	access, err := u.tokens.Sign(user.ID, user.Email, jwtmw.KindAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := u.tokens.Sign(user.ID, user.Email, jwtmw.KindRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
