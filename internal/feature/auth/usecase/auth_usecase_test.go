package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sns_backend/internal/feature/auth/usecase"
	"sns_backend/internal/feature/users/domain/entity"
	usersuc "sns_backend/internal/feature/users/usecase"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/password"
	"sns_backend/internal/shared/apperror"
)

const testSecret = "test-secret"

// mockUserStore is a function-field mock of usecase.UserStore.
type mockUserStore struct {
	CreateFunc     func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
}

func (m *mockUserStore) Create(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
	return m.CreateFunc(ctx, name, email, hashedPassword)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

// mockHasher counts comparisons so that the timing defense can be observed.
type mockHasher struct {
	compared []string
}

func (m *mockHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (m *mockHasher) Compare(plain, digest string) bool {
	m.compared = append(m.compared, digest)
	return digest == "hashed:"+plain
}

func newSigner() *jwtmw.Signer {
	return jwtmw.NewSigner(testSecret, 5*time.Minute, time.Hour)
}

func TestAuthUsecase_AuthenticateWithEmailAndPassword(t *testing.T) {
	t.Parallel()

	alice := &entity.User{ID: 1, Email: "alice@example.com", Password: "hashed:secret12"}
	dbErr := errors.New("db down")

	tests := []struct {
		name         string
		email        string
		password     string
		getByEmail   func(ctx context.Context, email string) (*entity.User, error)
		expectedErr  error
		wantCompared int
	}{
		{
			name:     "success",
			email:    "alice@example.com",
			password: "secret12",
			getByEmail: func(ctx context.Context, email string) (*entity.User, error) {
				return alice, nil
			},
			wantCompared: 1,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrong-password",
			getByEmail: func(ctx context.Context, email string) (*entity.User, error) {
				return alice, nil
			},
			expectedErr:  usecase.ErrInvalidCredentials,
			wantCompared: 1,
		},
		{
			name:     "unknown email still compares",
			email:    "nobody@example.com",
			password: "secret12",
			getByEmail: func(ctx context.Context, email string) (*entity.User, error) {
				return nil, usersuc.ErrUserNotFound
			},
			expectedErr:  usecase.ErrInvalidCredentials,
			wantCompared: 1,
		},
		{
			name:     "store failure",
			email:    "alice@example.com",
			password: "secret12",
			getByEmail: func(ctx context.Context, email string) (*entity.User, error) {
				return nil, dbErr
			},
			expectedErr:  dbErr,
			wantCompared: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hasher := &mockHasher{}
			uc := usecase.NewAuthUsecase(&mockUserStore{GetByEmailFunc: tt.getByEmail}, newSigner(), hasher)

			user, err := uc.AuthenticateWithEmailAndPassword(context.Background(), tt.email, tt.password)

			assert.Len(t, hasher.compared, tt.wantCompared)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.ID, user.ID)
		})
	}
}

func TestAuthUsecase_LoginWithEmail(t *testing.T) {
	t.Parallel()

	store := &mockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return &entity.User{ID: 9, Email: email, Password: "hashed:secret12"}, nil
		},
	}
	signer := newSigner()
	uc := usecase.NewAuthUsecase(store, signer, &mockHasher{})

	pair, err := uc.LoginWithEmail(context.Background(), "alice@example.com", "secret12")
	require.NoError(t, err)

	access, err := signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwtmw.KindAccess, access.Type)
	assert.Equal(t, "9", access.Subject)
	assert.Equal(t, "alice@example.com", access.Email)

	refresh, err := signer.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, jwtmw.KindRefresh, refresh.Type)
}

func TestAuthUsecase_RegisterWithEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		password    string
		create      func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error)
		expectedErr error
		wantMessage string
	}{
		{
			name:     "success",
			password: "secret12",
			create: func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
				assert.Equal(t, "hashed:secret12", hashedPassword)
				return &entity.User{ID: 1, Name: name, Email: email}, nil
			},
		},
		{
			name:        "short password",
			password:    "short",
			expectedErr: apperror.ErrValidation,
		},
		{
			name:        "password longer than bcrypt accepts",
			password:    strings.Repeat("x", 80),
			expectedErr: apperror.ErrValidation,
		},
		{
			name:        "multibyte password over the byte limit",
			password:    strings.Repeat("パ", 25),
			expectedErr: apperror.ErrValidation,
		},
		{
			name:     "email already exists",
			password: "secret12",
			create: func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
				return nil, usersuc.ErrEmailAlreadyExists
			},
			expectedErr: apperror.ErrUnauthorized,
			wantMessage: "email already exists",
		},
		{
			name:     "constraint race lost",
			password: "secret12",
			create: func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
				return nil, usersuc.ErrUserAlreadyExists
			},
			expectedErr: apperror.ErrUnauthorized,
			wantMessage: "user already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewAuthUsecase(&mockUserStore{CreateFunc: tt.create}, newSigner(), &mockHasher{})

			pair, err := uc.RegisterWithEmail(context.Background(), "alice", "alice@example.com", tt.password)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, tt.expectedErr, apperror.KindOf(err))
				if tt.wantMessage != "" {
					assert.Equal(t, tt.wantMessage, apperror.PublicMessage(err))
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
		})
	}
}

func TestAuthUsecase_RotateToken(t *testing.T) {
	t.Parallel()

	signer := newSigner()
	uc := usecase.NewAuthUsecase(&mockUserStore{}, signer, &mockHasher{})

	refresh, err := signer.Sign(3, "carol@example.com", jwtmw.KindRefresh)
	require.NoError(t, err)
	access, err := signer.Sign(3, "carol@example.com", jwtmw.KindAccess)
	require.NoError(t, err)

	t.Run("refresh to access", func(t *testing.T) {
		t.Parallel()

		got, err := uc.RotateToken(context.Background(), refresh, false)
		require.NoError(t, err)

		claims, err := signer.Verify(got)
		require.NoError(t, err)
		assert.Equal(t, jwtmw.KindAccess, claims.Type)
		assert.Equal(t, "3", claims.Subject)
	})

	t.Run("refresh to refresh", func(t *testing.T) {
		t.Parallel()

		got, err := uc.RotateToken(context.Background(), refresh, true)
		require.NoError(t, err)

		claims, err := signer.Verify(got)
		require.NoError(t, err)
		assert.Equal(t, jwtmw.KindRefresh, claims.Type)
		assert.NotEqual(t, refresh, got)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := uc.RotateToken(context.Background(), access, false)
		assert.ErrorIs(t, err, usecase.ErrRefreshTokenRequired)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, apperror.PublicMessage(usecase.ErrInvalidToken), apperror.PublicMessage(err))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := uc.RotateToken(context.Background(), "not-a-jwt", true)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.ErrorIs(t, err, jwtmw.ErrInvalidToken)
	})
}

func TestAuthUsecase_WithBcrypt(t *testing.T) {
	t.Parallel()

	hasher := password.NewHasher(bcrypt.MinCost)
	var stored *entity.User
	store := &mockUserStore{
		CreateFunc: func(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
			stored = &entity.User{ID: 1, Name: name, Email: email, Password: hashedPassword}
			return stored, nil
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			if stored == nil || stored.Email != email {
				return nil, usersuc.ErrUserNotFound
			}
			return stored, nil
		},
	}
	uc := usecase.NewAuthUsecase(store, newSigner(), hasher)

	_, err := uc.RegisterWithEmail(context.Background(), "a", "a@x.com", "secret12")
	require.NoError(t, err)
	assert.NotEqual(t, "secret12", stored.Password)

	_, err = uc.LoginWithEmail(context.Background(), "a@x.com", "secret12")
	assert.NoError(t, err)

	_, err = uc.LoginWithEmail(context.Background(), "a@x.com", "secret13")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)

	_, err = uc.LoginWithEmail(context.Background(), "b@x.com", "secret12")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestNewAuthUsecase_DummyDigestUsesHasher(t *testing.T) {
	t.Parallel()

	hasher := &mockHasher{}
	store := &mockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, usersuc.ErrUserNotFound
		},
	}
	uc := usecase.NewAuthUsecase(store, newSigner(), hasher)

	_, err := uc.AuthenticateWithEmailAndPassword(context.Background(), "nobody@example.com", "secret12")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
	require.Len(t, hasher.compared, 1)
	assert.True(t, strings.HasPrefix(hasher.compared[0], "hashed:"))
}

// recordingHasher remembers every digest it is asked to compare against.
type recordingHasher struct {
	*password.Hasher
	compared []string
}

func (r *recordingHasher) Compare(plain, digest string) bool {
	r.compared = append(r.compared, digest)
	return r.Hasher.Compare(plain, digest)
}

func TestAuthUsecase_UnknownEmailDigestMatchesCost(t *testing.T) {
	t.Parallel()

	const cost = bcrypt.MinCost + 1
	hasher := &recordingHasher{Hasher: password.NewHasher(cost)}
	store := &mockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, usersuc.ErrUserNotFound
		},
	}
	uc := usecase.NewAuthUsecase(store, newSigner(), hasher)

	_, err := uc.AuthenticateWithEmailAndPassword(context.Background(), "nobody@example.com", "secret12")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)

	require.Len(t, hasher.compared, 1)
	got, err := bcrypt.Cost([]byte(hasher.compared[0]))
	require.NoError(t, err)
	assert.Equal(t, cost, got)
}

// failingHasher cannot hash anything.
type failingHasher struct{ mockHasher }

func (f *failingHasher) Hash(string) (string, error) { return "", errors.New("hash unavailable") }

func TestNewAuthUsecase_DummyDigestFallback(t *testing.T) {
	t.Parallel()

	hasher := &failingHasher{}
	store := &mockUserStore{
		GetByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, usersuc.ErrUserNotFound
		},
	}
	uc := usecase.NewAuthUsecase(store, newSigner(), hasher)

	_, err := uc.AuthenticateWithEmailAndPassword(context.Background(), "nobody@example.com", "secret12")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
	require.Len(t, hasher.compared, 1)
	assert.True(t, strings.HasPrefix(hasher.compared[0], "$2a$"))
}
