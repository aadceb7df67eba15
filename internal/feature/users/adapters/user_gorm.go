// Package adapters provides the repository implementations for the users feature.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/feature/users/usecase"
	"sns_backend/internal/platform/db"
	"sns_backend/internal/platform/pagination"
)

// userGorm is the gorm implementation of usecase.UserRepository.
type userGorm struct {
	*db.Repository[entity.User]
}

// Compile-time check that userGorm implements UserRepository.
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm creates a user repository on conn. The password column cannot be filtered or ordered on.
func NewUserGorm(conn *gorm.DB) *userGorm {
	return &userGorm{Repository: db.NewRepository[entity.User](conn, db.WithHiddenFields("password"))}
}

// Create adds a user. A unique violation is reported as usecase.ErrUserAlreadyExists.
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := r.Repository.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// Save updates a user. A unique violation is reported as usecase.ErrNameAlreadyExists.
func (r *userGorm) Save(ctx context.Context, u *entity.User) error {
	if err := r.Repository.Save(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return usecase.ErrNameAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID returns usecase.ErrUserNotFound when no row matches.
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	u, err := r.Repository.FindByID(ctx, id)
	return u, notFound(err)
}

// FindByEmail returns usecase.ErrUserNotFound when no row matches.
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := r.Repository.FindOne(ctx, []pagination.Clause{eq("email", email)})
	return u, notFound(err)
}

func (r *userGorm) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.Exists(ctx, eq("name", name))
}

func (r *userGorm) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, eq("email", email))
}

// Remove returns usecase.ErrUserNotFound when no row matches.
func (r *userGorm) Remove(ctx context.Context, id uint) error {
	return notFound(r.Repository.Remove(ctx, id))
}

func eq(field, value string) pagination.Clause {
	return pagination.Clause{Field: field, Op: pagination.OpEqual, Values: []string{value}}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.ErrUserNotFound
	}
	return err
}
