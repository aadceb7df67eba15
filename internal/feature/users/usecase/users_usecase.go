package usecase

import (
	"context"
	"fmt"

	"sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// UserRepository abstracts the persistence layer for users.
// Following Go convention, the consumer (usecase) defines the interface.
type UserRepository interface {
	pagination.Finder[entity.User]

	// Create persists u. A unique violation is returned as ErrUserAlreadyExists.
	Create(ctx context.Context, u *entity.User) error
	// FindByID returns ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	// FindByEmail returns ErrUserNotFound when no row matches.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *entity.User) error
	// Remove returns ErrUserNotFound when no row matches.
	Remove(ctx context.Context, id uint) error
}

// Paginator runs a pagination request against a finder.
type Paginator interface {
	Paginate(ctx context.Context, req pagination.Request, finder pagination.Finder[entity.User], fixed pagination.Options, path string) (pagination.Page[entity.User], error)
}

type usersUsecase struct {
	users     UserRepository
	paginator Paginator
}

// NewUsersUsecase creates the users usecase.
func NewUsersUsecase(users UserRepository, paginator Paginator) *usersUsecase {
	return &usersUsecase{users: users, paginator: paginator}
}

// Create registers an account with an already hashed password.
// The pre-checks give a precise message; the unique constraint settles races between them and the insert.
func (u *usersUsecase) Create(ctx context.Context, name, email, hashedPassword string) (*entity.User, error) {
	if name == "" || email == "" {
		return nil, apperror.Validation("name and email are required")
	}

	taken, err := u.users.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if taken {
		return nil, ErrNameAlreadyExists
	}

	taken, err = u.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailAlreadyExists
	}

	user := &entity.User{Name: name, Email: email, Password: hashedPassword, Role: entity.RoleUser}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindOne returns the user with id.
func (u *usersUsecase) FindOne(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// GetByEmail returns the user with email.
func (u *usersUsecase) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return u.users.FindByEmail(ctx, email)
}

// Update renames the caller's own account.
func (u *usersUsecase) Update(ctx context.Context, actorID, id uint, name string) (*entity.User, error) {
	if actorID != id {
		return nil, ErrNotAccountOwner
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" || name == user.Name {
		return user, nil
	}

	taken, err := u.users.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if taken {
		return nil, ErrNameAlreadyExists
	}

	user.Name = name
	if err := u.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Remove deletes the caller's own account.
func (u *usersUsecase) Remove(ctx context.Context, actorID, id uint) error {
	if actorID != id {
		return ErrNotAccountOwner
	}
	return u.users.Remove(ctx, id)
}

// Paginate lists users.
func (u *usersUsecase) Paginate(ctx context.Context, req pagination.Request) (pagination.Page[entity.User], error) {
	return u.paginator.Paginate(ctx, req, u.users, pagination.Options{}, "users")
}
