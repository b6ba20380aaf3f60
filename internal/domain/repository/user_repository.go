package repository

import (
	"context"

	"github.com/Barklim/bio/internal/domain/entity"
)

// UserRepository is the persistence contract for user records.
//
// GetByID, GetByEmail and List never populate PasswordHash;
// GetByEmailWithPassword is the only accessor that returns it and exists
// solely for credential verification. Implementations return
// apperr.ErrUserNotFound for missing rows and apperr.ErrEmailTaken when a
// write violates email uniqueness.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64) error
}
