package memory

import (
	"context"
	"strings"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// UserRepository keeps accounts in an in-memory map.
type UserRepository struct {
	baseMemoryRepo[domain.User]
}

var _ store.UserRepository = (*UserRepository)(nil)

// NewUserRepository builds an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		baseMemoryRepo: newBaseMemoryRepo(func(u *domain.User) *domain.RecordMeta {
			return &u.RecordMeta
		}),
	}
}

func (r *UserRepository) Create(ctx context.Context, record *domain.User) error {
	return r.create(ctx, record)
}

func (r *UserRepository) Update(ctx context.Context, record *domain.User) error {
	return r.update(ctx, record)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getByID(ctx, id, false)
}

func (r *UserRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.User], error) {
	return r.list(ctx, opts, nil)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func (r *UserRepository) GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return phone != "" && u.PhoneNumber == phone
	})
}

func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return token != "" && u.RefreshToken == token
	})
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	var found *domain.User
	r.each(func(u *domain.User) {
		if found == nil && match(u) {
			hit := *u
			found = &hit
		}
	})
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}
