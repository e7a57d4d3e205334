package bunrepo

import (
	"context"
	"strings"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UserRepository struct {
	base baseRepository[domain.User]
}

var _ store.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *bun.DB) *UserRepository {
	handlers := repository.ModelHandlers[*domain.User]{
		NewRecord:          func() *domain.User { return &domain.User{} },
		GetID:              func(u *domain.User) uuid.UUID { return u.ID },
		SetID:              func(u *domain.User, id uuid.UUID) { u.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(u *domain.User) string { return u.ID.String() },
	}
	return &UserRepository{
		base: newBaseRepository[domain.User](db, handlers, func(u *domain.User) *domain.RecordMeta { return &u.RecordMeta }),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.base.create(ctx, u)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.base.update(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *UserRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.User], error) {
	return r.base.list(ctx, opts)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, store.ErrNotFound
	}
	return r.getWhere(ctx, "phone_number = ?", phone)
}

func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return r.getWhere(ctx, "refresh_token = ?", token)
}

func (r *UserRepository) getWhere(ctx context.Context, clause string, arg any) (*domain.User, error) {
	record, err := r.base.repo.Get(ctx,
		withoutDeleted(),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where(clause, arg)
		},
	)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}
