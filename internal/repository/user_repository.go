package repository

import (
	"context"
	"slices"

	"anonchat/internal/domain"

	"github.com/samber/lo"
)

var _ domain.UserRepository = (*UserRepository)(nil)

// UserRepository implements domain.UserRepository over the "registered_users" collection
type UserRepository struct {
	users *collection[domain.StoredUser]
}

// NewUserRepository creates a user repository on store
func NewUserRepository(store domain.Store, opts Options) *UserRepository {
	return &UserRepository{users: newCollection[domain.StoredUser](store, domain.UsersKey, opts)}
}

func (r *UserRepository) List(ctx context.Context) ([]domain.StoredUser, error) {
	users, _, err := r.users.load(ctx)
	return users, err
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.StoredUser, error) {
	return r.find(ctx, func(u domain.StoredUser) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.StoredUser, error) {
	return r.find(ctx, func(u domain.StoredUser) bool { return u.Email == email })
}

// Create appends user; the email must not be registered yet
func (r *UserRepository) Create(ctx context.Context, user domain.StoredUser) error {
	user = normalizeUser(user)
	return r.users.mutate(ctx, func(users []domain.StoredUser) ([]domain.StoredUser, error) {
		if lo.ContainsBy(users, func(u domain.StoredUser) bool { return u.Email == user.Email }) {
			return nil, domain.ErrEmailExists
		}
		return append(users, user), nil
	})
}

// Update replaces the user with the same id. Unknown ids are ignored without writing.
func (r *UserRepository) Update(ctx context.Context, user domain.StoredUser) error {
	user = normalizeUser(user)
	return r.users.mutate(ctx, func(users []domain.StoredUser) ([]domain.StoredUser, error) {
		idx := slices.IndexFunc(users, func(u domain.StoredUser) bool { return u.ID == user.ID })
		if idx == -1 {
			return nil, errUnchanged
		}
		users[idx] = user
		return users, nil
	})
}

func (r *UserRepository) find(ctx context.Context, match func(domain.StoredUser) bool) (domain.StoredUser, error) {
	users, _, err := r.users.load(ctx)
	if err != nil {
		return domain.StoredUser{}, err
	}
	user, ok := lo.Find(users, match)
	if !ok {
		return domain.StoredUser{}, domain.ErrUserNotFound
	}
	return user, nil
}

func normalizeUser(u domain.StoredUser) domain.StoredUser {
	if u.Friends == nil {
		u.Friends = []string{}
	}
	if u.Chatrooms == nil {
		u.Chatrooms = []string{}
	}
	return u
}
