package domain

import (
	"context"
	"errors"
	"slices"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidInput    = errors.New("invalid input")
)

// UsersKey is the store key of the persisted user collection.
const UsersKey = "registered_users"

// User is the public view of a registered user.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Friends   []string `json:"friends"`
	Chatrooms []string `json:"chatrooms"`
}

// IsFriend reports whether id is in the user's friend set.
func (u User) IsFriend(id string) bool {
	return slices.Contains(u.Friends, id)
}

// StoredUser is the persisted user record. Password is kept as written by the
// registering client so stored data stays readable by older front-ends.
type StoredUser struct {
	User
	Password string `json:"password"`
}

// Public strips the password.
func (u StoredUser) Public() User {
	pub := u.User
	pub.Friends = slices.Clone(u.Friends)
	pub.Chatrooms = slices.Clone(u.Chatrooms)
	return pub
}

// UserRepository defines whole-collection access to persisted users
type UserRepository interface {
	List(ctx context.Context) ([]StoredUser, error)
	Get(ctx context.Context, id string) (StoredUser, error)
	GetByEmail(ctx context.Context, email string) (StoredUser, error)
	Create(ctx context.Context, user StoredUser) error
	Update(ctx context.Context, user StoredUser) error
}
