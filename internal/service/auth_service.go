package service

import (
	"context"
	"errors"
	"strings"

	"anonchat/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService struct {
	userRepo      domain.UserRepository
	hashPasswords bool
}

// NewAuthService creates the registration and sign-in service. Passwords are stored as
// given unless hashPasswords is set.
func NewAuthService(userRepo domain.UserRepository, hashPasswords bool) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		hashPasswords: hashPasswords,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateStruct(registerRequest{Name: name, Email: email, Password: password}); err != nil {
		return domain.User{}, err
	}

	registered, err := s.IsEmailRegistered(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if registered {
		return domain.User{}, domain.ErrEmailExists
	}

	stored := password
	if s.hashPasswords {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return domain.User{}, err
		}
		stored = string(hashed)
	}

	user := domain.StoredUser{
		User: domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			Friends:   []string{},
			Chatrooms: []string{},
		},
		Password: stored,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	return user.Public(), nil
}

func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return domain.User{}, err
	}

	if !passwordMatches(user.Password, password) {
		return domain.User{}, domain.ErrInvalidPassword
	}

	return user.Public(), nil
}

func (s *AuthService) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user.Public(), nil
}

// passwordMatches accepts bcrypt hashes and the plaintext passwords older clients stored.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored == given
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
