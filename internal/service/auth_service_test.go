package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"anonchat/internal/domain"
	"anonchat/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Register_Success(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	authService := NewAuthService(userRepo, false)

	ctx := context.Background()
	user, err := authService.Register(ctx, "Alice", "alice@example.com", "password123")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if user.Name != "Alice" {
		t.Errorf("Expected name 'Alice', got %s", user.Name)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("Expected email 'alice@example.com', got %s", user.Email)
	}

	if user.ID == "" {
		t.Error("Expected user ID to be set")
	}

	if user.Friends == nil || len(user.Friends) != 0 {
		t.Errorf("Expected empty friends, got %v", user.Friends)
	}

	if user.Chatrooms == nil || len(user.Chatrooms) != 0 {
		t.Errorf("Expected empty chatrooms, got %v", user.Chatrooms)
	}

	if len(userRepo.Users) != 1 {
		t.Fatalf("Expected 1 stored user, got %d", len(userRepo.Users))
	}

	if userRepo.Users[0].Password != "password123" {
		t.Errorf("Expected password stored as given, got %q", userRepo.Users[0].Password)
	}
}

func TestAuthService_Register_HashesPasswordWhenEnabled(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	authService := NewAuthService(userRepo, true)

	if _, err := authService.Register(context.Background(), "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored := userRepo.Users[0].Password
	if stored == "password123" {
		t.Fatal("Password should be hashed, not stored in plain text")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("password123")); err != nil {
		t.Errorf("Expected stored hash to match password: %v", err)
	}
}

func TestAuthService_Register_TrimsNameAndEmail(t *testing.T) {
	authService := NewAuthService(testutil.NewMockUserRepository(), false)

	user, err := authService.Register(context.Background(), "  Alice ", " alice@example.com ", "pw")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if user.Name != "Alice" || user.Email != "alice@example.com" {
		t.Errorf("Expected trimmed fields, got name=%q email=%q", user.Name, user.Email)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	userRepo := testutil.NewMockUserRepository(
		testutil.NewTestUser(testutil.WithEmail("alice@example.com")),
	)
	authService := NewAuthService(userRepo, false)

	_, err := authService.Register(context.Background(), "Bob", "alice@example.com", "password123")

	if !errors.Is(err, domain.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}

	if len(userRepo.Users) != 1 {
		t.Errorf("Expected no new user, got %d users", len(userRepo.Users))
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{
			name:     "empty name",
			userName: "",
			email:    "alice@example.com",
			password: "password123",
		},
		{
			name:     "blank name",
			userName: "   ",
			email:    "alice@example.com",
			password: "password123",
		},
		{
			name:     "malformed email",
			userName: "Alice",
			email:    "not-an-email",
			password: "password123",
		},
		{
			name:     "empty password",
			userName: "Alice",
			email:    "alice@example.com",
			password: "",
		},
		{
			name:     "name too long",
			userName: strings.Repeat("a", 101),
			email:    "alice@example.com",
			password: "password123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := testutil.NewMockUserRepository()
			authService := NewAuthService(userRepo, false)

			_, err := authService.Register(context.Background(), tt.userName, tt.email, tt.password)

			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got: %v", err)
			}

			if len(userRepo.Users) != 0 {
				t.Errorf("Expected nothing stored, got %d users", len(userRepo.Users))
			}
		})
	}
}

func TestAuthService_Register_RepositoryError(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	userRepo.GetByEmailFunc = func(ctx context.Context, email string) (domain.StoredUser, error) {
		return domain.StoredUser{}, testutil.ErrMockStore
	}
	authService := NewAuthService(userRepo, false)

	_, err := authService.Register(context.Background(), "Alice", "alice@example.com", "password123")

	if !errors.Is(err, testutil.ErrMockStore) {
		t.Errorf("Expected store error, got: %v", err)
	}
}

func TestAuthService_ValidateCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	userRepo := testutil.NewMockUserRepository(
		testutil.NewTestUser(testutil.WithUserID("u1"), testutil.WithEmail("plain@example.com"), testutil.WithPassword("secret")),
		testutil.NewTestUser(testutil.WithUserID("u2"), testutil.WithEmail("hashed@example.com"), testutil.WithPassword(string(hashed))),
	)
	authService := NewAuthService(userRepo, false)

	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "plaintext match", email: "plain@example.com", password: "secret", wantID: "u1"},
		{name: "plaintext mismatch", email: "plain@example.com", password: "Secret", wantErr: domain.ErrInvalidPassword},
		{name: "bcrypt match", email: "hashed@example.com", password: "secret", wantID: "u2"},
		{name: "bcrypt mismatch", email: "hashed@example.com", password: "nope", wantErr: domain.ErrInvalidPassword},
		{name: "unknown email", email: "ghost@example.com", password: "secret", wantErr: domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.ValidateCredentials(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got: %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if user.ID != tt.wantID {
				t.Errorf("Expected user %s, got %s", tt.wantID, user.ID)
			}
		})
	}
}

func TestAuthService_IsEmailRegistered(t *testing.T) {
	userRepo := testutil.NewMockUserRepository(testutil.NewTestUser(testutil.WithEmail("alice@example.com")))
	authService := NewAuthService(userRepo, false)
	ctx := context.Background()

	registered, err := authService.IsEmailRegistered(ctx, "alice@example.com")
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, registered, "alice should be registered")

	registered, err = authService.IsEmailRegistered(ctx, "bob@example.com")
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, registered, "bob should not be registered")
}

func TestAuthService_GetUser_OmitsPassword(t *testing.T) {
	userRepo := testutil.NewMockUserRepository(testutil.NewTestUser(testutil.WithUserID("u1"), testutil.WithName("Alice")))
	authService := NewAuthService(userRepo, false)

	user, err := authService.GetUser(context.Background(), "u1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, user.Name, "Alice")

	_, err = authService.GetUser(context.Background(), "missing")
	testutil.AssertErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIsBcryptHash(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)

	testutil.AssertTrue(t, isBcryptHash(string(hashed)), "generated hash")
	testutil.AssertFalse(t, isBcryptHash("password123"), "plaintext")
	testutil.AssertFalse(t, isBcryptHash("$2a$short"), "truncated hash")
}
