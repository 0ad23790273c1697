package usecase

import (
	"context"
	"fmt"
	"testing"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func newStrategyStub() testhelpers.StrategyStub {
	return testhelpers.StrategyStub{}
}

func newAuthUseCase(store *testhelpers.MemoryStore) *AuthUseCase {
	return NewAuthUseCase(store.Users(), testhelpers.HasherStub{}, newStrategyStub())
}

func TestAuthUseCaseRegisterSuccess(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	uc := newAuthUseCase(store)

	ctx := context.Background()
	user, token, err := uc.Register(ctx, "Alice@Example.com ", "password")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected user to have ID assigned")
	}
	if token != "token-1" {
		t.Fatalf("unexpected token %q", token)
	}
	stored, err := store.Users().GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected normalized email in repository: %v", err)
	}
	if stored.PasswordHash != "hash:password" {
		t.Fatalf("password hash not stored: %v", stored.PasswordHash)
	}
}

func TestAuthUseCaseRegisterDuplicate(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())

	ctx := context.Background()
	if _, _, err := uc.Register(ctx, "bob@example.com", "secret"); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	if _, _, err := uc.Register(ctx, "BOB@example.com", "secret"); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAuthUseCaseAuthenticate(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())

	ctx := context.Background()
	if _, _, err := uc.Register(ctx, "carol@example.com", "123456"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := uc.Authenticate(ctx, "carol@example.com", "bad"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}

	_, token, err := uc.Authenticate(ctx, "  Carol@example.com", "123456")
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	if token != "token-1" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestAuthUseCaseParseToken(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())

	id, err := uc.ParseToken("token-42")
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}

	if _, err := uc.ParseToken("bad-token"); err != pkgAuth.ErrInvalidToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := uc.ParseToken(""); err != pkgAuth.ErrInvalidToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestAuthUseCaseRegisterValidation(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())
	cases := []struct {
		email    string
		password string
	}{
		{"", "password"},
		{"not-an-email", "password"},
		{"@example.com", "password"},
		{"user@", "password"},
		{"user@example.com", ""},
	}
	for _, tc := range cases {
		if _, _, err := uc.Register(context.Background(), tc.email, tc.password); err != domainErrors.ErrInvalidCredentials {
			t.Fatalf("expected invalid credentials for %q, got %v", tc.email, err)
		}
	}
}

func TestAuthUseCaseRegisterHasherError(t *testing.T) {
	uc := NewAuthUseCase(testhelpers.NewMemoryStore().Users(), testhelpers.HasherStub{HashFn: func(string) (string, error) {
		return "", fmt.Errorf("hash error")
	}}, newStrategyStub())
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err == nil {
		t.Fatal("expected hashing error")
	}
}

func TestAuthUseCaseRegisterRejectsOverlongPassword(t *testing.T) {
	uc := NewAuthUseCase(testhelpers.NewMemoryStore().Users(), testhelpers.HasherStub{HashFn: func(string) (string, error) {
		return "", pkgAuth.ErrPasswordTooLong
	}}, newStrategyStub())
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthUseCaseRegisterRepositoryError(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	store.SetFail("CreateUser", fmt.Errorf("db down"))
	uc := newAuthUseCase(store)
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err == nil {
		t.Fatal("expected repository error")
	}
}

func TestAuthUseCaseRegisterIssueTokenError(t *testing.T) {
	strategy := testhelpers.StrategyStub{IssueFn: func(int64) (string, error) {
		return "", fmt.Errorf("cannot issue token")
	}}
	uc := NewAuthUseCase(testhelpers.NewMemoryStore().Users(), testhelpers.HasherStub{}, strategy)
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err == nil {
		t.Fatal("expected token issuing error")
	}
}

func TestAuthUseCaseAuthenticateNotFound(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())
	if _, _, err := uc.Authenticate(context.Background(), "absent@example.com", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateHasherMismatch(t *testing.T) {
	uc := NewAuthUseCase(testhelpers.NewMemoryStore().Users(), testhelpers.HasherStub{CompareFn: func(hash, password string) error {
		return fmt.Errorf("mismatch")
	}}, newStrategyStub())
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, _, err := uc.Authenticate(context.Background(), "user@example.com", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateRepositoryError(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	uc := newAuthUseCase(store)
	if _, _, err := uc.Register(context.Background(), "user@example.com", "pass"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	store.SetFail("GetUser", fmt.Errorf("storage unavailable"))
	if _, _, err := uc.Authenticate(context.Background(), "user@example.com", "pass"); err == nil || err.Error() != "storage unavailable" {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateValidation(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())
	if _, _, err := uc.Authenticate(context.Background(), "", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, _, err := uc.Authenticate(context.Background(), "user@example.com", ""); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestAuthUseCaseGetByID(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewMemoryStore())
	user, _, err := uc.Register(context.Background(), "dave@example.com", "pwd")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	fetched, err := uc.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get by id returned error: %v", err)
	}
	if fetched.Email != user.Email {
		t.Fatalf("expected email %q, got %q", user.Email, fetched.Email)
	}
	if _, err := uc.GetByID(context.Background(), 99); err != domainErrors.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
