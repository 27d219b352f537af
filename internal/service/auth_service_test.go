package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:   "test-secret",
			ExpireHours: 24,
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				MinLength:     8,
				RequireLower:  true,
				RequireNumber: true,
			},
		},
	}
	return NewAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{
		Email:    "Alice@Example.com",
		Password: "password123",
		FullName: "Alice",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password must be hashed")
	}
	if !user.IsActive {
		t.Fatalf("expected active user")
	}

	logged, token, _, err := svc.Login("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.LastLoginAt == nil {
		t.Fatalf("expected last_login_at set")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IsAdmin {
		t.Fatalf("expected non-admin claims")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register(RegisterInput{Email: "dup@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "DUP@example.com", Password: "password456"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "password123"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register(RegisterInput{Email: "weak@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for short password, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "weak@example.com", Password: "passwordonly"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for missing number, got %v", err)
	}
}

func TestUpdateProfileChangesFields(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{Email: "profile@example.com", Password: "password123", FullName: "Old Name"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	newEmail := "New.Profile@Example.com"
	newName := "  New Name  "
	newPassword := "password456"
	updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{
		Email:    &newEmail,
		FullName: &newName,
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Email != "new.profile@example.com" {
		t.Fatalf("expected normalized email, got %s", updated.Email)
	}
	if updated.FullName != "New Name" {
		t.Fatalf("expected trimmed full name, got %q", updated.FullName)
	}

	if _, _, _, err := svc.Login("new.profile@example.com", "password456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := svc.Login("new.profile@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestUpdateProfilePartialKeepsOthers(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{Email: "partial@example.com", Password: "password123", FullName: "Keep Me"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	newName := "Renamed"
	updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{FullName: &newName})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Email != "partial@example.com" {
		t.Fatalf("email must stay unchanged, got %s", updated.Email)
	}
	if _, _, _, err := svc.Login("partial@example.com", "password123"); err != nil {
		t.Fatalf("password must stay unchanged: %v", err)
	}
}

func TestUpdateProfileRejectsInvalidInput(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{Email: "owner@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "taken@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register second user failed: %v", err)
	}

	takenEmail := "Taken@Example.com"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &takenEmail}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	badEmail := "not-an-email"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &badEmail}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	weakPassword := "short"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Password: &weakPassword}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	sameEmail := "owner@example.com"
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{Email: &sameEmail}); err != nil {
		t.Fatalf("re-submitting own email must succeed: %v", err)
	}

	if _, err := svc.UpdateProfile(0, UpdateProfileInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register(RegisterInput{Email: "wrongpass@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := svc.Login("wrongpass@example.com", "password999"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("missing@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{Email: "disabled@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, _, _, err := svc.Login("disabled@example.com", "password123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestParseJWTRejectsTamperedToken(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register(RegisterInput{Email: "jwt@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, _, err := svc.GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}
