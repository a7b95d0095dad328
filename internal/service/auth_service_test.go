package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/repository"
)

func setupAuthService(t *testing.T) (*AuthService, *repository.GormAdminRepository) {
	t.Helper()
	f := setupServiceFixture(t)
	repo := repository.NewAdminRepository(f.db)
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1}}
	svc := NewAuthService(cfg, repo, nil)

	hash, err := svc.HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := repo.Create(&models.Admin{Username: "kasir", PasswordHash: hash}); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "kasir", "salah", Actor{ClientIP: "127.0.0.1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "tidak-ada", "rahasia123", Actor{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	result, err := svc.Login(ctx, " kasir ", "rahasia123", Actor{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Admin.LastLoginAt == nil {
		t.Fatalf("expected last login recorded")
	}
	claims, err := svc.ParseJWT(result.Token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.AdminID != result.Admin.ID || claims.Username != "kasir" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseAdminJWT("other-secret", result.Token); err == nil {
		t.Fatalf("expected signature failure with another secret")
	}
}

func TestResolveAdminStateTokenVersion(t *testing.T) {
	svc, repo := setupAuthService(t)
	ctx := context.Background()
	result, err := svc.Login(ctx, "kasir", "rahasia123", Actor{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, _ := svc.ParseJWT(result.Token)
	state, err := svc.ResolveAdmin(ctx, claims)
	if err != nil || state.Username != "kasir" {
		t.Fatalf("resolve failed: %v", err)
	}

	admin, _ := repo.GetByID(result.Admin.ID)
	admin.TokenVersion++
	if err := repo.Update(admin); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := svc.ResolveAdmin(ctx, claims); !errors.Is(err, ErrAdminTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}
	if _, err := svc.ResolveAdmin(ctx, nil); !errors.Is(err, ErrAdminTokenRevoked) {
		t.Fatalf("expected nil claims rejected, got %v", err)
	}
}
