package repository

import (
	"errors"
	"testing"
	"time"

	"graphical-auth-service/internal/domain"

	"gorm.io/gorm"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewSessionRepository(db)

	s := &domain.Session{UserID: 1, RefreshTokenHash: "hash1", UserAgent: "ua", IP: "127.0.0.1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.PublicID == "" {
		t.Fatal("expected public id to be assigned on create")
	}

	found, err := repo.FindValidByHash("hash1")
	if err != nil {
		t.Fatalf("find valid: %v", err)
	}
	if found.UserID != 1 {
		t.Fatalf("unexpected session: %+v", found)
	}

	if err := repo.RevokeByHash("hash1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := repo.FindValidByHash("hash1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("revoked session must not be valid, got %v", err)
	}
}

func TestSessionRepositoryExpiryAndRevokeAll(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewSessionRepository(db)

	expired := &domain.Session{UserID: 2, RefreshTokenHash: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	live1 := &domain.Session{UserID: 2, RefreshTokenHash: "live1", ExpiresAt: time.Now().Add(time.Hour)}
	live2 := &domain.Session{UserID: 2, RefreshTokenHash: "live2", ExpiresAt: time.Now().Add(time.Hour)}
	for _, s := range []*domain.Session{expired, live1, live2} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, err := repo.FindValidByHash("old"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expired session must not be valid, got %v", err)
	}

	active, err := repo.ListActiveByUserID(2)
	if err != nil || len(active) != 2 {
		t.Fatalf("expected 2 active sessions, got %d err=%v", len(active), err)
	}

	revoked, err := repo.RevokeByUserID(2)
	if err != nil || revoked != 2 {
		t.Fatalf("expected 2 revoked, got %d err=%v", revoked, err)
	}

	removed, err := repo.CleanupExpired()
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 expired session removed, got %d err=%v", removed, err)
	}
}
