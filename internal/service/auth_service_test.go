package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"graphical-auth-service/internal/catalog"
	"graphical-auth-service/internal/config"
	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/repository"
	"graphical-auth-service/internal/security"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authFixture struct {
	cfg      *config.Config
	auth     *AuthService
	tokens   *TokenService
	userRepo repository.UserRepository
	credRepo repository.GraphicalCredentialRepository
	db       *gorm.DB
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "auth_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.GraphicalCredential{}, &domain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTAccessTTL:  15 * time.Minute,
		JWTRefreshTTL: 168 * time.Hour,
	}
	jwtMgr := security.NewJWTManager("graphical-auth-service", "graphical-auth-service-api",
		strings.Repeat("a", 32), strings.Repeat("b", 32))
	userRepo := repository.NewUserRepository(db)
	credRepo := repository.NewGraphicalCredentialRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokens := NewTokenService(jwtMgr, sessionRepo, "test-pepper-test-pepper", cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	auth := NewAuthService(cfg, tokens, userRepo, credRepo, catalog.Default())
	return &authFixture{cfg: cfg, auth: auth, tokens: tokens, userRepo: userRepo, credRepo: credRepo, db: db}
}

var testSequence = []string{"x.png", "y.png", "z.png", "w.png"}

func (fx *authFixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := fx.auth.Register(username, username+"@example.com", "hunter2-Secret", testSequence)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterValidationMatrix(t *testing.T) {
	seq := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "bitcoin.png"
		}
		return out
	}

	t.Run("invalid email", func(t *testing.T) {
		fx := newAuthFixture(t)
		_, err := fx.auth.Register("alice", "not-an-email", "pw", seq(4))
		if !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
	})

	t.Run("missing sequence", func(t *testing.T) {
		fx := newAuthFixture(t)
		_, err := fx.auth.Register("alice", "alice@example.com", "pw", nil)
		if !errors.Is(err, ErrMissingGraphicalPassword) {
			t.Fatalf("expected ErrMissingGraphicalPassword, got %v", err)
		}
	})

	t.Run("sequence length bounds", func(t *testing.T) {
		fx := newAuthFixture(t)
		if _, err := fx.auth.Register("a2", "a2@example.com", "pw", seq(2)); !errors.Is(err, ErrInvalidSequenceLength) {
			t.Fatalf("length 2: expected ErrInvalidSequenceLength, got %v", err)
		}
		if _, err := fx.auth.Register("a7", "a7@example.com", "pw", seq(7)); !errors.Is(err, ErrInvalidSequenceLength) {
			t.Fatalf("length 7: expected ErrInvalidSequenceLength, got %v", err)
		}
		if _, err := fx.auth.Register("a4", "a4@example.com", "pw", seq(4)); err != nil {
			t.Fatalf("length 4 should be accepted: %v", err)
		}
		if _, err := fx.auth.Register("a6", "a6@example.com", "pw", seq(6)); err != nil {
			t.Fatalf("length 6 should be accepted: %v", err)
		}
	})

	t.Run("duplicate username leaves no credential behind", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")

		var before int64
		fx.db.Model(&domain.GraphicalCredential{}).Count(&before)

		_, err := fx.auth.Register("alice", "second@example.com", "pw", testSequence)
		if !errors.Is(err, ErrDuplicateUsername) {
			t.Fatalf("expected ErrDuplicateUsername, got %v", err)
		}

		var after int64
		fx.db.Model(&domain.GraphicalCredential{}).Count(&after)
		if after != before {
			t.Fatalf("credential count changed on failed registration: %d -> %d", before, after)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")
		_, err := fx.auth.Register("bob", "alice@example.com", "pw", testSequence)
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("validation order checks email before sequence", func(t *testing.T) {
		fx := newAuthFixture(t)
		_, err := fx.auth.Register("alice", "not-an-email", "pw", nil)
		if !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail first, got %v", err)
		}
	})
}

func TestRegisterPersistsSaltedHashOnly(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.register(t, "alice")

	cred, err := fx.credRepo.FindByUserID(u.ID)
	if err != nil {
		t.Fatalf("credential missing: %v", err)
	}
	if len(cred.Salt) != 32 || len(cred.SequenceHash) != 64 {
		t.Fatalf("unexpected credential encoding: salt=%d hash=%d", len(cred.Salt), len(cred.SequenceHash))
	}
	canonical := security.CanonicalSequence(testSequence)
	if cred.SequenceHash != security.HashImageSequence(canonical, cred.Salt) {
		t.Fatal("stored hash must be sha256(sequence + salt)")
	}
	if strings.Contains(cred.SequenceHash, ".png") || cred.Salt == canonical {
		t.Fatal("raw sequence must never be persisted")
	}
}

func TestRegisterIdenticalSequencesGetDistinctSalts(t *testing.T) {
	fx := newAuthFixture(t)
	u1 := fx.register(t, "alice")
	u2 := fx.register(t, "bob")

	c1, err := fx.credRepo.FindByUserID(u1.ID)
	if err != nil {
		t.Fatalf("cred1: %v", err)
	}
	c2, err := fx.credRepo.FindByUserID(u2.ID)
	if err != nil {
		t.Fatalf("cred2: %v", err)
	}
	if c1.Salt == c2.Salt {
		t.Fatal("two registrations must not share a salt")
	}
	if c1.SequenceHash == c2.SequenceHash {
		t.Fatal("identical sequences must hash differently under different salts")
	}
}

func TestRegisterCatalogMembershipCheck(t *testing.T) {
	fx := newAuthFixture(t)
	fx.cfg.AuthValidateCatalogTokens = true

	_, err := fx.auth.Register("alice", "alice@example.com", "pw",
		[]string{"bitcoin.png", "monero.png", "not-in-catalog.png", "wallet.png"})
	if !errors.Is(err, ErrUnknownImageToken) {
		t.Fatalf("expected ErrUnknownImageToken, got %v", err)
	}

	if _, err := fx.auth.Register("alice", "alice@example.com", "pw",
		[]string{"bitcoin.png", "monero.png", "wallet.png", "ledger.png"}); err != nil {
		t.Fatalf("catalog tokens should be accepted: %v", err)
	}
}

func TestLoginMatrix(t *testing.T) {
	t.Run("success establishes session", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")

		res, err := fx.auth.Login("alice", "hunter2-Secret", testSequence, "ua", "127.0.0.1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.AccessToken == "" || res.RefreshToken == "" || res.CSRFToken == "" {
			t.Fatal("expected access/refresh/csrf tokens")
		}
		if res.User.Username != "alice" {
			t.Fatalf("unexpected user: %+v", res.User)
		}
		if res.User.LastLoginAt.IsZero() {
			t.Fatal("expected last login timestamp")
		}

		sessions, err := fx.tokens.Sessions(res.User.ID)
		if err != nil || len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d err=%v", len(sessions), err)
		}
	})

	t.Run("missing sequence", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")
		_, err := fx.auth.Login("alice", "hunter2-Secret", nil, "ua", "ip")
		if !errors.Is(err, ErrMissingGraphicalPassword) {
			t.Fatalf("expected ErrMissingGraphicalPassword, got %v", err)
		}
	})

	t.Run("reversed sequence", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")
		reversed := []string{"w.png", "z.png", "y.png", "x.png"}
		_, err := fx.auth.Login("alice", "hunter2-Secret", reversed, "ua", "ip")
		if !errors.Is(err, ErrInvalidGraphicalPassword) {
			t.Fatalf("expected ErrInvalidGraphicalPassword, got %v", err)
		}
	})

	t.Run("wrong password with correct sequence", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.register(t, "alice")
		_, err := fx.auth.Login("alice", "wrong-password", testSequence, "ua", "ip")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		fx := newAuthFixture(t)
		_, err := fx.auth.Login("ghost", "pw", testSequence, "ua", "ip")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("credential not configured", func(t *testing.T) {
		fx := newAuthFixture(t)
		hash, err := security.HashPassword("hunter2-Secret")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		// A user created outside the registration flow has no credential.
		if err := fx.userRepo.Create(&domain.User{Username: "legacy", Email: "legacy@example.com", PasswordHash: hash}); err != nil {
			t.Fatalf("create user: %v", err)
		}
		_, err = fx.auth.Login("legacy", "hunter2-Secret", testSequence, "ua", "ip")
		if !errors.Is(err, ErrCredentialNotConfigured) {
			t.Fatalf("expected ErrCredentialNotConfigured, got %v", err)
		}
	})

	t.Run("failed login leaves credential untouched", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.register(t, "alice")
		before, err := fx.credRepo.FindByUserID(u.ID)
		if err != nil {
			t.Fatalf("cred: %v", err)
		}

		_, _ = fx.auth.Login("alice", "hunter2-Secret", []string{"w.png", "z.png", "y.png", "x.png"}, "ua", "ip")

		after, err := fx.credRepo.FindByUserID(u.ID)
		if err != nil {
			t.Fatalf("cred: %v", err)
		}
		if after.Salt != before.Salt || after.SequenceHash != before.SequenceHash {
			t.Fatal("login must not mutate the stored credential")
		}
	})
}

func TestRefreshRotatesSession(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice")
	res, err := fx.auth.Login("alice", "hunter2-Secret", testSequence, "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := fx.auth.Refresh(res.RefreshToken, "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == res.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}
	// The consumed refresh token is revoked and cannot be replayed.
	if _, err := fx.auth.Refresh(res.RefreshToken, "ua", "127.0.0.1"); err == nil {
		t.Fatal("old refresh token must be rejected after rotation")
	}
}

func TestLogoutRevokesAllSessions(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.register(t, "alice")
	for i := 0; i < 2; i++ {
		if _, err := fx.auth.Login("alice", "hunter2-Secret", testSequence, "ua", "ip"); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if err := fx.auth.Logout(u.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	sessions, err := fx.tokens.Sessions(u.ID)
	if err != nil || len(sessions) != 0 {
		t.Fatalf("expected no active sessions after logout, got %d err=%v", len(sessions), err)
	}
}

func TestIsLoginFailure(t *testing.T) {
	for _, err := range []error{ErrInvalidCredentials, ErrCredentialNotConfigured, ErrInvalidGraphicalPassword} {
		if !IsLoginFailure(err) {
			t.Fatalf("%v should be a login failure", err)
		}
	}
	if IsLoginFailure(ErrInvalidEmail) || IsLoginFailure(errors.New("boom")) {
		t.Fatal("unexpected login failure classification")
	}
}
