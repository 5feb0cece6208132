package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"graphical-auth-service/internal/catalog"
	"graphical-auth-service/internal/config"
	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/repository"
	"graphical-auth-service/internal/security"

	"gorm.io/gorm"
)

// Sequence length bounds for the graphical password, matching the
// registration form contract.
const (
	MinSequenceLength = 4
	MaxSequenceLength = 6
)

var (
	ErrMissingUsername          = errors.New("username is required")
	ErrInvalidEmail             = errors.New("invalid email address")
	ErrMissingGraphicalPassword = errors.New("graphical password is required")
	ErrInvalidSequenceLength    = errors.New("graphical password must use between 4 and 6 images")
	ErrDuplicateUsername        = errors.New("username already exists")
	ErrDuplicateEmail           = errors.New("email already registered")
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrCredentialNotConfigured  = errors.New("graphical password not set for this user")
	ErrInvalidGraphicalPassword = errors.New("invalid graphical password")
	ErrUnknownImageToken        = errors.New("graphical password contains an unknown image")
)

type AuthService struct {
	cfg            *config.Config
	tokenSvc       *TokenService
	userRepo       repository.UserRepository
	credentialRepo repository.GraphicalCredentialRepository
	images         *catalog.Catalog
}

type LoginResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"-"`
	RefreshToken string       `json:"-"`
	CSRFToken    string       `json:"csrf_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at,omitempty"`
}

func NewAuthService(
	cfg *config.Config,
	tokenSvc *TokenService,
	userRepo repository.UserRepository,
	credentialRepo repository.GraphicalCredentialRepository,
	images *catalog.Catalog,
) *AuthService {
	return &AuthService{
		cfg:            cfg,
		tokenSvc:       tokenSvc,
		userRepo:       userRepo,
		credentialRepo: credentialRepo,
		images:         images,
	}
}

// Register validates input and creates the user together with their graphical
// credential. The two rows are written in one transaction so a failure leaves
// no partial state.
func (s *AuthService) Register(username, email, password string, sequence []string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" {
		return nil, ErrMissingUsername
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(sequence) == 0 {
		return nil, ErrMissingGraphicalPassword
	}
	if len(sequence) < MinSequenceLength || len(sequence) > MaxSequenceLength {
		return nil, ErrInvalidSequenceLength
	}
	if s.cfg.AuthValidateCatalogTokens {
		for _, tok := range sequence {
			if !s.images.Contains(tok) {
				return nil, ErrUnknownImageToken
			}
		}
	}
	if taken, err := s.userRepo.ExistsByUsername(username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateUsername
	}
	if taken, err := s.userRepo.ExistsByEmail(email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	salt, err := security.NewSequenceSalt()
	if err != nil {
		return nil, err
	}
	sequenceHash := security.HashImageSequence(security.CanonicalSequence(sequence), salt)

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
	}
	credential := &domain.GraphicalCredential{Salt: salt, SequenceHash: sequenceHash}
	if err := s.userRepo.CreateWithGraphicalCredential(user, credential); err != nil {
		// Uniqueness races between the existence checks and the insert
		// surface as constraint violations.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if taken, exErr := s.userRepo.ExistsByUsername(username); exErr == nil && taken {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// Login performs the two-factor check: the text password and the graphical
// sequence must both verify. The stored credential is never mutated here.
func (s *AuthService) Login(username, password string, sequence []string, ua, ip string) (*LoginResult, error) {
	if len(sequence) == 0 {
		return nil, ErrMissingGraphicalPassword
	}
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	credential, err := s.credentialRepo.FindByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotConfigured
		}
		return nil, err
	}
	if !security.VerifyImageSequence(security.CanonicalSequence(sequence), credential.Salt, credential.SequenceHash) {
		return nil, ErrInvalidGraphicalPassword
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = now

	access, refresh, csrf, err := s.tokenSvc.Issue(user, ua, ip)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		CSRFToken:    csrf,
		ExpiresAt:    time.Now().Add(s.cfg.JWTAccessTTL),
	}, nil
}

func (s *AuthService) Refresh(refreshToken, ua, ip string) (*LoginResult, error) {
	access, newRefresh, csrf, userID, err := s.tokenSvc.Rotate(refreshToken, s.userRepo.FindByID, ua, ip)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: newRefresh,
		CSRFToken:    csrf,
		ExpiresAt:    time.Now().Add(s.cfg.JWTAccessTTL),
	}, nil
}

func (s *AuthService) Logout(userID uint) error {
	_, err := s.tokenSvc.RevokeAll(userID, "logout")
	return err
}

func (s *AuthService) ParseUserID(subject string) (uint, error) {
	return parseUserSubject(subject)
}

// IsLoginFailure reports whether err is one of the per-factor login rejections
// that the uniform-messaging mode collapses into a single response.
func IsLoginFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrCredentialNotConfigured) ||
		errors.Is(err, ErrInvalidGraphicalPassword)
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
