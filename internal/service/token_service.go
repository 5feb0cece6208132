package service

import (
	"fmt"
	"strconv"
	"time"

	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/repository"
	"graphical-auth-service/internal/security"
)

type TokenService struct {
	jwtMgr      *security.JWTManager
	sessionRepo repository.SessionRepository
	pepper      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, sessionRepo repository.SessionRepository, pepper string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, sessionRepo: sessionRepo, pepper: pepper, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *TokenService) Issue(user *domain.User, ua, ip string) (access string, refresh string, csrf string, err error) {
	access, err = s.jwtMgr.SignAccessToken(user.ID, user.Username, user.Role, s.accessTTL)
	if err != nil {
		return "", "", "", err
	}
	refresh, err = s.jwtMgr.SignRefreshToken(user.ID, s.refreshTTL)
	if err != nil {
		return "", "", "", err
	}
	hash := security.HashRefreshToken(refresh, s.pepper)
	if err := s.sessionRepo.Create(&domain.Session{UserID: user.ID, RefreshTokenHash: hash, UserAgent: ua, IP: ip, ExpiresAt: time.Now().Add(s.refreshTTL)}); err != nil {
		return "", "", "", err
	}
	csrf, err = security.NewCSRFToken()
	if err != nil {
		return "", "", "", err
	}
	return access, refresh, csrf, nil
}

func (s *TokenService) Rotate(refreshToken string, userFetcher func(id uint) (*domain.User, error), ua, ip string) (access string, newRefresh string, csrf string, userID uint, err error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", "", "", 0, err
	}
	hash := security.HashRefreshToken(refreshToken, s.pepper)
	session, err := s.sessionRepo.FindValidByHash(hash)
	if err != nil {
		return "", "", "", 0, err
	}
	if err := s.sessionRepo.RevokeByHash(hash); err != nil {
		return "", "", "", 0, err
	}
	userID, err = parseUserSubject(claims.Subject)
	if err != nil {
		return "", "", "", 0, err
	}
	if session.UserID != userID {
		return "", "", "", 0, fmt.Errorf("session mismatch")
	}
	user, err := userFetcher(userID)
	if err != nil {
		return "", "", "", 0, err
	}
	access, newRefresh, csrf, err = s.Issue(user, ua, ip)
	if err != nil {
		return "", "", "", 0, err
	}
	return access, newRefresh, csrf, userID, nil
}

func (s *TokenService) RevokeAll(userID uint, reason string) (int64, error) {
	revoked, err := s.sessionRepo.RevokeByUserID(userID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions (%s): %w", reason, err)
	}
	return revoked, nil
}

func (s *TokenService) Sessions(userID uint) ([]domain.Session, error) {
	return s.sessionRepo.ListActiveByUserID(userID)
}

func parseUserSubject(subject string) (uint, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user subject")
	}
	return uint(id), nil
}
