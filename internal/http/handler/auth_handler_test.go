package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"graphical-auth-service/internal/domain"
	"graphical-auth-service/internal/http/middleware"
	"graphical-auth-service/internal/security"
	"graphical-auth-service/internal/service"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stubAuthService struct {
	registerFn    func(username, email, password string, sequence []string) (*domain.User, error)
	loginFn       func(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error)
	refreshFn     func(refreshToken, ua, ip string) (*service.LoginResult, error)
	logoutFn      func(userID uint) error
	parseUserIDFn func(subject string) (uint, error)
}

func (s *stubAuthService) Register(username, email, password string, sequence []string) (*domain.User, error) {
	if s.registerFn != nil {
		return s.registerFn(username, email, password, sequence)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Login(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(username, password, sequence, ua, ip)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Refresh(refreshToken, ua, ip string) (*service.LoginResult, error) {
	if s.refreshFn != nil {
		return s.refreshFn(refreshToken, ua, ip)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Logout(userID uint) error {
	if s.logoutFn != nil {
		return s.logoutFn(userID)
	}
	return nil
}

func (s *stubAuthService) ParseUserID(subject string) (uint, error) {
	if s.parseUserIDFn != nil {
		return s.parseUserIDFn(subject)
	}
	return 0, errors.New("not implemented")
}

func withClaims(r *http.Request, sub string) *http.Request {
	claims := &security.Claims{}
	claims.Subject = sub
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func decodeErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}

func isClearedCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func testCookieManager() *security.CookieManager {
	return security.NewCookieManager("", false, "lax", 15*time.Minute)
}

func TestAuthHandlerRegisterErrorMappings(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "invalid email", err: service.ErrInvalidEmail, wantCode: http.StatusBadRequest, wantErr: "INVALID_EMAIL"},
		{name: "missing sequence", err: service.ErrMissingGraphicalPassword, wantCode: http.StatusBadRequest, wantErr: "MISSING_GRAPHICAL_PASSWORD"},
		{name: "bad length", err: service.ErrInvalidSequenceLength, wantCode: http.StatusBadRequest, wantErr: "INVALID_SEQUENCE_LENGTH"},
		{name: "unknown image", err: service.ErrUnknownImageToken, wantCode: http.StatusBadRequest, wantErr: "UNKNOWN_IMAGE_TOKEN"},
		{name: "duplicate username", err: service.ErrDuplicateUsername, wantCode: http.StatusConflict, wantErr: "DUPLICATE_USERNAME"},
		{name: "duplicate email", err: service.ErrDuplicateEmail, wantCode: http.StatusConflict, wantErr: "DUPLICATE_EMAIL"},
		{name: "missing username", err: service.ErrMissingUsername, wantCode: http.StatusBadRequest, wantErr: "MISSING_USERNAME"},
		{name: "store failure", err: errors.New("db down"), wantCode: http.StatusServiceUnavailable, wantErr: "UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authSvc := &stubAuthService{registerFn: func(username, email, password string, sequence []string) (*domain.User, error) {
				return nil, tc.err
			}}
			h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
			body := `{"username":"alice","email":"alice@example.com","password":"pw","image_sequence":["a","b","c","d"]}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
			rr := httptest.NewRecorder()

			h.Register(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			env := decodeErrorEnvelope(t, rr)
			if env.Error == nil || env.Error.Code != tc.wantErr {
				t.Fatalf("expected error code %q, got %+v", tc.wantErr, env.Error)
			}
		})
	}
}

func TestAuthHandlerRegisterSuccess(t *testing.T) {
	authSvc := &stubAuthService{registerFn: func(username, email, password string, sequence []string) (*domain.User, error) {
		return &domain.User{ID: 7, Username: username, Email: email}, nil
	}}
	h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
	body := `{"username":"alice","email":"alice@example.com","password":"pw","image_sequence":["a","b","c","d"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if cookies := rr.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("register must not set auth cookies, got %d", len(cookies))
	}
}

func TestAuthHandlerRegisterRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, testCookieManager(), 24*time.Hour, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAuthHandlerLoginErrorMappings(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "missing sequence", err: service.ErrMissingGraphicalPassword, wantCode: http.StatusBadRequest, wantErr: "MISSING_GRAPHICAL_PASSWORD"},
		{name: "bad password", err: service.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantErr: "INVALID_CREDENTIALS"},
		{name: "no credential", err: service.ErrCredentialNotConfigured, wantCode: http.StatusUnauthorized, wantErr: "CREDENTIAL_NOT_CONFIGURED"},
		{name: "bad sequence", err: service.ErrInvalidGraphicalPassword, wantCode: http.StatusUnauthorized, wantErr: "INVALID_GRAPHICAL_PASSWORD"},
		{name: "store failure", err: errors.New("db down"), wantCode: http.StatusServiceUnavailable, wantErr: "UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authSvc := &stubAuthService{loginFn: func(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error) {
				return nil, tc.err
			}}
			h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
			body := `{"username":"alice","password":"pw","image_sequence":["a","b","c","d"]}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
			rr := httptest.NewRecorder()

			h.Login(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			env := decodeErrorEnvelope(t, rr)
			if env.Error == nil || env.Error.Code != tc.wantErr {
				t.Fatalf("expected error code %q, got %+v", tc.wantErr, env.Error)
			}
		})
	}
}

func TestAuthHandlerLoginUniformErrorsCollapseFactorDetail(t *testing.T) {
	failures := []error{
		service.ErrInvalidCredentials,
		service.ErrCredentialNotConfigured,
		service.ErrInvalidGraphicalPassword,
	}
	for _, failure := range failures {
		authSvc := &stubAuthService{loginFn: func(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error) {
			return nil, failure
		}}
		h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, true)
		body := `{"username":"alice","password":"pw","image_sequence":["a","b","c","d"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", failure, rr.Code)
		}
		env := decodeErrorEnvelope(t, rr)
		if env.Error == nil || env.Error.Code != "INVALID_CREDENTIALS" {
			t.Fatalf("%v: expected collapsed INVALID_CREDENTIALS, got %+v", failure, env.Error)
		}
		if env.Error.Message != service.ErrInvalidCredentials.Error() {
			t.Fatalf("%v: expected uniform message, got %q", failure, env.Error.Message)
		}
	}
}

func TestAuthHandlerLoginUniformErrorsKeepValidationDetail(t *testing.T) {
	authSvc := &stubAuthService{loginFn: func(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error) {
		return nil, service.ErrMissingGraphicalPassword
	}}
	h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, true)
	body := `{"username":"alice","password":"pw"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	env := decodeErrorEnvelope(t, rr)
	if env.Error == nil || env.Error.Code != "MISSING_GRAPHICAL_PASSWORD" {
		t.Fatalf("expected MISSING_GRAPHICAL_PASSWORD, got %+v", env.Error)
	}
}

func TestAuthHandlerLoginSuccessSetsCookies(t *testing.T) {
	authSvc := &stubAuthService{loginFn: func(username, password string, sequence []string, ua, ip string) (*service.LoginResult, error) {
		return &service.LoginResult{
			User:         &domain.User{ID: 1, Username: username},
			AccessToken:  "access",
			RefreshToken: "refresh",
			CSRFToken:    "csrf",
			ExpiresAt:    time.Now().Add(15 * time.Minute),
		}, nil
	}}
	h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
	body := `{"username":"alice","password":"pw","image_sequence":["a","b","c","d"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	for _, name := range []string{security.AccessTokenCookie, security.RefreshTokenCookie, security.CSRFTokenCookie} {
		if !hasCookie(cookies, name) {
			t.Fatalf("expected cookie %q to be set", name)
		}
	}
	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := payload.Data["user"]; !ok {
		t.Fatal("expected user in response body")
	}
	if raw, ok := payload.Data["user"]; ok && strings.Contains(string(raw), "access") {
		t.Fatal("tokens must not leak into the response body")
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthService{}, testCookieManager(), 24*time.Hour, false)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		rr := httptest.NewRecorder()

		h.Refresh(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("rotation success", func(t *testing.T) {
		authSvc := &stubAuthService{refreshFn: func(refreshToken, ua, ip string) (*service.LoginResult, error) {
			if refreshToken != "old-refresh" {
				t.Fatalf("unexpected refresh token %q", refreshToken)
			}
			return &service.LoginResult{
				User:         &domain.User{ID: 1},
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				CSRFToken:    "new-csrf",
			}, nil
		}}
		h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: security.RefreshTokenCookie, Value: "old-refresh"})
		rr := httptest.NewRecorder()

		h.Refresh(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !hasCookie(rr.Result().Cookies(), security.RefreshTokenCookie) {
			t.Fatal("expected rotated refresh cookie")
		}
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	t.Run("missing auth context", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthService{}, testCookieManager(), 24*time.Hour, false)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		rr := httptest.NewRecorder()

		h.Logout(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("success clears cookies", func(t *testing.T) {
		var revoked uint
		authSvc := &stubAuthService{
			parseUserIDFn: func(subject string) (uint, error) { return 42, nil },
			logoutFn:      func(userID uint) error { revoked = userID; return nil },
		}
		h := NewAuthHandler(authSvc, testCookieManager(), 24*time.Hour, false)
		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "42")
		rr := httptest.NewRecorder()

		h.Logout(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if revoked != 42 {
			t.Fatalf("expected logout for user 42, got %d", revoked)
		}
		cookies := rr.Result().Cookies()
		if !isClearedCookie(cookies, security.AccessTokenCookie) || !isClearedCookie(cookies, security.RefreshTokenCookie) {
			t.Fatal("expected auth cookies to be cleared")
		}
	})
}
