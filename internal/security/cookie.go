package security

import (
	"net/http"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	CSRFTokenCookie    = "csrf_token"

	refreshCookiePath = "/api/v1/auth"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite

	accessTTL time.Duration
}

func NewCookieManager(domain string, secure bool, sameSite string, accessTTL time.Duration) *CookieManager {
	mode := http.SameSiteLaxMode
	switch sameSite {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode, accessTTL: accessTTL}
}

func (m *CookieManager) SetTokenCookies(w http.ResponseWriter, access, refresh, csrf string, refreshTTL time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name: AccessTokenCookie, Value: access, Path: "/",
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(m.accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshTokenCookie, Value: refresh, Path: refreshCookiePath,
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(refreshTTL.Seconds()),
	})
	// CSRF cookie is intentionally readable by the frontend (double-submit).
	http.SetCookie(w, &http.Cookie{
		Name: CSRFTokenCookie, Value: csrf, Path: "/",
		HttpOnly: false, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		MaxAge: int(refreshTTL.Seconds()),
	})
}

func (m *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	for _, c := range []struct {
		name, path string
		httpOnly   bool
	}{
		{AccessTokenCookie, "/", true},
		{RefreshTokenCookie, refreshCookiePath, true},
		{CSRFTokenCookie, "/", false},
	} {
		http.SetCookie(w, &http.Cookie{
			Name: c.name, Value: "", Path: c.path, MaxAge: -1,
			HttpOnly: c.httpOnly, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain,
		})
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
