package auth

import (
	"fmt"
	"net/http"

	"tourbook/internal/config"
	"tourbook/internal/logger"
	"tourbook/internal/models"
)

const refreshCookieMaxAge = 30 * 24 * 60 * 60

// Resolver extracts the caller's identity. It checks, in order: the
// development override, a bearer token, then the cookie session.
type Resolver struct {
	cfg       config.AuthConfig
	devMode   bool
	secure    bool
	verifier  TokenVerifier
	refresher Refresher
	log       *logger.Logger
}

func NewResolver(cfg config.AuthConfig, app config.AppConfig, verifier TokenVerifier, refresher Refresher, log *logger.Logger) *Resolver {
	return &Resolver{
		cfg:       cfg,
		devMode:   cfg.DevUserID != "" && !app.IsProduction(),
		secure:    app.IsProduction(),
		verifier:  verifier,
		refresher: refresher,
		log:       log,
	}
}

// Resolve never fails loudly: any problem yields (nil, false). A successful
// cookie refresh writes the rotated cookies to w.
func (res *Resolver) Resolve(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	if res.devMode {
		return &models.Identity{ID: res.cfg.DevUserID, Email: res.cfg.DevEmail}, true
	}

	if r.Header.Get("Authorization") != "" {
		raw, err := ExtractTokenFromRequest(r)
		if err != nil {
			res.log.LogSecurity("AUTH_HEADER", err.Error())
			return nil, false
		}
		return res.verify(r, raw)
	}

	return res.fromCookies(w, r)
}

func (res *Resolver) verify(r *http.Request, raw string) (*models.Identity, bool) {
	if res.verifier == nil {
		return nil, false
	}
	id, err := res.verifier.Verify(r.Context(), raw)
	if err != nil {
		res.log.Debug("AUTH", fmt.Sprintf("Token rejected: %v", err))
		return nil, false
	}
	return id, true
}

func (res *Resolver) fromCookies(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	if c, err := r.Cookie(res.cfg.AccessCookie); err == nil && c.Value != "" {
		if id, ok := res.verify(r, c.Value); ok {
			return id, true
		}
	}

	rc, err := r.Cookie(res.cfg.RefreshCookie)
	if err != nil || rc.Value == "" || res.refresher == nil {
		return nil, false
	}

	pair, err := res.refresher.Refresh(r.Context(), rc.Value)
	if err != nil {
		res.log.Warn("AUTH", fmt.Sprintf("Session refresh failed: %v", err))
		return nil, false
	}

	id, ok := res.verify(r, pair.AccessToken)
	if !ok {
		return nil, false
	}
	res.writeCookies(w, pair)
	return id, true
}

func (res *Resolver) writeCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     res.cfg.AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   pair.ExpiresIn,
		HttpOnly: true,
		Secure:   res.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if pair.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     res.cfg.RefreshCookie,
			Value:    pair.RefreshToken,
			Path:     "/",
			MaxAge:   refreshCookieMaxAge,
			HttpOnly: true,
			Secure:   res.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
