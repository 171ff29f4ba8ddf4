package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"good-morning-backend/internal/middleware"
	"good-morning-backend/internal/oauth"
	"good-morning-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const stateCookie = "oauth_state"

// GoogleLogin runs the provider side of the login flow
type GoogleLogin interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

// AuthOptions configures the session cookie and post-login redirects
type AuthOptions struct {
	FrontendURL  string
	SecureCookie bool
	SessionTTL   time.Duration
}

// AuthHandler handles Google login and logout
type AuthHandler struct {
	userService *services.UserService
	google      GoogleLogin
	states      oauth.StateStore
	opts        AuthOptions
}

// NewAuthHandler creates a new auth handler. states may be nil, in which case
// the login state round-trips through a short-lived cookie.
func NewAuthHandler(userService *services.UserService, google GoogleLogin, states oauth.StateStore, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		google:      google,
		states:      states,
		opts:        opts,
	}
}

// GoogleLogin handles GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := oauth.NewState()
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if h.states != nil {
		if err := h.states.Save(r.Context(), state); err != nil {
			respondErr(w, r, err)
			return
		}
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/auth/google",
			MaxAge:   int(oauth.StateTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.opts.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	ok, err := h.checkState(w, r, query.Get("state"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to verify login state")
		h.redirectWithError(w, r, "login_failed")
		return
	}
	if !ok {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Login state mismatch")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "login_failed")
		return
	}

	googleUser, err := h.google.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to exchange Google authorization code")
		h.redirectWithError(w, r, "login_failed")
		return
	}

	user, token, err := h.userService.LoginWithGoogle(ctx, googleUser)
	if err != nil {
		log.Error().Err(err).Str("google_id", googleUser.ID).Msg("Failed to log in Google user")
		h.redirectWithError(w, r, "login_failed")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")

	http.SetCookie(w, h.sessionCookie(token, int(h.opts.SessionTTL.Seconds())))
	http.Redirect(w, r, h.opts.FrontendURL, http.StatusTemporaryRedirect)
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, h.opts.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) checkState(w http.ResponseWriter, r *http.Request, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	if h.states != nil {
		return h.states.Consume(r.Context(), state)
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return false, nil
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/google", MaxAge: -1})
	return cookie.Value == state, nil
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.opts.FrontendURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("error", reason)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
