package http

import (
	"net/http"
	"time"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

type CookieConfig struct {
	Domain     string
	SameSite   http.SameSite
	Insecure   bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	redirectURL string
	cookies     CookieConfig
}

func NewAuthHandler(authService ports.AuthService, redirectURL string, cookies CookieConfig) *AuthHandler {
	if cookies.AccessTTL <= 0 {
		cookies.AccessTTL = 15 * time.Minute
	}
	if cookies.RefreshTTL <= 0 {
		cookies.RefreshTTL = 7 * 24 * time.Hour
	}
	if cookies.SameSite == 0 {
		cookies.SameSite = http.SameSiteLaxMode
	}
	return &AuthHandler{
		authService: authService,
		redirectURL: redirectURL,
		cookies:     cookies,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

type sessionResponse struct {
	State string       `json:"state"`
	User  *domain.User `json:"user"`
}

// Register godoc
// @Summary      Creates an account with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      409
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSONBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, tokens, err := h.authService.Register(r.Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, tokens)
	JSONResponse(w, http.StatusCreated, authResponse{User: user, AccessToken: tokens.AccessToken})
}

// Login godoc
// @Summary      Signs in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSONBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, tokens, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, tokens)
	JSONResponse(w, http.StatusOK, authResponse{User: user, AccessToken: tokens.AccessToken})
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, r, domain.NewValidationError("credential", "failed to parse form"))
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		WriteError(w, r, domain.NewValidationError("credential", "missing credential"))
		return
	}

	_, tokens, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, tokens)

	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// Refresh godoc
// @Summary      Refreshes the authenticated user's access token
// @Description  Creates a new access token cookie based on the refresh token and rotates the refresh token. The access token cookie is used as authentication for `/api` calls.
// @Tags         auth
// @Accept       json
// @Success      200
// @Failure      401
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		WriteError(w, r, domain.ErrUnauthenticated)
		return
	}

	tokens, err := h.authService.RefreshAccessToken(r.Context(), cookie.Value)
	if err != nil {
		h.expireCookies(w)
		WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, tokens)
	JSONResponse(w, http.StatusOK, map[string]string{"status": "ok", "access_token": tokens.AccessToken})
}

// Logout godoc
// @Summary      Logs the authenticated user out
// @Description  Revokes the refresh token and clears both cookies
// @Tags         auth
// @Accept       json
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			h.expireCookies(w)
			WriteError(w, r, err)
			return
		}
	}

	h.expireCookies(w)
	JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Session restores the caller's session from its access token. It never
// fails on a bad token: the answer is simply anonymous.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	store := session.NewStore()
	if err := store.Restore(r.Context(), h.authService, accessToken(r)); err != nil {
		WriteError(w, r, err)
		return
	}

	snap := store.Current()
	JSONResponse(w, http.StatusOK, sessionResponse{State: snap.State.String(), User: snap.User})
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens domain.Tokens) {
	h.setCookie(w, accessTokenCookie, tokens.AccessToken, h.cookies.AccessTTL)
	if tokens.RefreshToken != "" {
		h.setCookie(w, refreshTokenCookie, tokens.RefreshToken, h.cookies.RefreshTTL)
	}
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   !h.cookies.Insecure,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) expireCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
	http.SetCookie(w, &http.Cookie{Name: refreshTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookies.Domain})
}
