package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/auth"
	"github.com/sakif/tradecircle/internal/service"
)

// validate is shared by all handlers; validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = validator.New()

// AuthHandler exposes registration, login and profile endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account, respond 201
//   - HandleLogin    → verify credentials, issue a JWT
//   - HandleMe       → return the authenticated user's profile
//   - HandleGitHubLogin / HandleGitHubCallback → optional OAuth sign-in
type AuthHandler struct {
	auths  *service.AuthService
	github *auth.GitHubProvider // nil when GitHub sign-in is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth routes
// are only mounted when it is set.
func NewAuthHandler(auths *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		github: github,
		logger: logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse is the body returned by login and the OAuth callback. The
// claims inside the token carry the same three identity fields.
type loginResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /register
// REQUEST BODY: {"name": "Ada", "email": "ada@example.com", "password": "..."}
//
// Responds 201 with the literal body "ok". A duplicate email is a client
// mistake and comes back as 400, same as a missing field.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("email", "Missing email or password"))
		return
	}

	user, err := h.auths.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)
	writeJSON(w, http.StatusCreated, "ok")
}

// HandleLogin verifies credentials and issues a JWT.
//
// HTTP: POST /login
// REQUEST BODY: {"email": "ada@example.com", "password": "..."}
//
// An unknown email and a wrong password produce byte-identical 401 responses
// so the endpoint cannot be used to probe which addresses have accounts.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("email", "Missing email or password"))
		return
	}

	result, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		ID:    result.User.ID,
		Name:  result.User.Name,
		Email: result.User.Email,
		Token: result.Token,
	})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /me
// Auth: required (RequireAuth middleware sets the claims in context)
//
// The profile is re-read from the database rather than echoed from the token
// so a stale token still reflects the current name/email.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		// Unreachable on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auths.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state value goes into a short-lived HttpOnly cookie; the callback
// compares it against the state GitHub echoes back, which proves the flow was
// started by this server and not a cross-site attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and returns the same body as
// a password login.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch or missing cookie")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		writeError(w, apperror.Unauthorized("GitHub authorization denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, err := h.auths.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		ID:    result.User.ID,
		Name:  result.User.Name,
		Email: result.User.Email,
		Token: result.Token,
	})
}
