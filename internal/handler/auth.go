package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/lingoread/internal/auth"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/service"
)

// AuthHandler covers account creation, login/logout and the caller's
// profile.
//
//   - HandleRegister → create an account
//   - HandleLogin    → check credentials, issue a JWT (body + cookie)
//   - HandleLogout   → clear the cookie
//   - HandleMe       → the logged-in user
//   - HandleSetGoal  → set or clear the daily reading goal
type AuthHandler struct {
	auth         *service.AuthService
	tokenTTL     time.Duration
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, tokenTTL time.Duration, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		tokenTTL:     tokenTTL,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"name": "alice", "password": "...", "confirm_password": "..."}
// RESPONSE: 201 with the user
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin checks credentials and issues a token.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"name": "alice", "password": "..."}
//
// The token is returned in the body for API clients and set as an HttpOnly
// cookie for the browser. Either one is accepted by auth.RequireAuth.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{User: result.User, Token: result.Token})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so a copied token stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the logged-in user.
//
// HTTP: GET /api/users/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), uid)
	if err != nil {
		h.logger.Warn("HandleMe: user lookup failed", slog.Int64("userID", uid), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type goalRequest struct {
	GoalLengthMinutes *int `json:"goal_length_minutes"`
}

// HandleSetGoal sets the daily reading goal; null clears it.
//
// HTTP: POST /api/users/goals
// BODY: {"goal_length_minutes": 30}
// RESPONSE: the updated user
func (h *AuthHandler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.SetReadingGoal(r.Context(), uid, req.GoalLengthMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
