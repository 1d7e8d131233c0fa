package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keveinliu/inkwell/internal/auth"
	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/middleware"
	"github.com/keveinliu/inkwell/internal/models"
)

type AuthHandler struct {
	store  *db.Store
	tokens *auth.TokenService
}

func NewAuthHandler(store *db.Store, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

type registerRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}

// CheckUsers is the first-run probe: the client shows the setup flow
// when no users exist yet.
func (h *AuthHandler) CheckUsers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.UserStats(r.Context())
	if err != nil {
		slog.Error("check users failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to check users")
		return
	}
	respondData(w, http.StatusOK, stats)
}

// Register creates an account. The first registrant while no admin
// exists becomes the administrator.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	// Character bounds, not byte bounds: multibyte usernames count by
	// rune.
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		respondError(w, http.StatusBadRequest, "username must be between 3 and 50 characters")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	ctx := r.Context()
	taken, err := h.store.UsernameExists(ctx, req.Username)
	if err != nil {
		slog.Error("register lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "username already exists")
		return
	}
	if req.Email != nil && *req.Email != "" {
		exists, err := h.store.EmailExists(ctx, *req.Email)
		if err != nil {
			slog.Error("register lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		if exists {
			respondError(w, http.StatusBadRequest, "email already exists")
			return
		}
	}

	role, err := auth.ResolveRole(ctx, h.store)
	if err != nil {
		slog.Error("resolve role failed", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("hash password failed", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.store.CreateUser(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         role,
	})
	if err != nil {
		slog.Error("create user failed", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.issueSession(w, r, user, http.StatusCreated, registrationMessage(role))
}

// Login authenticates by username and password. Unknown users,
// inactive users, and wrong passwords all produce the same 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.GetActiveUserByUsername(r.Context(), req.Username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	h.issueSession(w, r, user, http.StatusOK, "login successful")
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, status int, message string) {
	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		respondError(w, http.StatusInternalServerError, "authentication failed")
		return
	}
	if err := h.store.TouchLastLogin(r.Context(), user.ID); err != nil {
		slog.Error("touch last login failed", "error", err)
	}
	respondDataMessage(w, status, authResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, message)
}

func registrationMessage(role string) string {
	if role == models.RoleAdmin {
		return "administrator account created"
	}
	return "registration successful"
}

// Me returns the current user's row; the password hash never
// serializes. 404 when the account was deactivated after issuance.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := h.store.GetActiveUserByID(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("load current user failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found or disabled")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Verify answers 200 whenever the access gate let the request through.
func (h *AuthHandler) Verify(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusOK, "token is valid")
}

// Logout is advisory: tokens are stateless and expire on their own, so
// the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusOK, "logged out")
}
