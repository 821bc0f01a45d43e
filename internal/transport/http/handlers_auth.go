package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/service"
	"inkgate/internal/platform/middleware"
	"inkgate/internal/transport/http/shared"
	dErrors "inkgate/pkg/domain-errors"
)

// AuthService is the surface the transport layer needs from the auth core.
type AuthService interface {
	Login(ctx context.Context, creds service.Credentials, ip, userAgent string) (*service.TokenPair, error)
	Logout(ctx context.Context, raw string) error
	Refresh(ctx context.Context, raw string) (*service.TokenPair, error)
	Signup(ctx context.Context, req service.SignupRequest, ip string) (*models.User, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	ctx := r.Context()
	pair, err := h.auth.Login(ctx,
		service.Credentials{Email: req.Email, Password: req.Password},
		middleware.GetClientIP(ctx),
		middleware.GetUserAgent(ctx),
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.BearerFromHeader(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeCredentialInvalid, "missing credential"))
		return
	}

	if err := h.auth.Logout(r.Context(), raw); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	ctx := r.Context()
	user, err := h.auth.Signup(ctx,
		service.SignupRequest{Email: req.Email, Name: req.Name, Password: req.Password},
		middleware.GetClientIP(ctx),
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, userResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMe echoes the authenticated caller. RequireIdentity guards the route,
// so an identity is always present here.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	shared.WriteJSON(w, http.StatusOK, userResponse{
		ID:    identity.UserID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
	})
}
