package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/auth"
	"github.com/utafrali/EcommerceGo/storefront/internal/session"
	"github.com/utafrali/EcommerceGo/storefront/internal/wishlist"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
)

// SessionHandler handles sign-in state for the browsing session.
type SessionHandler struct {
	logger *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(logger *slog.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// LoginRequest carries the token the backend issued at sign-in. An
// Authorization: Bearer header is used when the body has none.
type LoginRequest struct {
	Token string `json:"token"`
}

// UserResponse describes the signed-in user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// SessionResponse summarizes the browsing session.
type SessionResponse struct {
	SessionID       string         `json:"session_id"`
	Authenticated   bool           `json:"authenticated"`
	User            *UserResponse  `json:"user,omitempty"`
	WishlistState   wishlist.State `json:"wishlist_state"`
	CartItemCount   int            `json:"cart_item_count"`
	ComparisonCount int            `json:"comparison_count"`
	WishlistCount   int            `json:"wishlist_count"`
}

func userResponse(c auth.Credential) *UserResponse {
	return &UserResponse{ID: c.UserID, Email: c.Email, Role: c.Role, ExpiresAt: c.ExpiresAt}
}

func sessionResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:       s.ID(),
		WishlistState:   s.Wishlist().State(),
		CartItemCount:   s.Cart().ItemCount(),
		ComparisonCount: s.Comparison().Count(),
		WishlistCount:   s.Wishlist().Count(),
	}
	if cred, ok := s.Credential(); ok {
		resp.Authenticated = true
		resp.User = userResponse(cred)
	}
	return resp
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, sessionResponse(sessionFrom(r.Context())))
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}
	if req.Token == "" {
		req.Token = middleware.BearerToken(r)
	}
	if req.Token == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("token is required"), h.logger)
		return
	}

	s := sessionFrom(r.Context())
	if _, err := s.Login(r.Context(), req.Token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, sessionResponse(s))
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	s.Logout(r.Context())
	httputil.WriteData(w, http.StatusOK, sessionResponse(s))
}
