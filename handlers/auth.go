// Package handlers is the HTTP layer: decode the request, call a service,
// write the result with pkg.JSON or pkg.Error. No business rules live here.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/ratelimit"
	"github.com/akinalp/gaduly/services"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

// UserContextKey carries the authenticated *models.User, set by the auth
// middleware.
const UserContextKey contextKey = "user"

type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
	trustProxy   bool
}

func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter, trustProxy bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		trustProxy:   trustProxy,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, pkg.OK)
}

// Login handles POST /api/auth/login.
//
// Failed attempts are counted per client IP; a successful login clears
// the counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r, h.trustProxy)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, result)
}
