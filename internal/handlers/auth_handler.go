package handlers

import (
	"net/http"
	"strings"

	"cold-backend/internal/middleware"
	"cold-backend/internal/models"
	"cold-backend/internal/repositories"
	"cold-backend/internal/services"
	"cold-backend/pkg/utils"
)

type AuthHandler struct {
	Service     *services.UserService
	AuthLogRepo *repositories.AuthLogRepository
}

func NewAuthHandler(s *services.UserService, authLogRepo *repositories.AuthLogRepository) *AuthHandler {
	return &AuthHandler{Service: s, AuthLogRepo: authLogRepo}
}

// Login authenticates a user and writes an AuthLog row on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	if _, err := h.AuthLogRepo.Create(r.Context(), authResp.User.ID, getIPAddress(r), r.UserAgent()); err != nil {
		// an audit-log write failure must not fail a successful login
	}

	utils.JSON(w, http.StatusOK, authResp)
}

// Logout is stateless: the client discards its token. Kept as an endpoint so clients
// have somewhere to call on sign-out without special-casing it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Refresh re-issues a token for the already-authenticated caller, extending their
// session without requiring credentials again.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.NewError(utils.Unauthorized, "not authenticated"))
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, utils.NewError(utils.NotFound, "user not found"))
		return
	}

	token, err := h.Service.JWTManager.GenerateToken(user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Me returns the authenticated caller's own profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.NewError(utils.Unauthorized, "not authenticated"))
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, utils.NewError(utils.NotFound, "user not found"))
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

// ChangePassword is the self-service password change, requiring the caller's current
// password rather than RBAC alone.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, utils.NewError(utils.Unauthorized, "not authenticated"))
		return
	}

	var req models.ChangePasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Service.ChangeOwnPassword(r.Context(), userID, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func getIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
