package middleware

import (
	"context"
	"net/http"
	"strings"

	"cold-backend/internal/auth"
	"cold-backend/internal/repositories"
	"cold-backend/pkg/utils"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const UsernameKey contextKey = "username"
const RoleKey contextKey = "role"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

func withUserContext(r *http.Request, id int, username, role string) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, id)
	ctx = context.WithValue(ctx, UsernameKey, username)
	ctx = context.WithValue(ctx, RoleKey, role)
	return r.WithContext(ctx)
}

// Authenticate validates the bearer token and attaches the user's identity to the
// request context. It does not check role.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteError(w, utils.NewError(utils.Unauthorized, "authorization header required"))
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.WriteError(w, utils.NewError(utils.Unauthorized, "invalid authorization format"))
			return
		}
		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			utils.WriteError(w, utils.NewError(utils.Unauthorized, "invalid or expired token"))
			return
		}
		user, err := m.userRepo.Get(r.Context(), claims.UserID)
		if err != nil {
			utils.WriteError(w, utils.NewError(utils.Unauthorized, "user not found"))
			return
		}
		if !user.IsActive {
			utils.WriteError(w, utils.NewError(utils.Forbidden, "account suspended"))
			return
		}
		next.ServeHTTP(w, withUserContext(r, user.ID, user.Username, user.Role))
	})
}

// GetUserIDFromContext extracts the authenticated user's id from the request context.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetUsernameFromContext extracts the authenticated user's username.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetRoleFromContext extracts the authenticated user's role.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// RequireRole authenticates and then ensures the user's role is one of allowedRoles,
// per the RBAC table of spec.md §4.6.
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.WriteError(w, utils.NewError(utils.Unauthorized, "authorization header required"))
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.WriteError(w, utils.NewError(utils.Unauthorized, "invalid authorization format"))
				return
			}
			claims, err := m.jwtManager.ValidateToken(parts[1])
			if err != nil {
				utils.WriteError(w, utils.NewError(utils.Unauthorized, "invalid or expired token"))
				return
			}
			user, err := m.userRepo.Get(r.Context(), claims.UserID)
			if err != nil {
				utils.WriteError(w, utils.NewError(utils.Unauthorized, "user not found"))
				return
			}
			if !user.IsActive {
				utils.WriteError(w, utils.NewError(utils.Forbidden, "account suspended"))
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				utils.WriteError(w, utils.NewError(utils.Forbidden, "insufficient permissions"))
				return
			}

			next.ServeHTTP(w, withUserContext(r, user.ID, user.Username, user.Role))
		})
	}
}

// RequireAdmin allows admin and superadmin only.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole("admin", "superadmin")(next)
}

// RequireSuperadmin allows superadmin only, for API/SMTP/SMS settings and sync triggers.
func (m *AuthMiddleware) RequireSuperadmin(next http.Handler) http.Handler {
	return m.RequireRole("superadmin")(next)
}
