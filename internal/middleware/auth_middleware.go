package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appauth "github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/auth"
)

// Context keys set by JWTAuth.
const (
	CallerKey = "caller"
	UserKey   = "currentUser"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

// tokenFrom looks for a token in the Authorization header, then the
// Authentication-Token header, then the token query parameter (Swagger UI).
func tokenFrom(c *gin.Context) string {
	for _, raw := range []string{
		c.GetHeader("Authorization"),
		c.GetHeader("Authentication-Token"),
		c.Query("token"),
	} {
		if token := auth.ExtractBearerToken(raw); token != "" {
			return token
		}
	}
	return ""
}

// JWTAuth middleware for JWT token validation. The resolved caller and user
// are stored in the context.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			AbortWithError(c, http.StatusUnauthorized, "Authentication required", apperrors.CodeUnauthorized)
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		caller, user, err := m.authz.ResolveCaller(c.Request.Context(), claims.UserID, claims.SessionKey)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(CallerKey, caller)
		c.Set(UserKey, user)
		c.Next()
	}
}

// AdminRequired rejects callers that are not admins. Must run after JWTAuth.
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := AdminFrom(c); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}

// StudentRequired rejects callers that are not students. Must run after JWTAuth.
func (m *AuthMiddleware) StudentRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := StudentFrom(c); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller stored by JWTAuth.
func CallerFrom(c *gin.Context) (appauth.Caller, error) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return nil, apperrors.NewUnauthorizedError(apperrors.ErrTokenInvalid, "Authentication required")
	}
	caller, ok := v.(appauth.Caller)
	if !ok {
		return nil, apperrors.NewUnauthorizedError(apperrors.ErrTokenInvalid, "Authentication required")
	}
	return caller, nil
}

// UserFrom returns the user loaded by JWTAuth, or nil.
func UserFrom(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// StudentFrom narrows the caller to a student.
func StudentFrom(c *gin.Context) (appauth.Student, error) {
	caller, err := CallerFrom(c)
	if err != nil {
		return appauth.Student{}, err
	}
	return appauth.RequireStudent(caller)
}

// AdminFrom narrows the caller to an admin.
func AdminFrom(c *gin.Context) (appauth.Admin, error) {
	caller, err := CallerFrom(c)
	if err != nil {
		return appauth.Admin{}, err
	}
	return appauth.RequireAdmin(caller)
}
