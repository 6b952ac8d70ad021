package middleware

import (
	"context"
	"strings"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := extractToken(ctx)

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}

		user, err := authenticator.Authenticate(ctx.Request.Context(), tokenString)

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, error) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", types.Authentication("Authorization header format must be Bearer {token}")
		}

		return strings.TrimSpace(parts[1]), nil
	}

	if cookie, err := ctx.Cookie(types.TokenCookieName); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", types.Authentication("Not authorized, no token")
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := utils.GetCurrentUser(ctx)

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}

		if user.Role != role {
			utils.RespondError(ctx, types.Authorization("User role "+string(user.Role)+" is not authorized to access this route"))
			return
		}

		ctx.Next()
	}
}

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := ctx.GetHeader(types.RequestIDHeader)

		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx.Set(types.ContextRequestIDKey, requestID)
		ctx.Header(types.RequestIDHeader, requestID)
		ctx.Next()
	}
}
