package utils

import (
	"log"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (*models.User, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return nil, types.Authentication("Not authorized, no token")
	}

	authenticatedUser, ok := user.(*models.User)

	if !ok || authenticatedUser == nil {
		return nil, types.Internal("Invalid user type in context", nil)
	}

	return authenticatedUser, nil
}

// RespondError writes the JSON error body for err and aborts the chain.
func RespondError(ctx *gin.Context, err error) {
	kind := types.KindOf(err)

	if kind == types.KindInternal || kind == types.KindUpstream {
		log.Printf("Request %s %s failed [%s]: %v", ctx.Request.Method, ctx.Request.URL.Path, ctx.GetString(types.ContextRequestIDKey), err)
	}

	ctx.AbortWithStatusJSON(types.HTTPStatus(kind), gin.H{
		"error":   string(kind),
		"message": types.PublicMessage(err),
	})
}
