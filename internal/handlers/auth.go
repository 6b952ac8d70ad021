package handlers

import (
	"net/http"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := h.Identity.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, resp.Token)
	ctx.JSON(http.StatusCreated, resp)
}

func (h *Handlers) Login(ctx *gin.Context) {
	var req LoginRequest

	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := h.Identity.Login(ctx.Request.Context(), req.Email, req.Password)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, resp.Token)
	ctx.JSON(http.StatusOK, resp)
}

func (h *Handlers) Logout(ctx *gin.Context) {
	h.clearTokenCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handlers) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(currentUser)})
}
