package handlers

import (
	"net/http"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

type CampaignStatusRequest struct {
	Status models.CampaignStatus `json:"status"`
}

func (h *Handlers) ListUsers(ctx *gin.Context) {
	users, err := h.Moderation.ListAllUsers(ctx.Request.Context())

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *Handlers) SetUserStatus(ctx *gin.Context) {
	var req UserStatusRequest

	if !bindJSON(ctx, &req) {
		return
	}

	if req.IsActive == nil {
		utils.RespondError(ctx, types.Validation("is_active is required"))
		return
	}

	user, err := h.Moderation.SetUserActive(ctx.Request.Context(), ctx.Param("id"), *req.IsActive)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

func (h *Handlers) ListAllCampaigns(ctx *gin.Context) {
	campaigns, err := h.Moderation.ListAllCampaigns(ctx.Request.Context())

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, campaigns)
}

func (h *Handlers) SetCampaignStatus(ctx *gin.Context) {
	var req CampaignStatusRequest

	if !bindJSON(ctx, &req) {
		return
	}

	campaign, err := h.Moderation.SetCampaignStatus(ctx.Request.Context(), ctx.Param("id"), req.Status)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

func (h *Handlers) DashboardStats(ctx *gin.Context) {
	stats, err := h.Moderation.DashboardStats(ctx.Request.Context())

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
