package handlers

import (
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

// CampaignProgressWS streams progress events for one active campaign.
func (h *Handlers) CampaignProgressWS(ctx *gin.Context) {
	campaignID := ctx.Param("id")

	if err := h.Campaigns.EnsureActive(ctx.Request.Context(), campaignID); err != nil {
		utils.RespondError(ctx, err)
		return
	}

	h.Hub.Serve(ctx.Writer, ctx.Request, campaignID)
}
