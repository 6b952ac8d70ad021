package handlers

import (
	"net/http"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentIntentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	CampaignID string          `json:"campaign_id"`
}

type DonationRequest struct {
	CampaignID string          `json:"campaign_id"`
	Amount     decimal.Decimal `json:"amount"`
	PaymentID  string          `json:"payment_id"`
	Anonymous  bool            `json:"anonymous"`
	Message    string          `json:"message"`
}

type DonationStatusRequest struct {
	PaymentID string               `json:"payment_id"`
	Status    models.PaymentStatus `json:"status"`
}

func (r DonationRequest) input() services.DonationInput {
	return services.DonationInput{
		CampaignID: r.CampaignID,
		Amount:     r.Amount,
		PaymentID:  r.PaymentID,
		Anonymous:  r.Anonymous,
		Message:    r.Message,
	}
}

func (h *Handlers) CreatePaymentIntent(ctx *gin.Context) {
	var req PaymentIntentRequest

	if !bindJSON(ctx, &req) {
		return
	}

	intent, err := h.Ledger.InitiateCharge(ctx.Request.Context(), req.Amount, req.CampaignID)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, intent)
}

func (h *Handlers) RecordStripeDonation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req DonationRequest

	if !bindJSON(ctx, &req) {
		return
	}

	donation, err := h.Ledger.RecordDonation(ctx.Request.Context(), currentUser.ID, req.input())

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

func (h *Handlers) RecordManualDonation(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req DonationRequest

	if !bindJSON(ctx, &req) {
		return
	}

	donation, err := h.Ledger.RecordManualDonation(ctx.Request.Context(), currentUser.ID, req.input())

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

func (h *Handlers) UpdateDonationStatus(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req DonationStatusRequest

	if !bindJSON(ctx, &req) {
		return
	}

	donation, err := h.Ledger.UpdateDonationStatus(ctx.Request.Context(), currentUser, req.PaymentID, req.Status)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, donation)
}

func (h *Handlers) ListDonorDonations(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	donations, err := h.Ledger.ListByDonor(ctx.Request.Context(), currentUser, ctx.Param("userId"))

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, donations)
}
