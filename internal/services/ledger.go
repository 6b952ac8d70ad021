package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
)

const ManualPaymentPrefix = "demo_"

type DonationInput struct {
	CampaignID string
	Amount     decimal.Decimal
	PaymentID  string
	Anonymous  bool
	Message    string
}

type LedgerOptions struct {
	PaymentTimeout       time.Duration
	ClientURL            string
	AllowManualDonations bool
}

// LedgerService records donations and keeps campaign totals in step with them.
type LedgerService struct {
	store      store.Store
	payments   PaymentGateway
	mailer     Mailer
	progress   ProgressPublisher
	dispatcher *Dispatcher
	opts       LedgerOptions
}

func NewLedgerService(s store.Store, payments PaymentGateway, mailer Mailer, progress ProgressPublisher, dispatcher *Dispatcher, opts LedgerOptions) *LedgerService {
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = 15 * time.Second
	}

	return &LedgerService{
		store:      s,
		payments:   payments,
		mailer:     mailer,
		progress:   progress,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// InitiateCharge asks the payment processor for an intent. The ledger is
// not touched until the client reports the payment back.
func (s *LedgerService) InitiateCharge(ctx context.Context, amount decimal.Decimal, campaignID string) (*types.PaymentIntentResponse, error) {
	amount = amount.Round(2)

	if campaignID == "" || !amount.IsPositive() {
		return nil, types.Validation("Amount and campaign ID are required")
	}

	if _, err := s.donatableCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()

	minor := amount.Mul(decimal.NewFromInt(100)).IntPart()

	intent, err := s.payments.CreatePaymentIntent(ctx, minor, campaignID)

	if err != nil {
		return nil, types.Upstream("Failed to create payment intent", err)
	}

	return &types.PaymentIntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// RecordDonation stores a payment the processor already confirmed.
func (s *LedgerService) RecordDonation(ctx context.Context, donorID string, in DonationInput) (*types.DonationResponse, error) {
	in.PaymentID = strings.TrimSpace(in.PaymentID)

	if in.PaymentID == "" {
		return nil, types.Validation("Payment ID is required")
	}

	return s.record(ctx, donorID, in)
}

// RecordManualDonation is the demo path without a payment processor.
func (s *LedgerService) RecordManualDonation(ctx context.Context, donorID string, in DonationInput) (*types.DonationResponse, error) {
	if !s.opts.AllowManualDonations {
		return nil, types.Authorization("Manual donations are disabled")
	}

	in.PaymentID = ManualPaymentPrefix + models.NewID()

	return s.record(ctx, donorID, in)
}

func (s *LedgerService) record(ctx context.Context, donorID string, in DonationInput) (*types.DonationResponse, error) {
	if in.CampaignID == "" {
		return nil, types.Validation("Campaign ID is required")
	}

	// Amounts are kept in cents; anything that rounds to zero is no donation.
	in.Amount = in.Amount.Round(2)

	if !in.Amount.IsPositive() {
		return nil, types.Validation("Amount must be greater than zero")
	}

	if len([]rune(in.Message)) > models.MaxDonationMessage {
		return nil, types.Validation("Message cannot exceed %d characters", models.MaxDonationMessage)
	}

	donor, err := s.store.GetUser(ctx, donorID)

	if err != nil {
		return nil, err
	}

	campaign, err := s.donatableCampaign(ctx, in.CampaignID)

	if err != nil {
		return nil, err
	}

	donation := &models.Donation{
		DonorID:    donor.ID,
		CampaignID: campaign.ID,
		Amount:     in.Amount,
		Anonymous:  in.Anonymous,
		Message:    strings.TrimSpace(in.Message),
		PaymentID:  in.PaymentID,
		Status:     models.PaymentCompleted,
	}

	updated, err := s.store.RecordDonation(ctx, donation)

	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, types.Conflict("Payment %s has already been recorded", in.PaymentID)
		}
		return nil, err
	}

	s.publish(updated)
	s.notify(*donor, *updated, *donation)

	response := types.NewDonationResponse(donation)
	response.Campaign = &types.CampaignSummary{ID: updated.ID, Title: updated.Title, Images: updated.Images}

	return &response, nil
}

// UpdateDonationStatus moves a donation between payment states. Totals only
// change when the donation enters or leaves completed.
func (s *LedgerService) UpdateDonationStatus(ctx context.Context, caller *models.User, paymentID string, status models.PaymentStatus) (*types.DonationResponse, error) {
	if paymentID == "" {
		return nil, types.Validation("Payment intent ID is required")
	}

	if !status.Valid() {
		return nil, types.Validation("Unknown payment status %q", status)
	}

	existing, err := s.store.GetDonationByPaymentID(ctx, paymentID)

	if err != nil {
		return nil, err
	}

	if !isOwnerOrAdmin(caller, existing.DonorID) {
		return nil, types.Authorization("Not authorized to update this donation")
	}

	donation, campaign, err := s.store.TransitionDonationStatus(ctx, paymentID, status)

	if err != nil {
		return nil, err
	}

	if campaign != nil {
		s.publish(campaign)
	}

	response := types.NewDonationResponse(donation)
	return &response, nil
}

func (s *LedgerService) ListByDonor(ctx context.Context, caller *models.User, donorID string) ([]types.DonationResponse, error) {
	if !isOwnerOrAdmin(caller, donorID) {
		return nil, types.Authorization("Not authorized to view these donations")
	}

	donations, err := s.store.ListDonations(ctx, store.DonationQuery{DonorID: donorID})

	if err != nil {
		return nil, err
	}

	campaignIDs := make([]string, 0, len(donations))
	for _, donation := range donations {
		campaignIDs = append(campaignIDs, donation.CampaignID)
	}

	campaigns, err := s.store.GetCampaigns(ctx, campaignIDs)

	if err != nil {
		return nil, err
	}

	responses := make([]types.DonationResponse, 0, len(donations))

	for i := range donations {
		response := types.NewDonationResponse(&donations[i])

		if campaign, ok := campaigns[donations[i].CampaignID]; ok {
			response.Campaign = &types.CampaignSummary{ID: campaign.ID, Title: campaign.Title, Images: campaign.Images}
		}

		responses = append(responses, response)
	}

	return responses, nil
}

// Wait drains in-flight notifications.
func (s *LedgerService) Wait() {
	s.dispatcher.Wait()
}

func (s *LedgerService) donatableCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)

	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignActive {
		return nil, types.Validation("Campaign is not accepting donations")
	}

	return campaign, nil
}

func (s *LedgerService) publish(campaign *models.Campaign) {
	if s.progress == nil {
		return
	}

	s.progress.Publish(types.ProgressEvent{
		Type:         types.ProgressEventType,
		CampaignID:   campaign.ID,
		RaisedAmount: campaign.RaisedAmount,
		DonorsCount:  campaign.DonorsCount,
		Progress:     campaign.Progress(),
	})
}

func (s *LedgerService) notify(donor models.User, campaign models.Campaign, donation models.Donation) {
	if s.mailer == nil {
		return
	}

	receipt := types.DonationReceipt{
		DonorName:     donor.Name,
		DonorEmail:    donor.Email,
		CampaignID:    campaign.ID,
		CampaignTitle: campaign.Title,
		CampaignURL:   strings.TrimSuffix(s.opts.ClientURL, "/") + "/campaigns/" + campaign.ID,
		Amount:        donation.Amount,
		Message:       donation.Message,
		Anonymous:     donation.Anonymous,
	}

	s.dispatcher.Go("send donation emails", func(ctx context.Context) error {
		var errs []error

		creator, err := s.store.GetUser(ctx, campaign.CreatorID)

		if err != nil {
			errs = append(errs, fmt.Errorf("load campaign creator: %w", err))
		} else {
			receipt.CreatorName = creator.Name
			receipt.CreatorEmail = creator.Email
		}

		if receipt.DonorEmail != "" {
			if err := s.mailer.SendDonorThankYou(ctx, receipt); err != nil {
				errs = append(errs, err)
			}
		}

		if receipt.CreatorEmail != "" {
			if err := s.mailer.SendCreatorNotification(ctx, receipt); err != nil {
				errs = append(errs, err)
			}
		}

		return errors.Join(errs...)
	})
}
