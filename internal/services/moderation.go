package services

import (
	"context"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
)

const RecentDonationsLimit = 10

// campaignTransitions lists the moves an administrator may make. completed
// is reached only through the deadline sweeper.
var campaignTransitions = map[models.CampaignStatus][]models.CampaignStatus{
	models.CampaignPending:   {models.CampaignActive},
	models.CampaignActive:    {models.CampaignSuspended},
	models.CampaignSuspended: {models.CampaignActive},
}

func CanTransition(from, to models.CampaignStatus) bool {
	for _, allowed := range campaignTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type ModerationService struct {
	store store.Store
	now   func() time.Time
}

func NewModerationService(s store.Store) *ModerationService {
	return &ModerationService{store: s, now: time.Now}
}

func (s *ModerationService) ListAllUsers(ctx context.Context) ([]types.UserResponse, error) {
	users, err := s.store.ListUsers(ctx)

	if err != nil {
		return nil, err
	}

	responses := make([]types.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, types.NewUserResponse(&users[i]))
	}

	return responses, nil
}

// SetUserActive toggles the account flag. Campaigns and donations of the
// user are left as they are.
func (s *ModerationService) SetUserActive(ctx context.Context, userID string, active bool) (*types.UserResponse, error) {
	user, err := s.store.SetUserActive(ctx, userID, active)

	if err != nil {
		return nil, err
	}

	response := types.NewUserResponse(user)
	return &response, nil
}

func (s *ModerationService) ListAllCampaigns(ctx context.Context) ([]types.CampaignResponse, error) {
	campaigns, _, err := s.store.ListCampaigns(ctx, store.CampaignQuery{SortDesc: true})

	if err != nil {
		return nil, err
	}

	return attachCreators(ctx, s.store, campaigns, true, s.now())
}

func (s *ModerationService) SetCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (*types.CampaignResponse, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)

	if err != nil {
		return nil, err
	}

	if !CanTransition(campaign.Status, status) {
		return nil, types.Validation("Cannot change campaign status from %s to %s", campaign.Status, status)
	}

	updated, err := s.store.TransitionCampaignStatus(ctx, campaignID, campaign.Status, status)

	if err != nil {
		return nil, err
	}

	responses, err := attachCreators(ctx, s.store, []models.Campaign{*updated}, true, s.now())

	if err != nil {
		return nil, err
	}

	return &responses[0], nil
}

func (s *ModerationService) DashboardStats(ctx context.Context) (*types.DashboardStats, error) {
	var (
		stats types.DashboardStats
		err   error
	)

	if stats.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return nil, err
	}

	if stats.TotalCampaigns, err = s.store.CountCampaigns(ctx); err != nil {
		return nil, err
	}

	if stats.TotalDonations, err = s.store.CountDonations(ctx); err != nil {
		return nil, err
	}

	if stats.TotalRaised, err = s.store.SumCompletedDonations(ctx); err != nil {
		return nil, err
	}

	recent, err := s.store.ListDonations(ctx, store.DonationQuery{Limit: RecentDonationsLimit})

	if err != nil {
		return nil, err
	}

	donorIDs := make([]string, 0, len(recent))
	campaignIDs := make([]string, 0, len(recent))

	for _, donation := range recent {
		donorIDs = append(donorIDs, donation.DonorID)
		campaignIDs = append(campaignIDs, donation.CampaignID)
	}

	donors, err := s.store.GetUsers(ctx, donorIDs)

	if err != nil {
		return nil, err
	}

	campaigns, err := s.store.GetCampaigns(ctx, campaignIDs)

	if err != nil {
		return nil, err
	}

	stats.RecentDonations = make([]types.DonationResponse, 0, len(recent))

	for i := range recent {
		response := types.NewDonationResponse(&recent[i])

		if donor, ok := donors[recent[i].DonorID]; ok {
			response.Donor = &types.UserSummary{ID: donor.ID, Name: donor.Name}
		}

		if campaign, ok := campaigns[recent[i].CampaignID]; ok {
			response.Campaign = &types.CampaignSummary{ID: campaign.ID, Title: campaign.Title}
		}

		stats.RecentDonations = append(stats.RecentDonations, response)
	}

	return &stats, nil
}
