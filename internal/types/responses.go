package types

import (
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/shopspring/decimal"
)

type UserResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        models.Role        `json:"role"`
	ProfilePic  string             `json:"profile_pic"`
	Bio         string             `json:"bio"`
	SocialLinks models.SocialLinks `json:"social_links"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		ProfilePic:  user.ProfilePic,
		Bio:         user.Bio,
		SocialLinks: user.SocialLinks,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// UserSummary is the slice of a user embedded in campaigns, donations and comments.
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CampaignResponse struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	ShortDescription string                  `json:"short_description"`
	Goal             decimal.Decimal         `json:"goal"`
	RaisedAmount     decimal.Decimal         `json:"raised_amount"`
	DonorsCount      int64                   `json:"donors_count"`
	Deadline         time.Time               `json:"deadline"`
	DaysLeft         int                     `json:"days_left"`
	Progress         float64                 `json:"progress"`
	Category         models.Category         `json:"category"`
	Images           []string                `json:"images"`
	Status           models.CampaignStatus   `json:"status"`
	Updates          []models.CampaignUpdate `json:"updates"`
	CreatorID        string                  `json:"creator_id"`
	Creator          *UserSummary            `json:"creator,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func NewCampaignResponse(campaign *models.Campaign, creator *UserSummary, now time.Time) CampaignResponse {
	images := []string(campaign.Images)
	if images == nil {
		images = []string{}
	}

	updates := []models.CampaignUpdate(campaign.Updates)
	if updates == nil {
		updates = []models.CampaignUpdate{}
	}

	return CampaignResponse{
		ID:               campaign.ID,
		Title:            campaign.Title,
		Description:      campaign.Description,
		ShortDescription: campaign.ShortDescription,
		Goal:             campaign.Goal,
		RaisedAmount:     campaign.RaisedAmount,
		DonorsCount:      campaign.DonorsCount,
		Deadline:         campaign.Deadline,
		DaysLeft:         campaign.DaysLeft(now),
		Progress:         campaign.Progress(),
		Category:         campaign.Category,
		Images:           images,
		Status:           campaign.Status,
		Updates:          updates,
		CreatorID:        campaign.CreatorID,
		Creator:          creator,
		CreatedAt:        campaign.CreatedAt,
		UpdatedAt:        campaign.UpdatedAt,
	}
}

type CampaignSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images,omitempty"`
}

type CampaignList struct {
	Campaigns   []CampaignResponse `json:"campaigns"`
	Total       int64              `json:"total"`
	TotalPages  int                `json:"total_pages"`
	CurrentPage int                `json:"current_page"`
}

type DonationResponse struct {
	ID         string               `json:"id"`
	CampaignID string               `json:"campaign_id"`
	Campaign   *CampaignSummary     `json:"campaign,omitempty"`
	DonorID    string               `json:"donor_id,omitempty"`
	Donor      *UserSummary         `json:"donor,omitempty"`
	Amount     decimal.Decimal      `json:"amount"`
	Anonymous  bool                 `json:"anonymous"`
	Message    string               `json:"message"`
	PaymentID  string               `json:"payment_id"`
	Status     models.PaymentStatus `json:"payment_status"`
	Date       time.Time            `json:"date"`
}

func NewDonationResponse(donation *models.Donation) DonationResponse {
	return DonationResponse{
		ID:         donation.ID,
		CampaignID: donation.CampaignID,
		DonorID:    donation.DonorID,
		Amount:     donation.Amount,
		Anonymous:  donation.Anonymous,
		Message:    donation.Message,
		PaymentID:  donation.PaymentID,
		Status:     donation.Status,
		Date:       donation.CreatedAt,
	}
}

type CampaignDetail struct {
	Campaign  CampaignResponse   `json:"campaign"`
	Donations []DonationResponse `json:"donations"`
}

type CommentResponse struct {
	ID         string       `json:"id"`
	CampaignID string       `json:"campaign_id"`
	Text       string       `json:"text"`
	User       *UserSummary `json:"user,omitempty"`
	Date       time.Time    `json:"date"`
}

type ProfileResponse struct {
	User      UserResponse       `json:"user"`
	Campaigns []CampaignResponse `json:"campaigns"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type DashboardStats struct {
	TotalUsers      int64              `json:"total_users"`
	TotalCampaigns  int64              `json:"total_campaigns"`
	TotalDonations  int64              `json:"total_donations"`
	TotalRaised     decimal.Decimal    `json:"total_raised"`
	RecentDonations []DonationResponse `json:"recent_donations"`
}
