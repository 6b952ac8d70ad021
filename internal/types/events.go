package types

import (
	"io"

	"github.com/shopspring/decimal"
)

// PaymentIntent is what the payment processor hands back for a new charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// DonationReceipt carries everything the donor and creator emails need.
type DonationReceipt struct {
	DonorName     string
	DonorEmail    string
	CreatorName   string
	CreatorEmail  string
	CampaignID    string
	CampaignTitle string
	CampaignURL   string
	Amount        decimal.Decimal
	Message       string
	Anonymous     bool
}

// CampaignAlert is posted to the moderation webhooks when a campaign awaits review.
type CampaignAlert struct {
	CampaignID   string
	Title        string
	Category     string
	Goal         decimal.Decimal
	CreatorName  string
	CreatorEmail string
	Deadline     string
}

const ProgressEventType = "progress"

// ProgressEvent is pushed to websocket subscribers of a campaign.
type ProgressEvent struct {
	Type         string          `json:"type"`
	CampaignID   string          `json:"campaign_id"`
	RaisedAmount decimal.Decimal `json:"raised_amount"`
	DonorsCount  int64           `json:"donors_count"`
	Progress     float64         `json:"progress"`
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
