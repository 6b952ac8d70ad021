package models

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentCompleted, PaymentPending, PaymentFailed:
		return true
	}
	return false
}

const MaxDonationMessage = 500

type Donation struct {
	BaseModel `bson:",inline"`

	DonorID    string          `gorm:"type:varchar(26);not null;index" bson:"donor_id"`
	CampaignID string          `gorm:"type:varchar(26);not null;index" bson:"campaign_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" bson:"amount"`
	Anonymous  bool            `gorm:"not null;default:false" bson:"anonymous"`
	Message    string          `gorm:"size:500" bson:"message"`
	PaymentID  string          `gorm:"uniqueIndex;not null" bson:"payment_id"`
	Status     PaymentStatus   `gorm:"column:payment_status;type:varchar(16);not null;index" bson:"payment_status"`
}
