// Package store persists users, campaigns, donations and comments.
//
// Two implementations exist: GormStore for SQL databases and MongoStore for
// MongoDB. Both keep the ledger invariant the same way: a donation insert and
// the matching campaign increment commit together, and status transitions only
// move the aggregates when they cross the completed boundary.
package store

import (
	"context"
	"time"

	"github.com/fundflow-dev/fundflow/db"
	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/shopspring/decimal"
)

type SortField string

const (
	SortCreatedAt    SortField = "created_at"
	SortRaisedAmount SortField = "raised_amount"
	SortDeadline     SortField = "deadline"
)

type CampaignQuery struct {
	Status    models.CampaignStatus
	CreatorID string
	Category  models.Category
	Search    string
	SortBy    SortField
	SortDesc  bool
	Offset    int
	Limit     int
}

type DonationQuery struct {
	CampaignID string
	DonorID    string
	Limit      int
}

// CampaignPatch holds the editorial fields a creator may change.
type CampaignPatch struct {
	Title            *string
	Description      *string
	ShortDescription *string
	Images           *[]string
	Category         *models.Category
}

func (p CampaignPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.ShortDescription == nil && p.Images == nil && p.Category == nil
}

type ProfilePatch struct {
	Name        *string
	Bio         *string
	SocialLinks *models.SocialLinks
	ProfilePic  *string
}

type Store interface {
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	GetCampaigns(ctx context.Context, ids []string) (map[string]models.Campaign, error)
	ListCampaigns(ctx context.Context, q CampaignQuery) ([]models.Campaign, int64, error)
	UpdateCampaign(ctx context.Context, id string, patch CampaignPatch) (*models.Campaign, error)
	AppendCampaignUpdate(ctx context.Context, id string, update models.CampaignUpdate) (*models.Campaign, error)
	TransitionCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) (*models.Campaign, error)
	CompleteExpiredCampaigns(ctx context.Context, now time.Time) (int64, error)
	CountCampaigns(ctx context.Context) (int64, error)

	// RecordDonation inserts the donation and, when it is completed, applies
	// it to the campaign aggregates as one unit. It returns the campaign as it
	// stands afterwards.
	RecordDonation(ctx context.Context, donation *models.Donation) (*models.Campaign, error)
	// TransitionDonationStatus moves a donation to a new status. The returned
	// campaign is nil when the aggregates did not change.
	TransitionDonationStatus(ctx context.Context, paymentID string, to models.PaymentStatus) (*models.Donation, *models.Campaign, error)
	GetDonationByPaymentID(ctx context.Context, paymentID string) (*models.Donation, error)
	ListDonations(ctx context.Context, q DonationQuery) ([]models.Donation, error)
	CountDonations(ctx context.Context) (int64, error)
	SumCompletedDonations(ctx context.Context) (decimal.Decimal, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, campaignID string) ([]models.Comment, error)
}

// LedgerDelta is what a status transition does to the campaign aggregates:
// entering completed adds the donation, leaving it takes the donation back.
func LedgerDelta(from, to models.PaymentStatus, amount decimal.Decimal) (decimal.Decimal, int64) {
	switch {
	case from != models.PaymentCompleted && to == models.PaymentCompleted:
		return amount, 1
	case from == models.PaymentCompleted && to != models.PaymentCompleted:
		return amount.Neg(), -1
	}

	return decimal.Zero, 0
}

// Open picks the implementation from the database URL scheme.
func Open(ctx context.Context, databaseURL, mongoDatabase string) (Store, error) {
	dialect, err := db.DialectOf(databaseURL)

	if err != nil {
		return nil, err
	}

	if dialect == db.Mongo {
		return NewMongoStore(ctx, databaseURL, mongoDatabase)
	}

	gdb, err := db.ConnectDatabase(databaseURL)

	if err != nil {
		return nil, err
	}

	return NewGormStore(gdb), nil
}
