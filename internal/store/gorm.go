package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fundflow-dev/fundflow/db"
	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()

	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()

	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return db.MigrateDatabase(s.db.WithContext(ctx))
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, "User")
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "User")
	}

	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "User")
	}

	return &user, nil
}

func (s *GormStore) GetUsers(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "User")
	}

	for _, user := range users {
		result[user.ID] = user
	}

	return result, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, translate(err, "User")
	}

	return users, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		if patch.Name != nil {
			user.Name = *patch.Name
		}

		if patch.Bio != nil {
			user.Bio = *patch.Bio
		}

		if patch.SocialLinks != nil {
			user.SocialLinks = *patch.SocialLinks
		}

		if patch.ProfilePic != nil {
			user.ProfilePic = *patch.ProfilePic
		}

		return tx.Select("name", "bio", "social_links", "profile_pic", "updated_at").Save(&user).Error
	})

	if err != nil {
		return nil, translate(err, "User")
	}

	return &user, nil
}

func (s *GormStore) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)

	if res.Error != nil {
		return nil, translate(res.Error, "User")
	}

	if res.RowsAffected == 0 {
		return nil, types.NotFound("User not found")
	}

	return s.GetUser(ctx, id)
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, translate(err, "User")
}

func (s *GormStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return translate(s.db.WithContext(ctx).Create(campaign).Error, "Campaign")
}

func (s *GormStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error; err != nil {
		return nil, translate(err, "Campaign")
	}

	return &campaign, nil
}

func (s *GormStore) GetCampaigns(ctx context.Context, ids []string) (map[string]models.Campaign, error) {
	result := make(map[string]models.Campaign, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	var campaigns []models.Campaign

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&campaigns).Error; err != nil {
		return nil, translate(err, "Campaign")
	}

	for _, campaign := range campaigns {
		result[campaign.ID] = campaign
	}

	return result, nil
}

func (s *GormStore) ListCampaigns(ctx context.Context, q CampaignQuery) ([]models.Campaign, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if q.Status != "" {
			tx = tx.Where("status = ?", q.Status)
		}

		if q.CreatorID != "" {
			tx = tx.Where("creator_id = ?", q.CreatorID)
		}

		if q.Category != "" {
			tx = tx.Where("category = ?", q.Category)
		}

		if q.Search != "" {
			pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
			tx = tx.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", pattern, pattern)
		}

		return tx
	}

	var total int64

	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Campaign")
	}

	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	query := s.db.WithContext(ctx).Scopes(filter).
		Order(fmt.Sprintf("%s %s, id %s", sortColumn(q.SortBy), direction, direction)).
		Offset(q.Offset)

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var campaigns []models.Campaign

	if err := query.Find(&campaigns).Error; err != nil {
		return nil, 0, translate(err, "Campaign")
	}

	return campaigns, total, nil
}

func (s *GormStore) UpdateCampaign(ctx context.Context, id string, patch CampaignPatch) (*models.Campaign, error) {
	updates := map[string]interface{}{}

	if patch.Title != nil {
		updates["title"] = *patch.Title
	}

	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	if patch.ShortDescription != nil {
		updates["short_description"] = *patch.ShortDescription
	}

	if patch.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](*patch.Images)
	}

	if patch.Category != nil {
		updates["category"] = *patch.Category
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).Updates(updates)

		if res.Error != nil {
			return nil, translate(res.Error, "Campaign")
		}

		if res.RowsAffected == 0 {
			return nil, types.NotFound("Campaign not found")
		}
	}

	return s.GetCampaign(ctx, id)
}

func (s *GormStore) AppendCampaignUpdate(ctx context.Context, id string, update models.CampaignUpdate) (*models.Campaign, error) {
	var campaign models.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&campaign).Error; err != nil {
			return err
		}

		campaign.Updates = append(campaign.Updates, update)

		return tx.Model(&campaign).Update("updates", campaign.Updates).Error
	})

	if err != nil {
		return nil, translate(err, "Campaign")
	}

	return &campaign, nil
}

func (s *GormStore) TransitionCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) (*models.Campaign, error) {
	res := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if res.Error != nil {
		return nil, translate(res.Error, "Campaign")
	}

	if res.RowsAffected == 0 {
		if _, err := s.GetCampaign(ctx, id); err != nil {
			return nil, err
		}

		return nil, types.Conflict("Campaign status changed concurrently")
	}

	return s.GetCampaign(ctx, id)
}

func (s *GormStore) CompleteExpiredCampaigns(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ? AND deadline < ?", models.CampaignActive, now.UTC()).
		Update("status", models.CampaignCompleted)

	return res.RowsAffected, translate(res.Error, "Campaign")
}

func (s *GormStore) CountCampaigns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Campaign{}).Count(&count).Error
	return count, translate(err, "Campaign")
}

func (s *GormStore) RecordDonation(ctx context.Context, donation *models.Donation) (*models.Campaign, error) {
	var campaign models.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(donation).Error; err != nil {
			return translate(err, "Donation")
		}

		if donation.Status == models.PaymentCompleted {
			if err := applyDelta(tx, donation.CampaignID, donation.Amount, 1); err != nil {
				return err
			}
		}

		return tx.Where("id = ?", donation.CampaignID).First(&campaign).Error
	})

	if err != nil {
		return nil, translate(err, "Campaign")
	}

	return &campaign, nil
}

func (s *GormStore) TransitionDonationStatus(ctx context.Context, paymentID string, to models.PaymentStatus) (*models.Donation, *models.Campaign, error) {
	var donation models.Donation
	var campaign *models.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", paymentID).First(&donation).Error; err != nil {
			return translate(err, "Donation")
		}

		from := donation.Status

		if from == to {
			return nil
		}

		res := tx.Model(&models.Donation{}).
			Where("id = ? AND payment_status = ?", donation.ID, from).
			Update("payment_status", to)

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return types.Conflict("Donation status changed concurrently")
		}

		donation.Status = to

		amount, count := LedgerDelta(from, to, donation.Amount)

		if count == 0 {
			return nil
		}

		if err := applyDelta(tx, donation.CampaignID, amount, count); err != nil {
			return err
		}

		campaign = &models.Campaign{}

		return tx.Where("id = ?", donation.CampaignID).First(campaign).Error
	})

	if err != nil {
		return nil, nil, translate(err, "Campaign")
	}

	return &donation, campaign, nil
}

// applyDelta increments in SQL so concurrent donations never lose updates.
// SQLite keeps decimal columns as binary floats, so the sum is rounded back to
// cents on every step.
func applyDelta(tx *gorm.DB, campaignID string, amount decimal.Decimal, count int64) error {
	res := tx.Model(&models.Campaign{}).Where("id = ?", campaignID).Updates(map[string]interface{}{
		"raised_amount": gorm.Expr("ROUND(raised_amount + ?, 2)", amount.Round(2)),
		"donors_count":  gorm.Expr("donors_count + ?", count),
	})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return types.NotFound("Campaign not found")
	}

	return nil
}

func (s *GormStore) GetDonationByPaymentID(ctx context.Context, paymentID string) (*models.Donation, error) {
	var donation models.Donation

	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&donation).Error; err != nil {
		return nil, translate(err, "Donation")
	}

	return &donation, nil
}

func (s *GormStore) ListDonations(ctx context.Context, q DonationQuery) ([]models.Donation, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")

	if q.CampaignID != "" {
		query = query.Where("campaign_id = ?", q.CampaignID)
	}

	if q.DonorID != "" {
		query = query.Where("donor_id = ?", q.DonorID)
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var donations []models.Donation

	if err := query.Find(&donations).Error; err != nil {
		return nil, translate(err, "Donation")
	}

	return donations, nil
}

func (s *GormStore) CountDonations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Donation{}).Count(&count).Error
	return count, translate(err, "Donation")
}

func (s *GormStore) SumCompletedDonations(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal

	err := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("payment_status = ?", models.PaymentCompleted).
		Select("ROUND(SUM(amount), 2)").
		Row().
		Scan(&total)

	if err != nil {
		return decimal.Zero, translate(err, "Donation")
	}

	if !total.Valid {
		return decimal.Zero, nil
	}

	return total.Decimal, nil
}

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error, "Comment")
}

func (s *GormStore) ListComments(ctx context.Context, campaignID string) ([]models.Comment, error) {
	var comments []models.Comment

	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error

	return comments, translate(err, "Comment")
}

func sortColumn(field SortField) string {
	switch field {
	case SortRaisedAmount, SortDeadline:
		return string(field)
	default:
		return string(SortCreatedAt)
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
