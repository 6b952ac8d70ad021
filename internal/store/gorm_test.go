package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fundflow-dev/fundflow/db"
	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	gdb, err := db.ConnectDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	s := NewGormStore(gdb)

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func seedUser(t *testing.T, s Store, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "User " + email, Email: email, PasswordHash: "x", Role: models.RoleCreator, IsActive: true}

	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to seed user %s: %v", email, err)
	}

	return user
}

func seedCampaign(t *testing.T, s Store, creatorID, title string, status models.CampaignStatus) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		Title:       title,
		Description: "About " + title,
		Goal:        decimal.NewFromInt(1000),
		Deadline:    time.Now().UTC().Add(30 * 24 * time.Hour),
		CreatorID:   creatorID,
		Category:    "Tech",
		Images:      []string{},
		Updates:     []models.CampaignUpdate{},
		Status:      status,
	}

	if err := s.CreateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("Failed to seed campaign %s: %v", title, err)
	}

	return campaign
}

func donation(donorID, campaignID, paymentID string, amount int64, status models.PaymentStatus) *models.Donation {
	return &models.Donation{
		DonorID:    donorID,
		CampaignID: campaignID,
		Amount:     decimal.NewFromInt(amount),
		PaymentID:  paymentID,
		Status:     status,
	}
}

func TestUserEmailIsUnique(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "a@example.com")

	err := s.CreateUser(context.Background(), &models.User{Name: "Other", Email: "a@example.com", PasswordHash: "y", Role: models.RoleDonor})

	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want conflict", err)
	}

	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want not found", err)
	}
}

func TestListCampaigns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	creator := seedUser(t, s, "c@example.com")

	solar := seedCampaign(t, s, creator.ID, "Solar Panels", models.CampaignActive)
	seedCampaign(t, s, creator.ID, "School Books", models.CampaignActive)
	seedCampaign(t, s, creator.ID, "100% Clean Water", models.CampaignActive)
	seedCampaign(t, s, creator.ID, "Hidden Solar Farm", models.CampaignPending)

	if _, err := s.RecordDonation(ctx, donation(creator.ID, solar.ID, "pi_1", 250, models.PaymentCompleted)); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	tests := []struct {
		name      string
		query     CampaignQuery
		wantTotal int64
		wantFirst string
		wantCount int
	}{
		{
			name:      "Given active filter When listing Then pending campaigns are excluded",
			query:     CampaignQuery{Status: models.CampaignActive, SortDesc: true},
			wantTotal: 3,
			wantCount: 3,
			wantFirst: "100% Clean Water",
		},
		{
			name:      "Given a search term When listing Then matches title case-insensitively",
			query:     CampaignQuery{Status: models.CampaignActive, Search: "SOLAR"},
			wantTotal: 1,
			wantCount: 1,
			wantFirst: "Solar Panels",
		},
		{
			name:      "Given a search term When it matches the description Then the campaign is returned",
			query:     CampaignQuery{Search: "about school"},
			wantTotal: 1,
			wantCount: 1,
			wantFirst: "School Books",
		},
		{
			name:      "Given a wildcard character When searching Then it is matched literally",
			query:     CampaignQuery{Status: models.CampaignActive, Search: "100%"},
			wantTotal: 1,
			wantCount: 1,
			wantFirst: "100% Clean Water",
		},
		{
			name:      "Given raised amount sort When listing Then the funded campaign is first",
			query:     CampaignQuery{Status: models.CampaignActive, SortBy: SortRaisedAmount, SortDesc: true},
			wantTotal: 3,
			wantCount: 3,
			wantFirst: "Solar Panels",
		},
		{
			name:      "Given a page size When listing a later page Then total still counts everything",
			query:     CampaignQuery{Status: models.CampaignActive, SortDesc: true, Offset: 2, Limit: 2},
			wantTotal: 3,
			wantCount: 1,
			wantFirst: "Solar Panels",
		},
		{
			name:      "Given an unknown category When listing Then nothing matches",
			query:     CampaignQuery{Status: models.CampaignActive, Category: "Arts"},
			wantTotal: 0,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaigns, total, err := s.ListCampaigns(ctx, tt.query)
			if err != nil {
				t.Fatalf("ListCampaigns: %v", err)
			}

			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}

			if len(campaigns) != tt.wantCount {
				t.Fatalf("got %d campaigns, want %d", len(campaigns), tt.wantCount)
			}

			if tt.wantFirst != "" && campaigns[0].Title != tt.wantFirst {
				t.Errorf("first = %q, want %q", campaigns[0].Title, tt.wantFirst)
			}
		})
	}
}

func TestRecordDonationAppliesTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "d@example.com")
	campaign := seedCampaign(t, s, user.ID, "Ledger", models.CampaignActive)

	updated, err := s.RecordDonation(ctx, donation(user.ID, campaign.ID, "pi_a", 500, models.PaymentCompleted))
	if err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	if !updated.RaisedAmount.Equal(decimal.NewFromInt(500)) || updated.DonorsCount != 1 {
		t.Fatalf("totals = %s/%d, want 500/1", updated.RaisedAmount, updated.DonorsCount)
	}

	_, err = s.RecordDonation(ctx, donation(user.ID, campaign.ID, "pi_a", 500, models.PaymentCompleted))
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("duplicate payment id error = %v, want conflict", err)
	}

	_, err = s.RecordDonation(ctx, donation(user.ID, "no-such-campaign", "pi_b", 10, models.PaymentCompleted))
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing campaign error = %v, want not found", err)
	}

	count, _ := s.CountDonations(ctx)
	if count != 1 {
		t.Errorf("donation count = %d, failed inserts must roll back", count)
	}

	reloaded, _ := s.GetCampaign(ctx, campaign.ID)
	if !reloaded.RaisedAmount.Equal(decimal.NewFromInt(500)) || reloaded.DonorsCount != 1 {
		t.Errorf("totals changed by failed donations: %s/%d", reloaded.RaisedAmount, reloaded.DonorsCount)
	}

	// Cents must add up exactly even where the column is a binary float.
	fractional := seedCampaign(t, s, user.ID, "Cents", models.CampaignActive)
	amounts := []string{"0.10", "0.20", "0.07", "19.99", "0.01", "1234.56"}
	want := decimal.Zero

	for i, amount := range amounts {
		d := donation(user.ID, fractional.ID, fmt.Sprintf("pi_cents_%d", i), 0, models.PaymentCompleted)
		d.Amount = decimal.RequireFromString(amount)
		want = want.Add(d.Amount)

		updated, err := s.RecordDonation(ctx, d)
		if err != nil {
			t.Fatalf("RecordDonation(%s): %v", amount, err)
		}

		if !updated.RaisedAmount.Equal(want) {
			t.Fatalf("raised after %s = %s, want %s", amount, updated.RaisedAmount, want)
		}
	}

	if _, _, err := s.TransitionDonationStatus(ctx, "pi_cents_1", models.PaymentFailed); err != nil {
		t.Fatalf("TransitionDonationStatus: %v", err)
	}
	want = want.Sub(decimal.RequireFromString("0.20"))

	reloaded, _ = s.GetCampaign(ctx, fractional.ID)
	if !reloaded.RaisedAmount.Equal(want) || reloaded.DonorsCount != int64(len(amounts)-1) {
		t.Errorf("fractional totals = %s/%d, want %s/%d", reloaded.RaisedAmount, reloaded.DonorsCount, want, len(amounts)-1)
	}

	sum, err := s.SumCompletedDonations(ctx)
	if err != nil {
		t.Fatalf("SumCompletedDonations: %v", err)
	}

	if wantSum := want.Add(decimal.NewFromInt(500)); !sum.Equal(wantSum) {
		t.Errorf("completed sum = %s, want %s", sum, wantSum)
	}
}

func TestConcurrentDonationsDoNotLoseUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "e@example.com")
	campaign := seedCampaign(t, s, user.ID, "Concurrent", models.CampaignActive)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	for i, amount := range []int64{100, 200} {
		wg.Add(1)
		go func(i int, amount int64) {
			defer wg.Done()
			_, err := s.RecordDonation(ctx, donation(user.ID, campaign.ID, fmt.Sprintf("pi_%d", i), amount, models.PaymentCompleted))
			errs <- err
		}(i, amount)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecordDonation: %v", err)
		}
	}

	reloaded, _ := s.GetCampaign(ctx, campaign.ID)
	if !reloaded.RaisedAmount.Equal(decimal.NewFromInt(300)) || reloaded.DonorsCount != 2 {
		t.Errorf("totals = %s/%d, want 300/2", reloaded.RaisedAmount, reloaded.DonorsCount)
	}
}

func TestTransitionDonationStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "f@example.com")
	campaign := seedCampaign(t, s, user.ID, "Transitions", models.CampaignActive)

	if _, err := s.RecordDonation(ctx, donation(user.ID, campaign.ID, "pi_p", 40, models.PaymentPending)); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	steps := []struct {
		to          models.PaymentStatus
		wantRaised  int64
		wantDonors  int64
		wantChanged bool
	}{
		{models.PaymentCompleted, 40, 1, true},
		{models.PaymentCompleted, 40, 1, false},
		{models.PaymentFailed, 0, 0, true},
		{models.PaymentPending, 0, 0, false},
		{models.PaymentCompleted, 40, 1, true},
	}

	for i, step := range steps {
		d, c, err := s.TransitionDonationStatus(ctx, "pi_p", step.to)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		if d.Status != step.to {
			t.Errorf("step %d: status = %s, want %s", i, d.Status, step.to)
		}

		if (c != nil) != step.wantChanged {
			t.Errorf("step %d: campaign changed = %v, want %v", i, c != nil, step.wantChanged)
		}

		reloaded, _ := s.GetCampaign(ctx, campaign.ID)
		if !reloaded.RaisedAmount.Equal(decimal.NewFromInt(step.wantRaised)) || reloaded.DonorsCount != step.wantDonors {
			t.Errorf("step %d: totals = %s/%d, want %d/%d", i, reloaded.RaisedAmount, reloaded.DonorsCount, step.wantRaised, step.wantDonors)
		}
	}

	if _, _, err := s.TransitionDonationStatus(ctx, "pi_missing", models.PaymentCompleted); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing donation error = %v, want not found", err)
	}
}

func TestTransitionCampaignStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "g@example.com")
	campaign := seedCampaign(t, s, user.ID, "Moderated", models.CampaignPending)

	updated, err := s.TransitionCampaignStatus(ctx, campaign.ID, models.CampaignPending, models.CampaignActive)
	if err != nil {
		t.Fatalf("TransitionCampaignStatus: %v", err)
	}

	if updated.Status != models.CampaignActive {
		t.Errorf("status = %s", updated.Status)
	}

	_, err = s.TransitionCampaignStatus(ctx, campaign.ID, models.CampaignPending, models.CampaignActive)
	if !errors.Is(err, types.ErrConflict) {
		t.Errorf("stale transition error = %v, want conflict", err)
	}

	_, err = s.TransitionCampaignStatus(ctx, "missing", models.CampaignPending, models.CampaignActive)
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing campaign error = %v, want not found", err)
	}
}

func TestCompleteExpiredCampaigns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "h@example.com")
	now := time.Now().UTC()

	live := seedCampaign(t, s, user.ID, "Live", models.CampaignActive)
	expired := seedCampaign(t, s, user.ID, "Expired", models.CampaignActive)
	pending := seedCampaign(t, s, user.ID, "Pending", models.CampaignPending)

	for _, c := range []*models.Campaign{expired, pending} {
		if err := s.DB().Model(&models.Campaign{}).Where("id = ?", c.ID).Update("deadline", now.Add(-time.Hour)).Error; err != nil {
			t.Fatalf("Failed to backdate %s: %v", c.Title, err)
		}
	}

	n, err := s.CompleteExpiredCampaigns(ctx, now)
	if err != nil {
		t.Fatalf("CompleteExpiredCampaigns: %v", err)
	}

	if n != 1 {
		t.Errorf("completed %d campaigns, want 1", n)
	}

	want := map[string]models.CampaignStatus{
		live.ID:    models.CampaignActive,
		expired.ID: models.CampaignCompleted,
		pending.ID: models.CampaignPending,
	}

	for id, status := range want {
		got, _ := s.GetCampaign(ctx, id)
		if got.Status != status {
			t.Errorf("%s status = %s, want %s", got.Title, got.Status, status)
		}
	}

	if n, _ := s.CompleteExpiredCampaigns(ctx, now); n != 0 {
		t.Errorf("second sweep completed %d campaigns", n)
	}
}

func TestUpdatesAndAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "i@example.com")
	campaign := seedCampaign(t, s, user.ID, "Original", models.CampaignActive)

	title := "Renamed"
	images := []string{"a.png", "b.png"}

	updated, err := s.UpdateCampaign(ctx, campaign.ID, CampaignPatch{Title: &title, Images: &images})
	if err != nil {
		t.Fatalf("UpdateCampaign: %v", err)
	}

	if updated.Title != "Renamed" || len(updated.Images) != 2 || updated.Images[0] != "a.png" {
		t.Errorf("patch not applied: %+v", updated)
	}

	withPost, err := s.AppendCampaignUpdate(ctx, campaign.ID, models.CampaignUpdate{Title: "Week 1", Content: "Going well", Date: time.Now()})
	if err != nil {
		t.Fatalf("AppendCampaignUpdate: %v", err)
	}

	if len(withPost.Updates) != 1 || withPost.Updates[0].Title != "Week 1" {
		t.Errorf("update post not stored: %+v", withPost.Updates)
	}

	for i, status := range []models.PaymentStatus{models.PaymentCompleted, models.PaymentCompleted, models.PaymentFailed} {
		if _, err := s.RecordDonation(ctx, donation(user.ID, campaign.ID, fmt.Sprintf("pi_sum_%d", i), 25, status)); err != nil {
			t.Fatalf("RecordDonation: %v", err)
		}
	}

	sum, err := s.SumCompletedDonations(ctx)
	if err != nil {
		t.Fatalf("SumCompletedDonations: %v", err)
	}

	if !sum.Equal(decimal.NewFromInt(50)) {
		t.Errorf("sum = %s, want 50", sum)
	}

	recent, _ := s.ListDonations(ctx, DonationQuery{CampaignID: campaign.ID, Limit: 2})
	if len(recent) != 2 || recent[0].PaymentID != "pi_sum_2" {
		t.Errorf("recent donations not newest first: %+v", recent)
	}

	pic := "me.png"
	profile, err := s.UpdateProfile(ctx, user.ID, ProfilePatch{ProfilePic: &pic, SocialLinks: &models.SocialLinks{Twitter: "@me"}})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if profile.ProfilePic != "me.png" || profile.SocialLinks.Twitter != "@me" || profile.Name != user.Name {
		t.Errorf("profile patch not applied: %+v", profile)
	}
}

func TestEmptySumIsZero(t *testing.T) {
	s := newTestStore(t)

	sum, err := s.SumCompletedDonations(context.Background())
	if err != nil {
		t.Fatalf("SumCompletedDonations: %v", err)
	}

	if !sum.IsZero() {
		t.Errorf("sum = %s, want 0", sum)
	}
}
