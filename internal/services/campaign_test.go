package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
)

func TestCreateCampaignValidation(t *testing.T) {
	env := newTestEnv(t)
	creator, _ := env.register(t, "Creator", models.RoleCreator)
	donor, _ := env.register(t, "Donor", models.RoleDonor)

	valid := func() CreateCampaignInput {
		return CreateCampaignInput{
			Title:       "Books",
			Description: "Books for the library",
			Goal:        decimal.NewFromInt(1000),
			Deadline:    time.Now().Add(24 * time.Hour),
			Category:    "Education",
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateCampaignInput)
	}{
		{"zero goal", func(in *CreateCampaignInput) { in.Goal = decimal.Zero }},
		{"negative goal", func(in *CreateCampaignInput) { in.Goal = decimal.NewFromInt(-5) }},
		{"goal below a cent", func(in *CreateCampaignInput) { in.Goal = decimal.RequireFromString("0.001") }},
		{"past deadline", func(in *CreateCampaignInput) { in.Deadline = time.Now().Add(-time.Hour) }},
		{"missing title", func(in *CreateCampaignInput) { in.Title = "  " }},
		{"unknown category", func(in *CreateCampaignInput) { in.Category = "Sports" }},
		{"long short description", func(in *CreateCampaignInput) { in.ShortDescription = strings.Repeat("x", 201) }},
		{"too many images", func(in *CreateCampaignInput) { in.ImageURLs = []string{"1", "2", "3", "4", "5", "6"} }},
		{"non image upload", func(in *CreateCampaignInput) {
			in.Uploads = []types.Upload{{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			_, err := env.campaigns.Create(context.Background(), creator, in)
			assertKind(t, err, types.ErrValidation)
		})
	}

	_, err := env.campaigns.Create(context.Background(), donor, valid())
	assertKind(t, err, types.ErrAuthorization)

	campaign, err := env.campaigns.Create(context.Background(), creator, valid())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if campaign.Status != models.CampaignPending || !campaign.RaisedAmount.IsZero() || campaign.DonorsCount != 0 {
		t.Errorf("new campaign = %+v", campaign)
	}
}

func TestCreateCampaignStoresImagesInOrderAndAlerts(t *testing.T) {
	env := newTestEnv(t)
	creator, _ := env.register(t, "Maker", models.RoleCreator)

	campaign, err := env.campaigns.Create(context.Background(), creator, CreateCampaignInput{
		Title:       "Gallery",
		Description: "Pictures",
		Goal:        decimal.NewFromInt(50),
		Deadline:    time.Now().Add(48 * time.Hour),
		Category:    "Arts",
		Uploads: []types.Upload{
			{Filename: "first.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("abc")},
			{Filename: "second.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("def")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{"/uploads/campaigns/first.png", "/uploads/campaigns/second.jpg"}

	if len(campaign.Images) != 2 || campaign.Images[0] != want[0] || campaign.Images[1] != want[1] {
		t.Errorf("images = %v, want %v", campaign.Images, want)
	}

	env.dispatcher.Wait()

	if len(env.alerter.alerts) != 1 || env.alerter.alerts[0].CampaignID != campaign.ID {
		t.Errorf("alerts = %+v", env.alerter.alerts)
	}
}

func TestPublicVisibilityFollowsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Owner", models.RoleCreator)
	donor, _ := env.register(t, "Giver", models.RoleDonor)

	campaign := env.createCampaign(t, creator, "Visible Later", 1000)

	assertHidden := func(stage string) {
		t.Helper()

		list, err := env.campaigns.ListPublic(ctx, CampaignFilter{})
		if err != nil {
			t.Fatalf("%s: ListPublic: %v", stage, err)
		}

		if list.Total != 0 {
			t.Errorf("%s: campaign listed publicly", stage)
		}

		_, err = env.campaigns.GetPublicDetail(ctx, campaign.ID)
		assertKind(t, err, types.ErrNotFound)
	}

	assertHidden("pending")

	env.activate(t, campaign.ID)

	list, err := env.campaigns.ListPublic(ctx, CampaignFilter{})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}

	if list.Total != 1 || list.Campaigns[0].ID != campaign.ID || list.Campaigns[0].Creator == nil {
		t.Fatalf("active campaign not listed with creator: %+v", list)
	}

	if _, err := env.ledger.RecordDonation(ctx, donor.ID, DonationInput{CampaignID: campaign.ID, Amount: decimal.NewFromInt(20), PaymentID: "pi_vis"}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	if _, err := env.moderation.SetCampaignStatus(ctx, campaign.ID, models.CampaignSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	assertHidden("suspended")

	donations, err := env.ledger.ListByDonor(ctx, donor, donor.ID)
	if err != nil {
		t.Fatalf("ListByDonor: %v", err)
	}

	if len(donations) != 1 {
		t.Errorf("suspension removed donations: %d left", len(donations))
	}

	env.activate(t, campaign.ID)

	if _, err := env.store.CompleteExpiredCampaigns(ctx, time.Now().UTC().Add(60*24*time.Hour)); err != nil {
		t.Fatalf("CompleteExpiredCampaigns: %v", err)
	}

	assertHidden("completed")
}

func TestListPublicPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Pager", models.RoleCreator)

	for i := 0; i < 5; i++ {
		c := env.createCampaign(t, creator, "Campaign "+string(rune('A'+i)), 100)
		env.activate(t, c.ID)
	}

	list, err := env.campaigns.ListPublic(ctx, CampaignFilter{Page: 2, Limit: 2, SortOrder: "asc"})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}

	if list.Total != 5 || list.TotalPages != 3 || list.CurrentPage != 2 || len(list.Campaigns) != 2 {
		t.Fatalf("page = %+v", list)
	}

	if list.Campaigns[0].Title != "Campaign C" {
		t.Errorf("first on page 2 = %s, want Campaign C", list.Campaigns[0].Title)
	}

	list, err = env.campaigns.ListPublic(ctx, CampaignFilter{Category: "All", Search: "campaign e"})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}

	if list.Total != 1 || list.Campaigns[0].Title != "Campaign E" {
		t.Errorf("search = %+v", list)
	}

	for _, f := range []CampaignFilter{{SortBy: "goal"}, {SortOrder: "sideways"}, {Category: "Sports"}} {
		_, err := env.campaigns.ListPublic(ctx, f)
		assertKind(t, err, types.ErrValidation)
	}
}

func TestDetailHidesAnonymousDonors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Host", models.RoleCreator)
	named, _ := env.register(t, "Named", models.RoleDonor)
	shy, _ := env.register(t, "Shy", models.RoleDonor)

	campaign := env.createCampaign(t, creator, "Shelter", 1000)
	env.activate(t, campaign.ID)

	inputs := []struct {
		donor     *models.User
		paymentID string
		anonymous bool
	}{
		{named, "pi_named", false},
		{shy, "pi_shy", true},
	}

	for _, in := range inputs {
		_, err := env.ledger.RecordDonation(ctx, in.donor.ID, DonationInput{
			CampaignID: campaign.ID,
			Amount:     decimal.NewFromInt(10),
			PaymentID:  in.paymentID,
			Anonymous:  in.anonymous,
		})
		if err != nil {
			t.Fatalf("RecordDonation: %v", err)
		}
	}

	detail, err := env.campaigns.GetPublicDetail(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetPublicDetail: %v", err)
	}

	if len(detail.Donations) != 2 {
		t.Fatalf("donations = %d, want 2", len(detail.Donations))
	}

	newest := detail.Donations[0]
	if !newest.Anonymous || newest.Donor != nil || newest.DonorID != "" {
		t.Errorf("anonymous donor revealed: %+v", newest)
	}

	if detail.Donations[1].Donor == nil || detail.Donations[1].Donor.Name != "Named" {
		t.Errorf("named donor missing: %+v", detail.Donations[1])
	}
}

func TestUpdateCampaignAllowList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Editor", models.RoleCreator)
	other, _ := env.register(t, "Other", models.RoleCreator)

	campaign := env.createCampaign(t, creator, "Draft", 500)

	raw := func(s string) map[string]json.RawMessage {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &fields); err != nil {
			t.Fatalf("bad fixture %s: %v", s, err)
		}
		return fields
	}

	rejected := []string{
		`{"raised_amount": 1000000}`,
		`{"donors_count": 5}`,
		`{"status": "active"}`,
		`{"goal": 1}`,
		`{"title": "Fine", "status": "active"}`,
		`{"category": "Sports"}`,
		`{"title": 42}`,
		`{}`,
	}

	for _, body := range rejected {
		_, err := env.campaigns.Update(ctx, creator, campaign.ID, raw(body))
		assertKind(t, err, types.ErrValidation)
	}

	_, err := env.campaigns.Update(ctx, other, campaign.ID, raw(`{"title": "Hijacked"}`))
	assertKind(t, err, types.ErrAuthorization)

	_, err = env.campaigns.Update(ctx, creator, "missing", raw(`{"title": "x"}`))
	assertKind(t, err, types.ErrNotFound)

	updated, err := env.campaigns.Update(ctx, creator, campaign.ID, raw(`{"title": "Final", "short_description": "short", "images": ["a.png"], "category": "Health"}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != "Final" || updated.ShortDescription != "short" || updated.Category != "Health" || len(updated.Images) != 1 {
		t.Errorf("update not applied: %+v", updated)
	}

	if updated.Status != models.CampaignPending || !updated.RaisedAmount.IsZero() {
		t.Errorf("protected fields changed: %+v", updated)
	}
}

func TestListByCreatorRequiresOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Owner", models.RoleCreator)
	stranger, _ := env.register(t, "Stranger", models.RoleDonor)

	admin, err := env.identity.CreateAdmin(ctx, "Admin", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	env.createCampaign(t, creator, "Pending One", 100)
	active := env.createCampaign(t, creator, "Active One", 100)
	env.activate(t, active.ID)

	_, err = env.campaigns.ListByCreator(ctx, stranger, creator.ID)
	assertKind(t, err, types.ErrAuthorization)

	for _, caller := range []*models.User{creator, admin} {
		campaigns, err := env.campaigns.ListByCreator(ctx, caller, creator.ID)
		if err != nil {
			t.Fatalf("ListByCreator: %v", err)
		}

		if len(campaigns) != 2 {
			t.Errorf("got %d campaigns, want all statuses", len(campaigns))
		}
	}
}

func TestPostUpdateAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator, _ := env.register(t, "Writer", models.RoleCreator)
	reader, _ := env.register(t, "Reader", models.RoleDonor)

	campaign := env.createCampaign(t, creator, "Blog", 100)

	_, err := env.campaigns.PostUpdate(ctx, reader, campaign.ID, "Hi", "Not mine")
	assertKind(t, err, types.ErrAuthorization)

	_, err = env.campaigns.PostUpdate(ctx, creator, campaign.ID, "", "No title")
	assertKind(t, err, types.ErrValidation)

	updated, err := env.campaigns.PostUpdate(ctx, creator, campaign.ID, "Week 1", "We started")
	if err != nil {
		t.Fatalf("PostUpdate: %v", err)
	}

	if len(updated.Updates) != 1 || updated.Updates[0].Title != "Week 1" {
		t.Errorf("updates = %+v", updated.Updates)
	}

	_, err = env.campaigns.AddComment(ctx, reader, campaign.ID, "Nice")
	assertKind(t, err, types.ErrNotFound)

	env.activate(t, campaign.ID)

	_, err = env.campaigns.AddComment(ctx, reader, campaign.ID, strings.Repeat("x", 501))
	assertKind(t, err, types.ErrValidation)

	if _, err := env.campaigns.AddComment(ctx, reader, campaign.ID, "  Good luck!  "); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	comments, err := env.campaigns.ListComments(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}

	if len(comments) != 1 || comments[0].Text != "Good luck!" || comments[0].User == nil || comments[0].User.Name != "Reader" {
		t.Errorf("comments = %+v", comments)
	}
}
