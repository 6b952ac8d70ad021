package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type CampaignFilter struct {
	Category  string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type CreateCampaignInput struct {
	Title            string
	Description      string
	ShortDescription string
	Goal             decimal.Decimal
	Deadline         time.Time
	Category         models.Category
	// ImageURLs are images already hosted elsewhere; Uploads are stored first
	// and keep their submission order after them.
	ImageURLs []string
	Uploads   []types.Upload
}

type CampaignService struct {
	store      store.Store
	images     ImageStore
	alerter    Alerter
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewCampaignService(s store.Store, images ImageStore, alerter Alerter, dispatcher *Dispatcher) *CampaignService {
	return &CampaignService{
		store:      s,
		images:     images,
		alerter:    alerter,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// ListPublic pages through active campaigns only.
func (s *CampaignService) ListPublic(ctx context.Context, f CampaignFilter) (*types.CampaignList, error) {
	query := store.CampaignQuery{
		Status: models.CampaignActive,
		Search: strings.TrimSpace(f.Search),
	}

	if f.Category != "" && f.Category != "All" {
		category := models.Category(f.Category)
		if !category.Valid() {
			return nil, types.Validation("Unknown category %q", f.Category)
		}
		query.Category = category
	}

	switch f.SortBy {
	case "", "createdAt", "created_at":
		query.SortBy = store.SortCreatedAt
	case "raisedAmount", "raised_amount":
		query.SortBy = store.SortRaisedAmount
	case "deadline":
		query.SortBy = store.SortDeadline
	default:
		return nil, types.Validation("Cannot sort by %q", f.SortBy)
	}

	switch strings.ToLower(f.SortOrder) {
	case "", "desc":
		query.SortDesc = true
	case "asc":
	default:
		return nil, types.Validation("Sort order must be asc or desc")
	}

	page := f.Page
	if page < 1 {
		page = 1
	}

	limit := f.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	query.Offset = (page - 1) * limit
	query.Limit = limit

	campaigns, total, err := s.store.ListCampaigns(ctx, query)

	if err != nil {
		return nil, err
	}

	responses, err := s.withCreators(ctx, campaigns, false)

	if err != nil {
		return nil, err
	}

	return &types.CampaignList{
		Campaigns:   responses,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

// GetPublicDetail hides anything that is not active behind NotFound. Only
// completed donations are listed, and anonymous donors are not revealed.
func (s *CampaignService) GetPublicDetail(ctx context.Context, id string) (*types.CampaignDetail, error) {
	campaign, err := s.activeCampaign(ctx, id)

	if err != nil {
		return nil, err
	}

	creators, err := s.store.GetUsers(ctx, []string{campaign.CreatorID})

	if err != nil {
		return nil, err
	}

	var creator *types.UserSummary
	if user, ok := creators[campaign.CreatorID]; ok {
		creator = summarize(user, false)
	}

	donations, err := s.store.ListDonations(ctx, store.DonationQuery{CampaignID: id})

	if err != nil {
		return nil, err
	}

	donorIDs := make([]string, 0, len(donations))
	for _, donation := range donations {
		if !donation.Anonymous {
			donorIDs = append(donorIDs, donation.DonorID)
		}
	}

	donors, err := s.store.GetUsers(ctx, donorIDs)

	if err != nil {
		return nil, err
	}

	detail := &types.CampaignDetail{
		Campaign:  types.NewCampaignResponse(campaign, creator, s.now()),
		Donations: make([]types.DonationResponse, 0, len(donations)),
	}

	for i := range donations {
		if donations[i].Status != models.PaymentCompleted {
			continue
		}

		response := types.NewDonationResponse(&donations[i])
		response.PaymentID = ""

		if donations[i].Anonymous {
			response.DonorID = ""
		} else if donor, ok := donors[donations[i].DonorID]; ok {
			response.Donor = summarize(donor, false)
		}

		detail.Donations = append(detail.Donations, response)
	}

	return detail, nil
}

func (s *CampaignService) Create(ctx context.Context, creator *models.User, in CreateCampaignInput) (*types.CampaignResponse, error) {
	if creator.Role != models.RoleCreator {
		return nil, types.Authorization("Only creators can create campaigns")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.Goal = in.Goal.Round(2)

	now := s.now()

	switch {
	case in.Title == "" || in.Description == "" || in.Category == "" || in.Deadline.IsZero():
		return nil, types.Validation("Missing required fields. Please provide title, description, goal, deadline, and category.")
	case !in.Goal.IsPositive():
		return nil, types.Validation("Goal must be greater than zero")
	case !in.Deadline.After(now):
		return nil, types.Validation("Deadline must be in the future")
	case !in.Category.Valid():
		return nil, types.Validation("Unknown category %q", in.Category)
	case len([]rune(in.ShortDescription)) > models.MaxShortDescription:
		return nil, types.Validation("Short description cannot exceed %d characters", models.MaxShortDescription)
	case len(in.ImageURLs)+len(in.Uploads) > models.MaxCampaignImages:
		return nil, types.Validation("A campaign can have at most %d images", models.MaxCampaignImages)
	}

	for _, upload := range in.Uploads {
		if err := validateImage(upload); err != nil {
			return nil, err
		}
	}

	images := make([]string, 0, len(in.ImageURLs)+len(in.Uploads))
	images = append(images, in.ImageURLs...)

	for _, upload := range in.Uploads {
		url, err := s.images.Save(ctx, "campaigns", upload)

		if err != nil {
			return nil, types.Upstream("Failed to store image", err)
		}

		images = append(images, url)
	}

	campaign := &models.Campaign{
		Title:            in.Title,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Goal:             in.Goal,
		RaisedAmount:     decimal.Zero,
		Deadline:         in.Deadline.UTC(),
		CreatorID:        creator.ID,
		Category:         in.Category,
		Images:           images,
		Status:           models.CampaignPending,
		Updates:          []models.CampaignUpdate{},
	}

	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	if s.alerter != nil {
		alert := types.CampaignAlert{
			CampaignID:   campaign.ID,
			Title:        campaign.Title,
			Category:     string(campaign.Category),
			Goal:         campaign.Goal,
			CreatorName:  creator.Name,
			CreatorEmail: creator.Email,
			Deadline:     campaign.Deadline.Format("2006-01-02"),
		}

		s.dispatcher.Go("post moderation alert", func(ctx context.Context) error {
			return s.alerter.CampaignSubmitted(ctx, alert)
		})
	}

	response := types.NewCampaignResponse(campaign, summarize(*creator, false), now)
	return &response, nil
}

// Update applies an editorial patch. Keys outside the allow-list are
// rejected rather than ignored.
func (s *CampaignService) Update(ctx context.Context, caller *models.User, id string, fields map[string]json.RawMessage) (*types.CampaignResponse, error) {
	campaign, err := s.store.GetCampaign(ctx, id)

	if err != nil {
		return nil, err
	}

	if caller.ID != campaign.CreatorID {
		return nil, types.Authorization("Not authorized to update this campaign")
	}

	patch, err := parseCampaignPatch(fields)

	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateCampaign(ctx, id, patch)

	if err != nil {
		return nil, err
	}

	response := types.NewCampaignResponse(updated, summarize(*caller, false), s.now())
	return &response, nil
}

func parseCampaignPatch(fields map[string]json.RawMessage) (store.CampaignPatch, error) {
	var patch store.CampaignPatch

	if len(fields) == 0 {
		return patch, types.Validation("No fields to update")
	}

	for key, raw := range fields {
		switch key {
		case "title", "description", "short_description", "category":
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				return patch, types.Validation("%s must be a string", key)
			}

			value = strings.TrimSpace(value)

			switch key {
			case "title":
				if value == "" {
					return patch, types.Validation("Title cannot be empty")
				}
				patch.Title = &value
			case "description":
				if value == "" {
					return patch, types.Validation("Description cannot be empty")
				}
				patch.Description = &value
			case "short_description":
				if len([]rune(value)) > models.MaxShortDescription {
					return patch, types.Validation("Short description cannot exceed %d characters", models.MaxShortDescription)
				}
				patch.ShortDescription = &value
			case "category":
				category := models.Category(value)
				if !category.Valid() {
					return patch, types.Validation("Unknown category %q", value)
				}
				patch.Category = &category
			}
		case "images":
			var images []string
			if err := json.Unmarshal(raw, &images); err != nil {
				return patch, types.Validation("images must be a list of URLs")
			}

			if len(images) > models.MaxCampaignImages {
				return patch, types.Validation("A campaign can have at most %d images", models.MaxCampaignImages)
			}

			if images == nil {
				images = []string{}
			}
			patch.Images = &images
		default:
			return patch, types.Validation("Field %q cannot be updated", key)
		}
	}

	return patch, nil
}

// ListByCreator returns every campaign of a creator regardless of status.
func (s *CampaignService) ListByCreator(ctx context.Context, caller *models.User, creatorID string) ([]types.CampaignResponse, error) {
	if !isOwnerOrAdmin(caller, creatorID) {
		return nil, types.Authorization("Not authorized to view these campaigns")
	}

	campaigns, _, err := s.store.ListCampaigns(ctx, store.CampaignQuery{CreatorID: creatorID, SortDesc: true})

	if err != nil {
		return nil, err
	}

	return s.withCreators(ctx, campaigns, false)
}

func (s *CampaignService) PostUpdate(ctx context.Context, caller *models.User, id, title, content string) (*types.CampaignResponse, error) {
	campaign, err := s.store.GetCampaign(ctx, id)

	if err != nil {
		return nil, err
	}

	if caller.ID != campaign.CreatorID {
		return nil, types.Authorization("Not authorized to update this campaign")
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if title == "" || content == "" {
		return nil, types.Validation("Update title and content are required")
	}

	now := s.now()

	updated, err := s.store.AppendCampaignUpdate(ctx, id, models.CampaignUpdate{
		Title:   title,
		Content: content,
		Date:    now.UTC(),
	})

	if err != nil {
		return nil, err
	}

	response := types.NewCampaignResponse(updated, summarize(*caller, false), now)
	return &response, nil
}

func (s *CampaignService) AddComment(ctx context.Context, user *models.User, campaignID, text string) (*types.CommentResponse, error) {
	if _, err := s.activeCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)

	if text == "" {
		return nil, types.Validation("Comment text is required")
	}

	if len([]rune(text)) > models.MaxCommentLength {
		return nil, types.Validation("Comment cannot exceed %d characters", models.MaxCommentLength)
	}

	comment := &models.Comment{CampaignID: campaignID, UserID: user.ID, Text: text}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return &types.CommentResponse{
		ID:         comment.ID,
		CampaignID: comment.CampaignID,
		Text:       comment.Text,
		User:       summarize(*user, false),
		Date:       comment.CreatedAt,
	}, nil
}

func (s *CampaignService) ListComments(ctx context.Context, campaignID string) ([]types.CommentResponse, error) {
	if _, err := s.activeCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	comments, err := s.store.ListComments(ctx, campaignID)

	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		userIDs = append(userIDs, comment.UserID)
	}

	users, err := s.store.GetUsers(ctx, userIDs)

	if err != nil {
		return nil, err
	}

	responses := make([]types.CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response := types.CommentResponse{
			ID:         comment.ID,
			CampaignID: comment.CampaignID,
			Text:       comment.Text,
			Date:       comment.CreatedAt,
		}

		if user, ok := users[comment.UserID]; ok {
			response.User = summarize(user, false)
		}

		responses = append(responses, response)
	}

	return responses, nil
}

// EnsureActive fails with NotFound unless the campaign is publicly visible.
func (s *CampaignService) EnsureActive(ctx context.Context, id string) error {
	_, err := s.activeCampaign(ctx, id)
	return err
}

func (s *CampaignService) activeCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)

	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.NotFound("Campaign not found")
		}
		return nil, err
	}

	if campaign.Status != models.CampaignActive {
		return nil, types.NotFound("Campaign not found")
	}

	return campaign, nil
}

func (s *CampaignService) withCreators(ctx context.Context, campaigns []models.Campaign, withEmail bool) ([]types.CampaignResponse, error) {
	return attachCreators(ctx, s.store, campaigns, withEmail, s.now())
}

func attachCreators(ctx context.Context, st store.Store, campaigns []models.Campaign, withEmail bool, now time.Time) ([]types.CampaignResponse, error) {
	creatorIDs := make([]string, 0, len(campaigns))
	for _, campaign := range campaigns {
		creatorIDs = append(creatorIDs, campaign.CreatorID)
	}

	creators, err := st.GetUsers(ctx, creatorIDs)

	if err != nil {
		return nil, err
	}

	responses := make([]types.CampaignResponse, 0, len(campaigns))

	for i := range campaigns {
		var creator *types.UserSummary
		if user, ok := creators[campaigns[i].CreatorID]; ok {
			creator = summarize(user, withEmail)
		}

		responses = append(responses, types.NewCampaignResponse(&campaigns[i], creator, now))
	}

	return responses, nil
}
