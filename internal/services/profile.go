package services

import (
	"context"
	"strings"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
)

const MaxBioLength = 500

type ProfileInput struct {
	Name        *string
	Bio         *string
	SocialLinks *models.SocialLinks
}

type ProfileService struct {
	store  store.Store
	images ImageStore
	now    func() time.Time
}

func NewProfileService(s store.Store, images ImageStore) *ProfileService {
	return &ProfileService{store: s, images: images, now: time.Now}
}

// GetProfile returns the user together with every campaign they created.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*types.ProfileResponse, error) {
	user, err := s.store.GetUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	campaigns, _, err := s.store.ListCampaigns(ctx, store.CampaignQuery{CreatorID: userID, SortDesc: true})

	if err != nil {
		return nil, err
	}

	now := s.now()
	response := &types.ProfileResponse{
		User:      types.NewUserResponse(user),
		Campaigns: make([]types.CampaignResponse, 0, len(campaigns)),
	}

	for i := range campaigns {
		response.Campaigns = append(response.Campaigns, types.NewCampaignResponse(&campaigns[i], nil, now))
	}

	return response, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*types.UserResponse, error) {
	patch := store.ProfilePatch{SocialLinks: in.SocialLinks}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, types.Validation("Name cannot be empty")
		}
		patch.Name = &name
	}

	if in.Bio != nil {
		if len([]rune(*in.Bio)) > MaxBioLength {
			return nil, types.Validation("Bio cannot exceed %d characters", MaxBioLength)
		}
		patch.Bio = in.Bio
	}

	user, err := s.store.UpdateProfile(ctx, userID, patch)

	if err != nil {
		return nil, err
	}

	response := types.NewUserResponse(user)
	return &response, nil
}

func (s *ProfileService) UploadProfilePicture(ctx context.Context, userID string, upload types.Upload) (*types.UserResponse, error) {
	if err := validateImage(upload); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	url, err := s.images.Save(ctx, "profiles", upload)

	if err != nil {
		return nil, types.Upstream("Failed to store image", err)
	}

	user, err := s.store.UpdateProfile(ctx, userID, store.ProfilePatch{ProfilePic: &url})

	if err != nil {
		return nil, err
	}

	response := types.NewUserResponse(user)
	return &response, nil
}
