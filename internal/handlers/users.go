package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	Name        *string             `json:"name"`
	Bio         *string             `json:"bio"`
	SocialLinks *models.SocialLinks `json:"social_links"`
}

func (h *Handlers) GetProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	profile, err := h.Profiles.GetProfile(ctx.Request.Context(), currentUser.ID)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

func (h *Handlers) UpdateProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req UpdateProfileRequest

	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.Profiles.UpdateProfile(ctx.Request.Context(), currentUser.ID, services.ProfileInput{
		Name:        req.Name,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
	})

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *Handlers) UploadProfilePicture(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	header, err := ctx.FormFile("image")

	if err != nil {
		utils.RespondError(ctx, types.Validation("Please upload an image"))
		return
	}

	uploads, closeAll, err := openUploads([]*multipart.FileHeader{header})

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	defer closeAll()

	user, err := h.Profiles.UploadProfilePicture(ctx.Request.Context(), currentUser.ID, uploads[0])

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile picture updated",
		"user":    user,
	})
}
