package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateCampaignRequest struct {
	Title            string          `json:"title" form:"title"`
	Description      string          `json:"description" form:"description"`
	ShortDescription string          `json:"short_description" form:"short_description"`
	Goal             decimal.Decimal `json:"goal"`
	Deadline         string          `json:"deadline" form:"deadline"`
	Category         models.Category `json:"category" form:"category"`
	Images           []string        `json:"images"`
}

type CampaignUpdateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) ListCampaigns(ctx *gin.Context) {
	page, err := queryInt(ctx, "page")

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	limit, err := queryInt(ctx, "limit")

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	list, err := h.Campaigns.ListPublic(ctx.Request.Context(), services.CampaignFilter{
		Category:  ctx.Query("category"),
		Search:    ctx.Query("search"),
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
		Page:      page,
		Limit:     limit,
	})

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *Handlers) GetCampaign(ctx *gin.Context) {
	detail, err := h.Campaigns.GetPublicDetail(ctx.Request.Context(), ctx.Param("id"))

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

func (h *Handlers) CreateCampaign(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var in services.CreateCampaignInput

	if ctx.ContentType() == "multipart/form-data" {
		form, err := ctx.MultipartForm()

		if err != nil {
			utils.RespondError(ctx, types.Validation("Invalid multipart form"))
			return
		}

		in, err = campaignFromForm(ctx)

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}

		uploads, closeAll, err := openUploads(form.File["images"])

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}
		defer closeAll()

		in.Uploads = uploads
	} else {
		var req CreateCampaignRequest

		if !bindJSON(ctx, &req) {
			return
		}

		deadline, err := parseDeadline(req.Deadline)

		if err != nil {
			utils.RespondError(ctx, err)
			return
		}

		in = services.CreateCampaignInput{
			Title:            req.Title,
			Description:      req.Description,
			ShortDescription: req.ShortDescription,
			Goal:             req.Goal,
			Deadline:         deadline,
			Category:         req.Category,
			ImageURLs:        req.Images,
		}
	}

	campaign, err := h.Campaigns.Create(ctx.Request.Context(), currentUser, in)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, campaign)
}

func campaignFromForm(ctx *gin.Context) (services.CreateCampaignInput, error) {
	in := services.CreateCampaignInput{
		Title:            ctx.PostForm("title"),
		Description:      ctx.PostForm("description"),
		ShortDescription: ctx.PostForm("short_description"),
		Category:         models.Category(ctx.PostForm("category")),
	}

	if raw := strings.TrimSpace(ctx.PostForm("goal")); raw != "" {
		goal, err := decimal.NewFromString(raw)

		if err != nil {
			return in, types.Validation("Goal must be a number")
		}

		in.Goal = goal
	}

	deadline, err := parseDeadline(ctx.PostForm("deadline"))

	if err != nil {
		return in, err
	}

	in.Deadline = deadline

	return in, nil
}

// parseDeadline accepts RFC 3339 timestamps or plain dates. An empty value
// yields the zero time, which the service rejects as missing.
func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}

	return time.Time{}, types.Validation("Deadline must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

func queryInt(ctx *gin.Context, key string) (int, error) {
	raw := ctx.Query(key)

	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)

	if err != nil {
		return 0, types.Validation("%s must be an integer", key)
	}

	return n, nil
}

func (h *Handlers) UpdateCampaign(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var fields map[string]json.RawMessage

	if !bindJSON(ctx, &fields) {
		return
	}

	campaign, err := h.Campaigns.Update(ctx.Request.Context(), currentUser, ctx.Param("id"), fields)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

func (h *Handlers) ListCreatorCampaigns(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	campaigns, err := h.Campaigns.ListByCreator(ctx.Request.Context(), currentUser, ctx.Param("userId"))

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, campaigns)
}

func (h *Handlers) PostCampaignUpdate(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req CampaignUpdateRequest

	if !bindJSON(ctx, &req) {
		return
	}

	campaign, err := h.Campaigns.PostUpdate(ctx.Request.Context(), currentUser, ctx.Param("id"), req.Title, req.Content)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, campaign)
}

func (h *Handlers) ListComments(ctx *gin.Context) {
	comments, err := h.Campaigns.ListComments(ctx.Request.Context(), ctx.Param("id"))

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

func (h *Handlers) AddComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	var req CommentRequest

	if !bindJSON(ctx, &req) {
		return
	}

	comment, err := h.Campaigns.AddComment(ctx.Request.Context(), currentUser, ctx.Param("id"), req.Text)

	if err != nil {
		utils.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}
