// Package handlers adapts HTTP requests to the services package.
package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fundflow-dev/fundflow/internal/realtime"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/fundflow-dev/fundflow/internal/utils"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CookieOptions struct {
	Domain string
	TTL    time.Duration
}

type Handlers struct {
	Identity   *services.IdentityService
	Profiles   *services.ProfileService
	Campaigns  *services.CampaignService
	Ledger     *services.LedgerService
	Moderation *services.ModerationService
	Hub        *realtime.Hub
	DB         Pinger
	Cookie     CookieOptions
}

func (h *Handlers) setTokenCookie(ctx *gin.Context, token string) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.Cookie.Domain,
		MaxAge:   int(h.Cookie.TTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handlers) clearTokenCookie(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.Cookie.Domain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

// bindJSON decodes the body and reports malformed input as a validation error.
func bindJSON(ctx *gin.Context, v interface{}) bool {
	if err := ctx.ShouldBindJSON(v); err != nil {
		utils.RespondError(ctx, types.Validation("Invalid request body"))
		return false
	}

	return true
}

// openUploads opens every file header as an Upload. The returned closer
// releases them once the service is done reading.
func openUploads(headers []*multipart.FileHeader) ([]types.Upload, func(), error) {
	uploads := make([]types.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))

	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, header := range headers {
		file, err := header.Open()

		if err != nil {
			closeAll()
			return nil, nil, types.Validation("Could not read uploaded file %s", header.Filename)
		}

		files = append(files, file)
		uploads = append(uploads, types.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	}

	return uploads, closeAll, nil
}
