package router

import (
	"net/http"
	"time"

	"github.com/fundflow-dev/fundflow/internal/handlers"
	"github.com/fundflow-dev/fundflow/internal/middleware"
	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/storage"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	AllowedOrigins []string
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
}

func NewRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   string(types.KindInternal),
			"message": "Internal server error",
		})
	}))
	r.Use(middleware.RequestID())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", types.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", types.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if opts.UploadDir != "" {
		r.Static(storage.PublicPath, opts.UploadDir)
	}

	requireAuth := middleware.AuthMiddleware(h.Identity)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws/campaigns/:id", h.CampaignProgressWS)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", requireAuth, h.Me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/profile", h.GetProfile)
			users.PUT("/profile", h.UpdateProfile)
			users.POST("/upload-profile-pic", h.UploadProfilePicture)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", h.ListCampaigns)
			campaigns.POST("", requireAuth, middleware.RequireRole(models.RoleCreator), h.CreateCampaign)
			campaigns.GET("/user/:userId", requireAuth, h.ListCreatorCampaigns)
			campaigns.GET("/:id", h.GetCampaign)
			campaigns.PUT("/:id", requireAuth, h.UpdateCampaign)
			campaigns.POST("/:id/updates", requireAuth, h.PostCampaignUpdate)
			campaigns.GET("/:id/comments", h.ListComments)
			campaigns.POST("/:id/comments", requireAuth, h.AddComment)
		}

		donations := api.Group("/donations")
		{
			donations.POST("/create-payment-intent", h.CreatePaymentIntent)
			donations.POST("/record-stripe-donation", requireAuth, h.RecordStripeDonation)
			donations.POST("", requireAuth, h.RecordManualDonation)
			donations.POST("/update-status", requireAuth, h.UpdateDonationStatus)
			donations.GET("/user/:userId", requireAuth, h.ListDonorDonations)
		}

		admin := api.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", h.ListUsers)
			admin.PUT("/users/:id", h.SetUserStatus)
			admin.GET("/campaigns", h.ListAllCampaigns)
			admin.PUT("/campaigns/:id", h.SetCampaignStatus)
			admin.GET("/stats", h.DashboardStats)
		}
	}

	return r
}
