package main

import (
	"context"
	"fmt"
	"log"

	"github.com/fundflow-dev/fundflow/internal/auth"
	"github.com/fundflow-dev/fundflow/internal/config"
	"github.com/fundflow-dev/fundflow/internal/handlers"
	"github.com/fundflow-dev/fundflow/internal/notify"
	"github.com/fundflow-dev/fundflow/internal/payments"
	"github.com/fundflow-dev/fundflow/internal/realtime"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/storage"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
)

// app is every long lived dependency the commands share.
type app struct {
	cfg        *config.Config
	store      store.Store
	dispatcher *services.Dispatcher
	hub        *realtime.Hub
	origins    []string
	uploadDir  string

	identity   *services.IdentityService
	profiles   *services.ProfileService
	campaigns  *services.CampaignService
	ledger     *services.LedgerService
	moderation *services.ModerationService
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := openStore(ctx, cfg)

	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	if err != nil {
		st.Close()
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		store:      st,
		dispatcher: services.NewDispatcher(cfg.EmailTimeout),
		origins:    types.AllowedOrigins(cfg.ClientURL, cfg.AllowedOrigins),
	}
	a.hub = realtime.NewHub(a.origins)

	var images services.ImageStore

	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)

		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to configure S3: %w", err)
		}

		images = s3Store
		log.Printf("Storing images in s3://%s", cfg.S3Bucket)
	} else {
		local, err := storage.NewLocalStore(cfg.UploadDir)

		if err != nil {
			st.Close()
			return nil, err
		}

		images = local
		a.uploadDir = cfg.UploadDir
		log.Printf("Storing images in %s", cfg.UploadDir)
	}

	var mailer services.Mailer = notify.LogMailer{}

	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		log.Println("SENDGRID_API_KEY not set, emails will only be logged")
	}

	if cfg.StripeSecretKey == "" {
		log.Println("STRIPE_SECRET_KEY not set, payment intents will fail")
	}

	var alerter services.Alerter

	if webhooks := services.NewWebhookAlerter(cfg.DiscordWebhookURL, cfg.SlackWebhookURL, cfg.ClientURL+"/admin"); webhooks.Enabled() {
		alerter = webhooks
	}

	a.identity = services.NewIdentityService(st, tokens)
	a.profiles = services.NewProfileService(st, images)
	a.campaigns = services.NewCampaignService(st, images, alerter, a.dispatcher)
	a.ledger = services.NewLedgerService(st, payments.NewStripeGateway(cfg.StripeSecretKey, cfg.PaymentCurrency, nil), mailer, a.hub, a.dispatcher, services.LedgerOptions{
		PaymentTimeout:       cfg.PaymentTimeout,
		ClientURL:            cfg.ClientURL,
		AllowManualDonations: cfg.AllowManualDonations,
	})
	a.moderation = services.NewModerationService(st)

	return a, nil
}

func (a *app) handlers() *handlers.Handlers {
	return &handlers.Handlers{
		Identity:   a.identity,
		Profiles:   a.profiles,
		Campaigns:  a.campaigns,
		Ledger:     a.ledger,
		Moderation: a.moderation,
		Hub:        a.hub,
		DB:         a.store,
		Cookie: handlers.CookieOptions{
			Domain: a.cfg.CookieDomain,
			TTL:    a.cfg.TokenTTL,
		},
	}
}

// Close drains dispatched notifications before releasing the store.
func (a *app) Close() {
	log.Println("Waiting for pending notifications...")
	a.ledger.Wait()

	if err := a.store.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
