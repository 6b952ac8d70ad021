// Package services holds the business operations behind the HTTP handlers.
// Collaborators that leave the process (payments, email, image storage,
// webhooks, websocket fan-out) are reached through the interfaces below.
package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
)

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, campaignID string) (*types.PaymentIntent, error)
}

type Mailer interface {
	SendDonorThankYou(ctx context.Context, receipt types.DonationReceipt) error
	SendCreatorNotification(ctx context.Context, receipt types.DonationReceipt) error
}

// ImageStore saves an upload and returns the URL it can be fetched from.
type ImageStore interface {
	Save(ctx context.Context, folder string, upload types.Upload) (string, error)
}

type ProgressPublisher interface {
	Publish(event types.ProgressEvent)
}

type Alerter interface {
	CampaignSubmitted(ctx context.Context, alert types.CampaignAlert) error
}

const (
	MaxImageSize = 5 << 20
)

// Dispatcher runs best-effort side effects off the request path. Failures
// are logged and never retried.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Dispatcher{timeout: timeout}
}

func (d *Dispatcher) Go(action string, fn func(ctx context.Context) error) {
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("Failed to %s: %v", action, err)
		}
	}()
}

// Wait blocks until every dispatched task has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func validateImage(upload types.Upload) error {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return types.Validation("Only image files are allowed")
	}

	if upload.Size > MaxImageSize {
		return types.Validation("Images must be 5MB or smaller")
	}

	return nil
}

func summarize(user models.User, withEmail bool) *types.UserSummary {
	summary := &types.UserSummary{
		ID:         user.ID,
		Name:       user.Name,
		ProfilePic: user.ProfilePic,
	}

	if withEmail {
		summary.Email = user.Email
	}

	return summary
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isOwnerOrAdmin(caller *models.User, ownerID string) bool {
	return caller != nil && (caller.ID == ownerID || caller.Role == models.RoleAdmin)
}
