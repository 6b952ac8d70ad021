// Package payments talks to the card processor.
package payments

import (
	"context"
	"errors"

	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var ErrNotConfigured = errors.New("payment processor is not configured")

type StripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway returns a gateway for the given secret key. With an empty
// key every charge fails with ErrNotConfigured.
func NewStripeGateway(secretKey, currency string, backends *stripe.Backends) *StripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	gateway := &StripeGateway{currency: currency}

	if secretKey != "" {
		gateway.api = client.New(secretKey, backends)
	}

	return gateway
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, campaignID string) (*types.PaymentIntent, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("campaignId", campaignID)

	intent, err := g.api.PaymentIntents.New(params)

	if err != nil {
		return nil, err
	}

	return &types.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
