package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v79"
)

func TestCreatePaymentIntent(t *testing.T) {
	var form map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		form = map[string]string{}
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc","amount":1235,"currency":"usd"}`))
	}))
	defer server.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})

	gateway := NewStripeGateway("sk_test_123", "usd", &stripe.Backends{API: backend})

	intent, err := gateway.CreatePaymentIntent(context.Background(), 1235, "campaign-1")
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}

	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("intent = %+v", intent)
	}

	want := map[string]string{
		"amount":                                     "1235",
		"currency":                                   "usd",
		"automatic_payment_methods[enabled]":         "true",
		"automatic_payment_methods[allow_redirects]": "never",
		"metadata[campaignId]":                       "campaign-1",
	}

	for key, value := range want {
		if form[key] != value {
			t.Errorf("%s = %q, want %q", key, form[key], value)
		}
	}
}

func TestUnconfiguredGateway(t *testing.T) {
	gateway := NewStripeGateway("", "", nil)

	_, err := gateway.CreatePaymentIntent(context.Background(), 100, "c")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
