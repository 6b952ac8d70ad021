package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
)

func TestWebhookAlerter(t *testing.T) {
	var (
		mu      sync.Mutex
		discord DiscordWebhookRequest
		slack   SlackWebhookRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		var err error
		switch r.URL.Path {
		case "/discord":
			err = json.NewDecoder(r.Body).Decode(&discord)
		case "/slack":
			err = json.NewDecoder(r.Body).Decode(&slack)
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	alerter := NewWebhookAlerter(server.URL+"/discord", server.URL+"/slack", "http://localhost:3000/admin")

	alert := types.CampaignAlert{
		CampaignID:   "01HX",
		Title:        "Solar School",
		Category:     "Education",
		Goal:         decimal.NewFromInt(2500),
		CreatorName:  "Casey",
		CreatorEmail: "casey@example.com",
		Deadline:     "2026-12-01",
	}

	if err := alerter.CampaignSubmitted(context.Background(), alert); err != nil {
		t.Fatalf("CampaignSubmitted: %v", err)
	}

	if len(discord.Embeds) != 1 || !strings.Contains(discord.Embeds[0].Description, "Solar School") {
		t.Errorf("discord payload = %+v", discord)
	}

	if discord.Embeds[0].Fields[1].Value != "2500.00" {
		t.Errorf("goal field = %q", discord.Embeds[0].Fields[1].Value)
	}

	if len(slack.Attachments) != 1 || slack.Attachments[0].Footer != "Review at http://localhost:3000/admin" {
		t.Errorf("slack payload = %+v", slack)
	}
}

func TestWebhookAlerterReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	alerter := NewWebhookAlerter(server.URL, "", "")

	err := alerter.CampaignSubmitted(context.Background(), types.CampaignAlert{Title: "x", Goal: decimal.NewFromInt(1)})
	if err == nil || !strings.Contains(err.Error(), "discord") {
		t.Errorf("error = %v, want discord failure", err)
	}

	if NewWebhookAlerter("", "", "").Enabled() {
		t.Error("alerter without URLs should be disabled")
	}
}
