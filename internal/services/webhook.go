package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fundflow-dev/fundflow/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorOrange = 16753920 // #FFA500

	WebhookUsername = "FundFlow Moderation"
)

// WebhookAlerter tells moderators on Discord and Slack that a campaign is
// waiting for review. Either URL may be empty.
type WebhookAlerter struct {
	DiscordURL string
	SlackURL   string
	AdminURL   string
	Client     *http.Client
	now        func() time.Time
}

func NewWebhookAlerter(discordURL, slackURL, adminURL string) *WebhookAlerter {
	return &WebhookAlerter{
		DiscordURL: discordURL,
		SlackURL:   slackURL,
		AdminURL:   adminURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

func (a *WebhookAlerter) Enabled() bool {
	return a.DiscordURL != "" || a.SlackURL != ""
}

func (a *WebhookAlerter) CampaignSubmitted(ctx context.Context, alert types.CampaignAlert) error {
	var errs []error

	if a.DiscordURL != "" {
		if err := a.sendDiscordCampaignSubmitted(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("discord: %w", err))
		}
	}

	if a.SlackURL != "" {
		if err := a.sendSlackCampaignSubmitted(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("slack: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *WebhookAlerter) sendDiscordCampaignSubmitted(ctx context.Context, alert types.CampaignAlert) error {
	payload := DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       "📝 **CAMPAIGN AWAITING REVIEW**",
				Description: fmt.Sprintf("**%s** was submitted and needs approval before it goes live.", alert.Title),
				Color:       ColorOrange,
				Fields: []DiscordWebhookField{
					{Name: "🏷️ Category", Value: alert.Category, Inline: true},
					{Name: "🎯 Goal", Value: alert.Goal.StringFixed(2), Inline: true},
					{Name: "⏰ Deadline", Value: alert.Deadline, Inline: true},
					{Name: "👤 Creator", Value: fmt.Sprintf("%s (%s)", alert.CreatorName, alert.CreatorEmail), Inline: false},
				},
				Footer: &DiscordFooter{
					Text: a.footer(alert),
				},
				Timestamp: a.now().Format(time.RFC3339),
			},
		},
	}

	return a.post(ctx, a.DiscordURL, payload)
}

func (a *WebhookAlerter) sendSlackCampaignSubmitted(ctx context.Context, alert types.CampaignAlert) error {
	payload := SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: ":memo:",
		Text:      ":memo: *CAMPAIGN AWAITING REVIEW*",
		Attachments: []SlackAttachment{
			{
				Color: "warning",
				Title: fmt.Sprintf("Campaign '%s' needs approval", alert.Title),
				Text:  fmt.Sprintf("Submitted by %s (%s)", alert.CreatorName, alert.CreatorEmail),
				Fields: []SlackField{
					{Title: "Category", Value: alert.Category, Short: true},
					{Title: "Goal", Value: alert.Goal.StringFixed(2), Short: true},
					{Title: "Deadline", Value: alert.Deadline, Short: true},
					{Title: "Campaign ID", Value: alert.CampaignID, Short: true},
				},
				Footer:    a.footer(alert),
				Timestamp: a.now().Unix(),
			},
		},
	}

	return a.post(ctx, a.SlackURL, payload)
}

func (a *WebhookAlerter) footer(alert types.CampaignAlert) string {
	if a.AdminURL == "" {
		return fmt.Sprintf("Campaign %s", alert.CampaignID)
	}
	return fmt.Sprintf("Review at %s", a.AdminURL)
}

func (a *WebhookAlerter) post(ctx context.Context, webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
