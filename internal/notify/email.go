// Package notify sends donation emails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"io"
	"log"
	texttemplate "text/template"

	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

type message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// SendGridMailer delivers mail through the SendGrid v3 API. A client is built
// per message because the SendGrid client keeps the request body on itself.
type SendGridMailer struct {
	apiKey string
	from   *mail.Email
	// Host overrides the API host, used by tests.
	Host string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, from: mail.NewEmail(fromName, fromEmail)}
}

func (m *SendGridMailer) SendDonorThankYou(ctx context.Context, receipt types.DonationReceipt) error {
	msg, err := renderThankYou(receipt)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SendGridMailer) SendCreatorNotification(ctx context.Context, receipt types.DonationReceipt) error {
	msg, err := renderCreatorNotification(receipt)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SendGridMailer) send(ctx context.Context, msg *message) error {
	client := sendgrid.NewSendClient(m.apiKey)
	if m.Host != "" {
		client.BaseURL = m.Host + sendPath
	}

	email := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail(msg.ToName, msg.ToEmail), msg.Text, msg.HTML)

	resp, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.ToEmail, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned status %d for %s: %s", resp.StatusCode, msg.ToEmail, resp.Body)
	}

	log.Printf("Email sent to %s via SendGrid", msg.ToEmail)
	return nil
}

// LogMailer stands in when no SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) SendDonorThankYou(_ context.Context, receipt types.DonationReceipt) error {
	msg, err := renderThankYou(receipt)
	if err != nil {
		return err
	}
	log.Printf("SendGrid not configured, skipping email to %s: %s", msg.ToEmail, msg.Subject)
	return nil
}

func (LogMailer) SendCreatorNotification(_ context.Context, receipt types.DonationReceipt) error {
	msg, err := renderCreatorNotification(receipt)
	if err != nil {
		return err
	}
	log.Printf("SendGrid not configured, skipping email to %s: %s", msg.ToEmail, msg.Subject)
	return nil
}

var (
	thankYouText = texttemplate.Must(texttemplate.New("thank-you").Parse(
		`Hi {{.DonorName}},

Thank you for donating ${{.Amount.StringFixed 2}} to "{{.CampaignTitle}}"{{with .CreatorName}} by {{.}}{{end}}.
{{with .Message}}
Your message: {{.}}
{{end}}
Follow the campaign: {{.CampaignURL}}
`))

	thankYouHTML = htmltemplate.Must(htmltemplate.New("thank-you").Parse(
		`<h2>Thank you, {{.DonorName}}!</h2>
<p>Your donation of <strong>${{.Amount.StringFixed 2}}</strong> to <strong>{{.CampaignTitle}}</strong>{{with .CreatorName}} by {{.}}{{end}} was received.</p>
{{with .Message}}<blockquote>{{.}}</blockquote>{{end}}
<p><a href="{{.CampaignURL}}">Follow the campaign</a></p>`))

	creatorText = texttemplate.Must(texttemplate.New("creator").Parse(
		`Hi {{.CreatorName}},

{{if .Anonymous}}An anonymous supporter{{else}}{{.DonorName}}{{end}} donated ${{.Amount.StringFixed 2}} to "{{.CampaignTitle}}".
{{with .Message}}
Message: {{.}}
{{end}}
View your campaign: {{.CampaignURL}}
`))

	creatorHTML = htmltemplate.Must(htmltemplate.New("creator").Parse(
		`<h2>New donation for {{.CampaignTitle}}</h2>
<p>{{if .Anonymous}}An anonymous supporter{{else}}<strong>{{.DonorName}}</strong>{{end}} donated <strong>${{.Amount.StringFixed 2}}</strong>.</p>
{{with .Message}}<blockquote>{{.}}</blockquote>{{end}}
<p><a href="{{.CampaignURL}}">View your campaign</a></p>`))
)

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(t executor, receipt types.DonationReceipt) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, receipt); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderThankYou(receipt types.DonationReceipt) (*message, error) {
	return renderMessage(receipt.DonorName, receipt.DonorEmail,
		fmt.Sprintf("Thank you for supporting %s", receipt.CampaignTitle),
		thankYouText, thankYouHTML, receipt)
}

func renderCreatorNotification(receipt types.DonationReceipt) (*message, error) {
	return renderMessage(receipt.CreatorName, receipt.CreatorEmail,
		fmt.Sprintf("New donation for %s", receipt.CampaignTitle),
		creatorText, creatorHTML, receipt)
}

func renderMessage(name, email, subject string, text, html executor, receipt types.DonationReceipt) (*message, error) {
	textBody, err := render(text, receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to render email text: %w", err)
	}

	htmlBody, err := render(html, receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to render email html: %w", err)
	}

	return &message{ToName: name, ToEmail: email, Subject: subject, Text: textBody, HTML: htmlBody}, nil
}
