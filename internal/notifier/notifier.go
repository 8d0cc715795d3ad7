// Package notifier sends the out-of-stock digest over email and SMS. The wire
// transports themselves are a thin adaptation of the teacher's Fast2SMS integration
// (internal/sms in the donor repo) plus a stdlib SMTP sender; the notifier's own job is
// building recipient lists and digest content from the NotifierConfig singleton and the
// stock-exception engine's aggregate.
package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"cold-backend/internal/models"
	"cold-backend/internal/repositories"
)

// EmailSender delivers a plain-text email. SMTPSender is the production
// implementation; tests substitute a fake.
type EmailSender interface {
	Send(ctx context.Context, cfg *models.NotifierConfig, to []string, subject, body string) error
}

// SMSSender delivers a single SMS. Fast2SMSSender is the production implementation.
type SMSSender interface {
	Send(ctx context.Context, cfg *models.NotifierConfig, phone, message string) error
}

// Notifier composes the recipient/content logic shared by every outbound channel.
type Notifier struct {
	Config *repositories.ConfigRepository
	Email  EmailSender
	SMS    SMSSender
}

func New(config *repositories.ConfigRepository, email EmailSender, sms SMSSender) *Notifier {
	return &Notifier{Config: config, Email: email, SMS: sms}
}

// SendOutOfStockDigest formats the aggregated shortage report and delivers it to every
// configured email and SMS recipient. A delivery failure on one channel does not
// prevent the other from being attempted; the first error encountered is returned.
func (n *Notifier) SendOutOfStockDigest(ctx context.Context, aggregated []*models.AggregatedException) error {
	cfg, err := n.Config.GetNotifierConfig(ctx)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Out-of-stock digest: %d SKU(s) short", len(aggregated))
	body := renderDigestBody(aggregated)
	smsBody := renderDigestSMS(aggregated)

	var firstErr error
	if len(cfg.EmailRecipients) > 0 {
		if err := n.Email.Send(ctx, cfg, cfg.EmailRecipients, subject, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, phone := range cfg.SMSRecipients {
		if err := n.SMS.Send(ctx, cfg, phone, smsBody); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func renderDigestBody(aggregated []*models.AggregatedException) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Out-of-stock digest generated %s\n\n", time.Now().UTC().Format(time.RFC3339))
	for _, a := range aggregated {
		fmt.Fprintf(&b, "%s (%s): %d short across %d order(s) [%s]\n",
			a.SKU, a.ProductTitle, a.TotalShort, a.Occurrences, strings.Join(a.OrderNumbers, ", "))
	}
	return b.String()
}

func renderDigestSMS(aggregated []*models.AggregatedException) string {
	if len(aggregated) == 0 {
		return "Out-of-stock digest: no open shortages."
	}
	return fmt.Sprintf("Out-of-stock digest: %d sku(s) short, top %s needs %d more.",
		len(aggregated), aggregated[0].SKU, aggregated[0].TotalShort)
}

// SMTPSender sends mail through a configured SMTP relay using PLAIN auth, the way the
// teacher's outbound integrations (Fast2SMS, Razorpay) hit a single fixed endpoint with
// credentials pulled from config rather than environment globals. There is no
// third-party SMTP client in the retrieved pack (the donor repo never sends email), so
// this is built on net/smtp, the standard library's own client for the protocol.
type SMTPSender struct{}

func (SMTPSender) Send(ctx context.Context, cfg *models.NotifierConfig, to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		cfg.SMTPFrom, strings.Join(to, ", "), subject, body)

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, cfg.SMTPFrom, to, []byte(msg)) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Fast2SMSSender adapts the teacher's quick-route Fast2SMS integration: a single GET
// request against fast2sms.com/dev/bulkV2, authorized by the API key carried on
// NotifierConfig rather than a package-level constructor argument.
type Fast2SMSSender struct {
	Client *http.Client
}

func NewFast2SMSSender() Fast2SMSSender {
	return Fast2SMSSender{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (s Fast2SMSSender) Send(ctx context.Context, cfg *models.NotifierConfig, phone, message string) error {
	apiURL := fmt.Sprintf(
		"https://www.fast2sms.com/dev/bulkV2?authorization=%s&message=%s&language=english&flash=0&numbers=%s",
		url.QueryEscape(cfg.SMSAPIKey), url.QueryEscape(message), url.QueryEscape(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fast2sms: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.Contains(string(body), `"return":false`) {
		return fmt.Errorf("fast2sms: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
