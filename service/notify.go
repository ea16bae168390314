package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
)

// Notifier is told about every lead that was appended successfully.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead model.Lead) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyNewLead(context.Context, model.Lead) error { return nil }

// ResendNotifier mails new leads through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     []string
}

func NewResendNotifier(cfg *config.NotifyConfig) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.From,
		to:     cfg.To,
	}
}

func (n *ResendNotifier) NotifyNewLead(ctx context.Context, lead model.Lead) error {
	sent, err := n.client.Emails.SendWithContext(ctx, newLeadEmail(n.from, n.to, lead))
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("new lead notification sent", "message_id", sent.Id, "to", n.to)
	return nil
}

func newLeadEmail(from string, to []string, lead model.Lead) *resend.SendEmailRequest {
	subject := "New lead: " + lead.Name
	if lead.ProjectName != "" {
		subject += " (" + lead.ProjectName + ")"
	}

	var b strings.Builder
	b.WriteString("<h2>New lead</h2><table>")
	for _, row := range [][2]string{
		{"Name", lead.Name},
		{"Project", lead.ProjectName},
		{"Phone", lead.PhoneNumber},
		{"Date", datetime.FormatDisplayDate(lead.Date)},
		{"Time", datetime.FormatDisplayTime(lead.Time)},
	} {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", row[0], html.EscapeString(row[1]))
	}
	b.WriteString("</table>")

	return &resend.SendEmailRequest{
		From:    from,
		To:      to,
		Subject: subject,
		Html:    b.String(),
	}
}
