// Package notify sends run summaries to a Slack webhook.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"
)

// Notifier posts pipeline results to Slack. A missing webhook URL
// turns it into a no-op.
type Notifier struct {
	webhookURL string
	log        *slog.Logger
}

func New(log *slog.Logger, webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		log:        log,
	}
}

// RunReport summarizes a finished run.
type RunReport struct {
	Topic       string
	Succeeded   bool
	Duration    time.Duration
	VideoURL    string
	ArtifactURL string
	Err         error
}

// Notify posts the run summary. Failures are logged and swallowed so a
// notification problem can never fail a finished run.
func (n *Notifier) Notify(ctx context.Context, report RunReport) {
	if n.webhookURL == "" {
		n.log.Debug("Slack webhook not configured, skipping notification")
		return
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, BuildMessage(report)); err != nil {
		n.log.Error("Failed to post Slack notification", slog.String("error", err.Error()))
		return
	}
	n.log.Info("Slack notification sent")
}

// BuildMessage renders the report as a webhook payload.
func BuildMessage(report RunReport) *slack.WebhookMessage {
	color := "good"
	headline := fmt.Sprintf("Video pipeline succeeded: %s", report.Topic)
	if !report.Succeeded {
		color = "danger"
		headline = fmt.Sprintf("Video pipeline failed: %s", report.Topic)
	}

	fields := []slack.AttachmentField{
		{Title: "Duration", Value: report.Duration.Round(time.Second).String(), Short: true},
	}
	if report.VideoURL != "" {
		fields = append(fields, slack.AttachmentField{Title: "Video", Value: report.VideoURL})
	}
	if report.ArtifactURL != "" {
		fields = append(fields, slack.AttachmentField{Title: "Artifacts", Value: report.ArtifactURL})
	}
	if report.Err != nil {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: report.Err.Error()})
	}

	return &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color:  color,
			Title:  headline,
			Fields: fields,
		}},
	}
}
