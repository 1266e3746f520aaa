package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string
	// WebhookType determines the payload format: "slack", "discord", or "generic"
	WebhookType string
	// Enabled controls whether alerts are sent
	Enabled bool
	// MinFailuresBeforeAlert is the number of consecutive failed runs
	// before an alert is sent
	MinFailuresBeforeAlert int
	// Timeout for HTTP requests
	Timeout time.Duration
}

// NewAlertConfig builds a config for a webhook. An empty type is detected
// from the URL.
func NewAlertConfig(url, webhookType string) AlertConfig {
	cfg := AlertConfig{
		WebhookURL:             url,
		WebhookType:            strings.ToLower(webhookType),
		Enabled:                url != "",
		MinFailuresBeforeAlert: 1,
		Timeout:                10 * time.Second,
	}

	if cfg.WebhookType == "" {
		if strings.Contains(url, "slack.com") {
			cfg.WebhookType = "slack"
		} else if strings.Contains(url, "discord.com") {
			cfg.WebhookType = "discord"
		} else {
			cfg.WebhookType = "generic"
		}
	}
	return cfg
}

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
	log    logrus.FieldLogger
}

// NewAlerter creates a new alerter instance.
func NewAlerter(cfg AlertConfig, log logrus.FieldLogger) *Alerter {
	return &Alerter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// RunAlert describes a failed scheduled valuation run.
type RunAlert struct {
	JobName string
	// ConsecutiveFailures counts failed runs since the last success,
	// including this one.
	ConsecutiveFailures int
	Error               string
	Duration            time.Duration
	Timestamp           time.Time
}

// SendRunAlert posts an alert about a failed run.
func (a *Alerter) SendRunAlert(ctx context.Context, alert RunAlert) error {
	if !a.cfg.Enabled {
		a.log.Debug("alerting: alerts disabled, skipping")
		return nil
	}

	if alert.ConsecutiveFailures < a.cfg.MinFailuresBeforeAlert {
		a.log.WithFields(logrus.Fields{
			"failures":  alert.ConsecutiveFailures,
			"threshold": a.cfg.MinFailuresBeforeAlert,
		}).Info("alerting: failures below threshold, skipping")
		return nil
	}

	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}

	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	a.log.WithField("job", alert.JobName).Info("alerting: sent run failure alert")
	return nil
}

func buildSlackPayload(alert RunAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf(":x: Valuation Run Failed: %s", alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Consecutive failures:*\n%d", alert.ConsecutiveFailures)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Error:*\n```%s```", alert.Error),
				},
			},
		},
	}

	return json.Marshal(payload)
}

func buildDiscordPayload(alert RunAlert) ([]byte, error) {
	color := 16776960 // Yellow
	if alert.ConsecutiveFailures > 1 {
		color = 16711680 // Red
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Valuation Run Failed: %s", alert.JobName),
				"description": alert.Error,
				"color":       color,
				"fields": []map[string]interface{}{
					{"name": "Consecutive failures", "value": fmt.Sprintf("%d", alert.ConsecutiveFailures), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func buildGenericPayload(alert RunAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":           "valuation_run_failure",
		"job_name":             alert.JobName,
		"consecutive_failures": alert.ConsecutiveFailures,
		"error":                alert.Error,
		"duration_ms":          alert.Duration.Milliseconds(),
		"timestamp":            alert.Timestamp.Format(time.RFC3339),
	}

	return json.Marshal(payload)
}
