package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/metrics"
)

const (
	colorGreen  = 0x2ECC71 // valuation_success
	colorYellow = 0xF1C40F // valuation_start
	colorRed    = 0xE74C3C // valuation_error
)

// DiscordSink implements audit.Sink via a Discord webhook. Start events
// are skipped by default; successes and errors are posted as embeds.
type DiscordSink struct {
	webhookURL    string
	client        *http.Client
	includeStarts bool
}

// NewDiscordSink creates a DiscordSink for the given webhook URL.
func NewDiscordSink(webhookURL string, opts ...DiscordOption) *DiscordSink {
	d := &DiscordSink{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordSink.
type DiscordOption func(*DiscordSink)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordSink) {
		d.client = c
	}
}

// WithStartEvents also posts valuation_start entries, which otherwise
// double the message volume for no extra signal.
func WithStartEvents() DiscordOption {
	return func(d *DiscordSink) {
		d.includeStarts = true
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Deliver posts the entry as a Discord embed.
func (d *DiscordSink) Deliver(ctx context.Context, entry *audit.Entry) error {
	if entry.Event == audit.EventStart && !d.includeStarts {
		return nil
	}
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(entry)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(entry *audit.Entry) discordEmbed {
	embed := discordEmbed{
		Title: embedTitle(entry),
		Color: eventColor(entry.Event),
		Fields: []discordEmbedField{
			{Name: "VIN", Value: entry.Vehicle.VIN, Inline: true},
			{Name: "Year", Value: fmt.Sprintf("%d", entry.Vehicle.Year), Inline: true},
		},
	}

	if entry.UserID != "" {
		embed.Fields = append(embed.Fields,
			discordEmbedField{Name: "User", Value: entry.UserID, Inline: true})
	}

	switch entry.Event {
	case audit.EventSuccess:
		if entry.Result != nil {
			embed.Fields = append(embed.Fields,
				discordEmbedField{
					Name:   "Estimate",
					Value:  fmt.Sprintf("$%.0f", entry.Result.EstimatedValue),
					Inline: true,
				},
				discordEmbedField{
					Name:   "Confidence",
					Value:  fmt.Sprintf("%.0f%%", entry.Result.ConfidenceScore*100),
					Inline: true,
				},
				discordEmbedField{
					Name:   "Method",
					Value:  entry.Result.ValuationMethod,
					Inline: true,
				},
			)
		}
		if entry.ProcessingTimeMS > 0 {
			embed.Fields = append(embed.Fields,
				discordEmbedField{
					Name:   "Time",
					Value:  fmt.Sprintf("%.0fms", entry.ProcessingTimeMS),
					Inline: true,
				})
		}
	case audit.EventError:
		embed.Description = entry.Error
	}

	return embed
}

func embedTitle(entry *audit.Entry) string {
	vehicle := strings.TrimSpace(fmt.Sprintf("%d %s %s",
		entry.Vehicle.Year, entry.Vehicle.Make, entry.Vehicle.Model))

	switch entry.Event {
	case audit.EventSuccess:
		return fmt.Sprintf("Valuation: %s", vehicle)
	case audit.EventError:
		return fmt.Sprintf("Valuation failed: %s", vehicle)
	default:
		return fmt.Sprintf("Valuation started: %s", vehicle)
	}
}

func eventColor(event audit.Event) int {
	switch event {
	case audit.EventSuccess:
		return colorGreen
	case audit.EventError:
		return colorRed
	default:
		return colorYellow
	}
}

func (d *DiscordSink) post(ctx context.Context, payload discordWebhookPayload) (err error) {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.NotificationFailuresTotal.Inc()
		}
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
