package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookMessage struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
	Fields      []Field   `json:"fields,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

const (
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c
)

// Client posts run summaries to a Discord webhook. A client with an empty
// URL is a no-op, so callers never have to branch on whether notification
// is configured.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunSummary reports the outcome of one extraction run.
type RunSummary struct {
	Resources  int
	Rows       int64
	FeedErrors []string
	Err        error
}

// SendRunSummary posts an embed describing the run.
func (c *Client) SendRunSummary(summary RunSummary) error {
	embed := Embed{
		Title:     "MTA extraction run completed",
		Color:     colorGreen,
		Timestamp: time.Now().UTC(),
		Fields: []Field{
			{Name: "Resources", Value: fmt.Sprintf("%d", summary.Resources), Inline: true},
			{Name: "Rows", Value: fmt.Sprintf("%d", summary.Rows), Inline: true},
		},
	}

	if summary.Err != nil {
		embed.Title = "MTA extraction run failed"
		embed.Color = colorRed
		embed.Description = summary.Err.Error()
	}
	if len(summary.FeedErrors) > 0 {
		value := ""
		for _, name := range summary.FeedErrors {
			if value != "" {
				value += ", "
			}
			value += name
		}
		embed.Fields = append(embed.Fields, Field{Name: "Failed feeds", Value: value})
		if summary.Err == nil {
			embed.Color = colorRed
		}
	}

	return c.SendMessage(WebhookMessage{Embeds: []Embed{embed}})
}

func (c *Client) SendMessage(msg WebhookMessage) error {
	if c.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequest("POST", c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}

	return nil
}
