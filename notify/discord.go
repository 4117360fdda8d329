package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var levelColors = map[Level]int{
	LevelDebug:   0x95A5A6,
	LevelInfo:    0x00FF00,
	LevelWarning: 0xF1C40F,
	LevelError:   0xE74C3C,
}

// Discord posts events to a Discord webhook as embeds.
type Discord struct {
	webhookURL string
	mentionID  string
	client     *http.Client
}

// NewDiscord returns a Discord sink. mentionUserID, when set, pings that user
// on warning and error events.
func NewDiscord(webhookURL, mentionUserID string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		mentionID:  mentionUserID,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, ev Event) error {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       ev.Title,
				"description": ev.Message,
				"color":       levelColors[ev.Level],
				"timestamp":   ev.Time.UTC().Format(time.RFC3339),
			},
		},
	}
	if d.mentionID != "" && (ev.Level == LevelWarning || ev.Level == LevelError) {
		payload["content"] = fmt.Sprintf("<@%s>", d.mentionID)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status: %d", resp.StatusCode)
	}
	return nil
}
