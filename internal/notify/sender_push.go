package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httpretry"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/logger"
)

// PushSender relays push notifications through the mobile gateway's webhook.
// The gateway keeps the device registry and fans a notice out to every
// device registered under the recipient's email, so this side only needs
// the identity, not device tokens.
type PushSender struct {
	relayURL string
	apiKey   string
	client   httpretry.HTTPDoer
}

// NewPushSender creates a push sender targeting the given relay.
func NewPushSender(relayURL, apiKey string) *PushSender {
	return &PushSender{
		relayURL: strings.TrimRight(relayURL, "/"),
		apiKey:   apiKey,
		client: httpretry.NewRetryClient(&http.Client{Timeout: 15 * time.Second}, 2).
			WithDelays(200*time.Millisecond, 2*time.Second),
	}
}

type pushPayload struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	MessageID string `json:"message_id,omitempty"`
}

// Send relays a single push notification. A 404 from the relay means the
// recipient has no registered devices, which is a skip rather than a
// failure.
func (s *PushSender) Send(ctx context.Context, d *Delivery) (*SendResult, error) {
	if s.relayURL == "" {
		return nil, fmt.Errorf("push relay not configured")
	}

	payload, err := json.Marshal(pushPayload{
		Recipient: d.Recipient,
		Name:      d.RecipientName,
		Title:     d.Subject,
		Body:      d.Body,
		MessageID: d.MessageID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	endpoint := s.relayURL + "/v1/push"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &SendResult{Success: false, Error: fmt.Errorf("push relay request: %w", err)}, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return &SendResult{Skipped: true, SkipReason: "no registered devices"}, nil
	}
	if resp.StatusCode >= 400 {
		return &SendResult{Success: false, Error: fmt.Errorf("push relay error %d: %s", resp.StatusCode, string(body))}, nil
	}

	var result struct {
		ID string `json:"id"`
	}
	json.Unmarshal(body, &result)
	log.Printf("[Push] Sent to %s (id: %s)", logger.RedactEmail(d.Recipient), result.ID)

	return &SendResult{Success: true, ProviderID: result.ID, SentAt: time.Now()}, nil
}
