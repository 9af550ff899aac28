package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tweet-giveaway-backend/internal/common/logger"
)

// Settler attempts the value transfer for a claim.
type Settler interface {
	Settle(ctx context.Context, ev Event) error
}

// WebhookSettler posts events to an external settlement service.
type WebhookSettler struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSettler(url string, timeout time.Duration) *WebhookSettler {
	return &WebhookSettler{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSettler) Settle(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// Receivers deduplicate on this key when a stream entry is redelivered
	req.Header.Set("Idempotency-Key", ev.ID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("settlement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("settlement http %d", resp.StatusCode)
	}
	return nil
}

// LogSettler only records the event. Used when no settlement endpoint is configured.
type LogSettler struct{}

func (LogSettler) Settle(ctx context.Context, ev Event) error {
	logger.Info().
		Str("event_id", ev.ID).
		Str("giveaway_id", ev.GiveawayID).
		Str("claimant_id", ev.ClaimantID).
		Str("amount", ev.Amount.String()).
		Str("token", ev.Token).
		Msg("Settlement skipped: no settler configured")
	return nil
}
