package proof

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"tweet-giveaway-backend/internal/common/logger"
)

// TwitterClient reads tweets through the Twitter API v2. Fetched texts are kept
// in an LRU cache since a tweet's text does not change after posting.
type TwitterClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	cache       *lru.Cache
}

type tweetResponse struct {
	Data *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Type   string `json:"type"`
	} `json:"errors"`
}

// NewTwitterClient creates a client. A non-positive cacheSize disables caching.
func NewTwitterClient(baseURL, bearerToken string, timeout time.Duration, cacheSize int) (*TwitterClient, error) {
	if baseURL == "" {
		baseURL = "https://api.twitter.com"
	}
	c := &TwitterClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create tweet cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

func (c *TwitterClient) FetchText(ctx context.Context, tweetID string) (string, error) {
	if c.cache != nil {
		if text, ok := c.cache.Get(tweetID); ok {
			return text.(string), nil
		}
	}

	endpoint := fmt.Sprintf("%s/2/tweets/%s?%s", c.baseURL, url.PathEscape(tweetID),
		url.Values{"tweet.fields": {"text"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("tweet_id", tweetID).
			Str("body", string(body)).
			Msg("Twitter API error")
		return "", fmt.Errorf("twitter http %d", resp.StatusCode)
	}

	var out tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode tweet: %w", err)
	}
	// API v2 answers 200 with an errors array for deleted or protected tweets
	if out.Data == nil {
		return "", ErrNotFound
	}

	if c.cache != nil {
		c.cache.Add(tweetID, out.Data.Text)
	}
	return out.Data.Text, nil
}
