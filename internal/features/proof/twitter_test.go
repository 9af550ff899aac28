package proof

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTweetID(t *testing.T) {
	tests := []struct {
		locator string
		want    string
		wantErr bool
	}{
		{locator: "https://twitter.com/alice/status/1790000000000000000", want: "1790000000000000000"},
		{locator: "https://x.com/alice/status/42?s=20", want: "42"},
		{locator: "https://mobile.twitter.com/alice/statuses/77", want: "77"},
		{locator: "https://x.com/alice", wantErr: true},
		{locator: "status/abc", wantErr: true},
		{locator: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractTweetID(tt.locator)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFormat, tt.locator)
			continue
		}
		require.NoError(t, err, tt.locator)
		assert.Equal(t, tt.want, got)
	}
}

func TestTwitterClientFetchText(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/2/tweets/123", r.URL.Path)
		assert.Equal(t, "text", r.URL.Query().Get("tweet.fields"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"123","text":"Joining the #airdrop to WIN"}}`))
	}))
	defer srv.Close()

	client, err := NewTwitterClient(srv.URL, "token-1", time.Second, 16)
	require.NoError(t, err)

	text, err := client.FetchText(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "Joining the #airdrop to WIN", text)

	_, err = client.FetchText(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTwitterClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/tweets/404":
			w.WriteHeader(http.StatusNotFound)
		case "/2/tweets/deleted":
			_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find tweet"}]}`))
		case "/2/tweets/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"data":{"id":"slow","text":"late"}}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	client, err := NewTwitterClient(srv.URL, "t", 50*time.Millisecond, 0)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.FetchText(ctx, "404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.FetchText(ctx, "deleted")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.FetchText(ctx, "limited")
	assert.Error(t, err)

	_, err = client.FetchText(ctx, "slow")
	assert.Error(t, err)
}
