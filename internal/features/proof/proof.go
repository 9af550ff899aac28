// Package proof fetches the text of claimant-authored tweets used as eligibility proof.
package proof

import (
	"context"
	"errors"
	"regexp"
)

var (
	ErrNotFound      = errors.New("tweet not found")
	ErrInvalidFormat = errors.New("cannot extract tweet id from locator")
)

// Source returns the text of a tweet by id.
type Source interface {
	FetchText(ctx context.Context, tweetID string) (string, error)
}

var tweetIDRegex = regexp.MustCompile(`status(?:es)?/(\d{1,25})`)

// ExtractTweetID pulls the numeric status id out of a tweet URL such as
// https://x.com/someone/status/1790000000000000000.
func ExtractTweetID(locator string) (string, error) {
	m := tweetIDRegex.FindStringSubmatch(locator)
	if m == nil {
		return "", ErrInvalidFormat
	}
	return m[1], nil
}
