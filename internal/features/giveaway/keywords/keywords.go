// Package keywords matches required giveaway keywords against proof text.
package keywords

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Word characters are letters, digits and underscore. A keyword matches only
// when it is not glued to another word character on either side, so "win"
// does not match inside "winter" but does match "#win!" or "WIN".
const (
	boundaryBefore = `(?:^|[^\p{L}\p{N}_])`
	boundaryAfter  = `(?:$|[^\p{L}\p{N}_])`
)

const patternCacheSize = 512

// patterns holds compiled matchers keyed by lowercased keyword.
var patterns = mustPatternCache(patternCacheSize)

func mustPatternCache(size int) *lru.Cache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return c
}

func pattern(keyword string) *regexp.Regexp {
	key := strings.ToLower(keyword)
	if re, ok := patterns.Get(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)` + boundaryBefore + regexp.QuoteMeta(key) + boundaryAfter)
	patterns.Add(key, re)
	return re
}

// Contains reports whether text contains keyword as a whole word, ignoring case.
func Contains(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return true
	}
	return pattern(keyword).MatchString(text)
}

// Missing returns the keywords not found in text, in their original order.
// An empty keyword list always passes.
func Missing(text string, keywords []string) []string {
	var missing []string
	for _, kw := range keywords {
		if !Contains(text, kw) {
			missing = append(missing, strings.TrimSpace(kw))
		}
	}
	return missing
}

// ParseList splits a comma-separated keyword string, trimming entries and
// dropping empty ones.
func ParseList(csv string) []string {
	return Normalize(strings.Split(csv, ","))
}

// Normalize trims entries, drops empties and removes case-insensitive duplicates
// while keeping the first spelling.
func Normalize(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, kw := range list {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}
