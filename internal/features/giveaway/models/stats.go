package models

import "time"

// UserStats counts giveaways a user created and claims they made.
type UserStats struct {
	TotalGiveaways     int `json:"total_giveaways"`
	ActiveGiveaways    int `json:"active_giveaways"`
	CompletedGiveaways int `json:"completed_giveaways"`
	VerifiedClaims     int `json:"verified_claims"`
}

// ActivityType is the kind of an activity feed item
type ActivityType string

const (
	ActivityCreated ActivityType = "created"
	ActivityClaimed ActivityType = "claimed"
)

// ActivityItem is a single entry of a user's activity feed.
type ActivityItem struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Amount      string       `json:"amount"`
	Token       string       `json:"token"`
	Status      string       `json:"status"`
	Date        time.Time    `json:"date"`
}
