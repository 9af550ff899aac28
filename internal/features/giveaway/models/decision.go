package models

// DenyReason explains why the eligibility engine refused a claim.
type DenyReason string

const (
	DenyNotActive       DenyReason = "not_active"
	DenyAlreadyClaimed  DenyReason = "already_claimed"
	DenyCapacityReached DenyReason = "capacity_reached"
	DenyNotVerified     DenyReason = "not_verified"
)

// Decision is the result of an eligibility check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// ClaimOutcome distinguishes a fresh claim from one already on record.
type ClaimOutcome string

const (
	ClaimOutcomeClaimed        ClaimOutcome = "claimed"
	ClaimOutcomeAlreadyClaimed ClaimOutcome = "already_claimed"
)

// SettlementState is reported to callers after a claim.
type SettlementState string

const (
	SettlementQueued   SettlementState = "queued"
	SettlementDegraded SettlementState = "degraded"
)
