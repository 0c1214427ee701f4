package models

// ✅ Interest intents (what the user wants out of the event)
const (
	IntentHost   = "host"
	IntentAttend = "attend"
	IntentEither = "either"
)

// ✅ Interest statuses (interests are never hard-deleted, withdrawal flips to inactive)
const (
	InterestStatusActive   = "active"
	InterestStatusInactive = "inactive"
)

// ✅ Match statuses (forward-only: pending -> accepted|declined, optionally expired)
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusDeclined = "declined"
	MatchStatusExpired  = "expired"
)

// ✅ Decisions accepted by RespondToMatch
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// SystemSender is the senderId carried by provisioned seed messages.
const SystemSender = "system"
