package models

// Interest records that a user wants to go to an event. The same document is
// written to two tables that differ only in key layout: UserInterests
// (partition userId, sort eventKey) answers "what is U interested in", and
// EventInterests (partition eventKey, sort userId) answers "who is interested
// in E". Both sides are written in one transaction and must always agree on
// status.
type Interest struct {
	UserID     string `dynamodbav:"userId" json:"userId"`
	EventKey   string `dynamodbav:"eventKey" json:"eventKey"`
	EventID    string `dynamodbav:"eventId" json:"eventId"`
	EventTitle string `dynamodbav:"eventTitle,omitempty" json:"eventTitle,omitempty"`
	Intent     string `dynamodbav:"intent,omitempty" json:"intent,omitempty"`
	Status     string `dynamodbav:"status" json:"status"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the interest currently counts for detection.
func (i Interest) IsActive() bool {
	return i.Status == InterestStatusActive
}

// UserInterestsTable is the by-user interest index
const UserInterestsTable = "UserInterests"

// EventInterestsTable is the by-event interest index
const EventInterestsTable = "EventInterests"
