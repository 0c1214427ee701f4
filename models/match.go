package models

// Match is the canonical record for an unordered pair of users. MatchID is a
// pure function of the sorted pair (utils.PairKey), so concurrent creators
// converge on one document. ParticipantA/ParticipantB hold the sorted pair and
// back the two GSIs used to list a user's matches.
type Match struct {
	MatchID        string   `dynamodbav:"matchId" json:"matchId"` // ✅ Partition Key
	ParticipantA   string   `dynamodbav:"participantA" json:"participantA"`
	ParticipantB   string   `dynamodbav:"participantB" json:"participantB"`
	SharedEventIDs []string `dynamodbav:"sharedEventIds,stringset" json:"sharedEventIds"`
	MatchStrength  int      `dynamodbav:"matchStrength" json:"matchStrength"`
	Status         string   `dynamodbav:"status" json:"status"`
	ChatID         string   `dynamodbav:"chatId,omitempty" json:"chatId,omitempty"`
	MatchedAt      string   `dynamodbav:"matchedAt" json:"matchedAt"`
	LastActivity   string   `dynamodbav:"lastActivity" json:"lastActivity"`
}

// Participants returns both user handles, sorted.
func (m Match) Participants() []string {
	return []string{m.ParticipantA, m.ParticipantB}
}

// HasParticipant reports whether the given user is part of the match.
func (m Match) HasParticipant(userID string) bool {
	return m.ParticipantA == userID || m.ParticipantB == userID
}

// PartnerOf returns the other participant, or "" when userID is not part of
// the match.
func (m Match) PartnerOf(userID string) string {
	switch userID {
	case m.ParticipantA:
		return m.ParticipantB
	case m.ParticipantB:
		return m.ParticipantA
	}
	return ""
}

// MatchSummary is the read-side shape: one entry per partner, hydrated with
// display data from the Users table.
type MatchSummary struct {
	Match
	PartnerID   string `json:"partnerId"`
	PartnerName string `json:"partnerName"`
}

// MatchStats aggregates a user's matches.
type MatchStats struct {
	Total       int     `json:"total"`
	Pending     int     `json:"pending"`
	Accepted    int     `json:"accepted"`
	Declined    int     `json:"declined"`
	AvgStrength float64 `json:"avgStrength"`
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"

// GSIs on MatchesTable used to find a user's matches from either slot
const (
	ParticipantAIndex = "participantA-index"
	ParticipantBIndex = "participantB-index"
)
