package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"eventmatch_server/models"
	"eventmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchService is the canonical, deduplicated match registry. One document per
// unordered user pair, addressed by the deterministic pair key, merged on
// write: concurrent creators and repeat detections converge instead of
// duplicating.
type MatchService struct {
	Dynamo *DynamoService
}

// ComputeMatchStrength applies the shared-interest score:
// base = shared/max(totalInterests,1)*100, bonus = min(shared*10, 30),
// clamped to 0..100.
func ComputeMatchStrength(sharedEvents, totalInterests int) int {
	if totalInterests < 1 {
		totalInterests = 1
	}
	base := float64(sharedEvents) / float64(totalInterests) * 100
	bonus := math.Min(float64(sharedEvents*10), 30)
	strength := int(math.Round(base + bonus))
	if strength < 0 {
		return 0
	}
	if strength > 100 {
		return 100
	}
	return strength
}

// UpsertMatch merges newSharedEventIDs into the pair's match record, creating
// it as pending when absent. The ADD on the sharedEventIds string set is a
// server-side union and if_not_exists guards the first-writer fields, so two
// callers landing at once still produce one coherent document and status is
// never downgraded. userID1 is the initiating user for the strength formula.
func (s *MatchService) UpsertMatch(ctx context.Context, userID1, userID2 string, newSharedEventIDs []string) (*models.Match, error) {
	if userID1 == "" || userID2 == "" || userID1 == userID2 {
		return nil, fmt.Errorf("a match needs two distinct users")
	}
	if len(newSharedEventIDs) == 0 {
		return nil, fmt.Errorf("a match needs at least one shared event")
	}

	a, b := utils.SortedPair(userID1, userID2)
	matchID := utils.PairKey(userID1, userID2)
	now := time.Now().UTC().Format(time.RFC3339)

	updateExpression := "ADD sharedEventIds :events " +
		"SET participantA = if_not_exists(participantA, :a), " +
		"participantB = if_not_exists(participantB, :b), " +
		"#status = if_not_exists(#status, :pending), " +
		"matchedAt = if_not_exists(matchedAt, :now), " +
		"lastActivity = :now"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":events":  &types.AttributeValueMemberSS{Value: newSharedEventIDs},
		":a":       &types.AttributeValueMemberS{Value: a},
		":b":       &types.AttributeValueMemberS{Value: b},
		":pending": &types.AttributeValueMemberS{Value: models.MatchStatusPending},
		":now":     &types.AttributeValueMemberS{Value: now},
	}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, matchKey(matchID), values, names, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert match %s: %w", matchID, err)
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(attrs, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match %s: %w", matchID, err)
	}

	// Strength depends on the merged set, so it is recomputed from the state
	// the merge returned. Concurrent writers may interleave here; the larger
	// set always wins the next recompute, and the stored value never refers
	// to events outside the set.
	totalInterests, err := s.countActiveInterests(ctx, userID1)
	if err != nil {
		log.Printf("⚠️ Could not count interests of %s, keeping previous strength: %v", userID1, err)
		return &match, nil
	}
	strength := ComputeMatchStrength(len(match.SharedEventIDs), totalInterests)
	strengthExpr := "SET matchStrength = :strength"
	strengthValues := map[string]types.AttributeValue{
		":strength": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", strength)},
	}
	if _, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable, strengthExpr, matchKey(matchID), strengthValues, nil, ""); err != nil {
		log.Printf("⚠️ Failed to store strength for match %s: %v", matchID, err)
	}
	match.MatchStrength = strength

	log.Printf("✅ Match upserted: %s (%d shared events, strength %d)", matchID, len(match.SharedEventIDs), strength)
	return &match, nil
}

// GetMatch loads one match by id.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	item, err := s.Dynamo.GetItem(ctx, models.MatchesTable, matchKey(matchID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match %s: %w", matchID, err)
	}
	return &match, nil
}

// RespondToMatch applies a participant's accept/decline. Repeating a decision
// the match already reflects is a successful no-op; any other move out of a
// terminal status is rejected. The transition itself is a conditional write
// on status = pending, so two racing responders cannot both win.
func (s *MatchService) RespondToMatch(ctx context.Context, matchID, callerID, decision string) (*models.Match, error) {
	var target string
	switch decision {
	case models.DecisionAccept:
		target = models.MatchStatusAccepted
	case models.DecisionDecline:
		target = models.MatchStatusDeclined
	default:
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(callerID) {
		return nil, fmt.Errorf("%s is not a participant of match %s: %w", callerID, matchID, ErrNotAuthorized)
	}
	if match.Status == target {
		return match, nil
	}
	if match.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("match %s is %s: %w", matchID, match.Status, ErrInvalidTransition)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updateExpression := "SET #status = :target, lastActivity = :now"
	condition := "#status = :pending"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":target":  &types.AttributeValueMemberS{Value: target},
		":pending": &types.AttributeValueMemberS{Value: models.MatchStatusPending},
		":now":     &types.AttributeValueMemberS{Value: now},
	}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, matchKey(matchID), values, names, condition)
	if err != nil {
		if IsConditionalFailure(err) {
			// Lost a race with the other participant (or a repeat of this
			// call). Re-read and decide from the winner's state.
			current, readErr := s.GetMatch(ctx, matchID)
			if readErr != nil {
				return nil, readErr
			}
			if current.Status == target {
				return current, nil
			}
			return nil, fmt.Errorf("match %s is %s: %w", matchID, current.Status, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to respond to match %s: %w", matchID, err)
	}

	var updated models.Match
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match %s: %w", matchID, err)
	}
	log.Printf("✅ Match %s -> %s by %s", matchID, target, callerID)
	return &updated, nil
}

// SetChatID links the provisioned chat to the match. if_not_exists keeps a
// retry from overwriting an already-linked channel.
func (s *MatchService) SetChatID(ctx context.Context, matchID, chatID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	updateExpression := "SET chatId = if_not_exists(chatId, :chatId), lastActivity = :now"
	values := map[string]types.AttributeValue{
		":chatId": &types.AttributeValueMemberS{Value: chatID},
		":now":    &types.AttributeValueMemberS{Value: now},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, matchKey(matchID), values, nil, "")
	if err != nil {
		return fmt.Errorf("failed to link chat to match %s: %w", matchID, err)
	}
	return nil
}

// ExpireStaleMatches archives pending matches whose matchedAt is older than
// maxAge. Invoked explicitly over the maintenance endpoint; there is no
// background job. Returns the number of matches expired.
func (s *MatchService) ExpireStaleMatches(ctx context.Context, maxAge time.Duration) (int, error) {
	items, err := s.Dynamo.ScanItems(ctx, models.MatchesTable)
	if err != nil {
		return 0, fmt.Errorf("failed to scan matches: %w", err)
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	now := time.Now().UTC().Format(time.RFC3339)
	expired := 0
	for _, item := range items {
		var match models.Match
		if err := attributevalue.UnmarshalMap(item, &match); err != nil {
			log.Printf("⚠️ Skipping unreadable match row: %v", err)
			continue
		}
		if match.Status != models.MatchStatusPending {
			continue
		}
		matchedAt, err := time.Parse(time.RFC3339, match.MatchedAt)
		if err != nil || !matchedAt.Before(cutoff) {
			continue
		}

		updateExpression := "SET #status = :expired, lastActivity = :now"
		condition := "#status = :pending"
		names := map[string]string{"#status": "status"}
		values := map[string]types.AttributeValue{
			":expired": &types.AttributeValueMemberS{Value: models.MatchStatusExpired},
			":pending": &types.AttributeValueMemberS{Value: models.MatchStatusPending},
			":now":     &types.AttributeValueMemberS{Value: now},
		}
		if _, err := s.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, matchKey(match.MatchID), values, names, condition); err != nil {
			if IsConditionalFailure(err) {
				continue // responded to while we were scanning
			}
			log.Printf("⚠️ Failed to expire match %s: %v", match.MatchID, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("✅ Expired %d stale matches", expired)
	}
	return expired, nil
}

func (s *MatchService) countActiveInterests(ctx context.Context, userID string) (int, error) {
	keyCondition := "userId = :userId"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.UserInterestsTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		var interest models.Interest
		if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
			continue
		}
		if interest.IsActive() {
			count++
		}
	}
	return count, nil
}

func matchKey(matchID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
}
