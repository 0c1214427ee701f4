package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"eventmatch_server/models"
	"eventmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchQueryService is the read side: a user's interests, matches and
// aggregate stats. It never mutates anything.
type MatchQueryService struct {
	Dynamo   *DynamoService
	Profiles *UserProfileService
}

// ListMatchesForUser returns one entry per partner, newest activity first,
// hydrated with the partner's display name. A user can sit in either sorted
// slot, so both participant GSIs are queried and merged.
func (s *MatchQueryService) ListMatchesForUser(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	itemsA, err := s.queryParticipantIndex(ctx, models.ParticipantAIndex, "participantA", userID)
	if err != nil {
		return nil, err
	}
	itemsB, err := s.queryParticipantIndex(ctx, models.ParticipantBIndex, "participantB", userID)
	if err != nil {
		return nil, err
	}

	// One record per partner: the pair key already guarantees one match
	// document per pair, the map guards against an entry surfacing from
	// both index reads.
	byPartner := make(map[string]models.Match)
	for _, item := range append(itemsA, itemsB...) {
		var match models.Match
		if err := attributevalue.UnmarshalMap(item, &match); err != nil {
			log.Printf("⚠️ Skipping unreadable match row: %v", err)
			continue
		}
		partner := match.PartnerOf(userID)
		if partner == "" {
			continue
		}
		byPartner[partner] = match
	}

	summaries := make([]models.MatchSummary, 0, len(byPartner))
	for partner, match := range byPartner {
		summaries = append(summaries, models.MatchSummary{
			Match:       match,
			PartnerID:   partner,
			PartnerName: s.Profiles.DisplayName(ctx, partner),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastActivity != summaries[j].LastActivity {
			return summaries[i].LastActivity > summaries[j].LastActivity
		}
		return summaries[i].PartnerID < summaries[j].PartnerID
	})
	return summaries, nil
}

// ListInterestsForUser returns the user's active interests.
func (s *MatchQueryService) ListInterestsForUser(ctx context.Context, userID string) ([]models.Interest, error) {
	keyCondition := "userId = :userId"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.UserInterestsTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests for %s: %w", userID, err)
	}

	interests := make([]models.Interest, 0, len(items))
	for _, item := range items {
		var interest models.Interest
		if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
			log.Printf("⚠️ Skipping unreadable interest row: %v", err)
			continue
		}
		if interest.IsActive() {
			interests = append(interests, interest)
		}
	}
	sort.Slice(interests, func(i, j int) bool { return interests[i].EventKey < interests[j].EventKey })
	return interests, nil
}

// ListInterestedUsers returns the handles with active interest in an event,
// ascending.
func (s *MatchQueryService) ListInterestedUsers(ctx context.Context, eventID string) ([]string, error) {
	keyCondition := "eventKey = :eventKey"
	expressionValues := map[string]types.AttributeValue{
		":eventKey": &types.AttributeValueMemberS{Value: utils.EventKey(eventID)},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.EventInterestsTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list interested users for %s: %w", eventID, err)
	}

	users := make([]string, 0, len(items))
	for _, item := range items {
		var interest models.Interest
		if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
			continue
		}
		if interest.IsActive() {
			users = append(users, interest.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

// ComputeStats aggregates a user's matches. Expired matches count toward the
// total only; avgStrength spans every match the user has.
func (s *MatchQueryService) ComputeStats(ctx context.Context, userID string) (*models.MatchStats, error) {
	summaries, err := s.ListMatchesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.MatchStats{Total: len(summaries)}
	strengthSum := 0
	for _, summary := range summaries {
		switch summary.Status {
		case models.MatchStatusPending:
			stats.Pending++
		case models.MatchStatusAccepted:
			stats.Accepted++
		case models.MatchStatusDeclined:
			stats.Declined++
		}
		strengthSum += summary.MatchStrength
	}
	if stats.Total > 0 {
		stats.AvgStrength = float64(strengthSum) / float64(stats.Total)
	}
	return stats, nil
}

func (s *MatchQueryService) queryParticipantIndex(ctx context.Context, indexName, attribute, userID string) ([]map[string]types.AttributeValue, error) {
	keyCondition := fmt.Sprintf("%s = :userId", attribute)
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MatchesTable, indexName, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %s: %w", userID, err)
	}
	return items, nil
}
