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

// MutualInterest is a confirmed bilateral partner for one event.
type MutualInterest struct {
	PartnerID          string `json:"partnerId"`
	PartnerDisplayName string `json:"partnerDisplayName"`
}

// DetectionService finds another user with independent, currently-active
// interest in an event. Both sides of a pair may run detection at nearly the
// same time; that is expected, and the registry's idempotent upsert resolves
// it downstream. No locks here.
type DetectionService struct {
	Dynamo    *DynamoService
	Interests *InterestService
	Profiles  *UserProfileService
}

// DetectMutualInterest scans the by-event index for eventID, excluding userID,
// and re-confirms each candidate against the by-user index before returning
// the first confirmed partner. The by-event read can be stale or partially
// replicated; the double check keeps withdrawn candidates out.
//
// Candidates are walked in ascending userId order, never store-arrival order,
// so the result is reproducible when several bilateral candidates exist.
// A read failure on one candidate is logged and skipped; it never aborts the
// scan.
func (s *DetectionService) DetectMutualInterest(ctx context.Context, userID, eventID string) (*MutualInterest, error) {
	eventKey := utils.EventKey(eventID)

	keyCondition := "eventKey = :eventKey"
	expressionValues := map[string]types.AttributeValue{
		":eventKey": &types.AttributeValueMemberS{Value: eventKey},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.EventInterestsTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load interested users for %s: %w", eventID, err)
	}

	var candidates []models.Interest
	for _, item := range items {
		var interest models.Interest
		if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
			log.Printf("⚠️ Skipping unreadable interest row for event %s: %v", eventID, err)
			continue
		}
		if interest.UserID == userID || !interest.IsActive() {
			continue
		}
		candidates = append(candidates, interest)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UserID < candidates[j].UserID
	})

	for _, candidate := range candidates {
		confirmed, err := s.Interests.IsInterested(ctx, candidate.UserID, eventID)
		if err != nil {
			log.Printf("⚠️ Could not confirm interest of %s in %s, skipping: %v", candidate.UserID, eventID, err)
			continue
		}
		if !confirmed {
			continue
		}
		return &MutualInterest{
			PartnerID:          candidate.UserID,
			PartnerDisplayName: s.Profiles.DisplayName(ctx, candidate.UserID),
		}, nil
	}

	return nil, nil
}
