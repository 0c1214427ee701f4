package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"eventmatch_server/models"
	"eventmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// InterestService is the durable, idempotent record of "user U is interested
// in event E". Every mutation writes the by-user and by-event rows in one
// transaction, so a concurrent detector never sees a half-written pair.
type InterestService struct {
	Dynamo *DynamoService
	Watch  *WatchRegistry
}

// RecordInterest upserts an active interest for (userID, eventID). Calling it
// again with the same inputs is a no-op apart from refreshing the timestamp.
func (s *InterestService) RecordInterest(ctx context.Context, userID, eventID, eventTitle, intent string) (*models.Interest, error) {
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("userId and eventId are required")
	}
	if intent == "" {
		intent = models.IntentEither
	}

	now := time.Now().UTC().Format(time.RFC3339)
	interest := models.Interest{
		UserID:     userID,
		EventKey:   utils.EventKey(eventID),
		EventID:    eventID,
		EventTitle: eventTitle,
		Intent:     intent,
		Status:     models.InterestStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	item, err := attributevalue.MarshalMap(interest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interest: %w", err)
	}

	userTable := models.UserInterestsTable
	eventTable := models.EventInterestsTable
	err = s.Dynamo.TransactWriteItems(ctx, []types.TransactWriteItem{
		{Put: &types.Put{TableName: &userTable, Item: item}},
		{Put: &types.Put{TableName: &eventTable, Item: item}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record interest: %w", err)
	}

	log.Printf("✅ Interest recorded: %s -> %s (%s)", userID, eventID, intent)
	if s.Watch != nil {
		s.Watch.Notify(userID, interest.EventKey, true)
	}
	return &interest, nil
}

// WithdrawInterest flips both index rows to inactive in one transaction. The
// record is never deleted; an already-inactive interest is a successful no-op.
// Withdrawal only suppresses future detection, existing matches stand.
func (s *InterestService) WithdrawInterest(ctx context.Context, userID, eventID string) error {
	existing, err := s.getUserInterest(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("interest of %s in %s: %w", userID, eventID, ErrNotFound)
	}
	if !existing.IsActive() {
		log.Printf("⚠️ Interest of %s in %s already inactive, nothing to do", userID, eventID)
		return nil
	}

	eventKey := utils.EventKey(eventID)
	now := time.Now().UTC().Format(time.RFC3339)
	updateExpression := "SET #status = :inactive, updatedAt = :now"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":inactive": &types.AttributeValueMemberS{Value: models.InterestStatusInactive},
		":now":      &types.AttributeValueMemberS{Value: now},
	}

	// The condition keeps an inconsistent pair from being half-created:
	// if either row is missing, neither side is touched.
	condition := "attribute_exists(userId)"
	userTable := models.UserInterestsTable
	eventTable := models.EventInterestsTable
	err = s.Dynamo.TransactWriteItems(ctx, []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:                 &userTable,
			Key:                       userInterestKey(userID, eventKey),
			UpdateExpression:          &updateExpression,
			ConditionExpression:       &condition,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		}},
		{Update: &types.Update{
			TableName:                 &eventTable,
			Key:                       eventInterestKey(eventKey, userID),
			UpdateExpression:          &updateExpression,
			ConditionExpression:       &condition,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to withdraw interest: %w", err)
	}

	log.Printf("✅ Interest withdrawn: %s -> %s", userID, eventID)
	if s.Watch != nil {
		s.Watch.Notify(userID, eventKey, false)
	}
	return nil
}

// IsInterested is a point read of the by-user index.
func (s *InterestService) IsInterested(ctx context.Context, userID, eventID string) (bool, error) {
	interest, err := s.getUserInterest(ctx, userID, eventID)
	if err != nil {
		return false, err
	}
	return interest != nil && interest.IsActive(), nil
}

// WatchInterest subscribes onChange to status changes for (userID, eventID).
// The caller owns cancellation via the returned func.
func (s *InterestService) WatchInterest(userID, eventID string, onChange func(bool)) func() {
	return s.Watch.Watch(userID, utils.EventKey(eventID), onChange)
}

func (s *InterestService) getUserInterest(ctx context.Context, userID, eventID string) (*models.Interest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.UserInterestsTable, userInterestKey(userID, utils.EventKey(eventID)))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	var interest models.Interest
	if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest: %w", err)
	}
	return &interest, nil
}

func userInterestKey(userID, eventKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":   &types.AttributeValueMemberS{Value: userID},
		"eventKey": &types.AttributeValueMemberS{Value: eventKey},
	}
}

func eventInterestKey(eventKey, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"eventKey": &types.AttributeValueMemberS{Value: eventKey},
		"userId":   &types.AttributeValueMemberS{Value: userID},
	}
}
