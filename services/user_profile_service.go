package services

import (
	"context"
	"fmt"
	"time"

	"eventmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserProfileService fronts the Users table. The matching engine treats it as
// the read-only identity collaborator; the write paths exist for the profile
// API surface.
type UserProfileService struct {
	Dynamo *DynamoService
}

// AddUserProfile adds a new user profile to DynamoDB
func (ups *UserProfileService) AddUserProfile(ctx context.Context, profile models.UserProfile) (*models.UserProfile, error) {
	if profile.UserHandle == "" {
		return nil, fmt.Errorf("userhandle is required")
	}
	if profile.CreatedAt == "" {
		profile.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := ups.Dynamo.PutItem(ctx, models.UserProfilesTable, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserProfile retrieves a user profile by handle
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userHandle string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userhandle": &types.AttributeValueMemberS{Value: userHandle},
	}
	item, err := ups.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("profile %s: %w", userHandle, ErrNotFound)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// DisplayName resolves the display name for a handle, falling back to the
// handle itself when the profile is missing or unreadable.
func (ups *UserProfileService) DisplayName(ctx context.Context, userHandle string) string {
	profile, err := ups.GetUserProfile(ctx, userHandle)
	if err != nil {
		return userHandle
	}
	return profile.DisplayName()
}

// DeleteUserProfile removes a user profile from DynamoDB
func (ups *UserProfileService) DeleteUserProfile(ctx context.Context, userHandle string) error {
	key := map[string]types.AttributeValue{
		"userhandle": &types.AttributeValueMemberS{Value: userHandle},
	}
	return ups.Dynamo.DeleteItem(ctx, models.UserProfilesTable, key)
}
