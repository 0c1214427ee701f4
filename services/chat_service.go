package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"eventmatch_server/models"
	"eventmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ChatService provisions the one channel a matched pair shares and serves the
// message read-side. Provisioning is naturally idempotent: the chat id is the
// canonical pair key, creation is guarded by attribute_not_exists, and a lost
// race simply returns the winner's channel.
type ChatService struct {
	Dynamo *DynamoService
}

// CreateOrGetChat returns the pair's chat id, creating the channel and its
// seed system message as one unit of work when absent. Safe to call again
// after a failure: a match marked accepted with no chat is a recoverable
// state, and retrying lands here.
func (s *ChatService) CreateOrGetChat(ctx context.Context, userID1, userID2, contextEventID, contextEventTitle string) (string, error) {
	if userID1 == "" || userID2 == "" || userID1 == userID2 {
		return "", fmt.Errorf("a chat needs two distinct participants")
	}

	chatID := utils.PairKey(userID1, userID2)
	existing, err := s.GetChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return chatID, nil
	}

	a, b := utils.SortedPair(userID1, userID2)
	now := time.Now().UTC().Format(time.RFC3339)
	channel := models.ChatChannel{
		ChatID:            chatID,
		ParticipantA:      a,
		ParticipantB:      b,
		ContextEventID:    contextEventID,
		ContextEventTitle: contextEventTitle,
		CreatedAt:         now,
	}
	seed := models.Message{
		ChatID:    chatID,
		MessageID: uuid.NewString(),
		SenderID:  models.SystemSender,
		Content:   seedMessage(contextEventTitle, contextEventID),
		IsSystem:  true,
		CreatedAt: now,
	}

	channelItem, err := attributevalue.MarshalMap(channel)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat channel: %w", err)
	}
	seedItem, err := attributevalue.MarshalMap(seed)
	if err != nil {
		return "", fmt.Errorf("failed to marshal seed message: %w", err)
	}

	condition := "attribute_not_exists(chatId)"
	chatsTable := models.ChatsTable
	messagesTable := models.MessagesTable
	err = s.Dynamo.TransactWriteItems(ctx, []types.TransactWriteItem{
		{Put: &types.Put{TableName: &chatsTable, Item: channelItem, ConditionExpression: &condition}},
		{Put: &types.Put{TableName: &messagesTable, Item: seedItem}},
	})
	if err != nil {
		if IsConditionalFailure(err) {
			// The other participant created it first. Same id either way.
			log.Printf("⚠️ Chat %s already provisioned concurrently", chatID)
			return chatID, nil
		}
		return "", fmt.Errorf("failed to provision chat %s: %w", chatID, err)
	}

	log.Printf("✅ Chat provisioned: %s (event %s)", chatID, contextEventID)
	return chatID, nil
}

func seedMessage(title, eventID string) string {
	label := title
	if label == "" {
		label = eventID
	}
	return fmt.Sprintf("You both want to go to %s. Say hi!", label)
}

// GetChat loads a channel by id; a missing channel is (nil, nil).
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*models.ChatChannel, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ChatsTable, chatKey(chatID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	var channel models.ChatChannel
	if err := attributevalue.UnmarshalMap(item, &channel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat %s: %w", chatID, err)
	}
	return &channel, nil
}

// GetMessagesByChatID fetches messages for a chat sorted by createdAt
// ascending, oldest first. The caller must be a participant.
func (s *ChatService) GetMessagesByChatID(ctx context.Context, chatID, callerID string, limit int) ([]models.Message, error) {
	channel, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if channel.ParticipantA != callerID && channel.ParticipantB != callerID {
		return nil, fmt.Errorf("%s is not a participant of chat %s: %w", callerID, chatID, ErrNotAuthorized)
	}

	keyCondition := "chatId = :chatId"
	expressionValues := map[string]types.AttributeValue{
		":chatId": &types.AttributeValueMemberS{Value: chatID},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.MessagesTable, keyCondition, expressionValues, nil, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt < messages[j].CreatedAt
	})
	return messages, nil
}

// SendMessage appends a participant's message to the channel.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, content string) (*models.Message, error) {
	channel, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if channel.ParticipantA != senderID && channel.ParticipantB != senderID {
		return nil, fmt.Errorf("%s is not a participant of chat %s: %w", senderID, chatID, ErrNotAuthorized)
	}

	message := models.Message{
		ChatID:    chatID,
		MessageID: uuid.NewString(),
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return &message, nil
}

func chatKey(chatID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"chatId": &types.AttributeValueMemberS{Value: chatID},
	}
}
