package models

// ChatChannel is the one conversation a matched pair shares. ChatID uses the
// same pair-key derivation as Match.MatchID, so at most one channel can exist
// per unordered pair regardless of which side provisions it.
type ChatChannel struct {
	ChatID            string `dynamodbav:"chatId" json:"chatId"` // ✅ Partition Key
	ParticipantA      string `dynamodbav:"participantA" json:"participantA"`
	ParticipantB      string `dynamodbav:"participantB" json:"participantB"`
	ContextEventID    string `dynamodbav:"contextEventId" json:"contextEventId"`
	ContextEventTitle string `dynamodbav:"contextEventTitle,omitempty" json:"contextEventTitle,omitempty"`
	CreatedAt         string `dynamodbav:"createdAt" json:"createdAt"`
}

type Message struct {
	ChatID    string `dynamodbav:"chatId" json:"chatId"` // ✅ Partition Key
	MessageID string `dynamodbav:"messageId" json:"messageId"`
	SenderID  string `dynamodbav:"senderId" json:"senderId"`
	Content   string `dynamodbav:"content" json:"content"`
	IsSystem  bool   `dynamodbav:"isSystem" json:"isSystem"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// ChatsTable is the DynamoDB table name for chat channels
const ChatsTable = "Chats"

// MessagesTable is the DynamoDB table name for chat messages
const MessagesTable = "Messages"
