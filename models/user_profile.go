package models

// UserProfile is the identity collaborator's record. The matching engine only
// reads userhandle/name/emailId for hydration; the rest is profile plumbing.
type UserProfile struct {
	UserHandle string   `dynamodbav:"userhandle" json:"userhandle"` // ✅ Partition Key
	EmailID    string   `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Name       string   `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Bio        string   `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Photos     []string `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
	CreatedAt  string   `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// DisplayName returns the best available label for the user.
func (p UserProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.UserHandle
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "Users"
