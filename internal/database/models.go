package database

import "time"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a support conversation, either the user's question
// or the bot's answer.
type Turn struct {
	ID             int64     `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Platform       string    `db:"platform"`
	UserID         string    `db:"user_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	Source         string    `db:"source"` // answer source for assistant turns
	CreatedAt      time.Time `db:"created_at"`
}

// Stats summarizes stored history.
type Stats struct {
	Turns         int64 `db:"turns"`
	Conversations int64 `db:"conversations"`
}
