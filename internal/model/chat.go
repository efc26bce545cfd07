package model

import "time"

// MessageRole identifies the sender of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a single message inside a conversation.
type ChatMessage struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Role      MessageRole `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
}

// Chat is an assistant conversation, optionally tied to the video it was
// started from.
type Chat struct {
	ID         string        `json:"id"`
	UserID     string        `json:"userId"`
	Title      string        `json:"title"`
	Messages   []ChatMessage `json:"messages"`
	VideoID    *string       `json:"videoId,omitempty"`
	VideoTitle *string       `json:"videoTitle,omitempty"`
	Saved      bool          `json:"saved,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}
