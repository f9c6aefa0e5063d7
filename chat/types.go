package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a grant conversation. The sequence is
// append-only and lives only for the current document session.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a message with a time-based id and a random suffix.
func NewMessage(role, content string, now time.Time) Message {
	return Message{
		ID:        fmt.Sprintf("msg-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}
