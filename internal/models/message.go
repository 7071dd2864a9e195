package models

import "time"

// Sender roles. A message is authored by exactly one side of the conversation.
const (
	SenderAdmin     = "admin"
	SenderAnonymous = "anonymous"
)

// ValidSender reports whether s is a known sender role.
func ValidSender(s string) bool {
	return s == SenderAdmin || s == SenderAnonymous
}

// OtherSender returns the counterpart role.
func OtherSender(s string) string {
	if s == SenderAdmin {
		return SenderAnonymous
	}
	return SenderAdmin
}

// Message belongs to one conversation. ID is assigned by the store's global
// sequence and is the sole ordering guarantee; created timestamps are not
// assumed monotonic under concurrent writers.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	Sender         string     `json:"sender"`
	Content        string     `json:"content"`
	FilePath       *string    `json:"file_path,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}
