package models

import (
	"gorm.io/gorm"
)

// Conversation message roles
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ConversationMessage is one persisted turn of a WhatsApp conversation,
// keyed by the normalized phone number. The AI layer reads the most
// recent turns back (reverse-chronological, then re-reversed) to ground
// its prompt.
type ConversationMessage struct {
	gorm.Model

	Phone string `json:"phone" gorm:"index"`
	Role  string `json:"role"` // "user" or "ai"
	Text  string `json:"text"`
}
