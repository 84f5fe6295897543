package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage represents a single message inside a chat room. Messages are
// immutable after creation except for the IsRead flag, which the recipient's
// client flips when it views or receives the message.
type ChatMessage struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	RoomID         string         `gorm:"not null;index" json:"room_id"`
	Room           ChatRoom       `gorm:"foreignKey:RoomID" json:"-"`
	SenderID       string         `gorm:"not null;index" json:"sender_id"`
	MessageContent string         `gorm:"type:text;not null" json:"message_content"`
	IsRead         bool           `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
