package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom represents a two-party conversation between a buyer and a farmer.
// A room's identity is its participant pair: the composite unique index lets
// the database reject a second room for the same buyer/farmer combination.
// Rooms delete hard; a soft-delete column would leave the removed row holding
// the pair's slot in the unique index.
type ChatRoom struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	BuyerID   string    `gorm:"not null;uniqueIndex:idx_room_pair" json:"buyer_id"`
	Buyer     Profile   `gorm:"foreignKey:BuyerID" json:"buyer"`
	FarmerID  string    `gorm:"not null;uniqueIndex:idx_room_pair" json:"farmer_id"`
	Farmer    Profile   `gorm:"foreignKey:FarmerID" json:"farmer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ChatRoom model
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
