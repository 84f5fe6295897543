package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile represents a marketplace user profile (buyer or farmer).
// The primary key is the auth provider's subject claim, so profile rows
// line up one-to-one with identities without a separate mapping table.
type Profile struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	FullName    string         `gorm:"not null" json:"full_name"`
	PhoneNumber string         `json:"phone_number"` // normalized to +263... on create
	Location    string         `json:"location"`
	Role        string         `gorm:"not null;default:'buyer'" json:"role"` // "buyer" or "farmer"
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}
