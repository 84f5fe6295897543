package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing represents a produce listing posted by a farmer.
type Listing struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SellerID     string         `gorm:"not null;index" json:"seller_id"`
	Seller       Profile        `gorm:"foreignKey:SellerID" json:"seller"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        float64        `gorm:"not null" json:"price"`
	Unit         string         `json:"unit"` // e.g. "kg", "crate", "dozen"
	Location     string         `json:"location"`
	Category     string         `gorm:"index" json:"category"`
	MainImageURL string         `json:"main_image_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
