package market

import (
	"time"

	"gorm.io/gorm"
)

// Shop is a storefront grouping a seller's product posts. Creating one
// requires the upgraded (premium) tier.
type Shop struct {
	Id          uint           `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	OwnerId     uint           `gorm:"index;not null" json:"owner_id"`
	Name        string         `gorm:"not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
}
