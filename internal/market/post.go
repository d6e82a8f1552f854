package market

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PostType string

const (
	PostProduct PostType = "product"
	PostJob     PostType = "job"
	PostService PostType = "service"
	PostSocial  PostType = "social"
	PostCV      PostType = "cv"
)

var PostTypes = []PostType{PostProduct, PostJob, PostService, PostSocial, PostCV}

type PostStatus string

const (
	PostPending  PostStatus = "pending"
	PostApproved PostStatus = "approved"
	PostRejected PostStatus = "rejected"
)

// Post is a classified listing. Product and service posts carry a price,
// job posts a salary range, social and cv posts neither. Boost is a plain
// visibility flag with an expiry, cleared by the jobs sweeper.
type Post struct {
	Id          uint           `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	UserId      uint           `gorm:"index;not null" json:"user_id"`
	ShopId      uint           `gorm:"index" json:"shop_id"` // optional, product posts of a shop owner
	Type        PostType       `gorm:"index;not null" json:"type"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`

	Price    decimal.Decimal `gorm:"type:decimal(14,2)" json:"price"` // product, service
	Currency string          `json:"currency"`

	SalaryMin decimal.Decimal `gorm:"type:decimal(14,2)" json:"salary_min"` // job
	SalaryMax decimal.Decimal `gorm:"type:decimal(14,2)" json:"salary_max"`

	Status         PostStatus `gorm:"index;not null;default:'pending'" json:"status"`
	Boosted        bool       `gorm:"index" json:"boosted"`
	BoostExpiresAt *time.Time `json:"boost_expires_at"`
}
