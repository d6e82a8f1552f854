package market

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GroupMember = 0
	GroupAdmin  = 9
)

type User struct {
	Id           uint           `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"`
	Email        string         `gorm:"index" json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Group        uint           `json:"group"` // 0 = member, 9 = admin

	// Earnings ledger. Invariant: balance = total - withdrawn.
	EarningsBalance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"earnings_balance"`
	EarningsTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"earnings_total"`
	EarningsWithdrawn decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"earnings_withdrawn"`

	SubscriptionActive    bool       `json:"subscription_active"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	Upgraded              bool       `json:"upgraded"`
	UpgradedAt            *time.Time `json:"upgraded_at"`

	ReferralCode string `gorm:"uniqueIndex;not null" json:"referral_code"` // immutable after creation
	ReferralFrom string `gorm:"index" json:"referral_from"`                // code of the referring user, set once at signup

	Locale string `json:"locale"`
	Ip     string `json:"ip"`
}

// UserData is the trimmed profile shipped to the frontend and over ws.
type UserData struct {
	ID                 uint            `json:"id"`
	Phone              string          `json:"phone"`
	Name               string          `json:"name"`
	Balance            decimal.Decimal `json:"earnings_balance"`
	EarningsTotal      decimal.Decimal `json:"earnings_total"`
	EarningsWithdrawn  decimal.Decimal `json:"earnings_withdrawn"`
	SubscriptionActive bool            `json:"subscription_active"`
	Upgraded           bool            `json:"upgraded"`
	ReferralCode       string          `json:"referral_code"`
}

func (u *User) Data() UserData {
	return UserData{
		ID:                 u.Id,
		Phone:              u.Phone,
		Name:               u.Name,
		Balance:            u.EarningsBalance,
		EarningsTotal:      u.EarningsTotal,
		EarningsWithdrawn:  u.EarningsWithdrawn,
		SubscriptionActive: u.SubscriptionActive,
		Upgraded:           u.Upgraded,
		ReferralCode:       u.ReferralCode,
	}
}
