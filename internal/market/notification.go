package market

import "time"

const (
	NotifyPayment    = "payment"
	NotifyWithdrawal = "withdrawal"
	NotifyReferral   = "referral"
	NotifyModeration = "moderation"
)

// Notification is a best-effort record consumed by the frontend inbox.
// There is no delivery guarantee and no retry.
type Notification struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UserId    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `json:"message"`
	Kind      string    `gorm:"index" json:"kind"`
	Data      string    `json:"data"` // JSON payload for the frontend
	Read      bool      `gorm:"index" json:"read"`
}
