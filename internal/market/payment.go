package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentSubscription PaymentType = "subscription"
	PaymentUpgrade      PaymentType = "upgrade"
	PaymentBoost        PaymentType = "boost"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentFailed   PaymentStatus = "failed"
)

// paymentTransitions is the full set of legal status moves. Everything else
// is rejected with ErrInvalidState, so approved/failed stay terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentApproved, PaymentFailed},
}

func CanTransitPayment(from, to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Payment records a mobile-money transfer the user claims to have made.
// It stays pending until an administrator matches the transaction code
// against the merchant statement and approves or fails it.
type Payment struct {
	Id              uint            `json:"id" gorm:"primarykey"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	UserId          uint            `gorm:"index;not null" json:"user_id"`
	PostId          uint            `json:"post_id"` // set for boost payments only
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Type            PaymentType     `gorm:"index;not null" json:"type"`
	TransactionCode string          `gorm:"uniqueIndex;not null" json:"transaction_code"`
	Status          PaymentStatus   `gorm:"index;not null;default:'pending'" json:"status"`
	ApprovedAt      *time.Time      `json:"approved_at"`
}
