package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalFailed    WithdrawalStatus = "failed"
	WithdrawalProcessed WithdrawalStatus = "processed"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending: {WithdrawalApproved, WithdrawalFailed, WithdrawalProcessed},
}

func CanTransitWithdrawal(from, to WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Withdrawal is a payout request against the user's earnings balance.
// Fee and net amount are fixed at request time; the balance itself is
// re-checked at approval time because it may have drifted since.
// The actual transfer to the mobile-money rail happens outside this service.
type Withdrawal struct {
	Id          uint             `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	UserId      uint             `gorm:"index;not null" json:"user_id"`
	Amount      decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"amount"`
	Fee         decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"fee"`
	NetAmount   decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"net_amount"`
	Reference   string           `gorm:"uniqueIndex;not null" json:"reference"`
	Status      WithdrawalStatus `gorm:"index;not null;default:'pending'" json:"status"`
	ApprovedAt  *time.Time       `json:"approved_at"`
	ProcessedAt *time.Time       `json:"processed_at"`
}
