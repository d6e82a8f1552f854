package market

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReferralType string

const (
	ReferralSubscription ReferralType = "subscription"
	ReferralUpgrade      ReferralType = "upgrade"
)

type ReferralStatus string

const (
	ReferralPending  ReferralStatus = "pending"
	ReferralApproved ReferralStatus = "approved"
	ReferralPaid     ReferralStatus = "paid"
)

var referralTransitions = map[ReferralStatus][]ReferralStatus{
	ReferralPending:  {ReferralApproved},
	ReferralApproved: {ReferralPaid},
}

func CanTransitReferral(from, to ReferralStatus) bool {
	for _, allowed := range referralTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Referral is the commission edge between a referrer and a referred user.
// It is created the moment the referred action is requested, in pending
// status, and advanced to approved only when an administrator approves the
// matching payment. The commission amount is fixed at creation time, and the
// row itself is what gets credited later, never a re-lookup of the user's
// current referral code.
type Referral struct {
	Id             uint            `json:"id" gorm:"primarykey"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ReferrerId     uint            `gorm:"not null;uniqueIndex:idx_referral_edge" json:"referrer_id"`
	ReferredUserId uint            `gorm:"not null;uniqueIndex:idx_referral_edge" json:"referred_user_id"`
	Type           ReferralType    `gorm:"not null;uniqueIndex:idx_referral_edge" json:"type"`
	Commission     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"commission"`
	Status         ReferralStatus  `gorm:"index;not null;default:'pending'" json:"status"`
}

// RefData aggregates a referrer's downline for the profile screen.
type RefData struct {
	TotalCounter        uint            `json:"total_counter"`
	SubscriptionCounter uint            `json:"subscription_counter"`
	UpgradeCounter      uint            `json:"upgrade_counter"`
	PendingTotal        decimal.Decimal `json:"pending_total"`
	ApprovedTotal       decimal.Decimal `json:"approved_total"`
	PaidTotal           decimal.Decimal `json:"paid_total"`
}

func GetRefStats(db *gorm.DB, user User) (refStats RefData) {
	refStats.PendingTotal = decimal.Zero
	refStats.ApprovedTotal = decimal.Zero
	refStats.PaidTotal = decimal.Zero
	var referrals []Referral
	res := db.Where("referrer_id = ?", user.Id).Find(&referrals)
	if res.RowsAffected > 0 {
		for _, referral := range referrals {
			refStats.TotalCounter++
			switch referral.Type {
			case ReferralSubscription:
				refStats.SubscriptionCounter++
			case ReferralUpgrade:
				refStats.UpgradeCounter++
			}
			switch referral.Status {
			case ReferralPending:
				refStats.PendingTotal = refStats.PendingTotal.Add(referral.Commission)
			case ReferralApproved:
				refStats.ApprovedTotal = refStats.ApprovedTotal.Add(referral.Commission)
			case ReferralPaid:
				refStats.PaidTotal = refStats.PaidTotal.Add(referral.Commission)
			}
		}
	}
	return refStats
}
