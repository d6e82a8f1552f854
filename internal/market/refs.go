package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Referral attribution. Edges are recorded the moment the referred action is
// requested (signup for subscription-type, upgrade request for upgrade-type),
// always in pending status, anticipating a later admin approval. The unique
// index on (referrer, referred, type) keeps a second attempt from opening a
// second payout path.

// CreateSubscriptionReferral records the signup edge between referrer and the
// freshly registered user.
func CreateSubscriptionReferral(db *gorm.DB, cfg *AppConfig, referrer *User, referred *User) (*Referral, error) {
	return createReferral(db, referrer, referred, ReferralSubscription, CommissionFor(cfg, ReferralSubscription))
}

// CreateUpgradeReferral records the edge when a referred user requests the
// premium upgrade. Called at payment creation, not approval.
func CreateUpgradeReferral(db *gorm.DB, cfg *AppConfig, referrer *User, referred *User) (*Referral, error) {
	return createReferral(db, referrer, referred, ReferralUpgrade, CommissionFor(cfg, ReferralUpgrade))
}

// ResolveReferrer looks up the user owning a referral code. Returns
// ErrNotFound for unknown codes.
func ResolveReferrer(db *gorm.DB, code string) (*User, error) {
	var referrer User
	res := db.Where("referral_code = ?", code).First(&referrer)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("referral code %q: %w", code, ErrNotFound)
		}
		return nil, res.Error
	}
	return &referrer, nil
}

func createReferral(db *gorm.DB, referrer *User, referred *User, refType ReferralType, commission decimal.Decimal) (*Referral, error) {
	if referrer.Id == referred.Id {
		return nil, fmt.Errorf("self referral: %w", ErrValidation)
	}
	var double Referral
	res := db.Where(
		"referrer_id = ? AND referred_user_id = ? AND type = ?",
		referrer.Id,
		referred.Id,
		refType,
	).First(&double)
	if res.RowsAffected == 1 {
		return nil, fmt.Errorf("referral %d/%d/%s: %w", referrer.Id, referred.Id, refType, ErrDuplicateReferral)
	}
	referral := Referral{
		ReferrerId:     referrer.Id,
		ReferredUserId: referred.Id,
		Type:           refType,
		Commission:     commission,
		Status:         ReferralPending,
	}
	res = db.Create(&referral)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("referral %d/%d/%s: %w", referrer.Id, referred.Id, refType, ErrDuplicateReferral)
		}
		return nil, res.Error
	}
	return &referral, nil
}
