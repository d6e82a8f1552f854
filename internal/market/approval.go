package market

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Admin approval flows. Every transition runs inside a single transaction:
// the record is locked, the status flip is a conditional update guarded on
// the prior status, and all side effects (subscription activation, referral
// credit, balance debit) land in the same commit. A concurrent approver
// loses the guard and gets ErrInvalidState instead of double-applying.

// ApprovePayment flips a pending payment to approved and applies its side
// effects. Returns the credited referral when a commission was paid out.
func ApprovePayment(db *gorm.DB, cfg *AppConfig, paymentID uint) (*Payment, *Referral, error) {
	now := time.Now()
	tx := db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}
	defer func() {
		tx.Rollback()
	}()
	var payment Payment
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", paymentID).First(&payment)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
		}
		return nil, nil, res.Error
	}
	if !CanTransitPayment(payment.Status, PaymentApproved) {
		return nil, nil, fmt.Errorf("payment %d is %s: %w", payment.Id, payment.Status, ErrInvalidState)
	}
	res = tx.Model(&Payment{}).
		Where("id = ? AND status = ?", payment.Id, PaymentPending).
		Updates(map[string]interface{}{"status": PaymentApproved, "approved_at": now})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, nil, fmt.Errorf("payment %d: %w", payment.Id, ErrInvalidState)
	}
	var credited *Referral
	switch payment.Type {
	case PaymentSubscription:
		var user User
		res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", payment.UserId).First(&user)
		if res.Error != nil {
			return nil, nil, res.Error
		}
		expires := SubscriptionExpiry(cfg, now)
		user.SubscriptionActive = true
		user.SubscriptionExpiresAt = &expires
		res = tx.Save(&user)
		if res.Error != nil {
			return nil, nil, res.Error
		}
		ref, err := creditReferral(tx, user.Id, ReferralSubscription)
		if err != nil {
			return nil, nil, err
		}
		credited = ref
	case PaymentUpgrade:
		var user User
		res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", payment.UserId).First(&user)
		if res.Error != nil {
			return nil, nil, res.Error
		}
		user.Upgraded = true
		user.UpgradedAt = &now
		res = tx.Save(&user)
		if res.Error != nil {
			return nil, nil, res.Error
		}
		ref, err := creditReferral(tx, user.Id, ReferralUpgrade)
		if err != nil {
			return nil, nil, err
		}
		credited = ref
	case PaymentBoost:
		var post Post
		res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", payment.PostId).First(&post)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("post %d: %w", payment.PostId, ErrNotFound)
			}
			return nil, nil, res.Error
		}
		boostExpires := BoostExpiry(cfg, now)
		post.Boosted = true
		post.BoostExpiresAt = &boostExpires
		res = tx.Save(&post)
		if res.Error != nil {
			return nil, nil, res.Error
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	payment.Status = PaymentApproved
	payment.ApprovedAt = &now
	return &payment, credited, nil
}

// FailPayment flips a pending payment to failed. No side effects.
func FailPayment(db *gorm.DB, paymentID uint) (*Payment, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		tx.Rollback()
	}()
	var payment Payment
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", paymentID).First(&payment)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
		}
		return nil, res.Error
	}
	if !CanTransitPayment(payment.Status, PaymentFailed) {
		return nil, fmt.Errorf("payment %d is %s: %w", payment.Id, payment.Status, ErrInvalidState)
	}
	res = tx.Model(&Payment{}).
		Where("id = ? AND status = ?", payment.Id, PaymentPending).
		Update("status", PaymentFailed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, fmt.Errorf("payment %d: %w", payment.Id, ErrInvalidState)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	payment.Status = PaymentFailed
	return &payment, nil
}

// creditReferral advances the referred user's pending referral of the given
// type and credits the referrer's earnings. Returns nil when the user was
// not referred for that type, which is not an error.
func creditReferral(tx *gorm.DB, referredUserId uint, refType ReferralType) (*Referral, error) {
	var referral Referral
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"referred_user_id = ? AND type = ? AND status = ?",
			referredUserId,
			refType,
			ReferralPending,
		).First(&referral)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	if !CanTransitReferral(referral.Status, ReferralApproved) {
		return nil, fmt.Errorf("referral %d is %s: %w", referral.Id, referral.Status, ErrInvalidState)
	}
	res = tx.Model(&Referral{}).
		Where("id = ? AND status = ?", referral.Id, ReferralPending).
		Update("status", ReferralApproved)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, fmt.Errorf("referral %d: %w", referral.Id, ErrInvalidState)
	}
	var referrer User
	res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", referral.ReferrerId).First(&referrer)
	if res.Error != nil {
		return nil, res.Error
	}
	referrer.EarningsBalance = referrer.EarningsBalance.Add(referral.Commission)
	referrer.EarningsTotal = referrer.EarningsTotal.Add(referral.Commission)
	res = tx.Save(&referrer)
	if res.Error != nil {
		return nil, res.Error
	}
	fmt.Printf("[Ref] approved #%d, credited %s to user %d\n", referral.Id, referral.Commission, referrer.Id)
	referral.Status = ReferralApproved
	return &referral, nil
}

// ApproveWithdrawal debits the user and marks the withdrawal approved.
// The balance is always re-read under lock here, never trusted from
// request time.
func ApproveWithdrawal(db *gorm.DB, withdrawalID uint) (*Withdrawal, error) {
	return settleWithdrawal(db, withdrawalID, WithdrawalApproved)
}

// ProcessWithdrawal is the same transition with the processed terminal
// status, used when the admin has already pushed the money out on the
// mobile-money side.
func ProcessWithdrawal(db *gorm.DB, withdrawalID uint) (*Withdrawal, error) {
	return settleWithdrawal(db, withdrawalID, WithdrawalProcessed)
}

func settleWithdrawal(db *gorm.DB, withdrawalID uint, to WithdrawalStatus) (*Withdrawal, error) {
	now := time.Now()
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		tx.Rollback()
	}()
	var withdrawal Withdrawal
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", withdrawalID).First(&withdrawal)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("withdrawal %d: %w", withdrawalID, ErrNotFound)
		}
		return nil, res.Error
	}
	if !CanTransitWithdrawal(withdrawal.Status, to) {
		return nil, fmt.Errorf("withdrawal %d is %s: %w", withdrawal.Id, withdrawal.Status, ErrInvalidState)
	}
	var user User
	res = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", withdrawal.UserId).First(&user)
	if res.Error != nil {
		return nil, res.Error
	}
	if user.EarningsBalance.LessThan(withdrawal.Amount) {
		return nil, fmt.Errorf("withdrawal %d needs %s, balance is %s: %w",
			withdrawal.Id, withdrawal.Amount, user.EarningsBalance, ErrInsufficientBalance)
	}
	updates := map[string]interface{}{"status": to}
	switch to {
	case WithdrawalApproved:
		updates["approved_at"] = now
	case WithdrawalProcessed:
		updates["processed_at"] = now
	}
	res = tx.Model(&Withdrawal{}).
		Where("id = ? AND status = ?", withdrawal.Id, WithdrawalPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, fmt.Errorf("withdrawal %d: %w", withdrawal.Id, ErrInvalidState)
	}
	user.EarningsBalance = user.EarningsBalance.Sub(withdrawal.Amount)
	user.EarningsWithdrawn = user.EarningsWithdrawn.Add(withdrawal.Amount)
	res = tx.Save(&user)
	if res.Error != nil {
		return nil, res.Error
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	withdrawal.Status = to
	switch to {
	case WithdrawalApproved:
		withdrawal.ApprovedAt = &now
	case WithdrawalProcessed:
		withdrawal.ProcessedAt = &now
	}
	return &withdrawal, nil
}

// FailWithdrawal rejects a pending withdrawal. The balance is untouched.
func FailWithdrawal(db *gorm.DB, withdrawalID uint) (*Withdrawal, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		tx.Rollback()
	}()
	var withdrawal Withdrawal
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", withdrawalID).First(&withdrawal)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("withdrawal %d: %w", withdrawalID, ErrNotFound)
		}
		return nil, res.Error
	}
	if !CanTransitWithdrawal(withdrawal.Status, WithdrawalFailed) {
		return nil, fmt.Errorf("withdrawal %d is %s: %w", withdrawal.Id, withdrawal.Status, ErrInvalidState)
	}
	res = tx.Model(&Withdrawal{}).
		Where("id = ? AND status = ?", withdrawal.Id, WithdrawalPending).
		Update("status", WithdrawalFailed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, fmt.Errorf("withdrawal %d: %w", withdrawal.Id, ErrInvalidState)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	withdrawal.Status = WithdrawalFailed
	return &withdrawal, nil
}
