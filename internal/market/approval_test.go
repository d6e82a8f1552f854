package market

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, phone string, code string) User {
	user := User{
		Phone:        phone,
		PasswordHash: "x",
		ReferralCode: code,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func reload(t *testing.T, db *gorm.DB, id uint) User {
	var user User
	require.NoError(t, db.Where("id = ?", id).First(&user).Error)
	return user
}

// balance must always equal total minus withdrawn
func assertLedger(t *testing.T, user User) {
	assert.True(t, user.EarningsBalance.Equal(user.EarningsTotal.Sub(user.EarningsWithdrawn)),
		"balance %s != total %s - withdrawn %s", user.EarningsBalance, user.EarningsTotal, user.EarningsWithdrawn)
}

func TestApproveSubscriptionPaymentCreditsReferrer(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25511111111", "REFAAA01")
	referred := makeUser(t, db, "+25522222222", "REFBBB02")

	_, err := CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)

	payment := Payment{
		UserId:          referred.Id,
		Amount:          decimal.NewFromInt(50),
		Type:            PaymentSubscription,
		TransactionCode: "TXN001AAA",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	approved, credited, err := ApprovePayment(db, cfg, payment.Id)
	require.NoError(t, err)
	assert.Equal(t, PaymentApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	require.NotNil(t, credited)
	assert.Equal(t, ReferralApproved, credited.Status)
	assert.Equal(t, "25", credited.Commission.String())

	subscriber := reload(t, db, referred.Id)
	assert.True(t, subscriber.SubscriptionActive)
	require.NotNil(t, subscriber.SubscriptionExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *subscriber.SubscriptionExpiresAt, time.Minute)

	earner := reload(t, db, referrer.Id)
	assert.Equal(t, "25", earner.EarningsBalance.String())
	assert.Equal(t, "25", earner.EarningsTotal.String())
	assertLedger(t, earner)
}

func TestApprovePaymentTwiceIsInvalidState(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25511111111", "REFAAA03")
	referred := makeUser(t, db, "+25522222222", "REFBBB04")

	_, err := CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)

	payment := Payment{
		UserId:          referred.Id,
		Amount:          decimal.NewFromInt(50),
		Type:            PaymentSubscription,
		TransactionCode: "TXN002BBB",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	_, _, err = ApprovePayment(db, cfg, payment.Id)
	require.NoError(t, err)

	_, _, err = ApprovePayment(db, cfg, payment.Id)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The commission was paid exactly once
	earner := reload(t, db, referrer.Id)
	assert.Equal(t, "25", earner.EarningsBalance.String())
	assert.Equal(t, "25", earner.EarningsTotal.String())
}

func TestFailPaymentHasNoSideEffects(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	user := makeUser(t, db, "+25533333333", "REFCCC05")

	payment := Payment{
		UserId:          user.Id,
		Amount:          decimal.NewFromInt(50),
		Type:            PaymentSubscription,
		TransactionCode: "TXN003CCC",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	failed, err := FailPayment(db, payment.Id)
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, failed.Status)

	fresh := reload(t, db, user.Id)
	assert.False(t, fresh.SubscriptionActive)

	// failed is terminal
	_, _, err = ApprovePayment(db, cfg, payment.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveUpgradePayment(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25511111111", "REFAAA06")
	referred := makeUser(t, db, "+25522222222", "REFBBB07")

	_, err := CreateUpgradeReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)

	payment := Payment{
		UserId:          referred.Id,
		Amount:          decimal.NewFromInt(200),
		Type:            PaymentUpgrade,
		TransactionCode: "TXN004DDD",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	_, credited, err := ApprovePayment(db, cfg, payment.Id)
	require.NoError(t, err)
	require.NotNil(t, credited)
	assert.Equal(t, "50", credited.Commission.String())

	upgraded := reload(t, db, referred.Id)
	assert.True(t, upgraded.Upgraded)
	assert.NotNil(t, upgraded.UpgradedAt)

	earner := reload(t, db, referrer.Id)
	assert.Equal(t, "50", earner.EarningsBalance.String())
	assertLedger(t, earner)
}

func TestApproveBoostPayment(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	user := makeUser(t, db, "+25544444444", "REFDDD08")

	post := Post{
		UserId: user.Id,
		Type:   PostProduct,
		Title:  "Solar lamp",
		Status: PostApproved,
	}
	require.NoError(t, db.Create(&post).Error)

	payment := Payment{
		UserId:          user.Id,
		PostId:          post.Id,
		Amount:          decimal.NewFromInt(25),
		Type:            PaymentBoost,
		TransactionCode: "TXN005EEE",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	_, credited, err := ApprovePayment(db, cfg, payment.Id)
	require.NoError(t, err)
	assert.Nil(t, credited)

	var boosted Post
	require.NoError(t, db.Where("id = ?", post.Id).First(&boosted).Error)
	assert.True(t, boosted.Boosted)
	require.NotNil(t, boosted.BoostExpiresAt)
}

func TestApprovePaymentWithoutReferral(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	user := makeUser(t, db, "+25555555555", "REFEEE09")

	payment := Payment{
		UserId:          user.Id,
		Amount:          decimal.NewFromInt(50),
		Type:            PaymentSubscription,
		TransactionCode: "TXN006FFF",
		Status:          PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	approved, credited, err := ApprovePayment(db, cfg, payment.Id)
	require.NoError(t, err)
	assert.Equal(t, PaymentApproved, approved.Status)
	assert.Nil(t, credited)

	fresh := reload(t, db, user.Id)
	assert.True(t, fresh.SubscriptionActive)
}

func TestApprovePaymentNotFound(t *testing.T) {
	db := newTestDb(t)
	_, _, err := ApprovePayment(db, testConfig(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func makeWithdrawal(t *testing.T, db *gorm.DB, userId uint, amount string, reference string) Withdrawal {
	amt := decimal.RequireFromString(amount)
	fee, net := WithdrawalFee(amt, decimal.NewFromInt(10))
	withdrawal := Withdrawal{
		UserId:    userId,
		Amount:    amt,
		Fee:       fee,
		NetAmount: net,
		Reference: reference,
		Status:    WithdrawalPending,
	}
	require.NoError(t, db.Create(&withdrawal).Error)
	return withdrawal
}

func TestApproveWithdrawalDebitsBalance(t *testing.T) {
	db := newTestDb(t)
	user := makeUser(t, db, "+25566666666", "REFFFF10")
	user.EarningsBalance = decimal.NewFromInt(200)
	user.EarningsTotal = decimal.NewFromInt(200)
	require.NoError(t, db.Save(&user).Error)

	withdrawal := makeWithdrawal(t, db, user.Id, "150", "wd-approve-1")

	settled, err := ApproveWithdrawal(db, withdrawal.Id)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalApproved, settled.Status)
	assert.NotNil(t, settled.ApprovedAt)

	fresh := reload(t, db, user.Id)
	assert.Equal(t, "50", fresh.EarningsBalance.String())
	assert.Equal(t, "150", fresh.EarningsWithdrawn.String())
	assert.Equal(t, "200", fresh.EarningsTotal.String())
	assertLedger(t, fresh)
}

func TestWithdrawalInsufficientBalanceMutatesNothing(t *testing.T) {
	db := newTestDb(t)
	user := makeUser(t, db, "+25577777777", "REFGGG11")
	user.EarningsBalance = decimal.NewFromInt(100)
	user.EarningsTotal = decimal.NewFromInt(100)
	require.NoError(t, db.Save(&user).Error)

	withdrawal := makeWithdrawal(t, db, user.Id, "150", "wd-short-1")

	_, err := ApproveWithdrawal(db, withdrawal.Id)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var fresh Withdrawal
	require.NoError(t, db.Where("id = ?", withdrawal.Id).First(&fresh).Error)
	assert.Equal(t, WithdrawalPending, fresh.Status)

	owner := reload(t, db, user.Id)
	assert.Equal(t, "100", owner.EarningsBalance.String())
	assert.Equal(t, "0", owner.EarningsWithdrawn.String())
}

func TestFailWithdrawalKeepsBalance(t *testing.T) {
	db := newTestDb(t)
	user := makeUser(t, db, "+25588888888", "REFHHH12")
	user.EarningsBalance = decimal.NewFromInt(200)
	user.EarningsTotal = decimal.NewFromInt(200)
	require.NoError(t, db.Save(&user).Error)

	withdrawal := makeWithdrawal(t, db, user.Id, "150", "wd-fail-1")

	failed, err := FailWithdrawal(db, withdrawal.Id)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalFailed, failed.Status)

	owner := reload(t, db, user.Id)
	assert.Equal(t, "200", owner.EarningsBalance.String())
	assert.Equal(t, "0", owner.EarningsWithdrawn.String())

	// failed is terminal
	_, err = ApproveWithdrawal(db, withdrawal.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessWithdrawalIsTerminal(t *testing.T) {
	db := newTestDb(t)
	user := makeUser(t, db, "+25599999999", "REFIII13")
	user.EarningsBalance = decimal.NewFromInt(300)
	user.EarningsTotal = decimal.NewFromInt(300)
	require.NoError(t, db.Save(&user).Error)

	withdrawal := makeWithdrawal(t, db, user.Id, "150", "wd-process-1")

	settled, err := ProcessWithdrawal(db, withdrawal.Id)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalProcessed, settled.Status)
	assert.NotNil(t, settled.ProcessedAt)

	_, err = ApproveWithdrawal(db, withdrawal.Id)
	assert.ErrorIs(t, err, ErrInvalidState)

	owner := reload(t, db, user.Id)
	assert.Equal(t, "150", owner.EarningsBalance.String())
	assertLedger(t, owner)
}

func TestWithdrawalNotFound(t *testing.T) {
	db := newTestDb(t)
	_, err := ApproveWithdrawal(db, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = FailWithdrawal(db, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
