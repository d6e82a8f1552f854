package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testConfig() *AppConfig {
	return &AppConfig{
		Settings: AppSettings{
			Prices: SettingCost{
				Subscription: decimal.NewFromInt(50),
				Upgrade:      decimal.NewFromInt(200),
				Boost:        decimal.NewFromInt(25),
			},
			Ref: RefSettings{
				Subscription: decimal.NewFromInt(25),
				Upgrade:      decimal.NewFromInt(50),
			},
			Limits: SettingLimit{
				WithdrawMin:        decimal.NewFromInt(100),
				WithdrawFeePercent: decimal.NewFromInt(10),
			},
			Expiry: ExpiryDays{
				SubscriptionDays: 7,
				BoostDays:        7,
			},
		},
	}
}

func TestWithdrawalFee(t *testing.T) {
	fee, net := WithdrawalFee(decimal.NewFromInt(150), decimal.NewFromInt(10))
	assert.Equal(t, "15", fee.String())
	assert.Equal(t, "135", net.String())

	// Rounding lands on 2 decimal places, never more
	fee, net = WithdrawalFee(decimal.RequireFromString("33.33"), decimal.NewFromInt(10))
	assert.Equal(t, "3.33", fee.String())
	assert.Equal(t, "30", net.String())

	fee, net = WithdrawalFee(decimal.RequireFromString("100.05"), decimal.RequireFromString("2.5"))
	assert.Equal(t, "2.5", fee.String())
	assert.Equal(t, "97.55", net.String())

	// Fee plus net always reassembles the amount exactly
	amount := decimal.RequireFromString("777.77")
	fee, net = WithdrawalFee(amount, decimal.NewFromInt(10))
	assert.True(t, fee.Add(net).Equal(amount))
}

func TestCommissionFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "25", CommissionFor(cfg, ReferralSubscription).String())
	assert.Equal(t, "50", CommissionFor(cfg, ReferralUpgrade).String())
}

func TestPriceFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "50", PriceFor(cfg, PaymentSubscription).String())
	assert.Equal(t, "200", PriceFor(cfg, PaymentUpgrade).String())
	assert.Equal(t, "25", PriceFor(cfg, PaymentBoost).String())
}

func TestExpiry(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), SubscriptionExpiry(cfg, now))
	assert.Equal(t, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), BoostExpiry(cfg, now))
}

func TestTransitionTables(t *testing.T) {
	assert.True(t, CanTransitPayment(PaymentPending, PaymentApproved))
	assert.True(t, CanTransitPayment(PaymentPending, PaymentFailed))
	assert.False(t, CanTransitPayment(PaymentApproved, PaymentFailed))
	assert.False(t, CanTransitPayment(PaymentFailed, PaymentApproved))
	assert.False(t, CanTransitPayment(PaymentApproved, PaymentApproved))

	assert.True(t, CanTransitWithdrawal(WithdrawalPending, WithdrawalApproved))
	assert.True(t, CanTransitWithdrawal(WithdrawalPending, WithdrawalProcessed))
	assert.True(t, CanTransitWithdrawal(WithdrawalPending, WithdrawalFailed))
	assert.False(t, CanTransitWithdrawal(WithdrawalApproved, WithdrawalPending))
	assert.False(t, CanTransitWithdrawal(WithdrawalProcessed, WithdrawalApproved))

	assert.True(t, CanTransitReferral(ReferralPending, ReferralApproved))
	assert.True(t, CanTransitReferral(ReferralApproved, ReferralPaid))
	assert.False(t, CanTransitReferral(ReferralPending, ReferralPaid))
	assert.False(t, CanTransitReferral(ReferralPaid, ReferralPending))
}
