package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pure ledger rules. No I/O, safe to call any number of times.

var hundred = decimal.NewFromInt(100)

// CommissionFor returns the fixed commission configured for a referral type.
func CommissionFor(cfg *AppConfig, refType ReferralType) decimal.Decimal {
	switch refType {
	case ReferralUpgrade:
		return cfg.Settings.Ref.Upgrade
	default:
		return cfg.Settings.Ref.Subscription
	}
}

// WithdrawalFee computes fee = amount * feePercent / 100 rounded to 2 decimal
// places, and net = amount - fee.
func WithdrawalFee(amount, feePercent decimal.Decimal) (fee, net decimal.Decimal) {
	fee = amount.Mul(feePercent).Div(hundred).Round(2)
	net = amount.Sub(fee)
	return fee, net
}

// SubscriptionExpiry returns when a subscription activated now runs out.
func SubscriptionExpiry(cfg *AppConfig, now time.Time) time.Time {
	return now.AddDate(0, 0, cfg.Settings.Expiry.SubscriptionDays)
}

// BoostExpiry returns when a boost applied now runs out.
func BoostExpiry(cfg *AppConfig, now time.Time) time.Time {
	return now.AddDate(0, 0, cfg.Settings.Expiry.BoostDays)
}

// PriceFor returns the configured charge for a payment type.
func PriceFor(cfg *AppConfig, paymentType PaymentType) decimal.Decimal {
	switch paymentType {
	case PaymentUpgrade:
		return cfg.Settings.Prices.Upgrade
	case PaymentBoost:
		return cfg.Settings.Prices.Boost
	default:
		return cfg.Settings.Prices.Subscription
	}
}
