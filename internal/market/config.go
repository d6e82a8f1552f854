package market

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Settings AppSettings `json:"settings"`
}

type AppSettings struct {
	Prices SettingCost  `json:"prices"`
	Ref    RefSettings  `json:"ref"`
	Limits SettingLimit `json:"limits"`
	Expiry ExpiryDays   `json:"expiry"`
}

// SettingCost is the fixed price of each paid action, in platform currency.
type SettingCost struct {
	Subscription decimal.Decimal `json:"subscription"`
	Upgrade      decimal.Decimal `json:"upgrade"`
	Boost        decimal.Decimal `json:"boost"`
}

// RefSettings is the fixed commission credited to the referrer per
// referral type once the referred user's payment is approved.
type RefSettings struct {
	Subscription decimal.Decimal `json:"subscription"`
	Upgrade      decimal.Decimal `json:"upgrade"`
}

type SettingLimit struct {
	WithdrawMin        decimal.Decimal `json:"withdraw_min"`
	WithdrawFeePercent decimal.Decimal `json:"withdraw_fee_percent"`
}

type ExpiryDays struct {
	SubscriptionDays int `json:"subscription_days"`
	BoostDays        int `json:"boost_days"`
}

var (
	DefaultAppConfig *AppConfig
	CurrentAppConfig *AppConfig
)

// ConfigFromEnv builds the config from the environment, falling back to the
// launch defaults where a variable is missing or unparsable.
func ConfigFromEnv() *AppConfig {
	return &AppConfig{
		Settings: AppSettings{
			Prices: SettingCost{
				Subscription: envDecimal("SUBSCRIPTION_PRICE", "50"),
				Upgrade:      envDecimal("UPGRADE_PRICE", "200"),
				Boost:        envDecimal("BOOST_PRICE", "25"),
			},
			Ref: RefSettings{
				Subscription: envDecimal("REF_COMMISSION_SUBSCRIPTION", "25"),
				Upgrade:      envDecimal("REF_COMMISSION_UPGRADE", "50"),
			},
			Limits: SettingLimit{
				WithdrawMin:        envDecimal("WITHDRAW_MIN", "100"),
				WithdrawFeePercent: envDecimal("WITHDRAW_FEE_PERCENT", "10"),
			},
			Expiry: ExpiryDays{
				SubscriptionDays: envInt("SUBSCRIPTION_DAYS", 7),
				BoostDays:        envInt("BOOST_DAYS", 7),
			},
		},
	}
}

func envDecimal(key string, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(fallback)
	return d
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}
