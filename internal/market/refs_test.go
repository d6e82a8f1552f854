package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDuplicateReferralRejected(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25511111111", "DUPAAA01")
	referred := makeUser(t, db, "+25522222222", "DUPBBB02")

	_, err := CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)

	_, err = CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	assert.ErrorIs(t, err, ErrDuplicateReferral)

	// A different type is a different edge, not a duplicate
	_, err = CreateUpgradeReferral(db, cfg, &referrer, &referred)
	assert.NoError(t, err)

	var count int64
	db.Model(&Referral{}).Where("referrer_id = ?", referrer.Id).Count(&count)
	assert.Equal(t, int64(2), count)
}

// A second writer that slips past the existence pre-check still hits the
// unique index, and the translated error keeps the ErrDuplicateReferral
// mapping intact.
func TestDuplicateReferralBlockedByUniqueIndex(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25511111111", "RACEAA01")
	referred := makeUser(t, db, "+25522222222", "RACEBB02")

	first, err := CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)

	dup := Referral{
		ReferrerId:     referrer.Id,
		ReferredUserId: referred.Id,
		Type:           ReferralSubscription,
		Commission:     first.Commission,
		Status:         ReferralPending,
	}
	res := db.Create(&dup)
	require.Error(t, res.Error)
	assert.ErrorIs(t, res.Error, gorm.ErrDuplicatedKey)
}

func TestSelfReferralRejected(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	user := makeUser(t, db, "+25533333333", "SELFAA03")

	_, err := CreateSubscriptionReferral(db, cfg, &user, &user)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveReferrer(t *testing.T) {
	db := newTestDb(t)
	user := makeUser(t, db, "+25544444444", "LOOKUP04")

	found, err := ResolveReferrer(db, "LOOKUP04")
	require.NoError(t, err)
	assert.Equal(t, user.Id, found.Id)

	_, err = ResolveReferrer(db, "NOSUCH99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReferralCommissionFixedAtCreation(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25555555555", "FIXEDA05")
	referred := makeUser(t, db, "+25566666666", "FIXEDB06")

	referral, err := CreateSubscriptionReferral(db, cfg, &referrer, &referred)
	require.NoError(t, err)
	assert.Equal(t, "25", referral.Commission.String())
	assert.Equal(t, ReferralPending, referral.Status)
}

func TestGetRefStats(t *testing.T) {
	db := newTestDb(t)
	cfg := testConfig()
	referrer := makeUser(t, db, "+25577777777", "STATSA07")
	first := makeUser(t, db, "+25588888888", "STATSB08")
	second := makeUser(t, db, "+25599999999", "STATSC09")

	_, err := CreateSubscriptionReferral(db, cfg, &referrer, &first)
	require.NoError(t, err)
	approved, err := CreateSubscriptionReferral(db, cfg, &referrer, &second)
	require.NoError(t, err)
	res := db.Model(&Referral{}).Where("id = ?", approved.Id).Update("status", ReferralApproved)
	require.NoError(t, res.Error)

	stats := GetRefStats(db, referrer)
	assert.Equal(t, uint(2), stats.TotalCounter)
	assert.Equal(t, uint(2), stats.SubscriptionCounter)
	assert.Equal(t, uint(0), stats.UpgradeCounter)
	assert.Equal(t, "25", stats.PendingTotal.String())
	assert.Equal(t, "25", stats.ApprovedTotal.String())
	assert.Equal(t, "0", stats.PaidTotal.String())
}
