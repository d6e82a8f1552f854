package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketapi/internal/market"
)

type paymentParams struct {
	Type            market.PaymentType `json:"type" binding:"required"`
	Amount          decimal.Decimal    `json:"amount"`
	TransactionCode string             `json:"transaction_code" binding:"required" validate:"required,max=30"`
	PostId          uint               `json:"post_id"` // required for boost
}

var codeCheck = regexp.MustCompile(`^[A-Za-z0-9.\-]{6,30}$`)

// CreatePayment records a mobile-money transfer claim. The amount must match
// the configured price exactly; the admin later matches the transaction code
// against the merchant statement.
func CreatePayment(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var paymentP paymentParams
	if err := c.ShouldBindJSON(&paymentP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch paymentP.Type {
	case market.PaymentSubscription, market.PaymentUpgrade, market.PaymentBoost:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment type"})
		return
	}
	if !codeCheck.MatchString(paymentP.TransactionCode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction code"})
		return
	}
	cfg := loadConfig(app)
	price := market.PriceFor(cfg, paymentP.Type)
	if !paymentP.Amount.Equal(price) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("wrong_amount").Error()})
		return
	}
	if paymentP.Type == market.PaymentUpgrade && user.Upgraded {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("already upgraded").Error()})
		return
	}
	if paymentP.Type == market.PaymentBoost {
		var post market.Post
		res := app.Db.Where("id = ? AND user_id = ?", paymentP.PostId, user.Id).First(&post)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		if post.Status != market.PostApproved {
			c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("post not approved").Error()})
			return
		}
	}
	var codeDouble market.Payment
	res := app.Db.Where("transaction_code = ?", paymentP.TransactionCode).First(&codeDouble)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("transaction code already used").Error()})
		return
	}
	var pendingDouble market.Payment
	res = app.Db.Where(
		"user_id = ? AND type = ? AND status = ?",
		user.Id,
		paymentP.Type,
		market.PaymentPending,
	).First(&pendingDouble)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("wait until resolved").Error()})
		return
	}
	payment := market.Payment{
		UserId:          user.Id,
		PostId:          paymentP.PostId,
		Amount:          price,
		Type:            paymentP.Type,
		TransactionCode: paymentP.TransactionCode,
		Status:          market.PaymentPending,
	}
	res = app.Db.Create(&payment)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	// The upgrade commission edge opens at claim time so the approval flow
	// only ever advances an existing pending referral.
	if paymentP.Type == market.PaymentUpgrade && user.ReferralFrom != "" {
		referrer, err := market.ResolveReferrer(app.Db, user.ReferralFrom)
		if err == nil {
			_, err = market.CreateUpgradeReferral(app.Db, cfg, referrer, &user)
			if err != nil && !errors.Is(err, market.ErrDuplicateReferral) {
				fmt.Println("[Payment] upgrade referral edge failed:", err)
			}
		}
	}
	cpUrl := os.Getenv("CP_URL")
	market.Alert(app, "finance", fmt.Sprintf(
		`New %s payment [Payment: %d](%s/payments/%d)
[User: %d](%s/users/%d)
Code: %s
Amount: %s`,
		payment.Type,
		payment.Id,
		cpUrl,
		payment.Id,
		user.Id,
		cpUrl,
		user.Id,
		market.EscapeMarkdownV2(payment.TransactionCode),
		market.EscapeMarkdownV2(payment.Amount.String()),
	))
	c.JSON(http.StatusOK, payment)
}

// GetPayments lists the caller's own payments, newest first.
func GetPayments(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var payments []market.Payment
	app.Db.Where("user_id = ?", user.Id).
		Order("created_at DESC").
		Find(&payments)
	feed := make([]interface{}, 0, len(payments))
	for _, payment := range payments {
		feed = append(feed, payment)
	}
	c.JSON(http.StatusOK, paginate(feed, "/users/payments/", page, size))
}
