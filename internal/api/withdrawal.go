package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketapi/internal/market"
)

type withdrawalParams struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Withdraw opens a payout request against the earnings balance. Fee and net
// are fixed here; the balance is only debited when an admin settles the
// request, and gets re-checked under lock at that point.
func Withdraw(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var withdrawalP withdrawalParams
	if err := c.ShouldBindJSON(&withdrawalP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !withdrawalP.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	cfg := loadConfig(app)
	if withdrawalP.Amount.LessThan(cfg.Settings.Limits.WithdrawMin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New(`min_withdrawal`).Error()})
		return
	}
	if user.EarningsBalance.LessThan(withdrawalP.Amount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New(`insufficient_funds`).Error()})
		return
	}
	var pendingDouble market.Withdrawal
	res := app.Db.Where(
		"user_id = ? AND status = ?",
		user.Id,
		market.WithdrawalPending,
	).First(&pendingDouble)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("wait until resolved").Error()})
		return
	}
	fee, net := market.WithdrawalFee(withdrawalP.Amount, cfg.Settings.Limits.WithdrawFeePercent)
	withdrawal := market.Withdrawal{
		UserId:    user.Id,
		Amount:    withdrawalP.Amount,
		Fee:       fee,
		NetAmount: net,
		Reference: uuid.NewString(),
		Status:    market.WithdrawalPending,
	}
	res = app.Db.Create(&withdrawal)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	cpUrl := os.Getenv("CP_URL")
	market.Alert(app, "finance", fmt.Sprintf(
		`Withdrawal requested [Withdrawal: %d](%s/withdrawals/%d)
[User: %d](%s/users/%d)
Amount: %s
Fee: %s
Net: %s
Balance: %s`,
		withdrawal.Id,
		cpUrl,
		withdrawal.Id,
		user.Id,
		cpUrl,
		user.Id,
		market.EscapeMarkdownV2(withdrawal.Amount.String()),
		market.EscapeMarkdownV2(withdrawal.Fee.String()),
		market.EscapeMarkdownV2(withdrawal.NetAmount.String()),
		market.EscapeMarkdownV2(user.EarningsBalance.String()),
	))
	c.JSON(http.StatusOK, withdrawal)
}

// GetWithdrawals lists the caller's own payout requests, newest first.
func GetWithdrawals(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var withdrawals []market.Withdrawal
	app.Db.Where("user_id = ?", user.Id).
		Order("created_at DESC").
		Find(&withdrawals)
	feed := make([]interface{}, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		feed = append(feed, withdrawal)
	}
	c.JSON(http.StatusOK, paginate(feed, "/users/withdrawals/", page, size))
}
