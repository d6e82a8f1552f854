package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketapi/internal/market"
)

// Admin moderation surface. Every transition goes through the guarded state
// machine in the market package; this layer only maps errors to HTTP and
// fires the follow-up notifications after the commit.

func transitionStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, market.ErrInsufficientBalance):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func paramId(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// GetPendingPayments is the finance review queue, oldest first.
func GetPendingPayments(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	status := c.DefaultQuery("status", string(market.PaymentPending))
	var payments []market.Payment
	app.Db.Where("status = ?", status).
		Order("created_at ASC").
		Find(&payments)
	feed := make([]interface{}, 0, len(payments))
	for _, payment := range payments {
		feed = append(feed, payment)
	}
	c.JSON(http.StatusOK, paginate(feed, "/admin/payments/", page, size))
}

// GetPendingWithdrawals is the payout review queue, oldest first.
func GetPendingWithdrawals(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	status := c.DefaultQuery("status", string(market.WithdrawalPending))
	var withdrawals []market.Withdrawal
	app.Db.Where("status = ?", status).
		Order("created_at ASC").
		Find(&withdrawals)
	feed := make([]interface{}, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		feed = append(feed, withdrawal)
	}
	c.JSON(http.StatusOK, paginate(feed, "/admin/withdrawals/", page, size))
}

// GetPendingPosts is the listing moderation queue, oldest first.
func GetPendingPosts(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	status := c.DefaultQuery("status", string(market.PostPending))
	var posts []market.Post
	app.Db.Where("status = ?", status).
		Order("created_at ASC").
		Find(&posts)
	feed := make([]interface{}, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, post)
	}
	c.JSON(http.StatusOK, paginate(feed, "/admin/posts/", page, size))
}

// ApprovePayment settles a claimed transfer after the admin matched the
// transaction code. Side effects (activation, referral credit) land in the
// same commit; notifications go out only after it.
func ApprovePayment(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	id, ok := paramId(c)
	if !ok {
		return
	}
	cfg := loadConfig(app)
	payment, credited, err := market.ApprovePayment(app.Db, cfg, id)
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	var user market.User
	res := app.Db.Where("id = ?", payment.UserId).First(&user)
	if res.RowsAffected == 1 {
		market.Notify(app, &user,
			"Payment approved",
			fmt.Sprintf("Your %s payment of %s was approved.", payment.Type, payment.Amount),
			market.NotifyPayment,
			fmt.Sprintf(`{"payment_id":%d}`, payment.Id),
		)
	}
	if credited != nil {
		var referrer market.User
		res = app.Db.Where("id = ?", credited.ReferrerId).First(&referrer)
		if res.RowsAffected == 1 {
			market.Notify(app, &referrer,
				"Referral commission",
				fmt.Sprintf("You earned %s for a %s referral.", credited.Commission, credited.Type),
				market.NotifyReferral,
				fmt.Sprintf(`{"referral_id":%d}`, credited.Id),
			)
		}
	}
	c.JSON(http.StatusOK, payment)
}

// FailPayment rejects a claimed transfer. No side effects.
func FailPayment(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	id, ok := paramId(c)
	if !ok {
		return
	}
	payment, err := market.FailPayment(app.Db, id)
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	var user market.User
	res := app.Db.Where("id = ?", payment.UserId).First(&user)
	if res.RowsAffected == 1 {
		market.Notify(app, &user,
			"Payment rejected",
			fmt.Sprintf("Your %s payment could not be verified. Check the transaction code and try again.", payment.Type),
			market.NotifyPayment,
			fmt.Sprintf(`{"payment_id":%d}`, payment.Id),
		)
	}
	c.JSON(http.StatusOK, payment)
}

// ApproveWithdrawal debits the balance and marks the payout approved.
func ApproveWithdrawal(c *gin.Context) {
	settleWithdrawalRequest(c, market.WithdrawalApproved)
}

// ProcessWithdrawal is the same settlement with the processed terminal
// status, for payouts already pushed out on the mobile-money side.
func ProcessWithdrawal(c *gin.Context) {
	settleWithdrawalRequest(c, market.WithdrawalProcessed)
}

func settleWithdrawalRequest(c *gin.Context, to market.WithdrawalStatus) {
	app := c.MustGet("app").(*market.App)
	id, ok := paramId(c)
	if !ok {
		return
	}
	var withdrawal *market.Withdrawal
	var err error
	switch to {
	case market.WithdrawalProcessed:
		withdrawal, err = market.ProcessWithdrawal(app.Db, id)
	default:
		withdrawal, err = market.ApproveWithdrawal(app.Db, id)
	}
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	var user market.User
	res := app.Db.Where("id = ?", withdrawal.UserId).First(&user)
	if res.RowsAffected == 1 {
		market.Notify(app, &user,
			"Withdrawal "+string(to),
			fmt.Sprintf("Your withdrawal of %s (net %s after fee) is %s.", withdrawal.Amount, withdrawal.NetAmount, to),
			market.NotifyWithdrawal,
			fmt.Sprintf(`{"withdrawal_id":%d}`, withdrawal.Id),
		)
	}
	c.JSON(http.StatusOK, withdrawal)
}

// FailWithdrawal rejects a payout request. The balance is untouched.
func FailWithdrawal(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	id, ok := paramId(c)
	if !ok {
		return
	}
	withdrawal, err := market.FailWithdrawal(app.Db, id)
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	var user market.User
	res := app.Db.Where("id = ?", withdrawal.UserId).First(&user)
	if res.RowsAffected == 1 {
		market.Notify(app, &user,
			"Withdrawal rejected",
			fmt.Sprintf("Your withdrawal of %s was rejected. Your balance is unchanged.", withdrawal.Amount),
			market.NotifyWithdrawal,
			fmt.Sprintf(`{"withdrawal_id":%d}`, withdrawal.Id),
		)
	}
	c.JSON(http.StatusOK, withdrawal)
}

// ApprovePost publishes a pending listing.
func ApprovePost(c *gin.Context) {
	moderatePost(c, market.PostApproved)
}

// RejectPost bounces a pending listing back to its author.
func RejectPost(c *gin.Context) {
	moderatePost(c, market.PostRejected)
}

func moderatePost(c *gin.Context, to market.PostStatus) {
	app := c.MustGet("app").(*market.App)
	id, ok := paramId(c)
	if !ok {
		return
	}
	var post market.Post
	res := app.Db.Where("id = ?", id).First(&post)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": market.ErrNotFound.Error()})
		return
	}
	// Guarded on the prior status so two moderators cannot race
	res = app.Db.Model(&market.Post{}).
		Where("id = ? AND status = ?", post.Id, market.PostPending).
		Update("status", to)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected != 1 {
		c.JSON(http.StatusConflict, gin.H{"error": market.ErrInvalidState.Error()})
		return
	}
	post.Status = to
	var user market.User
	res = app.Db.Where("id = ?", post.UserId).First(&user)
	if res.RowsAffected == 1 {
		title := "Post approved"
		message := fmt.Sprintf("Your post %q is now live.", post.Title)
		if to == market.PostRejected {
			title = "Post rejected"
			message = fmt.Sprintf("Your post %q was rejected by moderation.", post.Title)
		}
		market.Notify(app, &user, title, message, market.NotifyModeration,
			fmt.Sprintf(`{"post_id":%d}`, post.Id))
	}
	c.JSON(http.StatusOK, post)
}
