package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketapi/internal/market"
)

// GetReferrals feeds the profile screen: the downline edges plus aggregate
// commission totals per status.
func GetReferrals(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var referrals []market.Referral
	app.Db.Where("referrer_id = ?", user.Id).
		Order("created_at DESC").
		Find(&referrals)
	feed := make([]interface{}, 0, len(referrals))
	for _, referral := range referrals {
		feed = append(feed, referral)
	}
	paginated := paginate(feed, "/users/ref/", page, size)
	c.JSON(http.StatusOK, gin.H{
		"count":    paginated.Count,
		"next":     paginated.Next,
		"previous": paginated.Previous,
		"results":  paginated.Results,
		"stats":    market.GetRefStats(app.Db, user),
	})
}
