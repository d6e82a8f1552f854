package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketapi/internal/market"
)

var ctx = context.Background()

// Paginated is the list envelope every feed endpoint replies with.
type Paginated struct {
	Count    int           `json:"count"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
	Results  []interface{} `json:"results"`
}

func paginate(items []interface{}, path string, page int, size int) (paginated Paginated) {
	paginated.Results = []interface{}{}
	feedLen := len(items)
	paginated.Count = feedLen
	i := (page - 1) * size
	if feedLen <= i {
		return paginated
	}
	if feedLen > page*size {
		paginated.Next = fmt.Sprintf("%s?page=%d&size=%d", path, page+1, size)
	}
	if page > 1 {
		paginated.Previous = fmt.Sprintf("%s?page=%d&size=%d", path, page-1, size)
	}
	j := i + size
	if j > feedLen {
		j = feedLen
	}
	paginated.Results = items[i:j]
	return paginated
}

// pageParams pulls page/size out of the query string, rejecting the request
// itself on garbage. Returns ok=false after the response has been written.
func pageParams(c *gin.Context) (page int, size int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return 0, 0, false
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, 0, false
	}
	if size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("maximum size is 100").Error()})
		return 0, 0, false
	}
	return page, size, true
}

// currentUser loads the authenticated user set by the Auth middleware.
// Replies 403 and returns ok=false when the account vanished under the token.
func currentUser(c *gin.Context) (user market.User, ok bool) {
	app := c.MustGet("app").(*market.App)
	userId := c.MustGet("user_id").(uint)
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": errors.New("invalid jwt").Error()})
		return user, false
	}
	return user, true
}

// loadConfig refreshes CurrentAppConfig from Redis so admin panel edits are
// picked up without a redeploy.
func loadConfig(app *market.App) *market.AppConfig {
	appConfigRaw, _ := app.Rdb.Get(ctx, "app_config").Result()
	if len(appConfigRaw) > 0 {
		_ = json.Unmarshal([]byte(appConfigRaw), &market.CurrentAppConfig)
	}
	return market.CurrentAppConfig
}
