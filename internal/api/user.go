package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketapi/internal/api/jwt"
	"marketapi/internal/market"
)

func GetUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func GetUserFromToken(token string) (userId uint, phone string, err error) {
	userId, phone, err = jwt.ValidateToken(token)
	if err != nil {
		return 0, "", errors.New("invalid jwt")
	}

	return userId, phone, nil
}

// GetNotifications feeds the inbox, newest first.
func GetNotifications(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var notifications []market.Notification
	app.Db.Where("user_id = ?", user.Id).
		Order("created_at DESC").
		Find(&notifications)
	feed := make([]interface{}, 0, len(notifications))
	for _, notification := range notifications {
		feed = append(feed, notification)
	}
	c.JSON(http.StatusOK, paginate(feed, "/users/notifications/", page, size))
}

// ReadNotifications marks the whole inbox as read.
func ReadNotifications(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	res := app.Db.Model(&market.Notification{}).
		Where("user_id = ? AND read = ?", user.Id, false).
		Update("read", true)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
