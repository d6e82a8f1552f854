package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"marketapi/internal/api/jwt"
	"marketapi/internal/market"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "jwt missing"})
			return
		}
		userId, phone, err := jwt.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("user_id", userId)
		c.Set("phone", phone)
		c.Next()
	}
}

// Admin gates the moderation surface. Runs after Auth, so user_id is set.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := c.MustGet("app").(*market.App)
		userId := c.MustGet("user_id").(uint)
		var user market.User
		res := app.Db.Where("id = ?", userId).First(&user)
		if res.RowsAffected != 1 || user.Group != market.GroupAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Set("admin", user)
		c.Next()
	}
}
