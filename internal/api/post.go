package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketapi/internal/market"
)

type postParams struct {
	Type        market.PostType `json:"type" binding:"required"`
	ShopId      uint            `json:"shop_id"`
	Title       string          `json:"title" binding:"required" validate:"required,max=150"`
	Description string          `json:"description" validate:"max=5000"`
	Location    string          `json:"location" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" validate:"max=5"`
	SalaryMin   decimal.Decimal `json:"salary_min"`
	SalaryMax   decimal.Decimal `json:"salary_max"`
}

// validListing enforces the per-type money rules: product and service
// listings carry a priced currency, job listings a sane salary range.
// Replies 400 and returns false on violation.
func validListing(c *gin.Context, postP postParams) bool {
	if postP.Price.IsNegative() || postP.SalaryMin.IsNegative() || postP.SalaryMax.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "negative amount"})
		return false
	}
	if postP.Type == market.PostProduct || postP.Type == market.PostService {
		if !postP.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price required"})
			return false
		}
		if postP.Currency == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "currency required"})
			return false
		}
	}
	if postP.Type == market.PostJob && postP.SalaryMax.IsPositive() && postP.SalaryMax.LessThan(postP.SalaryMin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "salary range inverted"})
		return false
	}
	return true
}

func validPostType(t market.PostType) bool {
	for _, known := range market.PostTypes {
		if known == t {
			return true
		}
	}
	return false
}

// GetPosts is the public feed. Only approved posts are visible, boosted ones
// surface first. Filterable by type and location, searchable by title.
func GetPosts(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	query := app.Db.Where("status = ?", market.PostApproved)
	if postType := c.Query("type"); postType != "" {
		if !validPostType(market.PostType(postType)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown post type"})
			return
		}
		query = query.Where("type = ?", postType)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location = ?", location)
	}
	if shopId := c.Query("shop"); shopId != "" {
		query = query.Where("shop_id = ?", shopId)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	var posts []market.Post
	query.Order("boosted DESC, created_at DESC").Find(&posts)
	feed := make([]interface{}, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, post)
	}
	c.JSON(http.StatusOK, paginate(feed, "/posts/", page, size))
}

// GetPost returns a single listing. Pending and rejected posts stay hidden
// from everyone but their author.
func GetPost(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	var post market.Post
	res := app.Db.Where("id = ?", c.Param("id")).First(&post)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	if post.Status != market.PostApproved {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusNotFound, nil)
			return
		}
		userId, _, err := GetUserFromToken(token)
		if err != nil || userId != post.UserId {
			c.JSON(http.StatusNotFound, nil)
			return
		}
	}
	c.JSON(http.StatusOK, post)
}

// GetMyPosts lists the author's own posts in every status.
func GetMyPosts(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var posts []market.Post
	app.Db.Where("user_id = ?", user.Id).
		Order("created_at DESC").
		Find(&posts)
	feed := make([]interface{}, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, post)
	}
	c.JSON(http.StatusOK, paginate(feed, "/users/posts/", page, size))
}

// CreatePost opens a pending listing. Everything except cv posts needs an
// active subscription. The listing goes live only after moderation.
func CreatePost(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var postP postParams
	if err := c.ShouldBindJSON(&postP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validPostType(postP.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown post type"})
		return
	}
	if postP.Type != market.PostCV && !user.SubscriptionActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "subscription required"})
		return
	}
	if postP.ShopId > 0 {
		var shop market.Shop
		res := app.Db.Where("id = ? AND owner_id = ?", postP.ShopId, user.Id).First(&shop)
		if res.RowsAffected != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your shop"})
			return
		}
	}
	if !validListing(c, postP) {
		return
	}
	post := market.Post{
		UserId:      user.Id,
		ShopId:      postP.ShopId,
		Type:        postP.Type,
		Title:       postP.Title,
		Description: postP.Description,
		Location:    postP.Location,
		Price:       postP.Price,
		Currency:    postP.Currency,
		SalaryMin:   postP.SalaryMin,
		SalaryMax:   postP.SalaryMax,
		Status:      market.PostPending,
	}
	res := app.Db.Create(&post)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	cpUrl := os.Getenv("CP_URL")
	market.Alert(app, "moderation", fmt.Sprintf(
		`New %s post [Post: %d](%s/posts/%d) by [User: %d](%s/users/%d)
%s`,
		post.Type,
		post.Id,
		cpUrl,
		post.Id,
		user.Id,
		cpUrl,
		user.Id,
		market.EscapeMarkdownV2(post.Title),
	))
	c.JSON(http.StatusOK, post)
}

// UpdatePost edits an own listing and sends it back through moderation.
func UpdatePost(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var post market.Post
	res := app.Db.Where("id = ? AND user_id = ?", c.Param("id"), user.Id).First(&post)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	var postP postParams
	if err := c.ShouldBindJSON(&postP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if postP.Type != post.Type {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post type is immutable"})
		return
	}
	if !validListing(c, postP) {
		return
	}
	post.Title = postP.Title
	post.Description = postP.Description
	post.Location = postP.Location
	post.Price = postP.Price
	post.Currency = postP.Currency
	post.SalaryMin = postP.SalaryMin
	post.SalaryMax = postP.SalaryMax
	// Any edit goes back to the moderation queue
	post.Status = market.PostPending
	res = app.Db.Save(&post)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost soft-deletes an own listing.
func DeletePost(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var post market.Post
	res := app.Db.Where("id = ? AND user_id = ?", c.Param("id"), user.Id).First(&post)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	res = app.Db.Delete(&post)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
