package api

import (
	"net/http"
	"strings"

	"github.com/dchest/uniuri"
	"github.com/gin-gonic/gin"

	"marketapi/internal/market"
)

type shopParams struct {
	Name        string `json:"name" binding:"required" validate:"required,max=100"`
	Description string `json:"description" validate:"max=5000"`
	Location    string `json:"location" validate:"max=100"`
}

// slugify lowercases the shop name and appends a short random suffix so two
// "Main Street Electronics" shops never collide.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	keep := make([]rune, 0, len(slug))
	for _, r := range slug {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			keep = append(keep, r)
		}
	}
	slug = string(keep)
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug + "-" + uniuri.NewLenChars(5, []byte("abcdefghijklmnopqrstuvwxyz0123456789"))
}

// GetShops is the public storefront directory.
func GetShops(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	query := app.Db.Order("created_at DESC")
	if location := c.Query("location"); location != "" {
		query = query.Where("location = ?", location)
	}
	var shops []market.Shop
	query.Find(&shops)
	feed := make([]interface{}, 0, len(shops))
	for _, shop := range shops {
		feed = append(feed, shop)
	}
	c.JSON(http.StatusOK, paginate(feed, "/shops/", page, size))
}

// GetShop is the public storefront lookup by slug.
func GetShop(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	var shop market.Shop
	res := app.Db.Where("slug = ?", c.Param("slug")).First(&shop)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	var posts []market.Post
	app.Db.Where("shop_id = ? AND status = ?", shop.Id, market.PostApproved).
		Order("boosted DESC, created_at DESC").
		Find(&posts)
	c.JSON(http.StatusOK, gin.H{
		"shop":  shop,
		"posts": posts,
	})
}

// CreateShop opens a storefront. Premium tier only.
func CreateShop(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !user.Upgraded {
		c.JSON(http.StatusForbidden, gin.H{"error": "upgrade required"})
		return
	}
	var shopP shopParams
	if err := c.ShouldBindJSON(&shopP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shop := market.Shop{
		OwnerId:     user.Id,
		Name:        shopP.Name,
		Slug:        slugify(shopP.Name),
		Description: shopP.Description,
		Location:    shopP.Location,
	}
	res := app.Db.Create(&shop)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UpdateShop edits an own storefront. The slug never changes.
func UpdateShop(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var shop market.Shop
	res := app.Db.Where("id = ? AND owner_id = ?", c.Param("id"), user.Id).First(&shop)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	var shopP shopParams
	if err := c.ShouldBindJSON(&shopP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shop.Name = shopP.Name
	shop.Description = shopP.Description
	shop.Location = shopP.Location
	res = app.Db.Save(&shop)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, shop)
}

// GetMyShops lists the caller's storefronts.
func GetMyShops(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var shops []market.Shop
	app.Db.Where("owner_id = ?", user.Id).Order("created_at DESC").Find(&shops)
	c.JSON(http.StatusOK, shops)
}
