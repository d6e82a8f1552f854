package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketapi/internal/market"
)

type cvParams struct {
	Headline   string `json:"headline" binding:"required" validate:"required,max=150"`
	Summary    string `json:"summary" validate:"max=5000"`
	Skills     string `json:"skills" validate:"max=1000"`
	Experience string `json:"experience" validate:"max=5000"`
	Education  string `json:"education" validate:"max=5000"`
}

// GetCV returns the caller's CV.
func GetCV(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var cv market.CV
	res := app.Db.Where("user_id = ?", user.Id).First(&cv)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// GetUserCV lets an authenticated user (say, a job poster) read another
// user's CV.
func GetUserCV(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	if _, ok := currentUser(c); !ok {
		return
	}
	var cv market.CV
	res := app.Db.Where("user_id = ?", c.Param("user_id")).First(&cv)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// UpsertCV creates or replaces the one CV a user can hold.
func UpsertCV(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var cvP cvParams
	if err := c.ShouldBindJSON(&cvP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var cv market.CV
	res := app.Db.Where("user_id = ?", user.Id).First(&cv)
	cv.UserId = user.Id
	cv.Headline = cvP.Headline
	cv.Summary = cvP.Summary
	cv.Skills = cvP.Skills
	cv.Experience = cvP.Experience
	cv.Education = cvP.Education
	if res.RowsAffected == 1 {
		res = app.Db.Save(&cv)
	} else {
		res = app.Db.Create(&cv)
	}
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, cv)
}
