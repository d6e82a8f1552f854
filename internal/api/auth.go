package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/dchest/uniuri"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"marketapi/internal/api/jwt"
	"marketapi/internal/market"
)

type signupParams struct {
	Phone      string `json:"phone" binding:"required" validate:"required,max=15"`
	Password   string `json:"password" binding:"required" validate:"required,min=6,max=72"`
	Name       string `json:"name" validate:"max=100"`
	InviteCode string `json:"invite_code" validate:"max=8"`
	Locale     string `json:"locale" validate:"max=5"`
}

type loginParams struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var phoneCheck = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

const refChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Signup registers a phone+password account. A valid invite code wires the
// referral edge right away, in pending status, so the commission path exists
// before the subscription payment is even claimed.
func Signup(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	var signupP signupParams
	if err := c.ShouldBindJSON(&signupP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !phoneCheck.MatchString(signupP.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone format"})
		return
	}
	if len(signupP.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}
	var double market.User
	res := app.Db.Where("phone = ?", signupP.Phone).First(&double)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("phone already registered").Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(signupP.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var referrer *market.User
	if signupP.InviteCode != "" {
		referrer, err = market.ResolveReferrer(app.Db, signupP.InviteCode)
		if err != nil {
			if errors.Is(err, market.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invite code"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	refNew := ""
	for {
		refNew = uniuri.NewLenChars(8, []byte(refChars))
		var codeDouble market.User
		res = app.Db.Where("referral_code = ?", refNew).First(&codeDouble)
		if res.RowsAffected == 1 {
			continue
		}
		break
	}
	user := market.User{
		Phone:        signupP.Phone,
		Name:         signupP.Name,
		PasswordHash: string(hash),
		Group:        market.GroupMember,
		ReferralCode: refNew,
		ReferralFrom: signupP.InviteCode,
		Locale:       signupP.Locale,
		Ip:           c.ClientIP(),
	}
	res = app.Db.Create(&user)
	if res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	if referrer != nil {
		cfg := loadConfig(app)
		_, err = market.CreateSubscriptionReferral(app.Db, cfg, referrer, &user)
		if err != nil && !errors.Is(err, market.ErrDuplicateReferral) {
			fmt.Println("[Signup] referral edge failed:", err)
		}
	}
	cpUrl := os.Getenv("CP_URL")
	msg := fmt.Sprintf(
		`New Signup [User: %d](%s/users/%d)
Phone: %s
Locale: %s`,
		user.Id,
		cpUrl,
		user.Id,
		market.EscapeMarkdownV2(user.Phone),
		market.EscapeMarkdownV2(user.Locale),
	)
	if referrer != nil {
		msg = fmt.Sprintf(
			`%s
Invited by [User: %d](%s/users/%d)`,
			msg,
			referrer.Id,
			cpUrl,
			referrer.Id,
		)
	}
	market.Alert(app, "signup", msg)
	token, err := jwt.GenerateJWT(user.Id, user.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user.Data(),
		"is_signup": true,
		"jwt":       token,
	})
}

// Login checks phone+password and hands out a fresh jwt.
func Login(c *gin.Context) {
	app := c.MustGet("app").(*market.App)
	var loginP loginParams
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user market.User
	res := app.Db.Where("phone = ?", loginP.Phone).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": errors.New("invalid credentials").Error()})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginP.Password)); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": errors.New("invalid credentials").Error()})
		return
	}
	token, err := jwt.GenerateJWT(user.Id, user.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user.Data(),
		"is_signup": false,
		"jwt":       token,
	})
}
