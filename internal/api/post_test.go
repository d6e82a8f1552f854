package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketapi/internal/market"
)

func newTestApp(t *testing.T) *market.App {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, market.Migrate(db))
	return &market.App{Db: db}
}

func authedContext(t *testing.T, app *market.App, userId uint, method string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("app", app)
	c.Set("user_id", userId)
	return c, w
}

func TestValidListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		params postParams
		ok     bool
	}{
		{"product priced", postParams{Type: market.PostProduct, Price: decimal.NewFromInt(10), Currency: "XAF"}, true},
		{"product zero price", postParams{Type: market.PostProduct, Currency: "XAF"}, false},
		{"product no currency", postParams{Type: market.PostProduct, Price: decimal.NewFromInt(10)}, false},
		{"service zero price", postParams{Type: market.PostService, Currency: "XAF"}, false},
		{"negative price", postParams{Type: market.PostProduct, Price: decimal.NewFromInt(-5), Currency: "XAF"}, false},
		{"job inverted range", postParams{Type: market.PostJob, SalaryMin: decimal.NewFromInt(500), SalaryMax: decimal.NewFromInt(100)}, false},
		{"job open range", postParams{Type: market.PostJob, SalaryMin: decimal.NewFromInt(100)}, true},
		{"social unpriced", postParams{Type: market.PostSocial}, true},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		assert.Equal(t, tc.ok, validListing(c, tc.params), tc.name)
		if !tc.ok {
			assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		}
	}
}

func TestUpdatePostKeepsMoneyRules(t *testing.T) {
	app := newTestApp(t)
	user := market.User{Phone: "+25511111111", PasswordHash: "x", ReferralCode: "EDITAA01"}
	require.NoError(t, app.Db.Create(&user).Error)
	post := market.Post{
		UserId:   user.Id,
		Type:     market.PostProduct,
		Title:    "Solar lamp",
		Price:    decimal.NewFromInt(10),
		Currency: "XAF",
		Status:   market.PostApproved,
	}
	require.NoError(t, app.Db.Create(&post).Error)

	// Editing a product down to a zero price must be rejected
	c, w := authedContext(t, app, user.Id, "PUT",
		`{"type":"product","title":"Solar lamp","price":"0","currency":"XAF"}`)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", post.Id)}}
	UpdatePost(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var fresh market.Post
	require.NoError(t, app.Db.Where("id = ?", post.Id).First(&fresh).Error)
	assert.Equal(t, "10", fresh.Price.String())
	assert.Equal(t, market.PostApproved, fresh.Status)

	// Dropping the currency is rejected the same way
	c, w = authedContext(t, app, user.Id, "PUT",
		`{"type":"product","title":"Solar lamp","price":"10","currency":""}`)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", post.Id)}}
	UpdatePost(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A valid edit goes through and lands back in moderation
	c, w = authedContext(t, app, user.Id, "PUT",
		`{"type":"product","title":"Solar lamp XL","price":"15","currency":"XAF"}`)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", post.Id)}}
	UpdatePost(c)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, app.Db.Where("id = ?", post.Id).First(&fresh).Error)
	assert.Equal(t, "15", fresh.Price.String())
	assert.Equal(t, market.PostPending, fresh.Status)
}
