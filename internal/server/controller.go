package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"marketapi/internal/api"
	"marketapi/internal/api/middleware"
	"marketapi/internal/market"
)

var App *market.App

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func ApiInit() { // Run Api Server
	App = market.Init()
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// This makes it so each ip can only make 100 requests per second
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", mw, wsHandler)
	router.GET("/ws/", mw, wsHandler)
	auth := router.Group("/auth/")
	{
		auth.POST("/signup", mw, api.Signup)
		auth.POST("/signup/", mw, api.Signup)
		auth.POST("/login", mw, api.Login)
		auth.POST("/login/", mw, api.Login)
	}
	// Public marketplace surface
	router.GET("/posts", mw, api.GetPosts)
	router.GET("/posts/", mw, api.GetPosts)
	router.GET("/posts/:id", mw, api.GetPost)
	router.GET("/posts/:id/", mw, api.GetPost)
	router.GET("/shops", mw, api.GetShops)
	router.GET("/shops/", mw, api.GetShops)
	router.GET("/shops/:slug", mw, api.GetShop)
	router.GET("/shops/:slug/", mw, api.GetShop)
	users := router.Group("/users/").Use(middleware.Auth())
	{
		users.GET("/me", mw, api.GetUser)
		users.GET("/me/", mw, api.GetUser)
		users.GET("/notifications", mw, api.GetNotifications)
		users.GET("/notifications/", mw, api.GetNotifications)
		users.POST("/notifications/read", mw, api.ReadNotifications)
		users.POST("/notifications/read/", mw, api.ReadNotifications)
		users.GET("/posts", mw, api.GetMyPosts)
		users.GET("/posts/", mw, api.GetMyPosts)
		users.GET("/shops", mw, api.GetMyShops)
		users.GET("/shops/", mw, api.GetMyShops)
		users.GET("/payments", mw, api.GetPayments)
		users.GET("/payments/", mw, api.GetPayments)
		users.GET("/withdrawals", mw, api.GetWithdrawals)
		users.GET("/withdrawals/", mw, api.GetWithdrawals)
		users.GET("/ref", mw, api.GetReferrals)
		users.GET("/ref/", mw, api.GetReferrals)
		users.GET("/cv", mw, api.GetCV)
		users.GET("/cv/", mw, api.GetCV)
		users.GET("/cv/:user_id", mw, api.GetUserCV)
		users.GET("/cv/:user_id/", mw, api.GetUserCV)
		users.PUT("/cv", mw, api.UpsertCV)
		users.PUT("/cv/", mw, api.UpsertCV)
	}
	posts := router.Group("/posts").Use(middleware.Auth())
	{
		posts.POST("", mw, api.CreatePost)
		posts.POST("/", mw, api.CreatePost)
		posts.PUT("/:id", mw, api.UpdatePost)
		posts.PUT("/:id/", mw, api.UpdatePost)
		posts.DELETE("/:id", mw, api.DeletePost)
		posts.DELETE("/:id/", mw, api.DeletePost)
	}
	shops := router.Group("/shops").Use(middleware.Auth())
	{
		shops.POST("", mw, api.CreateShop)
		shops.POST("/", mw, api.CreateShop)
		shops.PUT("/:id", mw, api.UpdateShop)
		shops.PUT("/:id/", mw, api.UpdateShop)
	}
	tx := router.Group("/tx/").Use(middleware.Auth())
	{
		tx.POST("/payment", mw, api.CreatePayment)
		tx.POST("/payment/", mw, api.CreatePayment)
		tx.POST("/withdraw", mw, api.Withdraw)
		tx.POST("/withdraw/", mw, api.Withdraw)
	}
	admin := router.Group("/admin/").Use(middleware.Auth(), middleware.Admin())
	{
		admin.GET("/payments", mw, api.GetPendingPayments)
		admin.GET("/payments/", mw, api.GetPendingPayments)
		admin.POST("/payments/:id/approve", mw, api.ApprovePayment)
		admin.POST("/payments/:id/approve/", mw, api.ApprovePayment)
		admin.POST("/payments/:id/fail", mw, api.FailPayment)
		admin.POST("/payments/:id/fail/", mw, api.FailPayment)
		admin.GET("/withdrawals", mw, api.GetPendingWithdrawals)
		admin.GET("/withdrawals/", mw, api.GetPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", mw, api.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/approve/", mw, api.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/process", mw, api.ProcessWithdrawal)
		admin.POST("/withdrawals/:id/process/", mw, api.ProcessWithdrawal)
		admin.POST("/withdrawals/:id/fail", mw, api.FailWithdrawal)
		admin.POST("/withdrawals/:id/fail/", mw, api.FailWithdrawal)
		admin.GET("/posts", mw, api.GetPendingPosts)
		admin.GET("/posts/", mw, api.GetPendingPosts)
		admin.POST("/posts/:id/approve", mw, api.ApprovePost)
		admin.POST("/posts/:id/approve/", mw, api.ApprovePost)
		admin.POST("/posts/:id/reject", mw, api.RejectPost)
		admin.POST("/posts/:id/reject/", mw, api.RejectPost)
	}
	fmt.Println("[ Market Backend is up and listening to :8000 ]")
	if err := router.Run(":8000"); err != nil {
		log.Fatal("Failed to run Market Backend on :8000: ", err)
	}
}

// wsHandler streams inbox notifications to the frontend. One Redis channel
// per user, plus a ping loop so dead connections get reaped.
func wsHandler(c *gin.Context) {
	token := c.DefaultQuery("token", "")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userId, phone, err := api.GetUserFromToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	app := c.MustGet("app").(*market.App)
	var user market.User
	res := app.Db.Where("id = ? AND phone = ?", userId, phone).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()
	lastPong := time.Now()
	conn.SetPongHandler(func(string) error {
		lastPong = time.Now()
		return nil
	})
	pingPeriod := 3 * time.Second
	timeout := 9 * time.Second
	var mu sync.Mutex // Serializes writes to the socket
	pubsub := app.Rdb.Subscribe(c, fmt.Sprintf("notification_ch@%d", user.Id))
	defer pubsub.Close()
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			mu.Lock()
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Println("Socket: Failed to send data:", err)
				mu.Unlock()
				_ = conn.Close()
				return
			}
			mu.Unlock()
		}
	}()
	// Read loop handles the frontend's sync requests
	go func() {
		defer conn.Close()
		for {
			messageType, p, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType == websocket.TextMessage && string(p) == "sync" {
				var fresh market.User
				res := app.Db.Where("id = ?", user.Id).First(&fresh)
				if res.RowsAffected != 1 {
					continue
				}
				mu.Lock()
				if err := conn.WriteJSON(gin.H{"target": "sync", "user": fresh.Data()}); err != nil {
					log.Println("Socket: Failed to send data:", err)
					mu.Unlock()
					return
				}
				mu.Unlock()
			}
		}
	}()
	for {
		if time.Since(lastPong) > timeout {
			log.Println("Socket: Client did not respond to ping, closing connection")
			return
		}
		mu.Lock()
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			mu.Unlock()
			return
		}
		mu.Unlock()
		time.Sleep(pingPeriod)
	}
}
