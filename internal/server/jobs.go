package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"marketapi/internal/app"
	"marketapi/internal/market"
	"marketapi/internal/worker"
)

var AppJobs *market.AppJobs

// alertTask pushes one admin alert out to Telegram.
type alertTask struct {
	payload market.AlertPayload
}

func (t alertTask) Execute() {
	if err := market.SendTelegramMessage(t.payload.Message, t.payload.Topic); err != nil {
		log.Println("[Jobs] telegram alert failed:", err)
	}
}

func JobsInit() { // Run Background Jobs
	AppJobs = market.InitJobs()
	pool := worker.NewPool(4, 100)
	go app.DoEvery(time.Minute, expireSubscriptions)
	go app.DoEvery(time.Minute, expireBoosts)
	mux := asynq.NewServeMux()
	mux.HandleFunc(market.TaskAlertSend, func(ctx context.Context, task *asynq.Task) error {
		var payload market.AlertPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("alert payload: %v: %w", err, asynq.SkipRetry)
		}
		pool.Exec(alertTask{payload: payload})
		return nil
	})
	fmt.Println("[ Market Jobs are up ]")
	if err := AppJobs.Aqs.Run(mux); err != nil {
		log.Fatal("Failed to run jobs server: ", err)
	}
}

// expireSubscriptions drops the active flag on every run-out subscription.
// One conditional bulk update, safe to run concurrently with approvals.
func expireSubscriptions(t time.Time) {
	res := AppJobs.Db.Model(&market.User{}).
		Where("subscription_active = ? AND subscription_expires_at < ?", true, t).
		Update("subscription_active", false)
	if res.Error != nil {
		log.Println("[Jobs] subscription sweep failed:", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		fmt.Printf("[Jobs] deactivated %d expired subscriptions\n", res.RowsAffected)
	}
}

// expireBoosts clears the boost flag on listings past their boost window.
func expireBoosts(t time.Time) {
	res := AppJobs.Db.Model(&market.Post{}).
		Where("boosted = ? AND boost_expires_at < ?", true, t).
		Update("boosted", false)
	if res.Error != nil {
		log.Println("[Jobs] boost sweep failed:", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		fmt.Printf("[Jobs] cleared %d expired boosts\n", res.RowsAffected)
	}
}
