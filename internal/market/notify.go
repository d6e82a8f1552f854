package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

const TaskAlertSend = "alert:send"

// AlertPayload is the asynq task body for admin Telegram alerts.
type AlertPayload struct {
	Topic   string `json:"topic"` // finance, signup, moderation
	Message string `json:"message"`
}

// WsNotification is the envelope pushed on the user's ws channel.
type WsNotification struct {
	Target string       `json:"target"` // always "notify" for inbox pushes
	User   UserData     `json:"user"`
	Data   Notification `json:"data"`
}

// Notify inserts an inbox record for the user and pushes it over the ws
// channel. Strictly best effort: failures are logged and swallowed so they
// can never roll back the state transition that triggered them.
func Notify(app *App, user *User, title string, message string, kind string, data string) {
	notification := Notification{
		UserId:  user.Id,
		Title:   title,
		Message: message,
		Kind:    kind,
		Data:    data,
	}
	res := app.Db.Create(&notification)
	if res.Error != nil {
		log.Printf("notify: insert failed for user %d: %v", user.Id, res.Error)
		return
	}
	payload, err := json.Marshal(WsNotification{
		Target: "notify",
		User:   user.Data(),
		Data:   notification,
	})
	if err == nil {
		_ = app.Rdb.Publish(context.Background(), fmt.Sprintf("notification_ch@%d", user.Id), payload).Err()
	}
	if user.Phone != "" {
		if err := SendSms(user.Phone, title+": "+message); err != nil {
			log.Printf("notify: sms to %s failed: %v", user.Phone, err)
		}
	}
}

// Alert queues an admin Telegram alert for the jobs process. Falls back to a
// direct send when the queue is unavailable.
func Alert(app *App, topic string, message string) {
	payload, err := json.Marshal(AlertPayload{Topic: topic, Message: message})
	if err != nil {
		return
	}
	if app.Aqc != nil {
		_, err = app.Aqc.Enqueue(asynq.NewTask(TaskAlertSend, payload), asynq.Queue("alerts"))
		if err == nil {
			return
		}
		log.Printf("alert: enqueue failed: %v", err)
	}
	if err := SendTelegramMessage(message, topic); err != nil {
		log.Printf("alert: telegram send failed: %v", err)
	}
}
