package market

import "time"

// CV is the single curriculum vitae a user can publish towards job posts.
type CV struct {
	Id         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserId     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Headline   string    `gorm:"not null" json:"headline"`
	Summary    string    `json:"summary"`
	Skills     string    `json:"skills"`
	Experience string    `json:"experience"`
	Education  string    `json:"education"`
}
