package model

import (
	"time"
)

type User struct {
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PlanLabel      string     `db:"plan_label" json:"planLabel"`
	TrainerQuota   int        `db:"trainer_quota" json:"trainerQuota"`
	TrainerCredits int        `db:"trainer_credits" json:"trainerCredits"`
	APITokenHash   *string    `db:"api_token_hash" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	DisabledAt     *time.Time `db:"disabled_at" json:"disabledAt,omitempty"`
}

type CreateUserParams struct {
	Email          string
	PlanLabel      string
	TrainerQuota   int
	TrainerCredits int
	APITokenHash   string
}
