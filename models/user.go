package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// User is a site member. Accounts are provisioned by the identity service;
// this table keeps the profile, weight journey and VIP state.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email          string         `gorm:"size:255" json:"email"`
	Bio            string         `gorm:"type:text" json:"bio"`
	AvatarURL      string         `gorm:"size:512" json:"avatar_url"`
	StartingWeight *float64       `json:"starting_weight"`
	CurrentWeight  *float64       `json:"current_weight"`
	GoalWeight     *float64       `json:"goal_weight"`
	Height         *float64       `json:"height"`
	IsVIP          bool           `gorm:"default:false" json:"is_vip"`
	VIPUntil       *time.Time     `json:"vip_until"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// HasActiveVIP reports whether the VIP flag is set and not expired at now.
// A nil VIPUntil means the membership does not expire.
func (u *User) HasActiveVIP(now time.Time) bool {
	if !u.IsVIP {
		return false
	}
	return u.VIPUntil == nil || now.Before(*u.VIPUntil)
}

// BMI returns weight / height² rounded to two decimals, or nil when either
// value is missing.
func (u *User) BMI() *float64 {
	if u.CurrentWeight == nil || u.Height == nil || *u.Height <= 0 {
		return nil
	}
	m := *u.Height / 100
	bmi := math.Round(*u.CurrentWeight/(m*m)*100) / 100
	return &bmi
}

// WeightLossProgress is the share of the planned loss already achieved, in
// percent with two decimals. Zero when the profile is incomplete or the goal
// is not a loss.
func (u *User) WeightLossProgress() float64 {
	if u.StartingWeight == nil || u.CurrentWeight == nil || u.GoalWeight == nil {
		return 0
	}
	goal := *u.StartingWeight - *u.GoalWeight
	if goal <= 0 {
		return 0
	}
	lost := *u.StartingWeight - *u.CurrentWeight
	return math.Round(lost/goal*100*100) / 100
}

// WeightGoalReached reports whether the current weight has reached the goal
// in the direction set by the starting weight.
func (u *User) WeightGoalReached() bool {
	if u.StartingWeight == nil || u.CurrentWeight == nil || u.GoalWeight == nil {
		return false
	}
	switch {
	case *u.StartingWeight > *u.GoalWeight:
		return *u.CurrentWeight <= *u.GoalWeight
	case *u.StartingWeight < *u.GoalWeight:
		return *u.CurrentWeight >= *u.GoalWeight
	}
	return false
}
