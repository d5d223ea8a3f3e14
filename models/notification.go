package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyComment      NotificationType = "comment"
	NotifyReply        NotificationType = "reply"
	NotifyForumReply   NotificationType = "forum_reply"
	NotifyStatusUpdate NotificationType = "status_update"
	NotifyWeightGoal   NotificationType = "weight_goal"
	NotifySystem       NotificationType = "system"
)

// Notification is a message delivered to one user.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notif_recipient_read,priority:1" json:"recipient_id"`
	SenderID    *uint            `json:"sender_id"`
	Type        NotificationType `gorm:"size:20;not null" json:"type"`
	Title       string           `gorm:"size:100;not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	ObjectType  string           `gorm:"size:32;index:idx_notif_object,priority:1" json:"object_type,omitempty"`
	ObjectID    *uint            `gorm:"index:idx_notif_object,priority:2" json:"object_id,omitempty"`
	URL         string           `gorm:"size:255" json:"url"`
	IsRead      bool             `gorm:"default:false;index:idx_notif_recipient_read,priority:2" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	Recipient   User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Sender      *User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"sender,omitempty"`
}

// notify stores n on a clean session so it joins the caller's transaction
// without inheriting its statement.
func notify(tx *gorm.DB, n *Notification) error {
	return tx.Session(&gorm.Session{NewDB: true}).Create(n).Error
}

func uintPtr(v uint) *uint { return &v }
