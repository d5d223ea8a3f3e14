package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Comment is a reply to a blog post or, through ParentID, to another comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies   []Comment `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (c Comment) NodeID() uint      { return c.ID }
func (c Comment) NodeParent() *uint { return c.ParentID }

// AfterCreate notifies the post author and, for replies, the parent's author.
func (c *Comment) AfterCreate(tx *gorm.DB) error {
	q := tx.Session(&gorm.Session{NewDB: true})
	var post Post
	if err := q.Select("id", "user_id", "title", "slug").First(&post, c.PostID).Error; err != nil {
		return fmt.Errorf("load post %d: %w", c.PostID, err)
	}
	url := fmt.Sprintf("%s#comment-%d", post.URL(), c.ID)

	if c.UserID != post.UserID {
		err := notify(tx, &Notification{
			RecipientID: post.UserID,
			SenderID:    uintPtr(c.UserID),
			Type:        NotifyComment,
			Title:       "New comment on your article",
			Message:     fmt.Sprintf("New comment on your article %q", post.Title),
			ObjectType:  "comment",
			ObjectID:    uintPtr(c.ID),
			URL:         url,
		})
		if err != nil {
			return err
		}
	}

	if c.ParentID == nil {
		return nil
	}
	var parent Comment
	if err := q.Select("id", "user_id").First(&parent, *c.ParentID).Error; err != nil {
		return fmt.Errorf("load parent comment %d: %w", *c.ParentID, err)
	}
	if parent.UserID == c.UserID {
		return nil
	}
	return notify(tx, &Notification{
		RecipientID: parent.UserID,
		SenderID:    uintPtr(c.UserID),
		Type:        NotifyReply,
		Title:       "New reply to your comment",
		Message:     fmt.Sprintf("New reply to your comment on %q", post.Title),
		ObjectType:  "comment",
		ObjectID:    uintPtr(c.ID),
		URL:         url,
	})
}
