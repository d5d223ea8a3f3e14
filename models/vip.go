package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/slug"
)

// VIPPost is members-only content.
type VIPPost struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"index;not null" json:"user_id"`
	Title     string       `gorm:"size:200;not null" json:"title"`
	Slug      string       `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Summary   string       `gorm:"size:500" json:"summary"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Comments  []VIPComment `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps the acronym in one piece.
func (VIPPost) TableName() string { return "vip_posts" }

func (p *VIPPost) SlugSource() string             { return p.Title }
func (p *VIPPost) SlugRef() *string               { return &p.Slug }
func (p *VIPPost) slugGenerator() *slug.Generator { return vipPostSlugs }
func (p *VIPPost) slugModel() interface{}         { return &VIPPost{} }

// BeforeCreate assigns the slug.
func (p *VIPPost) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, p) }

// URL is the public path of the post.
func (p *VIPPost) URL() string { return "/vip/" + p.Slug }

// VIPComment is a comment on a VIP post.
type VIPComment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"index;not null" json:"post_id"`
	UserID    uint         `gorm:"index;not null" json:"user_id"`
	ParentID  *uint        `gorm:"index" json:"parent_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	User      User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies   []VIPComment `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (VIPComment) TableName() string { return "vip_comments" }

func (c VIPComment) NodeID() uint      { return c.ID }
func (c VIPComment) NodeParent() *uint { return c.ParentID }

// AfterCreate notifies the author of the parent comment.
func (c *VIPComment) AfterCreate(tx *gorm.DB) error {
	if c.ParentID == nil {
		return nil
	}
	q := tx.Session(&gorm.Session{NewDB: true})
	var parent VIPComment
	if err := q.Select("id", "user_id", "post_id").First(&parent, *c.ParentID).Error; err != nil {
		return fmt.Errorf("load parent comment %d: %w", *c.ParentID, err)
	}
	if parent.UserID == c.UserID {
		return nil
	}
	var post VIPPost
	if err := q.Select("id", "title", "slug").First(&post, c.PostID).Error; err != nil {
		return fmt.Errorf("load vip post %d: %w", c.PostID, err)
	}
	return notify(tx, &Notification{
		RecipientID: parent.UserID,
		SenderID:    uintPtr(c.UserID),
		Type:        NotifyReply,
		Title:       "New reply to your comment",
		Message:     fmt.Sprintf("New reply to your comment on %q", post.Title),
		ObjectType:  "vip_comment",
		ObjectID:    uintPtr(c.ID),
		URL:         fmt.Sprintf("%s#comment-%d", post.URL(), c.ID),
	})
}
