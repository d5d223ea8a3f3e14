package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/slug"
)

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostPending   PostStatus = "pending"
	PostRejected  PostStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostPending, PostRejected:
		return true
	}
	return false
}

// Category groups blog posts.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug string `gorm:"size:120;not null;uniqueIndex" json:"slug"`
}

func (c *Category) SlugSource() string             { return c.Name }
func (c *Category) SlugRef() *string               { return &c.Slug }
func (c *Category) slugGenerator() *slug.Generator { return categorySlugs }
func (c *Category) slugModel() interface{}         { return &Category{} }

// BeforeCreate assigns the slug.
func (c *Category) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, c) }

// Post is a blog article.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	CategoryID uint       `gorm:"index;not null" json:"category_id"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Slug       string     `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     PostStatus `gorm:"size:10;not null;default:draft;index" json:"status"`
	IsFeatured bool       `gorm:"default:false" json:"is_featured"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category   Category   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Comments   []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (p *Post) SlugSource() string             { return p.Title }
func (p *Post) SlugRef() *string               { return &p.Slug }
func (p *Post) slugGenerator() *slug.Generator { return postSlugs }
func (p *Post) slugModel() interface{}         { return &Post{} }

// BeforeCreate assigns the slug and defaults the status.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = PostDraft
	}
	return assignSlug(tx, p)
}

// URL is the public path of the post.
func (p *Post) URL() string { return "/blog/" + p.Slug }

// SetPostStatus moves a post to status and tells the author when it was
// published or rejected. Nothing is sent when the status is unchanged.
func SetPostStatus(db *gorm.DB, p *Post, status PostStatus) error {
	return db.Transaction(func(tx *gorm.DB) error {
		prev := p.Status
		if err := tx.Model(p).Update("status", status).Error; err != nil {
			return err
		}
		p.Status = status
		if prev == status {
			return nil
		}
		n := &Notification{RecipientID: p.UserID, Type: NotifyStatusUpdate, ObjectType: "post", ObjectID: uintPtr(p.ID)}
		switch status {
		case PostPublished:
			n.Title = "Your article has been published"
			n.Message = fmt.Sprintf("Your article %q was reviewed and published", p.Title)
			n.URL = p.URL()
		case PostRejected:
			n.Title = "Your article did not pass moderation"
			n.Message = fmt.Sprintf("Your article %q did not pass moderation", p.Title)
			n.URL = "/profile/posts"
		default:
			return nil
		}
		return notify(tx, n)
	})
}
