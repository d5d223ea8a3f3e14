package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/slug"
)

var (
	// ErrTopicClosed is returned when replying to a closed topic.
	ErrTopicClosed = errors.New("topic is closed for new replies")
	// ErrForeignParent is returned when a reply's parent belongs to another thread.
	ErrForeignParent = errors.New("parent belongs to a different thread")
)

// ForumCategory is a forum section. Listing order follows SortOrder.
type ForumCategory struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	Slug        string       `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Icon        string       `gorm:"size:50" json:"icon"`
	SortOrder   uint         `gorm:"default:0;index" json:"order"`
	Topics      []ForumTopic `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (c *ForumCategory) SlugSource() string             { return c.Name }
func (c *ForumCategory) SlugRef() *string               { return &c.Slug }
func (c *ForumCategory) slugGenerator() *slug.Generator { return categorySlugs }
func (c *ForumCategory) slugModel() interface{}         { return &ForumCategory{} }

// BeforeCreate assigns the slug.
func (c *ForumCategory) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, c) }

// ForumTopic is a discussion thread. Its opening message is stored both as
// Content and as the first ForumPost.
type ForumTopic struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Title      string        `gorm:"size:200;not null" json:"title"`
	Slug       string        `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	CategoryID uint          `gorm:"index;not null" json:"category_id"`
	UserID     uint          `gorm:"index;not null" json:"user_id"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	Views      uint          `gorm:"default:0" json:"views"`
	IsClosed   bool          `gorm:"default:false" json:"is_closed"`
	IsPinned   bool          `gorm:"default:false;index" json:"is_pinned"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `gorm:"index" json:"updated_at"`
	User       User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category   ForumCategory `gorm:"foreignKey:CategoryID" json:"category"`
	Posts      []ForumPost   `gorm:"foreignKey:TopicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (t *ForumTopic) SlugSource() string             { return t.Title }
func (t *ForumTopic) SlugRef() *string               { return &t.Slug }
func (t *ForumTopic) slugGenerator() *slug.Generator { return topicSlugs }
func (t *ForumTopic) slugModel() interface{}         { return &ForumTopic{} }

// BeforeCreate assigns the slug.
func (t *ForumTopic) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, t) }

// URL is the public path of the topic.
func (t *ForumTopic) URL() string { return fmt.Sprintf("/forum/topics/%s", t.Slug) }

// ForumPost is a message inside a topic. Top-level posts have no parent.
type ForumPost struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	TopicID    uint        `gorm:"index;not null" json:"topic_id"`
	UserID     uint        `gorm:"index;not null" json:"user_id"`
	ParentID   *uint       `gorm:"index" json:"parent_id"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	IsSolution bool        `gorm:"default:false" json:"is_solution"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	User       User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies    []ForumPost `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (p ForumPost) NodeID() uint      { return p.ID }
func (p ForumPost) NodeParent() *uint { return p.ParentID }

// AfterCreate notifies the parent's author about a reply and the topic
// author about any new message that is not the opening post.
func (p *ForumPost) AfterCreate(tx *gorm.DB) error {
	q := tx.Session(&gorm.Session{NewDB: true})
	var topic ForumTopic
	if err := q.Select("id", "user_id", "title", "slug").First(&topic, p.TopicID).Error; err != nil {
		return fmt.Errorf("load topic %d: %w", p.TopicID, err)
	}
	url := fmt.Sprintf("%s#post-%d", topic.URL(), p.ID)

	if p.ParentID == nil {
		// the opening post, or a top-level message
		if p.UserID == topic.UserID {
			return nil
		}
		return notify(tx, &Notification{
			RecipientID: topic.UserID,
			SenderID:    uintPtr(p.UserID),
			Type:        NotifyForumReply,
			Title:       "New message in your topic",
			Message:     fmt.Sprintf("New message in your topic %q", topic.Title),
			ObjectType:  "forum_post",
			ObjectID:    uintPtr(p.ID),
			URL:         url,
		})
	}

	var parent ForumPost
	if err := q.Select("id", "user_id").First(&parent, *p.ParentID).Error; err != nil {
		return fmt.Errorf("load parent post %d: %w", *p.ParentID, err)
	}
	if parent.UserID != p.UserID {
		err := notify(tx, &Notification{
			RecipientID: parent.UserID,
			SenderID:    uintPtr(p.UserID),
			Type:        NotifyForumReply,
			Title:       "New reply to your forum message",
			Message:     fmt.Sprintf("New reply to your message in %q", topic.Title),
			ObjectType:  "forum_post",
			ObjectID:    uintPtr(p.ID),
			URL:         url,
		})
		if err != nil {
			return err
		}
	}
	if topic.UserID == p.UserID || topic.UserID == parent.UserID {
		return nil
	}
	return notify(tx, &Notification{
		RecipientID: topic.UserID,
		SenderID:    uintPtr(p.UserID),
		Type:        NotifyForumReply,
		Title:       "New message in your topic",
		Message:     fmt.Sprintf("New message in your topic %q", topic.Title),
		ObjectType:  "forum_post",
		ObjectID:    uintPtr(p.ID),
		URL:         url,
	})
}

// CreateTopic inserts a topic together with its opening post.
func CreateTopic(db *gorm.DB, t *ForumTopic, maxRetries int) (*ForumPost, error) {
	var first *ForumPost
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := CreateWithSlug(tx, t, maxRetries); err != nil {
			return err
		}
		first = &ForumPost{TopicID: t.ID, UserID: t.UserID, Content: t.Content}
		return tx.Create(first).Error
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// ReplyToTopic adds p to topic. A closed topic refuses new messages and a
// parent from another topic is rejected. The topic's UpdatedAt is bumped so
// active threads sort first.
func ReplyToTopic(db *gorm.DB, topic *ForumTopic, p *ForumPost) error {
	if topic.IsClosed {
		return ErrTopicClosed
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if p.ParentID != nil {
			var parent ForumPost
			if err := tx.Select("id", "topic_id").First(&parent, *p.ParentID).Error; err != nil {
				return err
			}
			if parent.TopicID != topic.ID {
				return ErrForeignParent
			}
		}
		p.TopicID = topic.ID
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Model(topic).UpdateColumn("updated_at", time.Now()).Error
	})
}

// MarkSolution flags p as the topic's solution and clears any previous one.
func MarkSolution(db *gorm.DB, p *ForumPost) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ForumPost{}).
			Where("topic_id = ? AND is_solution = ?", p.TopicID, true).
			Update("is_solution", false).Error; err != nil {
			return err
		}
		p.IsSolution = true
		return tx.Model(p).Update("is_solution", true).Error
	})
}

// IncrementTopicViews bumps the view counter without touching UpdatedAt.
func IncrementTopicViews(db *gorm.DB, id uint) error {
	return db.Model(&ForumTopic{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1")).Error
}
