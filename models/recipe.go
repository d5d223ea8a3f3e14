package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/slug"
)

// RecipeStatus is the moderation state of a recipe.
type RecipeStatus string

const (
	RecipeDraft     RecipeStatus = "draft"
	RecipePublished RecipeStatus = "published"
	RecipeRejected  RecipeStatus = "rejected"
)

// Recipe is a user-submitted dish with per-serving macros.
type Recipe struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          *uint           `gorm:"index" json:"user_id"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	Slug            string          `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	ImageURL        string          `gorm:"size:512" json:"image_url"`
	Calories        uint            `gorm:"not null" json:"calories"`
	Protein         uint            `gorm:"not null" json:"protein"`
	Carbs           uint            `gorm:"not null" json:"carbs"`
	Fat             uint            `gorm:"not null" json:"fat"`
	PreparationTime uint            `gorm:"not null" json:"preparation_time"`
	Ingredients     string          `gorm:"type:text;not null" json:"ingredients"`
	Instructions    string          `gorm:"type:text;not null" json:"instructions"`
	IsFeatured      bool            `gorm:"default:false" json:"is_featured"`
	Status          RecipeStatus    `gorm:"size:10;not null;default:draft;index" json:"status"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	User            *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	Comments        []RecipeComment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (r *Recipe) SlugSource() string             { return r.Title }
func (r *Recipe) SlugRef() *string               { return &r.Slug }
func (r *Recipe) slugGenerator() *slug.Generator { return recipeSlugs }
func (r *Recipe) slugModel() interface{}         { return &Recipe{} }

// BeforeCreate assigns the slug and defaults the status.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = RecipeDraft
	}
	return assignSlug(tx, r)
}

// URL is the public path of the recipe.
func (r *Recipe) URL() string { return "/recipes/" + r.Slug }

// ModerateRecipe publishes or rejects a recipe and tells the author.
// reason is kept only for rejections.
func ModerateRecipe(db *gorm.DB, r *Recipe, status RecipeStatus, reason string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		prev := r.Status
		updates := map[string]interface{}{"status": status, "rejection_reason": nil}
		if status == RecipeRejected && reason != "" {
			updates["rejection_reason"] = reason
		}
		if err := tx.Model(r).Updates(updates).Error; err != nil {
			return err
		}
		r.Status = status
		r.RejectionReason = nil
		if status == RecipeRejected && reason != "" {
			r.RejectionReason = &reason
		}
		if prev == status || r.UserID == nil {
			return nil
		}
		n := &Notification{RecipientID: *r.UserID, Type: NotifyStatusUpdate, ObjectType: "recipe", ObjectID: uintPtr(r.ID)}
		switch status {
		case RecipePublished:
			n.Title = "Your recipe has been published"
			n.Message = fmt.Sprintf("Your recipe %q was reviewed and published", r.Title)
			n.URL = r.URL()
		case RecipeRejected:
			why := reason
			if why == "" {
				why = "not specified"
			}
			n.Title = "Your recipe did not pass moderation"
			n.Message = fmt.Sprintf("Your recipe %q did not pass moderation. Reason: %s", r.Title, why)
			n.URL = "/profile/recipes"
		default:
			return nil
		}
		return notify(tx, n)
	})
}

// RecipeComment is a comment on a recipe, optionally replying to another.
type RecipeComment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	RecipeID  uint            `gorm:"index;not null" json:"recipe_id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	ParentID  *uint           `gorm:"index" json:"parent_id"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	User      User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies   []RecipeComment `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (c RecipeComment) NodeID() uint      { return c.ID }
func (c RecipeComment) NodeParent() *uint { return c.ParentID }

// AfterCreate notifies the recipe author and the parent comment's author.
func (c *RecipeComment) AfterCreate(tx *gorm.DB) error {
	q := tx.Session(&gorm.Session{NewDB: true})
	var recipe Recipe
	if err := q.Select("id", "user_id", "title", "slug").First(&recipe, c.RecipeID).Error; err != nil {
		return fmt.Errorf("load recipe %d: %w", c.RecipeID, err)
	}
	url := fmt.Sprintf("%s#comment-%d", recipe.URL(), c.ID)

	if recipe.UserID != nil && *recipe.UserID != c.UserID {
		err := notify(tx, &Notification{
			RecipientID: *recipe.UserID,
			SenderID:    uintPtr(c.UserID),
			Type:        NotifyComment,
			Title:       "New comment on your recipe",
			Message:     fmt.Sprintf("New comment on your recipe %q", recipe.Title),
			ObjectType:  "recipe_comment",
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
	var parent RecipeComment
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
		Message:     fmt.Sprintf("New reply to your comment on recipe %q", recipe.Title),
		ObjectType:  "recipe_comment",
		ObjectID:    uintPtr(c.ID),
		URL:         url,
	})
}
