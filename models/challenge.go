package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/slug"
)

// Challenge is a fixed-length programme, e.g. "30 days without sugar".
// Only active challenges are listed to visitors.
type Challenge struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Slug         string    `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	ImageURL     string    `gorm:"size:512" json:"image_url,omitempty"`
	DurationDays uint      `gorm:"not null" json:"duration"`
	IsActive     bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (c *Challenge) SlugSource() string             { return c.Title }
func (c *Challenge) SlugRef() *string               { return &c.Slug }
func (c *Challenge) slugGenerator() *slug.Generator { return challengeSlugs }
func (c *Challenge) slugModel() interface{}         { return &Challenge{} }

// BeforeCreate assigns the slug.
func (c *Challenge) BeforeCreate(tx *gorm.DB) error { return assignSlug(tx, c) }

func (c *Challenge) URL() string { return "/challenges/" + c.Slug }
