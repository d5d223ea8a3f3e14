package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/metrics"
	"github.com/cppla/weightloss/slug"
)

// Fallback prefixes for titles that normalize to nothing.
var (
	postSlugs      = slug.New("post")
	recipeSlugs    = slug.New("recipe")
	topicSlugs     = slug.New("topic")
	vipPostSlugs   = slug.New("vip-post")
	categorySlugs  = slug.New("category")
	challengeSlugs = slug.New("challenge")
)

// Sluggable is a model whose slug column carries a unique index.
type Sluggable interface {
	SlugSource() string
	SlugRef() *string
	slugGenerator() *slug.Generator
	// slugModel returns an empty value of the same table for lookups.
	slugModel() interface{}
}

// SlugLookup checks the slug column of model's table.
func SlugLookup(db *gorm.DB, model interface{}) slug.Lookup {
	return slug.LookupFunc(func(ctx context.Context, s string, excludeID uint) (bool, error) {
		var n int64
		q := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Model(model).Where("slug = ?", s)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// assignSlug fills an empty slug. Called from BeforeCreate hooks; an
// existing slug is never regenerated.
func assignSlug(tx *gorm.DB, m Sluggable) error {
	ref := m.SlugRef()
	if *ref != "" {
		return nil
	}
	s, err := m.slugGenerator().Unique(tx.Statement.Context, SlugLookup(tx, m.slugModel()), m.SlugSource(), 0)
	if err != nil {
		return err
	}
	*ref = s
	return nil
}

// CreateWithSlug inserts m. When a concurrent writer wins the race for the
// same slug, the unique index rejects the row and the slug is regenerated
// with a random tail, at most maxRetries times.
func CreateWithSlug(db *gorm.DB, m Sluggable, maxRetries int) error {
	for attempt := 0; ; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(m).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxRetries {
			return err
		}
		metrics.SlugRetriesTotal.WithLabelValues(tableOf(db, m)).Inc()
		s, serr := m.slugGenerator().WithRandomSuffix(db.Statement.Context, SlugLookup(db, m.slugModel()), m.SlugSource(), 0)
		if serr != nil {
			return fmt.Errorf("regenerate slug: %w", serr)
		}
		*m.SlugRef() = s
	}
}

// FixSlug regenerates a slug that is empty or malformed, excluding the row
// itself from the uniqueness check. It reports whether the slug changed.
func FixSlug(ctx context.Context, db *gorm.DB, m Sluggable, id uint) (bool, error) {
	ref := m.SlugRef()
	if slug.Valid(*ref) {
		return false, nil
	}
	s, err := m.slugGenerator().Unique(ctx, SlugLookup(db, m.slugModel()), m.SlugSource(), id)
	if err != nil {
		return false, err
	}
	*ref = s
	return true, nil
}

func tableOf(db *gorm.DB, m interface{}) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(m); err != nil {
		return "unknown"
	}
	return stmt.Schema.Table
}
