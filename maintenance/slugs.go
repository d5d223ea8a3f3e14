// Package maintenance holds the one-off data repairs and seeds run through
// the binary's subcommands.
package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
)

const batchSize = 200

// SlugReport counts repaired rows per table.
type SlugReport map[string]int

// Total is the number of rows changed across all tables.
func (r SlugReport) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// FixSlugs regenerates every slug that is empty or malformed, e.g. one
// starting with a hyphen. Valid slugs are never touched.
func FixSlugs(ctx context.Context, db *gorm.DB) (SlugReport, error) {
	report := SlugReport{}
	steps := []struct {
		table string
		run   func(context.Context, *gorm.DB) (int, error)
	}{
		{"categories", fixTable[models.Category](func(m *models.Category) uint { return m.ID })},
		{"posts", fixTable[models.Post](func(m *models.Post) uint { return m.ID })},
		{"recipes", fixTable[models.Recipe](func(m *models.Recipe) uint { return m.ID })},
		{"forum_categories", fixTable[models.ForumCategory](func(m *models.ForumCategory) uint { return m.ID })},
		{"forum_topics", fixTable[models.ForumTopic](func(m *models.ForumTopic) uint { return m.ID })},
		{"vip_posts", fixTable[models.VIPPost](func(m *models.VIPPost) uint { return m.ID })},
		{"food_categories", fixTable[models.FoodCategory](func(m *models.FoodCategory) uint { return m.ID })},
		{"challenges", fixTable[models.Challenge](func(m *models.Challenge) uint { return m.ID })},
	}
	for _, s := range steps {
		n, err := s.run(ctx, db)
		if err != nil {
			return report, fmt.Errorf("fix %s slugs: %w", s.table, err)
		}
		report[s.table] = n
	}
	return report, nil
}

// fixTable scans candidate rows in primary-key batches and rewrites the
// slugs FixSlug rejects. Each fix is written before the next lookup so
// repaired rows never collide with each other.
func fixTable[T any, PT interface {
	*T
	models.Sluggable
}](idOf func(*T) uint) func(context.Context, *gorm.DB) (int, error) {
	return func(ctx context.Context, db *gorm.DB) (int, error) {
		fixed := 0
		var rows []T
		res := db.WithContext(ctx).Model(new(T)).
			Where("slug = ? OR slug LIKE ? OR slug LIKE ? OR slug LIKE ?", "", "-%", "%-", "%--%").
			FindInBatches(&rows, batchSize, func(tx *gorm.DB, _ int) error {
				for i := range rows {
					m := PT(&rows[i])
					changed, err := models.FixSlug(ctx, db, m, idOf(&rows[i]))
					if err != nil {
						return err
					}
					if !changed {
						continue
					}
					if err := db.WithContext(ctx).Model(m).UpdateColumn("slug", *m.SlugRef()).Error; err != nil {
						return err
					}
					fixed++
				}
				return nil
			})
		return fixed, res.Error
	}
}
