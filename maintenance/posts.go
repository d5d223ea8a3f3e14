package maintenance

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
)

// FixPostStatuses maps unknown post statuses back to a valid one: anything
// mentioning "published" becomes published, the rest draft.
func FixPostStatuses(ctx context.Context, db *gorm.DB) (int, error) {
	valid := []models.PostStatus{models.PostDraft, models.PostPublished, models.PostPending, models.PostRejected}
	var posts []models.Post
	if err := db.WithContext(ctx).Select("id", "status").Where("status NOT IN ?", valid).Find(&posts).Error; err != nil {
		return 0, err
	}
	for _, p := range posts {
		status := models.PostDraft
		if strings.Contains(strings.ToLower(string(p.Status)), "published") {
			status = models.PostPublished
		}
		if err := db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", p.ID).UpdateColumn("status", status).Error; err != nil {
			return 0, err
		}
	}
	return len(posts), nil
}
