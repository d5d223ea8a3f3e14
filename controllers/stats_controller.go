package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// StatsController provides site statistics such as content counts and
// daily page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

func (s *StatsController) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	q := s.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		return 0
	}
	return n
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	now := time.Now()
	dailyViews, err := models.DailyViews(s.db, now)
	if err != nil {
		logError(ctx, "daily views", err)
	}
	top, err := models.TopPaths(s.db, now.AddDate(0, 0, -6), 10)
	if err != nil {
		logError(ctx, "top paths", err)
	}
	if top == nil {
		top = []models.PathViews{}
	}

	utils.Success(ctx, gin.H{
		"user_count":        s.count(&models.User{}, ""),
		"post_count":        s.count(&models.Post{}, "status = ?", models.PostPublished),
		"comment_count":     s.count(&models.Comment{}, ""),
		"recipe_count":      s.count(&models.Recipe{}, "status = ?", models.RecipePublished),
		"topic_count":       s.count(&models.ForumTopic{}, ""),
		"forum_post_count":  s.count(&models.ForumPost{}, ""),
		"food_count":        s.count(&models.Food{}, "user_id IS NULL"),
		"daily_views_count": dailyViews,
		"top_week":          top,
	})
}

// GetPageStats returns total page views of one content path, e.g.
// /api/v1/blog/posts/my-first-week.
func (s *StatsController) GetPageStats(ctx *gin.Context) {
	path := ctx.Query("path")
	if path == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "missing path")
		return
	}
	pv, err := models.TotalViews(s.db, path)
	if err != nil {
		logError(ctx, "page views", err)
	}
	utils.Success(ctx, gin.H{"path": path, "pv": pv})
}
