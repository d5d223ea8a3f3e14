package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

const navigationCacheKey = "cache:site:navigation"

// ConfigController serves site-wide UI configuration.
type ConfigController struct {
	db *gorm.DB
}

func NewConfigController(db *gorm.DB) *ConfigController { return &ConfigController{db: db} }

// GetNotice returns announcement/notice content configured via config.
func (c *ConfigController) GetNotice(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title": cfg.NoticeTitle,
		"html":  cfg.NoticeHTML,
	})
}

// GetNavigation returns the category lists every page renders in its menu.
func (c *ConfigController) GetNavigation(ctx *gin.Context) {
	b, err := utils.CacheFetch(navigationCacheKey, 10*time.Minute, func() (interface{}, error) {
		var blog []models.Category
		if err := c.db.Order("name ASC").Find(&blog).Error; err != nil {
			return nil, err
		}
		var forum []models.ForumCategory
		if err := c.db.Order("sort_order ASC, id ASC").Find(&forum).Error; err != nil {
			return nil, err
		}
		var food []models.FoodCategory
		if err := c.db.Order("name ASC").Find(&food).Error; err != nil {
			return nil, err
		}
		return gin.H{"blog_categories": blog, "forum_categories": forum, "food_categories": food}, nil
	})
	if err != nil {
		logError(ctx, "load navigation", err)
		utils.Error(ctx, http.StatusInternalServerError, 50700, "failed to load navigation")
		return
	}
	ctx.Data(http.StatusOK, jsonContentType, b)
}
