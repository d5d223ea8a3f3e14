package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// AdminController manages the category tables behind the site navigation.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"max=50"`
	Order       uint   `json:"order"`
}

func (a *AdminController) create(ctx *gin.Context, m models.Sluggable) {
	if err := models.CreateWithSlug(a.db, m, config.Get().SlugMaxRetries); err != nil {
		logError(ctx, "create category", err)
		utils.Error(ctx, http.StatusInternalServerError, 50800, "failed to create category")
		return
	}
	utils.InvalidateByPrefix(navigationCacheKey)
	utils.Success(ctx, gin.H{"category": m})
}

// CreateBlogCategory adds a blog category.
func (a *AdminController) CreateBlogCategory(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40800, "invalid category payload")
		return
	}
	a.create(ctx, &models.Category{Name: utils.PlainText(req.Name)})
}

// CreateForumCategory adds a forum section.
func (a *AdminController) CreateForumCategory(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40800, "invalid category payload")
		return
	}
	a.create(ctx, &models.ForumCategory{
		Name:        utils.PlainText(req.Name),
		Description: utils.Sanitize(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		SortOrder:   req.Order,
	})
}

// CreateFoodCategory adds a food catalogue section.
func (a *AdminController) CreateFoodCategory(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40800, "invalid category payload")
		return
	}
	a.create(ctx, &models.FoodCategory{
		Name:        utils.PlainText(req.Name),
		Description: utils.Sanitize(req.Description),
	})
}

// GrantVIP sets a member's VIP flag and optional expiry.
func (a *AdminController) GrantVIP(ctx *gin.Context) {
	var req struct {
		IsVIP    bool       `json:"is_vip"`
		VIPUntil *time.Time `json:"vip_until"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40801, "invalid vip payload")
		return
	}
	var user models.User
	if err := a.db.First(&user, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40480, 50801, "user")
		return
	}
	updates := map[string]interface{}{"is_vip": req.IsVIP, "vip_until": nil}
	if req.VIPUntil != nil {
		updates["vip_until"] = req.VIPUntil.UTC()
	}
	if err := a.db.Model(&user).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50802, "failed to update vip status")
		return
	}
	if err := a.db.First(&user, user.ID).Error; err != nil {
		loadFailed(ctx, err, 40480, 50801, "user")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}
