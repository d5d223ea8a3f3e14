package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

const (
	challengeListCachePrefix   = "cache:challenges:list:"
	challengeDetailCachePrefix = "cache:challenge:detail:"
	challengePageSize          = 6
)

// ChallengeController serves the challenge catalogue.
type ChallengeController struct {
	db *gorm.DB
}

// NewChallengeController creates a new ChallengeController instance.
func NewChallengeController(db *gorm.DB) *ChallengeController {
	return &ChallengeController{db: db}
}

type challengeRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"required"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=512"`
	Duration    uint   `json:"duration" binding:"required,min=1,max=3650"`
	IsActive    *bool  `json:"is_active"`
}

func (r challengeRequest) apply(c *models.Challenge) {
	c.Title = utils.PlainText(r.Title)
	c.Description = utils.Sanitize(r.Description)
	c.ImageURL = strings.TrimSpace(r.ImageURL)
	c.DurationDays = r.Duration
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
}

// ListChallenges returns active challenges, newest first.
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	if ctx.Query("page_size") == "" {
		pageSize = challengePageSize
	}

	key := fmt.Sprintf("%spage=%d:size=%d", challengeListCachePrefix, page, pageSize)
	b, err := utils.CacheFetch(key, postCacheTTL, func() (interface{}, error) {
		q := c.db.Model(&models.Challenge{}).Where("is_active = ?", true)
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return nil, err
		}
		var items []models.Challenge
		if err := q.Order("created_at DESC").
			Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
			return nil, err
		}
		return paginated(items, page, pageSize, total), nil
	})
	if err != nil {
		logError(ctx, "list challenges", err)
		utils.Error(ctx, http.StatusInternalServerError, 50900, "failed to list challenges")
		return
	}
	ctx.Data(http.StatusOK, jsonContentType, b)
}

// GetChallenge returns an active challenge by slug. Admins also see
// inactive ones.
func (c *ChallengeController) GetChallenge(ctx *gin.Context) {
	slugParam := strings.TrimSpace(ctx.Param("slug"))
	b, err := utils.CacheFetch(challengeDetailCachePrefix+slugParam, postCacheTTL, func() (interface{}, error) {
		var ch models.Challenge
		if err := c.db.Where("slug = ? AND is_active = ?", slugParam, true).First(&ch).Error; err != nil {
			return nil, err
		}
		return gin.H{"challenge": ch}, nil
	})
	if err == nil {
		ctx.Data(http.StatusOK, jsonContentType, b)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logError(ctx, "load challenge", err)
		utils.Error(ctx, http.StatusInternalServerError, 50901, "failed to load challenge")
		return
	}
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusNotFound, 40900, "challenge not found")
		return
	}
	var ch models.Challenge
	if err := c.db.Where("slug = ?", slugParam).First(&ch).Error; err != nil {
		loadFailed(ctx, err, 40900, 50901, "challenge")
		return
	}
	utils.Success(ctx, gin.H{"challenge": ch})
}

// CreateChallenge adds a challenge. New challenges are active unless the
// payload says otherwise.
func (c *ChallengeController) CreateChallenge(ctx *gin.Context) {
	var req challengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40901, "invalid challenge payload")
		return
	}
	ch := models.Challenge{IsActive: true}
	req.apply(&ch)
	if ch.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40901, "invalid challenge payload")
		return
	}
	if err := models.CreateWithSlug(c.db, &ch, config.Get().SlugMaxRetries); err != nil {
		logError(ctx, "create challenge", err)
		utils.Error(ctx, http.StatusInternalServerError, 50902, "failed to create challenge")
		return
	}
	utils.InvalidateByPrefix(challengeListCachePrefix)
	utils.Success(ctx, gin.H{"challenge": ch})
}

// UpdateChallenge rewrites a challenge's fields. The slug is kept.
func (c *ChallengeController) UpdateChallenge(ctx *gin.Context) {
	var req challengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40901, "invalid challenge payload")
		return
	}
	var ch models.Challenge
	if err := c.db.First(&ch, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40900, 50903, "challenge")
		return
	}
	req.apply(&ch)
	if err := c.db.Save(&ch).Error; err != nil {
		logError(ctx, "update challenge", err)
		utils.Error(ctx, http.StatusInternalServerError, 50903, "failed to update challenge")
		return
	}
	utils.InvalidateByPrefix(challengeListCachePrefix)
	utils.InvalidateByPrefix(challengeDetailCachePrefix + ch.Slug)
	utils.Success(ctx, gin.H{"challenge": ch})
}
