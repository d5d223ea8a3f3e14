package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

const (
	recipeListCachePrefix   = "cache:recipes:list:"
	recipeDetailCachePrefix = "cache:recipe:detail:"
)

// RecipeController serves recipes, their moderation and comments.
type RecipeController struct {
	db *gorm.DB
}

// NewRecipeController creates a new RecipeController instance.
func NewRecipeController(db *gorm.DB) *RecipeController {
	return &RecipeController{db: db}
}

type recipeRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	ImageURL        string `json:"image_url" binding:"omitempty,url,max=512"`
	Calories        uint   `json:"calories" binding:"max=10000"`
	Protein         uint   `json:"protein" binding:"max=1000"`
	Carbs           uint   `json:"carbs" binding:"max=1000"`
	Fat             uint   `json:"fat" binding:"max=1000"`
	PreparationTime uint   `json:"preparation_time" binding:"max=1440"`
	Ingredients     string `json:"ingredients" binding:"required"`
	Instructions    string `json:"instructions" binding:"required"`
	IsFeatured      bool   `json:"is_featured"`
}

func (r recipeRequest) apply(rec *models.Recipe) {
	rec.Title = utils.PlainText(r.Title)
	rec.ImageURL = strings.TrimSpace(r.ImageURL)
	rec.Calories = r.Calories
	rec.Protein = r.Protein
	rec.Carbs = r.Carbs
	rec.Fat = r.Fat
	rec.PreparationTime = r.PreparationTime
	rec.Ingredients = utils.Sanitize(r.Ingredients)
	rec.Instructions = utils.Sanitize(r.Instructions)
}

// ListRecipes returns published recipes, optionally featured only or under
// a calorie ceiling.
func (r *RecipeController) ListRecipes(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	featured := ctx.Query("featured") == "true"
	maxCalories, _ := strconv.Atoi(ctx.Query("max_calories"))

	key := fmt.Sprintf("%sfeatured=%t:maxcal=%d:page=%d:size=%d", recipeListCachePrefix, featured, maxCalories, page, pageSize)
	b, err := utils.CacheFetch(key, postCacheTTL, func() (interface{}, error) {
		q := r.db.Model(&models.Recipe{}).Where("status = ?", models.RecipePublished)
		if featured {
			q = q.Where("is_featured = ?", true)
		}
		if maxCalories > 0 {
			q = q.Where("calories <= ?", maxCalories)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return nil, err
		}
		var recipes []models.Recipe
		if err := q.Preload("User").Order("created_at DESC").
			Offset((page - 1) * pageSize).Limit(pageSize).Find(&recipes).Error; err != nil {
			return nil, err
		}
		return paginated(recipes, page, pageSize, total), nil
	})
	if err != nil {
		logError(ctx, "list recipes", err)
		utils.Error(ctx, http.StatusInternalServerError, 50110, "failed to list recipes")
		return
	}
	ctx.Data(http.StatusOK, jsonContentType, b)
}

// GetRecipe returns a recipe by slug with threaded comments.
func (r *RecipeController) GetRecipe(ctx *gin.Context) {
	slugParam := strings.TrimSpace(ctx.Param("slug"))
	b, err := utils.CacheFetch(recipeDetailCachePrefix+slugParam, postCacheTTL, func() (interface{}, error) {
		var rec models.Recipe
		if err := r.db.Preload("User").Where("slug = ? AND status = ?", slugParam, models.RecipePublished).First(&rec).Error; err != nil {
			return nil, err
		}
		return r.detail(&rec)
	})
	if err == nil {
		ctx.Data(http.StatusOK, jsonContentType, b)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logError(ctx, "load recipe", err)
		utils.Error(ctx, http.StatusInternalServerError, 50111, "failed to load recipe")
		return
	}

	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "recipe not found")
		return
	}
	var rec models.Recipe
	if err := r.db.Preload("User").Where("slug = ?", slugParam).First(&rec).Error; err != nil {
		loadFailed(ctx, err, 40410, 50111, "recipe")
		return
	}
	if (rec.UserID == nil || *rec.UserID != uid) && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusNotFound, 40410, "recipe not found")
		return
	}
	payload, err := r.detail(&rec)
	if err != nil {
		logError(ctx, "load recipe comments", err)
		utils.Error(ctx, http.StatusInternalServerError, 50111, "failed to load recipe")
		return
	}
	utils.Success(ctx, payload)
}

func (r *RecipeController) detail(rec *models.Recipe) (gin.H, error) {
	var comments []models.RecipeComment
	if err := r.db.Preload("User").Where("recipe_id = ?", rec.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	tree, err := buildThread(comments)
	if err != nil {
		return nil, err
	}
	return gin.H{"recipe": rec, "url": rec.URL(), "comments": tree, "comments_count": len(comments)}, nil
}

// ListMyRecipes returns the caller's recipes in every status.
func (r *RecipeController) ListMyRecipes(ctx *gin.Context) {
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := r.db.Model(&models.Recipe{}).Where("user_id = ?", uid)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50112, "failed to count recipes")
		return
	}
	var recipes []models.Recipe
	if err := q.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&recipes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50113, "failed to list recipes")
		return
	}
	utils.Success(ctx, paginated(recipes, page, pageSize, total))
}

// CreateRecipe stores a recipe as a draft awaiting moderation. Admins
// publish immediately.
func (r *RecipeController) CreateRecipe(ctx *gin.Context) {
	var req recipeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40110, "invalid request payload")
		return
	}
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	rec := models.Recipe{UserID: &uid, Status: models.RecipeDraft}
	req.apply(&rec)
	if rec.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40111, "title cannot be empty")
		return
	}
	if isAdmin(ctx) {
		rec.Status = models.RecipePublished
		rec.IsFeatured = req.IsFeatured
	}
	if err := models.CreateWithSlug(r.db, &rec, config.Get().SlugMaxRetries); err != nil {
		logError(ctx, "create recipe", err)
		utils.Error(ctx, http.StatusInternalServerError, 50114, "failed to create recipe")
		return
	}
	utils.InvalidateByPrefix(recipeListCachePrefix)
	utils.Success(ctx, gin.H{"recipe": rec, "url": rec.URL()})
}

// UpdateRecipe edits the caller's recipe. A non-admin edit sends the
// recipe back to moderation.
func (r *RecipeController) UpdateRecipe(ctx *gin.Context) {
	var req recipeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40112, "invalid request payload")
		return
	}
	var rec models.Recipe
	if err := r.db.First(&rec, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40411, 50115, "recipe")
		return
	}
	uid, _ := getUserID(ctx)
	admin := isAdmin(ctx)
	if (rec.UserID == nil || *rec.UserID != uid) && !admin {
		utils.Error(ctx, http.StatusForbidden, 40330, "you can only update your own recipes")
		return
	}
	req.apply(&rec)
	if rec.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40111, "title cannot be empty")
		return
	}
	if admin {
		rec.IsFeatured = req.IsFeatured
	} else {
		rec.Status = models.RecipeDraft
		rec.RejectionReason = nil
	}
	if err := r.db.Omit("User").Save(&rec).Error; err != nil {
		logError(ctx, "update recipe", err)
		utils.Error(ctx, http.StatusInternalServerError, 50116, "failed to update recipe")
		return
	}
	utils.InvalidateByPrefix(recipeListCachePrefix)
	utils.InvalidateByPrefix(recipeDetailCachePrefix + rec.Slug)
	utils.Success(ctx, gin.H{"recipe": rec})
}

// DeleteRecipe removes the caller's recipe, or any recipe for admins.
func (r *RecipeController) DeleteRecipe(ctx *gin.Context) {
	var rec models.Recipe
	if err := r.db.First(&rec, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40412, 50117, "recipe")
		return
	}
	uid, _ := getUserID(ctx)
	if (rec.UserID == nil || *rec.UserID != uid) && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40331, "you can only delete your own recipes")
		return
	}
	if err := r.db.Delete(&rec).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50118, "failed to delete recipe")
		return
	}
	utils.InvalidateByPrefix(recipeListCachePrefix)
	utils.InvalidateByPrefix(recipeDetailCachePrefix + rec.Slug)
	utils.Success(ctx, gin.H{"message": "recipe deleted"})
}

// Moderate publishes or rejects a recipe and notifies its author.
func (r *RecipeController) Moderate(ctx *gin.Context) {
	var req struct {
		Status models.RecipeStatus `json:"status" binding:"required,oneof=draft published rejected"`
		Reason string              `json:"reason" binding:"max=2000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40113, "invalid moderation request")
		return
	}
	var rec models.Recipe
	if err := r.db.First(&rec, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40413, 50119, "recipe")
		return
	}
	if err := models.ModerateRecipe(r.db, &rec, req.Status, utils.PlainText(req.Reason)); err != nil {
		logError(ctx, "moderate recipe", err)
		utils.Error(ctx, http.StatusInternalServerError, 50119, "failed to moderate recipe")
		return
	}
	utils.InvalidateByPrefix(recipeListCachePrefix)
	utils.InvalidateByPrefix(recipeDetailCachePrefix + rec.Slug)
	utils.Success(ctx, gin.H{"recipe": rec})
}

// ListPending returns recipes waiting for moderation, oldest first.
func (r *RecipeController) ListPending(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := r.db.Model(&models.Recipe{}).Where("status = ?", models.RecipeDraft)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50120, "failed to count recipes")
		return
	}
	var recipes []models.Recipe
	if err := q.Preload("User").Order("created_at ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&recipes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50121, "failed to list recipes")
		return
	}
	utils.Success(ctx, paginated(recipes, page, pageSize, total))
}

// CreateComment adds a comment or reply to a published recipe.
func (r *RecipeController) CreateComment(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40114, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40115, "content cannot be empty")
		return
	}
	var rec models.Recipe
	if err := r.db.Where("status = ?", models.RecipePublished).First(&rec, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40414, 50122, "recipe")
		return
	}
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	if req.ParentID != nil {
		var parent models.RecipeComment
		if err := r.db.Select("id", "recipe_id").First(&parent, *req.ParentID).Error; err != nil || parent.RecipeID != rec.ID {
			utils.Error(ctx, http.StatusBadRequest, 40116, "parent comment does not belong to this recipe")
			return
		}
	}
	cmt := models.RecipeComment{RecipeID: rec.ID, UserID: uid, ParentID: req.ParentID, Content: content}
	if err := r.db.Create(&cmt).Error; err != nil {
		logError(ctx, "create recipe comment", err)
		utils.Error(ctx, http.StatusInternalServerError, 50123, "failed to create comment")
		return
	}
	if err := r.db.Preload("User").First(&cmt, cmt.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50124, "failed to load comment")
		return
	}
	utils.InvalidateByPrefix(recipeDetailCachePrefix + rec.Slug)
	payload := gin.H{"comment": cmt}
	if req.ParentID != nil {
		if n, err := models.CountReplies(ctx.Request.Context(), r.db, &models.RecipeComment{}, *req.ParentID); err == nil {
			payload["parent_reply_count"] = n
		} else {
			logError(ctx, "count replies", err)
		}
	}
	utils.Success(ctx, payload)
}

// DeleteComment removes a recipe comment and its replies.
func (r *RecipeController) DeleteComment(ctx *gin.Context) {
	var cmt models.RecipeComment
	if err := r.db.First(&cmt, idParam(ctx, "commentId")).Error; err != nil {
		loadFailed(ctx, err, 40415, 50125, "comment")
		return
	}
	uid, _ := getUserID(ctx)
	if cmt.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40332, "you can only delete your own comment")
		return
	}
	if err := r.db.Delete(&cmt).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50126, "failed to delete comment")
		return
	}
	var rec models.Recipe
	if err := r.db.Select("id", "slug").First(&rec, cmt.RecipeID).Error; err == nil {
		utils.InvalidateByPrefix(recipeDetailCachePrefix + rec.Slug)
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

