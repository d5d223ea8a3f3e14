package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

const (
	postListCachePrefix   = "cache:posts:list:"
	postDetailCachePrefix = "cache:post:detail:"
	postCacheTTL          = time.Hour
)

// PostController manages blog posts, their categories and comments.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type postRequest struct {
	Title      string            `json:"title" binding:"required,min=1,max=200"`
	Content    string            `json:"content" binding:"required"`
	CategoryID uint              `json:"category_id" binding:"required"`
	Status     models.PostStatus `json:"status"`
	IsFeatured bool              `json:"is_featured"`
}

// ListCategories returns every blog category.
func (p *PostController) ListCategories(ctx *gin.Context) {
	var cats []models.Category
	if err := p.db.Order("name ASC").Find(&cats).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": cats})
}

// ListPosts returns published posts, newest first, optionally filtered by
// category slug.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	category := strings.TrimSpace(ctx.Query("category"))
	featured := ctx.Query("featured") == "true"

	cacheKey := fmt.Sprintf("%scat=%s:featured=%t:page=%d:size=%d", postListCachePrefix, category, featured, page, pageSize)
	b, err := utils.CacheFetch(cacheKey, postCacheTTL, func() (interface{}, error) {
		query := p.db.Model(&models.Post{}).Where("posts.status = ?", models.PostPublished)
		if category != "" {
			query = query.Joins("JOIN categories ON categories.id = posts.category_id").
				Where("categories.slug = ?", category)
		}
		if featured {
			query = query.Where("posts.is_featured = ?", true)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, err
		}
		var posts []models.Post
		if err := query.Preload("User").Preload("Category").
			Order("posts.created_at DESC").
			Offset((page - 1) * pageSize).Limit(pageSize).
			Find(&posts).Error; err != nil {
			return nil, err
		}
		return paginated(posts, page, pageSize, total), nil
	})
	if err != nil {
		logError(ctx, "list posts", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}
	ctx.Data(http.StatusOK, jsonContentType, b)
}

// GetPost returns a post by slug with its threaded comments. Published posts
// are served from cache; authors and admins may also see unpublished ones.
func (p *PostController) GetPost(ctx *gin.Context) {
	slugParam := strings.TrimSpace(ctx.Param("slug"))

	b, err := utils.CacheFetch(postDetailCachePrefix+slugParam, postCacheTTL, func() (interface{}, error) {
		var post models.Post
		if err := p.db.Preload("User").Preload("Category").
			Where("slug = ? AND status = ?", slugParam, models.PostPublished).
			First(&post).Error; err != nil {
			return nil, err
		}
		return p.detail(&post)
	})
	if err == nil {
		ctx.Data(http.StatusOK, jsonContentType, b)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logError(ctx, "load post", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	// not published: visible to its author and admins only, never cached
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var post models.Post
	if err := p.db.Preload("User").Preload("Category").Where("slug = ?", slugParam).First(&post).Error; err != nil {
		loadFailed(ctx, err, 40401, 50023, "post")
		return
	}
	if post.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	payload, err := p.detail(&post)
	if err != nil {
		logError(ctx, "load post comments", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, payload)
}

func (p *PostController) detail(post *models.Post) (gin.H, error) {
	var comments []models.Comment
	if err := p.db.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	tree, err := buildThread(comments)
	if err != nil {
		return nil, err
	}
	return gin.H{"post": post, "url": post.URL(), "comments": tree, "comments_count": len(comments)}, nil
}

// ListMyPosts returns posts created by the authenticated user in any status.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	var posts []models.Post
	var total int64
	q := p.db.Model(&models.Post{}).Where("user_id = ?", userID)
	if status := models.PostStatus(ctx.Query("status")); status.Valid() {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to count user posts")
		return
	}
	if err := q.Preload("Category").Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to list user posts")
		return
	}
	utils.Success(ctx, paginated(posts, page, pageSize, total))
}

// CreatePost stores a new post. Authors may save drafts or submit for
// review; only admins publish directly.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	title := utils.PlainText(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	status, ok := p.allowedStatus(ctx, req.Status)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid status")
		return
	}
	if !p.categoryExists(ctx, req.CategoryID) {
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Title:      title,
		Content:    utils.Sanitize(req.Content),
		Status:     status,
		IsFeatured: req.IsFeatured && isAdmin(ctx),
	}
	if err := models.CreateWithSlug(p.db, &post, config.Get().SlugMaxRetries); err != nil {
		logError(ctx, "create post", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Success(ctx, gin.H{"post": post, "url": post.URL()})
}

// UpdatePost allows the author to edit their post. The slug is kept.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	title := utils.PlainText(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return
	}

	var post models.Post
	if err := p.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40403, 50025, "post")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}
	if req.CategoryID != post.CategoryID && !p.categoryExists(ctx, req.CategoryID) {
		return
	}
	status := post.Status
	if req.Status != "" {
		s, ok := p.allowedStatus(ctx, req.Status)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40026, "invalid status")
			return
		}
		status = s
	}

	post.Title = title
	post.Content = utils.Sanitize(req.Content)
	post.CategoryID = req.CategoryID
	post.Status = status
	if isAdmin(ctx) {
		post.IsFeatured = req.IsFeatured
	}
	if err := p.db.Omit("User", "Category").Save(&post).Error; err != nil {
		logError(ctx, "update post", err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix(postListCachePrefix)
	utils.InvalidateByPrefix(postDetailCachePrefix + post.Slug)
	utils.Success(ctx, gin.H{"post": post, "url": post.URL()})
}

// DeletePost allows the author or an admin to delete a post. Comments go
// with it through the foreign key cascade.
func (p *PostController) DeletePost(ctx *gin.Context) {
	var post models.Post
	if err := p.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40404, 50027, "post")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	if post.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}
	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix(postListCachePrefix)
	utils.InvalidateByPrefix(postDetailCachePrefix + post.Slug)
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// SetStatus lets an admin publish, reject or return a post to draft.
func (p *PostController) SetStatus(ctx *gin.Context) {
	var req struct {
		Status models.PostStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid status")
		return
	}
	var post models.Post
	if err := p.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40405, 50029, "post")
		return
	}
	if err := models.SetPostStatus(p.db, &post, req.Status); err != nil {
		logError(ctx, "set post status", err)
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to update status")
		return
	}
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.InvalidateByPrefix(postDetailCachePrefix + post.Slug)
	utils.Success(ctx, gin.H{"post": post})
}

// categoryExists answers the request itself when the category is unusable.
func (p *PostController) categoryExists(ctx *gin.Context, id uint) bool {
	var n int64
	if err := p.db.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to check category")
		return false
	}
	if n == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid category")
		return false
	}
	return true
}

func (p *PostController) allowedStatus(ctx *gin.Context, s models.PostStatus) (models.PostStatus, bool) {
	if s == "" {
		return models.PostDraft, true
	}
	if !s.Valid() {
		return "", false
	}
	if isAdmin(ctx) {
		return s, true
	}
	return s, s == models.PostDraft || s == models.PostPending
}

// CreateComment adds a comment or, with parent_id, a reply to a published
// post. The response carries the parent's total reply count.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40028, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40029, "content cannot be empty")
		return
	}

	var post models.Post
	if err := p.db.Where("status = ?", models.PostPublished).First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40402, 50024, "post")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := p.db.Select("id", "post_id").First(&parent, *req.ParentID).Error; err != nil || parent.PostID != post.ID {
			utils.Error(ctx, http.StatusBadRequest, 40030, "parent comment does not belong to this post")
			return
		}
	}

	comment := models.Comment{PostID: post.ID, UserID: userID, ParentID: req.ParentID, Content: content}
	if err := p.db.Create(&comment).Error; err != nil {
		logError(ctx, "create comment", err)
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}
	if err := p.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comment")
		return
	}

	utils.InvalidateByPrefix(postDetailCachePrefix + post.Slug)
	payload := gin.H{"comment": comment}
	if req.ParentID != nil {
		n, err := models.CountReplies(ctx.Request.Context(), p.db, &models.Comment{}, *req.ParentID)
		if err != nil {
			logError(ctx, "count replies", err)
		} else {
			payload["parent_reply_count"] = n
		}
	}
	utils.Success(ctx, payload)
}

// DeleteComment allows the comment owner or admin to delete a comment and
// its replies.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	var cmt models.Comment
	if err := p.db.First(&cmt, idParam(ctx, "commentId")).Error; err != nil {
		loadFailed(ctx, err, 40420, 50070, "comment")
		return
	}
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if cmt.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}
	removed, err := models.CountReplies(ctx.Request.Context(), p.db, &models.Comment{}, cmt.ID)
	if err != nil {
		logError(ctx, "count replies", err)
	}
	if err := p.db.Delete(&cmt).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to delete comment")
		return
	}
	var post models.Post
	if err := p.db.Select("id", "slug").First(&post, cmt.PostID).Error; err == nil {
		utils.InvalidateByPrefix(postDetailCachePrefix + post.Slug)
	}
	utils.Success(ctx, gin.H{"message": "comment deleted", "replies_removed": removed})
}

type commentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}
