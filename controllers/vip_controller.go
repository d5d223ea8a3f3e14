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

// VIPController serves members-only posts and their comments.
type VIPController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewVIPController creates a new VIPController instance.
func NewVIPController(db *gorm.DB) *VIPController {
	return &VIPController{db: db, now: time.Now}
}

// RequireVIP admits admins and users whose VIP status is active. Must run
// after AuthRequired.
func (v *VIPController) RequireVIP() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if isAdmin(ctx) {
			ctx.Next()
			return
		}
		uid, ok := getUserID(ctx)
		if !ok {
			utils.Abort(ctx, http.StatusUnauthorized, 40150, "unauthorized")
			return
		}
		var user models.User
		if err := v.db.Select("id", "is_vip", "vip_until").First(&user, uid).Error; err != nil {
			loadFailed(ctx, err, 40430, 50300, "user")
			ctx.Abort()
			return
		}
		if !user.HasActiveVIP(v.now()) {
			utils.Abort(ctx, http.StatusForbidden, 40350, "vip membership required")
			return
		}
		ctx.Next()
	}
}

// Status reports the caller's VIP membership.
func (v *VIPController) Status(ctx *gin.Context) {
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}
	var user models.User
	if err := v.db.First(&user, uid).Error; err != nil {
		loadFailed(ctx, err, 40430, 50300, "user")
		return
	}
	utils.Success(ctx, gin.H{
		"is_vip":    user.IsVIP,
		"vip_until": user.VIPUntil,
		"active":    user.HasActiveVIP(v.now()),
	})
}

// ListPosts returns VIP posts, newest first.
func (v *VIPController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	var total int64
	if err := v.db.Model(&models.VIPPost{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50301, "failed to count posts")
		return
	}
	var posts []models.VIPPost
	if err := v.db.Preload("User").Omit("content").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50302, "failed to list posts")
		return
	}
	utils.Success(ctx, paginated(posts, page, pageSize, total))
}

// GetPost returns a VIP post with threaded comments.
func (v *VIPController) GetPost(ctx *gin.Context) {
	var post models.VIPPost
	if err := v.db.Preload("User").Where("slug = ?", strings.TrimSpace(ctx.Param("slug"))).First(&post).Error; err != nil {
		loadFailed(ctx, err, 40431, 50303, "post")
		return
	}
	var comments []models.VIPComment
	if err := v.db.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50304, "failed to load comments")
		return
	}
	tree, err := buildThread(comments)
	if err != nil {
		logError(ctx, "build vip thread", err)
		utils.Error(ctx, http.StatusInternalServerError, 50304, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"post": post, "url": post.URL(), "comments": tree, "comments_count": len(comments)})
}

type vipPostRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Summary string `json:"summary" binding:"max=500"`
	Content string `json:"content" binding:"required"`
}

// CreatePost publishes a VIP post. Admin only.
func (v *VIPController) CreatePost(ctx *gin.Context) {
	var req vipPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40300, "invalid request payload")
		return
	}
	uid, _ := getUserID(ctx)
	post := models.VIPPost{
		UserID:  uid,
		Title:   utils.PlainText(req.Title),
		Summary: utils.Sanitize(req.Summary),
		Content: utils.Sanitize(req.Content),
	}
	if err := models.CreateWithSlug(v.db, &post, config.Get().SlugMaxRetries); err != nil {
		logError(ctx, "create vip post", err)
		utils.Error(ctx, http.StatusInternalServerError, 50305, "failed to create post")
		return
	}
	utils.Success(ctx, gin.H{"post": post, "url": post.URL()})
}

// UpdatePost edits a VIP post. Admin only; the slug is kept.
func (v *VIPController) UpdatePost(ctx *gin.Context) {
	var req vipPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40301, "invalid request payload")
		return
	}
	var post models.VIPPost
	if err := v.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40432, 50306, "post")
		return
	}
	post.Title = utils.PlainText(req.Title)
	post.Summary = utils.Sanitize(req.Summary)
	post.Content = utils.Sanitize(req.Content)
	if err := v.db.Omit("User").Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50307, "failed to update post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a VIP post. Admin only.
func (v *VIPController) DeletePost(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40302, "invalid post id")
		return
	}
	res := v.db.Delete(&models.VIPPost{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50308, "failed to delete post")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40432, "post not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment adds a comment or reply to a VIP post.
func (v *VIPController) CreateComment(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40303, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40304, "content cannot be empty")
		return
	}
	var post models.VIPPost
	if err := v.db.Select("id", "slug", "title").First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40433, 50309, "post")
		return
	}
	uid, _ := getUserID(ctx)
	if req.ParentID != nil {
		var parent models.VIPComment
		if err := v.db.Select("id", "post_id").First(&parent, *req.ParentID).Error; err != nil || parent.PostID != post.ID {
			utils.Error(ctx, http.StatusBadRequest, 40305, "parent comment does not belong to this post")
			return
		}
	}
	cmt := models.VIPComment{PostID: post.ID, UserID: uid, ParentID: req.ParentID, Content: content}
	if err := v.db.Create(&cmt).Error; err != nil {
		logError(ctx, "create vip comment", err)
		utils.Error(ctx, http.StatusInternalServerError, 50310, "failed to create comment")
		return
	}
	payload := gin.H{"comment": cmt}
	if req.ParentID != nil {
		if n, err := models.CountReplies(ctx.Request.Context(), v.db, &models.VIPComment{}, *req.ParentID); err == nil {
			payload["parent_reply_count"] = n
		} else {
			logError(ctx, "count replies", err)
		}
	}
	utils.Success(ctx, payload)
}

// DeleteComment removes a VIP comment and its replies.
func (v *VIPController) DeleteComment(ctx *gin.Context) {
	var cmt models.VIPComment
	if err := v.db.First(&cmt, idParam(ctx, "commentId")).Error; err != nil {
		loadFailed(ctx, err, 40434, 50311, "comment")
		return
	}
	uid, _ := getUserID(ctx)
	if cmt.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40351, "you can only delete your own comment")
		return
	}
	if err := v.db.Delete(&cmt).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50312, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
