package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/config"
	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// ForumController serves forum categories, topics and messages.
type ForumController struct {
	db *gorm.DB
}

// NewForumController creates a new ForumController instance.
func NewForumController(db *gorm.DB) *ForumController {
	return &ForumController{db: db}
}

type categoryCount struct {
	CategoryID uint
	Topics     int64
}

// ListCategories returns categories in display order with topic counts.
func (f *ForumController) ListCategories(ctx *gin.Context) {
	var cats []models.ForumCategory
	if err := f.db.Order("sort_order ASC, id ASC").Find(&cats).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50200, "failed to list categories")
		return
	}
	var counts []categoryCount
	if err := f.db.Model(&models.ForumTopic{}).
		Select("category_id, COUNT(*) AS topics").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50201, "failed to count topics")
		return
	}
	byCat := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCat[c.CategoryID] = c.Topics
	}
	items := make([]gin.H, 0, len(cats))
	for _, c := range cats {
		items = append(items, gin.H{"category": c, "topics_count": byCat[c.ID]})
	}
	utils.Success(ctx, gin.H{"items": items})
}

type topicCount struct {
	TopicID uint
	Posts   int64
}

// ListTopics returns a category's topics, pinned first then most recently
// active.
func (f *ForumController) ListTopics(ctx *gin.Context) {
	var cat models.ForumCategory
	if err := f.db.Where("slug = ?", strings.TrimSpace(ctx.Param("slug"))).First(&cat).Error; err != nil {
		loadFailed(ctx, err, 40420, 50202, "category")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := f.db.Model(&models.ForumTopic{}).Where("category_id = ?", cat.ID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50203, "failed to count topics")
		return
	}
	var topics []models.ForumTopic
	if err := q.Preload("User").
		Order("is_pinned DESC, updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50204, "failed to list topics")
		return
	}

	replies := map[uint]int64{}
	if len(topics) > 0 {
		ids := make([]uint, 0, len(topics))
		for _, t := range topics {
			ids = append(ids, t.ID)
		}
		var counts []topicCount
		if err := f.db.Model(&models.ForumPost{}).
			Select("topic_id, COUNT(*) AS posts").
			Where("topic_id IN ?", ids).
			Group("topic_id").
			Scan(&counts).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50205, "failed to count posts")
			return
		}
		for _, c := range counts {
			// the opening post is not a reply
			if c.Posts > 0 {
				replies[c.TopicID] = c.Posts - 1
			}
		}
	}
	items := make([]gin.H, 0, len(topics))
	for _, t := range topics {
		items = append(items, gin.H{"topic": t, "url": t.URL(), "replies_count": replies[t.ID]})
	}
	payload := paginated(items, page, pageSize, total)
	payload["category"] = cat
	utils.Success(ctx, payload)
}

// GetTopic returns a topic with its message tree and bumps the view counter.
func (f *ForumController) GetTopic(ctx *gin.Context) {
	var topic models.ForumTopic
	if err := f.db.Preload("User").Preload("Category").
		Where("slug = ?", strings.TrimSpace(ctx.Param("slug"))).
		First(&topic).Error; err != nil {
		loadFailed(ctx, err, 40421, 50206, "topic")
		return
	}
	if err := models.IncrementTopicViews(f.db, topic.ID); err != nil {
		logError(ctx, "increment topic views", err)
	} else {
		topic.Views++
	}
	var posts []models.ForumPost
	if err := f.db.Preload("User").Where("topic_id = ?", topic.ID).Order("created_at ASC, id ASC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50207, "failed to load posts")
		return
	}
	tree, err := buildThread(posts)
	if err != nil {
		logError(ctx, "build topic thread", err)
		utils.Error(ctx, http.StatusInternalServerError, 50207, "failed to load posts")
		return
	}
	utils.Success(ctx, gin.H{"topic": topic, "url": topic.URL(), "posts": tree, "posts_count": len(posts)})
}

// CreateTopic opens a topic together with its first message.
func (f *ForumController) CreateTopic(ctx *gin.Context) {
	var req struct {
		CategoryID uint   `json:"category_id" binding:"required"`
		Title      string `json:"title" binding:"required,min=1,max=200"`
		Content    string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40200, "invalid request payload")
		return
	}
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	title := utils.PlainText(req.Title)
	content := utils.Sanitize(req.Content)
	if title == "" || strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40201, "title and content cannot be empty")
		return
	}
	var cat models.ForumCategory
	if err := f.db.First(&cat, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, 40202, "invalid category")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50208, "failed to load category")
		return
	}
	topic := models.ForumTopic{CategoryID: cat.ID, UserID: uid, Title: title, Content: content}
	first, err := models.CreateTopic(f.db, &topic, config.Get().SlugMaxRetries)
	if err != nil {
		logError(ctx, "create topic", err)
		utils.Error(ctx, http.StatusInternalServerError, 50209, "failed to create topic")
		return
	}
	utils.Success(ctx, gin.H{"topic": topic, "url": topic.URL(), "first_post": first})
}

// Reply adds a message to a topic, optionally answering another message.
func (f *ForumController) Reply(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40203, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40204, "content cannot be empty")
		return
	}
	var topic models.ForumTopic
	if err := f.db.First(&topic, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40422, 50210, "topic")
		return
	}
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	post := models.ForumPost{UserID: uid, ParentID: req.ParentID, Content: content}
	if err := models.ReplyToTopic(f.db, &topic, &post); err != nil {
		switch {
		case errors.Is(err, models.ErrTopicClosed):
			utils.Error(ctx, http.StatusForbidden, 40340, "topic is closed")
		case errors.Is(err, models.ErrForeignParent), errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(ctx, http.StatusBadRequest, 40205, "parent message does not belong to this topic")
		default:
			logError(ctx, "reply to topic", err)
			utils.Error(ctx, http.StatusInternalServerError, 50211, "failed to create message")
		}
		return
	}
	if err := f.db.Preload("User").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50212, "failed to load message")
		return
	}
	payload := gin.H{"post": post}
	if req.ParentID != nil {
		if n, err := models.CountReplies(ctx.Request.Context(), f.db, &models.ForumPost{}, *req.ParentID); err == nil {
			payload["parent_reply_count"] = n
		} else {
			logError(ctx, "count replies", err)
		}
	}
	utils.Success(ctx, payload)
}

// UpdatePost lets the author edit a message.
func (f *ForumController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40206, "invalid request payload")
		return
	}
	var post models.ForumPost
	if err := f.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40423, 50213, "message")
		return
	}
	uid, _ := getUserID(ctx)
	if post.UserID != uid {
		utils.Error(ctx, http.StatusForbidden, 40341, "you can only edit your own messages")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40204, "content cannot be empty")
		return
	}
	if err := f.db.Model(&post).Update("content", content).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50214, "failed to update message")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a message and its replies. The opening message can
// only go together with its topic.
func (f *ForumController) DeletePost(ctx *gin.Context) {
	var post models.ForumPost
	if err := f.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40424, 50215, "message")
		return
	}
	uid, _ := getUserID(ctx)
	if post.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40342, "you can only delete your own messages")
		return
	}
	var first models.ForumPost
	if err := f.db.Select("id").Where("topic_id = ?", post.TopicID).Order("id ASC").First(&first).Error; err == nil && first.ID == post.ID {
		utils.Error(ctx, http.StatusBadRequest, 40207, "delete the topic to remove its opening message")
		return
	}
	removed, err := models.CountReplies(ctx.Request.Context(), f.db, &models.ForumPost{}, post.ID)
	if err != nil {
		logError(ctx, "count replies", err)
	}
	if err := f.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50216, "failed to delete message")
		return
	}
	utils.Success(ctx, gin.H{"message": "message deleted", "replies_removed": removed})
}

// DeleteTopic removes a topic with all its messages.
func (f *ForumController) DeleteTopic(ctx *gin.Context) {
	var topic models.ForumTopic
	if err := f.db.First(&topic, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40425, 50217, "topic")
		return
	}
	uid, _ := getUserID(ctx)
	if topic.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40343, "you can only delete your own topics")
		return
	}
	if err := f.db.Delete(&topic).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50218, "failed to delete topic")
		return
	}
	utils.Success(ctx, gin.H{"message": "topic deleted"})
}

// MarkSolution flags a message as the answer. Only the topic author may.
func (f *ForumController) MarkSolution(ctx *gin.Context) {
	var post models.ForumPost
	if err := f.db.First(&post, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40426, 50219, "message")
		return
	}
	var topic models.ForumTopic
	if err := f.db.Select("id", "user_id").First(&topic, post.TopicID).Error; err != nil {
		loadFailed(ctx, err, 40422, 50219, "topic")
		return
	}
	uid, _ := getUserID(ctx)
	if topic.UserID != uid {
		utils.Error(ctx, http.StatusForbidden, 40344, "only the topic author can mark a solution")
		return
	}
	if err := models.MarkSolution(f.db, &post); err != nil {
		logError(ctx, "mark solution", err)
		utils.Error(ctx, http.StatusInternalServerError, 50220, "failed to mark solution")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// Moderate closes, reopens, pins or unpins a topic.
func (f *ForumController) Moderate(ctx *gin.Context) {
	var req struct {
		IsClosed *bool `json:"is_closed"`
		IsPinned *bool `json:"is_pinned"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || (req.IsClosed == nil && req.IsPinned == nil) {
		utils.Error(ctx, http.StatusBadRequest, 40208, "nothing to update")
		return
	}
	var topic models.ForumTopic
	if err := f.db.First(&topic, idParam(ctx, "id")).Error; err != nil {
		loadFailed(ctx, err, 40427, 50221, "topic")
		return
	}
	updates := map[string]interface{}{}
	if req.IsClosed != nil {
		updates["is_closed"] = *req.IsClosed
		topic.IsClosed = *req.IsClosed
	}
	if req.IsPinned != nil {
		updates["is_pinned"] = *req.IsPinned
		topic.IsPinned = *req.IsPinned
	}
	// UpdateColumns keeps updated_at, which orders topics by activity
	if err := f.db.Model(&models.ForumTopic{}).Where("id = ?", topic.ID).UpdateColumns(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50222, "failed to update topic")
		return
	}
	utils.Success(ctx, gin.H{"topic": topic})
}
