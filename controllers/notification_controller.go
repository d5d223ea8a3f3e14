package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// NotificationController lists and acknowledges the caller's notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's notifications, newest first, with the unread
// count. unread=true limits the list to unread ones.
func (n *NotificationController) List(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := n.db.Model(&models.Notification{}).Where("recipient_id = ?", uid)
	if ctx.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50500, "failed to count notifications")
		return
	}
	var items []models.Notification
	if err := q.Preload("Sender").Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50501, "failed to list notifications")
		return
	}
	var unread int64
	if err := n.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", uid, false).
		Count(&unread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50500, "failed to count notifications")
		return
	}
	payload := paginated(items, page, pageSize, total)
	payload["unread_count"] = unread
	utils.Success(ctx, payload)
}

// MarkRead marks one notification as read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	uid, _ := getUserID(ctx)
	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", idParam(ctx, "id"), uid).
		Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50502, "failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		// either missing or already read; tell them apart
		var count int64
		n.db.Model(&models.Notification{}).Where("id = ? AND recipient_id = ?", idParam(ctx, "id"), uid).Count(&count)
		if count == 0 {
			utils.Error(ctx, http.StatusNotFound, 40450, "notification not found")
			return
		}
	}
	utils.Success(ctx, gin.H{"message": "notification marked as read"})
}

type markReadRequest struct {
	IDs []uint `json:"ids"`
}

// MarkAllRead marks the caller's unread notifications as read. An optional
// body {"ids": [...]} limits the update to those notifications.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	var req markReadRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40451, "invalid request payload")
			return
		}
	}
	uid, _ := getUserID(ctx)
	q := n.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", uid, false)
	if len(req.IDs) > 0 {
		q = q.Where("id IN ?", utils.Unique(req.IDs))
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50503, "failed to update notifications")
		return
	}
	utils.Success(ctx, gin.H{"updated": res.RowsAffected})
}
