package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/models"
)

type WorkflowController struct {
	DB *gorm.DB
}

// GetLogs returns the audit trail for one task, oldest first.
func (wc *WorkflowController) GetLogs(c *gin.Context) {
	taskID := c.Query("task_id")
	if taskID == "" {
		c.JSON(http.StatusOK, []models.WorkflowLog{})
		return
	}
	var logs []models.WorkflowLog
	wc.DB.Where("task_id = ?", taskID).
		Preload("User").
		Order("created_at").Order("id").
		Find(&logs)
	c.JSON(http.StatusOK, logs)
}

func (wc *WorkflowController) GetNotifications(c *gin.Context) {
	user, ok := currentUser(c, wc.DB)
	if !ok {
		return
	}
	var notifications []models.Notification
	wc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications)
	c.JSON(http.StatusOK, notifications)
}

// MarkRead flips one notification. Only the recipient may do it.
func (wc *WorkflowController) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c, wc.DB)
	if !ok {
		return
	}
	var notification models.Notification
	if err := wc.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "通知不存在"})
		return
	}
	wc.DB.Model(&notification).Update("is_read", true)
	c.JSON(http.StatusOK, gin.H{"message": "已标记为已读"})
}

func (wc *WorkflowController) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c, wc.DB)
	if !ok {
		return
	}
	wc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)
	c.JSON(http.StatusOK, gin.H{"message": "已标记所有通知为已读"})
}
