package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
	"github.com/borischow0801-web/OMS/services"
	"github.com/borischow0801-web/OMS/storage"
)

// AttachmentController keeps attachment files behind the FileStore
// collaborator. Uploads and deletes are only possible before the task
// is submitted for review.
type AttachmentController struct {
	DB       *gorm.DB
	Workflow *services.WorkflowService
	Store    storage.FileStore
}

func (atc *AttachmentController) canModify(task *models.Task, user *models.User) (string, bool) {
	if task.Status != constants.StatusDraft && task.Status != constants.StatusPendingReview {
		return "任务已提交，不能修改附件", false
	}
	if !user.IsUser() && !user.IsAdmin() {
		return "没有权限操作附件", false
	}
	if task.CreatorID != user.ID && !user.IsAdmin() {
		return "只能操作自己任务的附件", false
	}
	return "", true
}

func (atc *AttachmentController) Upload(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c, atc.DB)
	if !ok {
		return
	}
	task, err := atc.Workflow.GetTask(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if msg, ok := atc.canModify(task, user); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请选择要上传的文件"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	locator, err := atc.Store.Save(f, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传附件失败: " + err.Error()})
		return
	}

	attachment := models.TaskAttachment{
		TaskID:           task.ID,
		Locator:          locator,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		UploadedByID:     user.ID,
	}
	if err := atc.DB.Omit("UploadedBy").Create(&attachment).Error; err != nil {
		_ = atc.Store.Delete(locator)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (atc *AttachmentController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	user, ok := currentUser(c, atc.DB)
	if !ok {
		return
	}
	task, err := atc.Workflow.GetTask(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var attachment models.TaskAttachment
	if err := atc.DB.Where("id = ? AND task_id = ?", attachmentID, task.ID).First(&attachment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "附件不存在"})
		return
	}
	if msg, ok := atc.canModify(task, user); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
		return
	}

	if err := atc.Store.Delete(attachment.Locator); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	atc.DB.Delete(&attachment)
	c.JSON(http.StatusOK, gin.H{"message": "附件已删除"})
}

func (atc *AttachmentController) Download(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	user, ok := currentUser(c, atc.DB)
	if !ok {
		return
	}
	task, err := atc.Workflow.GetTaskFor(id, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var attachment models.TaskAttachment
	if err := atc.DB.Where("id = ? AND task_id = ?", attachmentID, task.ID).First(&attachment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "附件不存在"})
		return
	}

	f, err := atc.Store.Open(attachment.Locator)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "文件已丢失"})
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="`+attachment.OriginalFilename+`"`)
	c.DataFromReader(http.StatusOK, attachment.FileSize, "application/octet-stream", f, nil)
}
