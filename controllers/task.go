package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/services"
)

type TaskController struct {
	DB       *gorm.DB
	Workflow *services.WorkflowService
}

func (tc *TaskController) CreateTask(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		TaskType    string `json:"task_type"`
		Priority    string `json:"priority"`
		SaveAsDraft bool   `json:"save_as_draft"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}

	task, err := tc.Workflow.CreateTask(user.ID, services.CreateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		TaskType:    input.TaskType,
		Priority:    input.Priority,
		SaveAsDraft: input.SaveAsDraft,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (tc *TaskController) GetTasks(c *gin.Context) {
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	tasks, total, err := tc.Workflow.ListTasks(user, services.TaskFilter{
		Status:      c.Query("status"),
		TaskType:    c.Query("task_type"),
		Title:       c.Query("title"),
		Priority:    c.Query("priority"),
		CreatedDate: c.Query("created_date"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": total, "results": tasks})
}

func (tc *TaskController) GetTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.GetTaskFor(id, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask edits a draft. Submitted tasks are immutable.
func (tc *TaskController) UpdateTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.UpdateDraft(id, user.ID, services.UpdateDraftInput{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) DeleteTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	if err := tc.Workflow.DeleteTask(id, user.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "任务已删除"})
}

func (tc *TaskController) SubmitDraft(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.SubmitDraft(id, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Review(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Approved      *bool  `json:"approved" binding:"required"`
		ReviewComment string `json:"review_comment"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.Review(id, user.ID, *input.Approved, input.ReviewComment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Assign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		HandlerID     uint   `json:"handler_id" binding:"required"`
		TaskType      string `json:"task_type"`
		AssignComment string `json:"assign_comment"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.Assign(id, user.ID, services.AssignInput{
		HandlerID:     input.HandlerID,
		TaskType:      input.TaskType,
		AssignComment: input.AssignComment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) SetAssistants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		AssistantEmployeeIDs []uint `json:"assistant_employee_ids"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.SetAssistants(id, user.ID, input.AssistantEmployeeIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Handle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		HandleComment string `json:"handle_comment"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.Handle(id, user.ID, input.HandleComment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		HandleComment string `json:"handle_comment"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.Complete(id, user.ID, input.HandleComment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Confirm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Confirmed      *bool  `json:"confirmed" binding:"required"`
		ConfirmComment string `json:"confirm_comment"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	task, err := tc.Workflow.Confirm(id, user.ID, *input.Confirmed, input.ConfirmComment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := currentUser(c, tc.DB)
	if !ok {
		return
	}
	comment, err := tc.Workflow.AddComment(id, user.ID, input.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
