package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
)

type TaskFilter struct {
	Status      string
	TaskType    string
	Title       string
	Priority    string
	CreatedDate string // YYYY-MM-DD
	Page        int
	PageSize    int
}

// ListTasks returns the actor's role-scoped slice of tasks, newest
// first: users see their own (drafts included), admins see everything,
// managers see tasks from reviewed onward, employees see tasks they
// handle or assist on.
func (s *WorkflowService) ListTasks(actor *models.User, f TaskFilter) ([]models.Task, int64, error) {
	q := s.DB.Model(&models.Task{})

	switch actor.Role {
	case constants.RoleUser:
		q = q.Where("creator_id = ?", actor.ID)
	case constants.RoleAdmin:
		// all tasks
	case constants.RoleManager:
		q = q.Where("status IN ?", []string{
			constants.StatusReviewed, constants.StatusAssigned, constants.StatusInProgress,
			constants.StatusCompleted, constants.StatusConfirmed, constants.StatusClosed,
		})
	case constants.RoleEmployee:
		q = q.Where("handler_id = ? OR id IN (?)", actor.ID,
			s.DB.Table("task_assistants").Select("task_id").Where("user_id = ?", actor.ID))
	default:
		return []models.Task{}, 0, nil
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TaskType != "" {
		q = q.Where("task_type = ?", f.TaskType)
	}
	if f.Title != "" {
		q = q.Where("title LIKE ?", "%"+f.Title+"%")
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.CreatedDate != "" {
		// A malformed date is ignored rather than failing the listing.
		if day, err := time.ParseInLocation("2006-01-02", f.CreatedDate, time.Local); err == nil {
			q = q.Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	var tasks []models.Task
	err := q.
		Preload("Creator").Preload("Reviewer").Preload("Assignee").Preload("Handler").
		Preload("AssistantEmployees").
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&tasks).Error
	return tasks, total, err
}

// GetTaskFor loads a task and enforces the actor's visibility.
func (s *WorkflowService) GetTaskFor(taskID uint, actor *models.User) (*models.Task, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if !s.CanAccessTask(task, actor) {
		return nil, forbiddenErr("您无权查看此任务")
	}
	return task, nil
}

// DeleteTask removes a draft and everything that hangs off it,
// attachment rows and their stored files included. Only the creator or
// an admin may do this, and only while the task is a draft.
func (s *WorkflowService) DeleteTask(taskID, actorID uint) error {
	var locators []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if task.Status != constants.StatusDraft {
			return validationErr("只能删除草稿状态的任务")
		}
		if task.CreatorID != actor.ID && !actor.IsAdmin() {
			return forbiddenErr("只能删除自己创建的草稿任务")
		}
		if err := tx.Model(&models.TaskAttachment{}).
			Where("task_id = ?", task.ID).
			Pluck("locator", &locators).Error; err != nil {
			return err
		}
		for _, m := range []any{
			&models.WorkflowLog{}, &models.Notification{}, &models.Comment{},
			&models.TaskAttachment{},
		} {
			if err := tx.Where("task_id = ?", task.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&task).Association("AssistantEmployees").Clear(); err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		return err
	}
	// Files go last, after the rows are gone; a failed file delete
	// leaves an orphan on disk, not a dangling row.
	if s.Store != nil {
		for _, locator := range locators {
			if err := s.Store.Delete(locator); err != nil {
				log.Printf("[附件删除] 删除附件文件失败 (任务ID: %d, 路径: %s): %v", taskID, locator, err)
			}
		}
	}
	return nil
}
