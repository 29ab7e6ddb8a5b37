package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
	"github.com/borischow0801-web/OMS/storage"
)

// SmsPublisher hands an event to the background SMS worker. Publishing
// happens strictly after the workflow transaction commits, so a slow
// gateway can never block or fail a transition.
type SmsPublisher interface {
	Publish(event SmsEvent)
}

// WorkflowService owns the task status field. Every status change runs
// through a named transition: capability check, row-locked re-read,
// mutation, one workflow log append and the transition's notifications,
// all in one transaction. The file store is needed only to cascade
// attachment files when a draft is deleted.
type WorkflowService struct {
	DB    *gorm.DB
	Sms   SmsPublisher
	Store storage.FileStore
}

func NewWorkflowService(db *gorm.DB, sms SmsPublisher, store storage.FileStore) *WorkflowService {
	return &WorkflowService{DB: db, Sms: sms, Store: store}
}

const (
	trSubmitDraft   = "submit_draft"
	trReview        = "review"
	trAssign        = "assign"
	trSetAssistants = "set_assistants"
	trHandle        = "handle"
	trComplete      = "complete"
	trConfirm       = "confirm"
)

// transitionRule gates one transition: allowed roles, allowed
// from-statuses, and an instance-level identity check. The table is
// consulted once, before any mutation.
type transitionRule struct {
	roles     []string
	roleErr   string
	from      []string
	statusErr string
	check     func(task *models.Task, actor *models.User) error
}

var transitionRules = map[string]transitionRule{
	trSubmitDraft: {
		from:      []string{constants.StatusDraft},
		statusErr: "该任务不是草稿状态，无法提交",
		check: func(task *models.Task, actor *models.User) error {
			if task.CreatorID != actor.ID && !actor.IsAdmin() {
				return forbiddenErr("只能提交自己创建的草稿任务")
			}
			return nil
		},
	},
	trReview: {
		roles:     []string{constants.RoleAdmin},
		roleErr:   "只有管理方可以审核任务",
		from:      []string{constants.StatusPendingReview},
		statusErr: "该任务不是待审核状态",
	},
	trAssign: {
		roles:     []string{constants.RoleManager},
		roleErr:   "只有项目经理可以指派任务",
		from:      []string{constants.StatusReviewed, constants.StatusAssigned},
		statusErr: "该任务状态不允许指派。只有“已审核”或“已指派”状态的任务可以指派",
	},
	trSetAssistants: {
		from:      []string{constants.StatusAssigned, constants.StatusInProgress},
		statusErr: "该任务状态不允许设置协助员工",
		check: func(task *models.Task, actor *models.User) error {
			if task.HandlerID == nil || *task.HandlerID != actor.ID {
				return forbiddenErr("只有处理人（接单员工）可以设置协助员工")
			}
			return nil
		},
	},
	trHandle: {
		from:      []string{constants.StatusAssigned, constants.StatusInProgress},
		statusErr: "该任务状态不允许处理",
		check: func(task *models.Task, actor *models.User) error {
			if task.HandlerID == nil || *task.HandlerID != actor.ID {
				return forbiddenErr("只有处理人（接单员工）可以处理任务，协助员工仅可查看")
			}
			return nil
		},
	},
	trComplete: {
		from:      []string{constants.StatusInProgress},
		statusErr: "该任务不是处理中状态",
		check: func(task *models.Task, actor *models.User) error {
			if task.HandlerID == nil || *task.HandlerID != actor.ID {
				return forbiddenErr("只有处理人（接单员工）可以完成任务，协助员工仅可查看")
			}
			return nil
		},
	},
	trConfirm: {
		from:      []string{constants.StatusCompleted},
		statusErr: "该任务不是已完成状态",
		check: func(task *models.Task, actor *models.User) error {
			if task.CreatorID != actor.ID {
				return forbiddenErr("您无权确认此任务")
			}
			return nil
		},
	},
}

// checkTransition evaluates a rule against the locked task and the
// actor. Role first, then instance identity, then state; a failure here
// means nothing has been written.
func checkTransition(name string, task *models.Task, actor *models.User) error {
	rule, ok := transitionRules[name]
	if !ok {
		return validationErr("未知的任务操作")
	}
	if len(rule.roles) > 0 {
		allowed := false
		for _, r := range rule.roles {
			if actor.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			return forbiddenErr(rule.roleErr)
		}
	}
	if rule.check != nil {
		if err := rule.check(task, actor); err != nil {
			return err
		}
	}
	if len(rule.from) > 0 {
		ok := false
		for _, st := range rule.from {
			if task.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return validationErr(rule.statusErr)
		}
	}
	return nil
}

// lockTask re-reads the task under a row lock so two concurrent
// transitions on the same task serialize; the loser sees the updated
// status and fails its precondition check. sqlite (tests) has no
// FOR UPDATE, its writes serialize on the database lock instead.
func lockTask(tx *gorm.DB, id uint, task *models.Task) error {
	q := tx
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("任务不存在")
		}
		return err
	}
	return nil
}

func (s *WorkflowService) getUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("用户不存在")
		}
		return nil, err
	}
	return &user, nil
}

func logTransition(tx *gorm.DB, task *models.Task, actorID uint, action, fromStatus, toStatus, comment string) error {
	return tx.Create(&models.WorkflowLog{
		TaskID:     task.ID,
		UserID:     actorID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Comment:    comment,
	}).Error
}

func notify(tx *gorm.DB, userID uint, taskID uint, ntype, title, content string) error {
	return tx.Create(&models.Notification{
		UserID:  userID,
		TaskID:  &taskID,
		Type:    ntype,
		Title:   title,
		Content: content,
	}).Error
}

func (s *WorkflowService) publish(events []SmsEvent) {
	if s.Sms == nil {
		return
	}
	for _, ev := range events {
		s.Sms.Publish(ev)
	}
}

// GetTask loads a task with every association the API responds with.
func (s *WorkflowService) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	err := s.DB.
		Preload("Creator").Preload("Reviewer").Preload("Assignee").Preload("Handler").
		Preload("AssistantEmployees").Preload("Comments.User").
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("任务不存在")
		}
		return nil, err
	}
	return &task, nil
}

// CanAccessTask is the role-scoped visibility rule shared by the detail
// endpoint, comments and attachments.
func (s *WorkflowService) CanAccessTask(task *models.Task, actor *models.User) bool {
	switch actor.Role {
	case constants.RoleAdmin:
		return true
	case constants.RoleUser:
		return task.CreatorID == actor.ID
	case constants.RoleManager:
		return task.Status != constants.StatusDraft && task.Status != constants.StatusPendingReview
	case constants.RoleEmployee:
		if task.HandlerID != nil && *task.HandlerID == actor.ID {
			return true
		}
		var n int64
		s.DB.Table("task_assistants").
			Where("task_id = ? AND user_id = ?", task.ID, actor.ID).
			Count(&n)
		return n > 0
	}
	return false
}

type CreateTaskInput struct {
	Title       string
	Description string
	TaskType    string
	Priority    string
	SaveAsDraft bool
}

// CreateTask creates a work order as a draft or directly pending
// review. Non-draft creation writes the first workflow log entry and
// triggers the submitted SMS.
func (s *WorkflowService) CreateTask(actorID uint, in CreateTaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, validationErr("标题不能为空")
	}
	if in.TaskType != "" && !constants.IsValidTaskType(in.TaskType) {
		return nil, validationErr("无效的任务类型")
	}
	if in.Priority == "" {
		in.Priority = constants.PriorityMedium
	}
	if !constants.IsValidPriority(in.Priority) {
		return nil, validationErr("无效的优先级")
	}

	task := models.Task{
		Title:       in.Title,
		Description: in.Description,
		TaskType:    in.TaskType,
		Priority:    in.Priority,
		CreatorID:   actorID,
		Status:      constants.StatusPendingReview,
	}
	if in.SaveAsDraft {
		task.Status = constants.StatusDraft
	}

	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsUser() && !actor.IsAdmin() {
			return forbiddenErr("只有使用方和管理员可以创建任务")
		}
		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return err
		}
		if task.Status != constants.StatusDraft {
			if err := logTransition(tx, &task, actorID, constants.ActionCreate, "", constants.StatusPendingReview, ""); err != nil {
				return err
			}
			if err := notify(tx, actorID, task.ID, constants.NotifyTaskCreated, "新任务创建",
				fmt.Sprintf("您创建了任务：%s", task.Title)); err != nil {
				return err
			}
			events = append(events, SmsEvent{TemplateType: constants.SmsTaskSubmitted, TaskID: task.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(task.ID)
}

type UpdateDraftInput struct {
	Title       string
	Description string
	Priority    string
}

// UpdateDraft edits task content. Only drafts are editable; once a task
// leaves draft its content is immutable and only status, comments and
// logs may grow.
func (s *WorkflowService) UpdateDraft(taskID, actorID uint, in UpdateDraftInput) (*models.Task, error) {
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
			return validationErr("只能编辑草稿状态的任务")
		}
		if task.CreatorID != actor.ID && !actor.IsAdmin() {
			return forbiddenErr("只能编辑自己创建的草稿任务")
		}
		updates := map[string]any{}
		if in.Title != "" {
			updates["title"] = in.Title
		}
		if in.Description != "" {
			updates["description"] = in.Description
		}
		if in.Priority != "" {
			if !constants.IsValidPriority(in.Priority) {
				return validationErr("无效的优先级")
			}
			updates["priority"] = in.Priority
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(taskID)
}

// SubmitDraft moves a draft to pending_review.
func (s *WorkflowService) SubmitDraft(taskID, actorID uint) (*models.Task, error) {
	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trSubmitDraft, &task, actor); err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).
			Update("status", constants.StatusPendingReview).Error; err != nil {
			return err
		}
		if err := logTransition(tx, &task, actorID, constants.ActionSubmitDraft,
			constants.StatusDraft, constants.StatusPendingReview, ""); err != nil {
			return err
		}
		if err := notify(tx, task.CreatorID, task.ID, constants.NotifyTaskCreated, "新任务创建",
			fmt.Sprintf("您提交了任务：%s", task.Title)); err != nil {
			return err
		}
		events = append(events, SmsEvent{TemplateType: constants.SmsTaskSubmitted, TaskID: task.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(taskID)
}

// Review approves a pending task into reviewed, or rejects it straight
// to closed. A rejection requires a reason before anything is written.
func (s *WorkflowService) Review(taskID, actorID uint, approved bool, comment string) (*models.Task, error) {
	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trReview, &task, actor); err != nil {
			return err
		}
		if !approved && comment == "" {
			return validationErr("审核不通过时，必须填写不通过理由")
		}

		updates := map[string]any{
			"reviewer_id":    actorID,
			"review_comment": comment,
		}
		if approved {
			updates["status"] = constants.StatusReviewed
		} else {
			updates["status"] = constants.StatusClosed
			updates["closed_at"] = time.Now()
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return err
		}

		if approved {
			if err := logTransition(tx, &task, actorID, constants.ActionReviewApprove,
				constants.StatusPendingReview, constants.StatusReviewed, comment); err != nil {
				return err
			}
			if err := notify(tx, task.CreatorID, task.ID, constants.NotifyTaskReviewed, "任务审核通过",
				fmt.Sprintf("任务“%s”已通过审核", task.Title)); err != nil {
				return err
			}
			events = append(events, SmsEvent{TemplateType: constants.SmsTaskReviewed, TaskID: task.ID})
		} else {
			if err := logTransition(tx, &task, actorID, constants.ActionReviewReject,
				constants.StatusPendingReview, constants.StatusClosed, comment); err != nil {
				return err
			}
			if err := notify(tx, task.CreatorID, task.ID, constants.NotifyTaskClosed, "任务已结单",
				fmt.Sprintf("任务“%s”审核不通过。\n不通过理由：%s", task.Title, comment)); err != nil {
				return err
			}
			creatorID := task.CreatorID
			events = append(events, SmsEvent{
				TemplateType: constants.SmsTaskRejected,
				TaskID:       task.ID,
				RecipientID:  &creatorID,
				Extra: map[string]string{
					"审核不通过的理由": comment,
					"原因为":      comment,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(taskID)
}

type AssignInput struct {
	HandlerID     uint
	TaskType      string
	AssignComment string
}

// Assign hands a reviewed or already assigned task to a field employee.
// Reassigning to a different handler is recorded separately and the
// displaced handler is told they no longer need to act; reassigning to
// the current handler is refused. The first assignment fixes task_type.
func (s *WorkflowService) Assign(taskID, actorID uint, in AssignInput) (*models.Task, error) {
	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trAssign, &task, actor); err != nil {
			return err
		}

		if task.TaskType == "" && in.TaskType == "" {
			return validationErr("首次指派任务时，必须选择任务类型")
		}
		if in.TaskType != "" && !constants.IsValidTaskType(in.TaskType) {
			return validationErr("无效的任务类型")
		}

		newHandler, err := s.getUser(tx, in.HandlerID)
		if err != nil {
			return err
		}
		if !newHandler.IsEmployee() {
			return validationErr("只能指派给员工")
		}
		if task.HandlerID != nil && *task.HandlerID == newHandler.ID {
			return validationErr("该任务已经指派给该员工")
		}

		oldStatus := task.Status
		var oldHandler *models.User
		if task.HandlerID != nil {
			oldHandler, err = s.getUser(tx, *task.HandlerID)
			if err != nil {
				return err
			}
		}

		updates := map[string]any{
			"assignee_id":    actorID,
			"handler_id":     newHandler.ID,
			"assign_comment": in.AssignComment,
			"status":         constants.StatusAssigned,
		}
		if in.TaskType != "" {
			updates["task_type"] = in.TaskType
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return err
		}

		if oldStatus == constants.StatusAssigned && oldHandler != nil {
			detail := fmt.Sprintf("原处理人：%s。新处理人：%s。", oldHandler.DisplayName(), newHandler.DisplayName())
			if in.AssignComment != "" {
				detail += fmt.Sprintf("理由：%s", in.AssignComment)
			}
			if err := logTransition(tx, &task, actorID, constants.ActionReassign,
				constants.StatusAssigned, constants.StatusAssigned, detail); err != nil {
				return err
			}
			if err := notify(tx, oldHandler.ID, task.ID, constants.NotifyTaskAssigned, "任务已重新指派",
				fmt.Sprintf("任务“%s”已重新指派给其他员工，您无需再处理此任务", task.Title)); err != nil {
				return err
			}
		} else {
			if err := logTransition(tx, &task, actorID, constants.ActionAssign,
				oldStatus, constants.StatusAssigned, ""); err != nil {
				return err
			}
		}

		if err := notify(tx, newHandler.ID, task.ID, constants.NotifyTaskAssigned, "任务已指派",
			fmt.Sprintf("任务“%s”已指派给您", task.Title)); err != nil {
			return err
		}

		// Reassignment does not re-send the assignment SMS.
		if oldStatus != constants.StatusAssigned {
			handlerID := newHandler.ID
			events = append(events, SmsEvent{
				TemplateType: constants.SmsTaskAssigned,
				TaskID:       task.ID,
				RecipientID:  &handlerID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(taskID)
}

// SetAssistants replaces the assistant-employee set. Assistants must be
// active employees distinct from the handler; they gain visibility but
// never the right to operate.
func (s *WorkflowService) SetAssistants(taskID, actorID uint, assistantIDs []uint) (*models.Task, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trSetAssistants, &task, actor); err != nil {
			return err
		}

		var assistants []models.User
		if len(assistantIDs) > 0 {
			for _, id := range assistantIDs {
				if id == actor.ID {
					return validationErr("不能将自己设为协助员工")
				}
			}
			if err := tx.Where("id IN ? AND role = ? AND is_active = ?",
				assistantIDs, constants.RoleEmployee, true).Find(&assistants).Error; err != nil {
				return err
			}
			if len(assistants) != len(assistantIDs) {
				return validationErr("协助员工必须是有效的员工账号")
			}
		}

		if err := tx.Model(&task).Association("AssistantEmployees").Replace(assistants); err != nil {
			return err
		}

		if len(assistants) > 0 {
			names := make([]string, 0, len(assistants))
			for _, a := range assistants {
				names = append(names, a.DisplayName())
			}
			if err := logTransition(tx, &task, actorID, constants.ActionSetAssistants,
				task.Status, task.Status, fmt.Sprintf("协助员工：%s", strings.Join(names, ", "))); err != nil {
				return err
			}
			for _, a := range assistants {
				if err := notify(tx, a.ID, task.ID, constants.NotifyTaskAssigned, "任务协助",
					fmt.Sprintf("您被添加为任务“%s”的协助员工，可以查看任务详情", task.Title)); err != nil {
					return err
				}
			}
		} else {
			if err := logTransition(tx, &task, actorID, constants.ActionClearAssists,
				task.Status, task.Status, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(taskID)
}

// Handle starts work on an assigned task.
func (s *WorkflowService) Handle(taskID, actorID uint, comment string) (*models.Task, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trHandle, &task, actor); err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
			"handle_comment": comment,
			"status":         constants.StatusInProgress,
		}).Error; err != nil {
			return err
		}
		return logTransition(tx, &task, actorID, constants.ActionHandle,
			task.Status, constants.StatusInProgress, "")
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(taskID)
}

// Complete finishes work; the creator is asked to confirm.
func (s *WorkflowService) Complete(taskID, actorID uint, comment string) (*models.Task, error) {
	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trComplete, &task, actor); err != nil {
			return err
		}
		updates := map[string]any{"status": constants.StatusCompleted}
		if comment != "" {
			updates["handle_comment"] = comment
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := logTransition(tx, &task, actorID, constants.ActionComplete,
			constants.StatusInProgress, constants.StatusCompleted, comment); err != nil {
			return err
		}
		if err := notify(tx, task.CreatorID, task.ID, constants.NotifyTaskCompleted, "任务已完成",
			fmt.Sprintf("任务“%s”已完成，请确认", task.Title)); err != nil {
			return err
		}
		creatorID := task.CreatorID
		events = append(events, SmsEvent{
			TemplateType: constants.SmsTaskCompleted,
			TaskID:       task.ID,
			RecipientID:  &creatorID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(taskID)
}

// Confirm accepts a completed task into confirmed (terminal), or sends
// it back to in_progress with a mandatory rework comment.
func (s *WorkflowService) Confirm(taskID, actorID uint, confirmed bool, comment string) (*models.Task, error) {
	var events []SmsEvent
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := checkTransition(trConfirm, &task, actor); err != nil {
			return err
		}
		if !confirmed && comment == "" {
			return validationErr("需要修改时，必须填写修改意见")
		}

		updates := map[string]any{"confirm_comment": comment}
		if confirmed {
			updates["status"] = constants.StatusConfirmed
			updates["closed_at"] = time.Now()
		} else {
			updates["status"] = constants.StatusInProgress
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return err
		}

		if confirmed {
			if err := logTransition(tx, &task, actorID, constants.ActionConfirm,
				constants.StatusCompleted, constants.StatusConfirmed, comment); err != nil {
				return err
			}
			if task.HandlerID != nil {
				if err := notify(tx, *task.HandlerID, task.ID, constants.NotifyTaskConfirmed, "任务已确认",
					fmt.Sprintf("任务“%s”已确认完成", task.Title)); err != nil {
					return err
				}
			}
		} else {
			if err := logTransition(tx, &task, actorID, constants.ActionNeedsRework,
				constants.StatusCompleted, constants.StatusInProgress,
				fmt.Sprintf("修改意见：%s", comment)); err != nil {
				return err
			}
			content := fmt.Sprintf("任务“%s”需要修改。修改意见：%s", task.Title, comment)
			if task.HandlerID != nil {
				if err := notify(tx, *task.HandlerID, task.ID, constants.NotifyTaskReopened, "任务需重新处理", content); err != nil {
					return err
				}
			}
			if task.AssigneeID != nil {
				if err := notify(tx, *task.AssigneeID, task.ID, constants.NotifyTaskReopened, "任务需修改", content); err != nil {
					return err
				}
			}
			if task.ReviewerID != nil {
				if err := notify(tx, *task.ReviewerID, task.ID, constants.NotifyTaskReopened, "任务需修改", content); err != nil {
					return err
				}
			}
			if task.HandlerID != nil {
				events = append(events, SmsEvent{
					TemplateType: constants.SmsTaskNeedsRework,
					TaskID:       task.ID,
					RecipientID:  task.HandlerID,
					Extra:        map[string]string{"修改意见": comment},
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(events)
	return s.GetTask(taskID)
}

// AddComment appends a free-form comment at any status and notifies the
// involved parties. It is not a transition and writes no workflow log.
func (s *WorkflowService) AddComment(taskID, actorID uint, content string) (*models.Comment, error) {
	if content == "" {
		return nil, validationErr("评论内容不能为空")
	}
	var comment models.Comment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		actor, err := s.getUser(tx, actorID)
		if err != nil {
			return err
		}
		var task models.Task
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if !s.CanAccessTask(&task, actor) {
			return forbiddenErr("您无权查看此任务")
		}
		comment = models.Comment{TaskID: task.ID, UserID: actor.ID, Content: content}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return err
		}

		seen := map[uint]bool{actor.ID: true}
		recipients := []*uint{&task.CreatorID, task.ReviewerID, task.AssigneeID, task.HandlerID}
		for _, id := range recipients {
			if id == nil || seen[*id] {
				continue
			}
			seen[*id] = true
			if err := notify(tx, *id, task.ID, constants.NotifyCommentAdded, "新增评论",
				fmt.Sprintf("%s 在任务“%s”中添加了评论", actor.Username, task.Title)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.DB.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}
