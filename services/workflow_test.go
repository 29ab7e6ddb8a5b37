package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
)

func newWorkflow(t *testing.T) (*WorkflowService, *capturePublisher, testUsers) {
	t.Helper()
	db := newTestDB(t)
	users := seedUsers(t, db)
	pub := &capturePublisher{}
	return NewWorkflowService(db, pub, newMemoryStore()), pub, users
}

func logCount(t *testing.T, db *gorm.DB, taskID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.WorkflowLog{}).Where("task_id = ?", taskID).Count(&n).Error)
	return n
}

func lastLog(t *testing.T, db *gorm.DB, taskID uint) models.WorkflowLog {
	t.Helper()
	var entry models.WorkflowLog
	require.NoError(t, db.Where("task_id = ?", taskID).Order("id DESC").First(&entry).Error)
	return entry
}

// createAssigned walks a fresh task to the assigned status.
func createAssigned(t *testing.T, svc *WorkflowService, u testUsers) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "空调维修", Priority: constants.PriorityHigh})
	require.NoError(t, err)
	_, err = svc.Review(task.ID, u.Admin.ID, true, "")
	require.NoError(t, err)
	task, err = svc.Assign(task.ID, u.Manager.ID, AssignInput{HandlerID: u.Employee.ID, TaskType: constants.TaskTypeProblem})
	require.NoError(t, err)
	return task
}

func TestCreateTaskSubmitsForReview(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "打印机故障", Description: "三楼打印机无法开机"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusPendingReview, task.Status)
	assert.Equal(t, constants.PriorityMedium, task.Priority)
	assert.Equal(t, u.Requester.ID, task.CreatorID)

	assert.EqualValues(t, 1, logCount(t, svc.DB, task.ID))
	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionCreate, entry.Action)
	assert.Equal(t, constants.StatusPendingReview, entry.ToStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, constants.SmsTaskSubmitted, pub.events[0].TemplateType)
	assert.Equal(t, task.ID, pub.events[0].TaskID)
}

func TestCreateTaskDraftIsSilent(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "草稿任务", SaveAsDraft: true})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusDraft, task.Status)
	assert.EqualValues(t, 0, logCount(t, svc.DB, task.ID))
	assert.Empty(t, pub.events)

	var n int64
	svc.DB.Model(&models.Notification{}).Where("task_id = ?", task.ID).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestCreateTaskRoleGate(t *testing.T) {
	svc, _, u := newWorkflow(t)

	_, err := svc.CreateTask(u.Employee.ID, CreateTaskInput{Title: "不该存在"})
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = svc.CreateTask(u.Manager.ID, CreateTaskInput{Title: "不该存在"})
	require.ErrorAs(t, err, &forbidden)

	var n int64
	svc.DB.Model(&models.Task{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestSubmitDraft(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "打印机故障", SaveAsDraft: true})
	require.NoError(t, err)

	task, err = svc.SubmitDraft(task.ID, u.Requester.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPendingReview, task.Status)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionSubmitDraft, entry.Action)
	assert.Equal(t, constants.StatusDraft, entry.FromStatus)
	assert.Equal(t, constants.StatusPendingReview, entry.ToStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, constants.SmsTaskSubmitted, pub.events[0].TemplateType)
}

func TestSubmitDraftOnlyFromDraft(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "已提交"})
	require.NoError(t, err)
	before := logCount(t, svc.DB, task.ID)

	_, err = svc.SubmitDraft(task.ID, u.Requester.ID)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, before, logCount(t, svc.DB, task.ID))
}

func TestSubmitDraftOwnership(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "别人的草稿", SaveAsDraft: true})
	require.NoError(t, err)

	other := models.User{Username: "other", Name: "其他人", Role: constants.RoleUser, Password: "x", IsActive: true}
	require.NoError(t, svc.DB.Create(&other).Error)

	_, err = svc.SubmitDraft(task.ID, other.ID)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	// An admin may submit on the creator's behalf.
	task, err = svc.SubmitDraft(task.ID, u.Admin.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPendingReview, task.Status)
}

func TestReviewApprove(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "网络故障"})
	require.NoError(t, err)
	pub.events = nil

	task, err = svc.Review(task.ID, u.Admin.ID, true, "情况属实")
	require.NoError(t, err)

	assert.Equal(t, constants.StatusReviewed, task.Status)
	require.NotNil(t, task.ReviewerID)
	assert.Equal(t, u.Admin.ID, *task.ReviewerID)
	assert.Equal(t, "情况属实", task.ReviewComment)
	assert.Nil(t, task.ClosedAt)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionReviewApprove, entry.Action)
	assert.Equal(t, constants.StatusReviewed, entry.ToStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, constants.SmsTaskReviewed, pub.events[0].TemplateType)

	var note models.Notification
	require.NoError(t, svc.DB.Where("task_id = ? AND user_id = ?", task.ID, u.Requester.ID).
		Order("id DESC").First(&note).Error)
	assert.Equal(t, constants.NotifyTaskReviewed, note.Type)
}

func TestReviewRejectRequiresComment(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "待驳回"})
	require.NoError(t, err)
	pub.events = nil
	before := logCount(t, svc.DB, task.ID)

	_, err = svc.Review(task.ID, u.Admin.ID, false, "")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	var fresh models.Task
	require.NoError(t, svc.DB.First(&fresh, task.ID).Error)
	assert.Equal(t, constants.StatusPendingReview, fresh.Status)
	assert.Equal(t, before, logCount(t, svc.DB, task.ID))
	assert.Empty(t, pub.events)
}

func TestReviewRejectCloses(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "重复报障"})
	require.NoError(t, err)
	pub.events = nil

	task, err = svc.Review(task.ID, u.Admin.ID, false, "与工单 #12 重复")
	require.NoError(t, err)

	assert.Equal(t, constants.StatusClosed, task.Status)
	require.NotNil(t, task.ClosedAt)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionReviewReject, entry.Action)
	assert.Equal(t, "与工单 #12 重复", entry.Comment)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, constants.SmsTaskRejected, ev.TemplateType)
	require.NotNil(t, ev.RecipientID)
	assert.Equal(t, u.Requester.ID, *ev.RecipientID)
	assert.Equal(t, "与工单 #12 重复", ev.Extra["审核不通过的理由"])
	assert.Equal(t, "与工单 #12 重复", ev.Extra["原因为"])
}

func TestReviewRoleGate(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "越权审核"})
	require.NoError(t, err)

	var forbidden *ForbiddenError
	_, err = svc.Review(task.ID, u.Manager.ID, true, "")
	require.ErrorAs(t, err, &forbidden)
	_, err = svc.Review(task.ID, u.Requester.ID, true, "")
	require.ErrorAs(t, err, &forbidden)
}

func TestAssignRequiresTaskTypeFirstTime(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "未分类工单"})
	require.NoError(t, err)
	_, err = svc.Review(task.ID, u.Admin.ID, true, "")
	require.NoError(t, err)

	_, err = svc.Assign(task.ID, u.Manager.ID, AssignInput{HandlerID: u.Employee.ID})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "任务类型")
}

func TestAssign(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task := createAssigned(t, svc, u)

	assert.Equal(t, constants.StatusAssigned, task.Status)
	assert.Equal(t, constants.TaskTypeProblem, task.TaskType)
	require.NotNil(t, task.HandlerID)
	assert.Equal(t, u.Employee.ID, *task.HandlerID)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, u.Manager.ID, *task.AssigneeID)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionAssign, entry.Action)
	assert.Equal(t, constants.StatusReviewed, entry.FromStatus)

	ev := pub.events[len(pub.events)-1]
	assert.Equal(t, constants.SmsTaskAssigned, ev.TemplateType)
	require.NotNil(t, ev.RecipientID)
	assert.Equal(t, u.Employee.ID, *ev.RecipientID)
}

func TestAssignSameHandlerRefused(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	before := logCount(t, svc.DB, task.ID)

	_, err := svc.Assign(task.ID, u.Manager.ID, AssignInput{HandlerID: u.Employee.ID})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "该任务已经指派给该员工", err.Error())
	assert.Equal(t, before, logCount(t, svc.DB, task.ID))
}

func TestReassign(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	pub.events = nil

	task, err := svc.Assign(task.ID, u.Manager.ID, AssignInput{HandlerID: u.Employee2.ID, AssignComment: "王五请假"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusAssigned, task.Status)
	require.NotNil(t, task.HandlerID)
	assert.Equal(t, u.Employee2.ID, *task.HandlerID)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionReassign, entry.Action)
	assert.Contains(t, entry.Comment, "原处理人：王五")
	assert.Contains(t, entry.Comment, "新处理人：赵六")
	assert.Contains(t, entry.Comment, "王五请假")

	var note models.Notification
	require.NoError(t, svc.DB.Where("task_id = ? AND user_id = ?", task.ID, u.Employee.ID).
		Order("id DESC").First(&note).Error)
	assert.Equal(t, "任务已重新指派", note.Title)

	// Reassignment does not repeat the assignment SMS.
	assert.Empty(t, pub.events)
}

func TestAssignOnlyToEmployees(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "错误指派"})
	require.NoError(t, err)
	_, err = svc.Review(task.ID, u.Admin.ID, true, "")
	require.NoError(t, err)

	_, err = svc.Assign(task.ID, u.Manager.ID, AssignInput{HandlerID: u.Manager.ID, TaskType: constants.TaskTypeProblem})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestSetAssistants(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task := createAssigned(t, svc, u)

	_, err := svc.SetAssistants(task.ID, u.Employee.ID, []uint{u.Employee.ID})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	_, err = svc.SetAssistants(task.ID, u.Employee2.ID, []uint{u.Employee.ID})
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	task, err = svc.SetAssistants(task.ID, u.Employee.ID, []uint{u.Employee2.ID})
	require.NoError(t, err)
	require.Len(t, task.AssistantEmployees, 1)
	assert.Equal(t, u.Employee2.ID, task.AssistantEmployees[0].ID)

	assert.True(t, svc.CanAccessTask(task, &u.Employee2))

	// Assistants view only; they cannot drive the workflow.
	_, err = svc.Handle(task.ID, u.Employee2.ID, "")
	require.ErrorAs(t, err, &forbidden)

	task, err = svc.SetAssistants(task.ID, u.Employee.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, task.AssistantEmployees)
	assert.Equal(t, constants.ActionClearAssists, lastLog(t, svc.DB, task.ID).Action)
}

func TestHandleCompleteConfirm(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	pub.events = nil

	task, err := svc.Handle(task.ID, u.Employee.ID, "已到现场")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInProgress, task.Status)
	assert.Nil(t, task.ClosedAt)

	task, err = svc.Complete(task.ID, u.Employee.ID, "已更换配件")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, task.Status)
	assert.Nil(t, task.ClosedAt)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, constants.SmsTaskCompleted, ev.TemplateType)
	require.NotNil(t, ev.RecipientID)
	assert.Equal(t, u.Requester.ID, *ev.RecipientID)

	task, err = svc.Confirm(task.ID, u.Requester.ID, true, "修好了")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusConfirmed, task.Status)
	require.NotNil(t, task.ClosedAt)
	closedAt := *task.ClosedAt

	// create, assign (approve logged too), handle, complete, confirm
	assert.EqualValues(t, 6, logCount(t, svc.DB, task.ID))

	// Terminal: nothing moves the task again, closed_at stays put.
	_, err = svc.Confirm(task.ID, u.Requester.ID, false, "再看看")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	var fresh models.Task
	require.NoError(t, svc.DB.First(&fresh, task.ID).Error)
	require.NotNil(t, fresh.ClosedAt)
	assert.True(t, fresh.ClosedAt.Equal(closedAt))
}

func TestHandleOnlyByHandler(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task := createAssigned(t, svc, u)

	var forbidden *ForbiddenError
	_, err := svc.Handle(task.ID, u.Employee2.ID, "")
	require.ErrorAs(t, err, &forbidden)
	_, err = svc.Complete(task.ID, u.Employee.ID, "")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestConfirmRejectReopens(t *testing.T) {
	svc, pub, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	_, err := svc.Handle(task.ID, u.Employee.ID, "")
	require.NoError(t, err)
	_, err = svc.Complete(task.ID, u.Employee.ID, "")
	require.NoError(t, err)
	pub.events = nil

	_, err = svc.Confirm(task.ID, u.Requester.ID, false, "")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	task, err = svc.Confirm(task.ID, u.Requester.ID, false, "噪音仍然存在")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInProgress, task.Status)
	assert.Nil(t, task.ClosedAt)
	assert.Equal(t, "噪音仍然存在", task.ConfirmComment)

	entry := lastLog(t, svc.DB, task.ID)
	assert.Equal(t, constants.ActionNeedsRework, entry.Action)
	assert.Equal(t, constants.StatusInProgress, entry.ToStatus)

	var note models.Notification
	require.NoError(t, svc.DB.Where("task_id = ? AND user_id = ?", task.ID, u.Employee.ID).
		Order("id DESC").First(&note).Error)
	assert.Equal(t, constants.NotifyTaskReopened, note.Type)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, constants.SmsTaskNeedsRework, ev.TemplateType)
	require.NotNil(t, ev.RecipientID)
	assert.Equal(t, u.Employee.ID, *ev.RecipientID)
	assert.Equal(t, "噪音仍然存在", ev.Extra["修改意见"])
}

func TestConfirmOnlyByCreator(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	_, err := svc.Handle(task.ID, u.Employee.ID, "")
	require.NoError(t, err)
	_, err = svc.Complete(task.ID, u.Employee.ID, "")
	require.NoError(t, err)

	var forbidden *ForbiddenError
	_, err = svc.Confirm(task.ID, u.Admin.ID, true, "")
	require.ErrorAs(t, err, &forbidden)
}

func TestUpdateDraftOnlyWhileDraft(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "旧标题", SaveAsDraft: true})
	require.NoError(t, err)

	task, err = svc.UpdateDraft(task.ID, u.Requester.ID, UpdateDraftInput{Title: "新标题", Priority: constants.PriorityUrgent})
	require.NoError(t, err)
	assert.Equal(t, "新标题", task.Title)
	assert.Equal(t, constants.PriorityUrgent, task.Priority)

	_, err = svc.SubmitDraft(task.ID, u.Requester.ID)
	require.NoError(t, err)

	_, err = svc.UpdateDraft(task.ID, u.Requester.ID, UpdateDraftInput{Title: "不可改"})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestAddComment(t *testing.T) {
	svc, _, u := newWorkflow(t)

	task := createAssigned(t, svc, u)
	before := logCount(t, svc.DB, task.ID)

	comment, err := svc.AddComment(task.ID, u.Employee.ID, "今天下午上门")
	require.NoError(t, err)
	assert.Equal(t, "今天下午上门", comment.Content)
	assert.Equal(t, u.Employee.ID, comment.UserID)

	// Comments are not transitions.
	assert.Equal(t, before, logCount(t, svc.DB, task.ID))

	var n int64
	svc.DB.Model(&models.Notification{}).
		Where("task_id = ? AND notification_type = ?", task.ID, constants.NotifyCommentAdded).
		Count(&n)
	assert.EqualValues(t, 3, n) // creator, reviewer and assigning manager, not the author

	svc.DB.Model(&models.Notification{}).
		Where("task_id = ? AND notification_type = ? AND user_id = ?",
			task.ID, constants.NotifyCommentAdded, u.Employee.ID).
		Count(&n)
	assert.EqualValues(t, 0, n)

	_, err = svc.AddComment(task.ID, u.Employee2.ID, "偷看")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestListTasksRoleScoping(t *testing.T) {
	svc, _, u := newWorkflow(t)

	_, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "草稿", SaveAsDraft: true})
	require.NoError(t, err)
	_, err = svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "待审核"})
	require.NoError(t, err)
	assigned := createAssigned(t, svc, u)

	tasks, total, err := svc.ListTasks(&u.Requester, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, tasks, 3)

	_, total, err = svc.ListTasks(&u.Admin, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	tasks, total, err = svc.ListTasks(&u.Manager, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, assigned.ID, tasks[0].ID)

	tasks, total, err = svc.ListTasks(&u.Employee, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, assigned.ID, tasks[0].ID)

	_, total, err = svc.ListTasks(&u.Employee2, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// Assistants see the task in their listing too.
	_, err = svc.SetAssistants(assigned.ID, u.Employee.ID, []uint{u.Employee2.ID})
	require.NoError(t, err)
	_, total, err = svc.ListTasks(&u.Employee2, TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = svc.ListTasks(&u.Requester, TaskFilter{Status: constants.StatusDraft})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = svc.ListTasks(&u.Admin, TaskFilter{Title: "审核"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestDeleteTaskDraftOnly(t *testing.T) {
	svc, _, u := newWorkflow(t)

	pending, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "已提交"})
	require.NoError(t, err)
	err = svc.DeleteTask(pending.ID, u.Requester.ID)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	draft, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "草稿", SaveAsDraft: true})
	require.NoError(t, err)

	err = svc.DeleteTask(draft.ID, u.Employee.ID)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, svc.DeleteTask(draft.ID, u.Requester.ID))
	_, err = svc.GetTask(draft.ID)
	var missing *NotFoundError
	require.ErrorAs(t, err, &missing)
}

func TestDeleteTaskRemovesAttachments(t *testing.T) {
	svc, _, u := newWorkflow(t)
	store := svc.Store.(*memoryStore)

	draft, err := svc.CreateTask(u.Requester.ID, CreateTaskInput{Title: "带附件的草稿", SaveAsDraft: true})
	require.NoError(t, err)

	locator, err := store.Save(strings.NewReader("jpegbytes"), "故障照片.jpg")
	require.NoError(t, err)
	require.NoError(t, svc.DB.Omit("UploadedBy").Create(&models.TaskAttachment{
		TaskID:           draft.ID,
		Locator:          locator,
		OriginalFilename: "故障照片.jpg",
		FileSize:         9,
		UploadedByID:     u.Requester.ID,
	}).Error)

	require.NoError(t, svc.DeleteTask(draft.ID, u.Requester.ID))

	var n int64
	svc.DB.Model(&models.TaskAttachment{}).Where("task_id = ?", draft.ID).Count(&n)
	assert.EqualValues(t, 0, n)
	assert.Equal(t, []string{locator}, store.deleted)
	assert.Empty(t, store.files)
}
