package constants

// Workflow log action labels, one per transition.
const (
	ActionCreate        = "创建任务"
	ActionSubmitDraft   = "提交草稿"
	ActionReviewApprove = "审核通过"
	ActionReviewReject  = "审核不通过"
	ActionAssign        = "指派任务"
	ActionReassign      = "重新指派任务"
	ActionSetAssistants = "设置协助员工"
	ActionClearAssists  = "清空协助员工"
	ActionHandle        = "开始处理"
	ActionComplete      = "完成任务"
	ActionConfirm       = "确认完成"
	ActionNeedsRework   = "需要修改"
)

// In-app notification types.
const (
	NotifyTaskCreated   = "task_created"
	NotifyTaskReviewed  = "task_reviewed"
	NotifyTaskAssigned  = "task_assigned"
	NotifyTaskCompleted = "task_completed"
	NotifyTaskConfirmed = "task_confirmed"
	NotifyTaskClosed    = "task_closed"
	NotifyTaskReopened  = "task_reopened"
	NotifyCommentAdded  = "comment_added"
)
