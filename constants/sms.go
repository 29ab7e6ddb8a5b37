package constants

// SMS template types, one enabled template row per type.
const (
	SmsTaskSubmitted   = "task_submitted"
	SmsTaskReviewed    = "task_reviewed"
	SmsTaskRejected    = "task_reviewed_rejected"
	SmsTaskAssigned    = "task_assigned"
	SmsTaskCompleted   = "task_completed"
	SmsTaskNeedsRework = "task_needs_modification"
)

// SMS record delivery statuses.
const (
	SmsPending = "pending"
	SmsSuccess = "success"
	SmsFailed  = "failed"
)

// Template placeholder tokens. Templates substitute these as literal
// substrings, not via a template engine; the renderer and the template
// admin validation share this list so a typo cannot silently leave a
// placeholder unexpanded.
const (
	PlaceholderTitle        = "{任务标题}"
	PlaceholderTitleAlias   = "{任务名称}"
	PlaceholderRejectReason = "{审核不通过的理由}"
	PlaceholderRejectCause  = "{原因为}"
	PlaceholderRework       = "{修改意见}"
)

// KnownPlaceholders lists every token a template may use.
var KnownPlaceholders = []string{
	PlaceholderTitle,
	PlaceholderTitleAlias,
	PlaceholderRejectReason,
	PlaceholderRejectCause,
	PlaceholderRework,
}

// Gateway parameter tokens substituted into configured api_params
// values.
const (
	ParamTokenPhone   = "{phone}"
	ParamTokenContent = "{content}"
)

func IsValidTemplateType(t string) bool {
	switch t {
	case SmsTaskSubmitted, SmsTaskReviewed, SmsTaskRejected,
		SmsTaskAssigned, SmsTaskCompleted, SmsTaskNeedsRework:
		return true
	}
	return false
}
