package models

import "time"

type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200" json:"title"`
	Description string `json:"description"`
	// TaskType stays empty until the first assignment fixes it.
	TaskType string `gorm:"size:20" json:"task_type"`
	Status   string `gorm:"size:20;default:'pending_review'" json:"status"`
	Priority string `gorm:"size:20;default:'medium'" json:"priority"`

	CreatorID  uint  `json:"creator_id"`
	ReviewerID *uint `json:"reviewer_id"`
	AssigneeID *uint `json:"assignee_id"`
	HandlerID  *uint `json:"handler_id"`

	Creator  User  `gorm:"foreignKey:CreatorID" json:"creator"`
	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Handler  *User `gorm:"foreignKey:HandlerID" json:"handler,omitempty"`

	// AssistantEmployees may view the task but never operate on it.
	AssistantEmployees []User `gorm:"many2many:task_assistants" json:"assistant_employees"`

	ReviewComment  string `json:"review_comment"`
	AssignComment  string `json:"assign_comment"`
	HandleComment  string `json:"handle_comment"`
	ConfirmComment string `json:"confirm_comment"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`

	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `json:"task_id"`
	UserID    uint      `json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskAttachment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TaskID           uint      `json:"task_id"`
	Locator          string    `gorm:"size:500" json:"-"`
	OriginalFilename string    `gorm:"size:255" json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	UploadedByID     uint      `json:"uploaded_by_id"`
	UploadedBy       User      `gorm:"foreignKey:UploadedByID" json:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at"`
}
