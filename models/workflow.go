package models

import "time"

// WorkflowLog is the append-only audit trail. Rows are created inside
// the transition transaction and never updated or deleted afterwards;
// they go away only when their task is deleted.
type WorkflowLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     uint      `gorm:"index" json:"task_id"`
	UserID     uint      `json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string    `gorm:"size:50" json:"action"`
	FromStatus string    `gorm:"size:20" json:"from_status"`
	ToStatus   string    `gorm:"size:20" json:"to_status"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	TaskID    *uint     `json:"task_id"`
	Type      string    `gorm:"size:20;column:notification_type" json:"notification_type"`
	Title     string    `gorm:"size:200" json:"title"`
	Content   string    `json:"content"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
