package models

import (
	"encoding/json"
	"time"
)

// SmsConfig holds the outbound gateway endpoint and a JSON template of
// request parameters. At most one row may be enabled at a time; the
// admin endpoints enforce that at write time.
type SmsConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;default:'default'" json:"name"`
	ApiURL    string    `gorm:"size:500" json:"api_url"`
	ApiParams string    `json:"api_params"`
	IsEnabled bool      `gorm:"default:true" json:"is_enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParamMap decodes the api_params JSON template. A missing or broken
// template yields an empty map; the sender then falls back to the
// documented default parameter set.
func (c *SmsConfig) ParamMap() map[string]string {
	params := map[string]string{}
	if c.ApiParams == "" {
		return params
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(c.ApiParams), &raw); err != nil {
		return params
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			params[k] = s
		} else {
			b, _ := json.Marshal(v)
			params[k] = string(b)
		}
	}
	return params
}

// SmsTemplate maps a workflow event to its text content. At most one
// enabled row per template_type, enforced at write time.
type SmsTemplate struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TemplateType string    `gorm:"size:50;index" json:"template_type"`
	Content      string    `json:"content"`
	IsEnabled    bool      `gorm:"default:true" json:"is_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SmsRecord is one logical outbound message. A resend reuses the row,
// so the whole delivery history of one notification stays on one id.
type SmsRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Phone        string     `gorm:"size:20;index" json:"phone"`
	Content      string     `json:"content"`
	TemplateType string     `gorm:"size:50" json:"template_type"`
	TaskID       *uint      `json:"task_id"`
	RecipientID  *uint      `json:"recipient_id"`
	Recipient    *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Status       string     `gorm:"size:20;default:'pending'" json:"status"`
	ErrorMessage string     `json:"error_message"`
	ResponseData string     `json:"response_data"`
	SentAt       *time.Time `json:"sent_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}
