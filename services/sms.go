package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
)

const (
	// Trailing window for duplicate suppression, plus the narrower
	// second check done right before the pending record is created.
	dedupWindow        = 5 * time.Minute
	dedupRecheckWindow = 1 * time.Minute

	gatewayTimeout   = 10 * time.Second
	maxResponseBytes = 1000
)

var errDuplicateSms = errors.New("duplicate sms suppressed")

// SmsService renders and delivers task SMS. Delivery is best effort:
// every outcome lands on an SmsRecord, never on the workflow caller.
type SmsService struct {
	DB     *gorm.DB
	Client *http.Client
}

func NewSmsService(db *gorm.DB) *SmsService {
	return &SmsService{
		DB:     db,
		Client: &http.Client{Timeout: gatewayTimeout},
	}
}

// GetConfig returns the enabled gateway config. Admin writes keep at
// most one row enabled, so the read order rarely matters.
func (s *SmsService) GetConfig() *models.SmsConfig {
	var cfg models.SmsConfig
	err := s.DB.Where("is_enabled = ?", true).Order("id").First(&cfg).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[短信配置] 获取短信配置失败: %v", err)
		}
		return nil
	}
	return &cfg
}

// GetTemplate returns the enabled template for the event type, if any.
func (s *SmsService) GetTemplate(templateType string) *models.SmsTemplate {
	var tmpl models.SmsTemplate
	err := s.DB.Where("template_type = ? AND is_enabled = ?", templateType, true).
		Order("id").First(&tmpl).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[短信模板] 获取短信模板失败: %v", err)
		}
		return nil
	}
	return &tmpl
}

// RenderTemplate substitutes {key} tokens as literal substrings.
// Unmatched placeholders stay verbatim in the output.
func RenderTemplate(content string, context map[string]string) string {
	for key, value := range context {
		content = strings.ReplaceAll(content, "{"+key+"}", value)
	}
	return content
}

func taskContext(task *models.Task, extra map[string]string) map[string]string {
	context := map[string]string{
		"任务标题": task.Title,
		"任务名称": task.Title,
	}
	for k, v := range extra {
		context[k] = v
	}
	return context
}

func (s *SmsService) isDuplicate(db *gorm.DB, phone, templateType string, taskID, recipientID *uint, window time.Duration) bool {
	q := db.Model(&models.SmsRecord{}).
		Where("phone = ? AND created_at >= ?", strings.TrimSpace(phone), time.Now().Add(-window)).
		Where("status IN ?", []string{constants.SmsSuccess, constants.SmsPending})
	if taskID != nil && templateType != "" {
		q = q.Where("task_id = ? AND template_type = ?", *taskID, templateType)
		if recipientID != nil {
			q = q.Where("recipient_id = ?", *recipientID)
		}
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		log.Printf("[重复发送检查] 查询失败: %v", err)
		return false
	}
	if n > 0 {
		log.Printf("[重复发送检查] 手机号: %s, 模板类型: %s, 在最近%v内已发送过相同短信，跳过发送",
			phone, templateType, window)
		return true
	}
	return false
}

func (s *SmsService) createFailedRecord(phone, content, templateType string, taskID, recipientID *uint, errMsg string) {
	record := models.SmsRecord{
		Phone:        phone,
		Content:      content,
		TemplateType: templateType,
		TaskID:       taskID,
		RecipientID:  recipientID,
		Status:       constants.SmsFailed,
		ErrorMessage: errMsg,
	}
	if err := s.DB.Omit("Recipient").Create(&record).Error; err != nil {
		log.Printf("[短信记录] 创建失败记录出错: %v", err)
	}
}

// Send delivers one rendered message. Duplicate suppression is checked
// before and, double-checked inside the record-creating transaction,
// immediately before the call; a suppressed send creates no record.
// Missing configuration does create a failed record, that is an
// auditable problem while a duplicate is not.
func (s *SmsService) Send(phone, content, templateType string, taskID, recipientID *uint) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		log.Printf("[短信发送] 手机号为空，无法发送短信")
		return false
	}
	if s.isDuplicate(s.DB, phone, templateType, taskID, recipientID, dedupWindow) {
		return false
	}

	cfg := s.GetConfig()
	if cfg == nil {
		s.createFailedRecord(phone, content, templateType, taskID, recipientID, "未配置短信接口或配置已禁用")
		return false
	}

	var record models.SmsRecord
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if s.isDuplicate(tx, phone, templateType, taskID, recipientID, dedupRecheckWindow) {
			return errDuplicateSms
		}
		record = models.SmsRecord{
			Phone:        phone,
			Content:      content,
			TemplateType: templateType,
			TaskID:       taskID,
			RecipientID:  recipientID,
			Status:       constants.SmsPending,
		}
		return tx.Omit("Recipient").Create(&record).Error
	})
	if err != nil {
		if !errors.Is(err, errDuplicateSms) {
			log.Printf("[短信发送] 创建发送记录失败: %v", err)
		}
		return false
	}

	return s.deliver(&record, cfg)
}

// deliver performs the outbound call for an existing pending record and
// settles it to success or failed. Shared by Send and Resend.
func (s *SmsService) deliver(record *models.SmsRecord, cfg *models.SmsConfig) bool {
	phone := strings.TrimSpace(record.Phone)

	query := url.Values{}
	for key, value := range cfg.ParamMap() {
		value = strings.ReplaceAll(value, constants.ParamTokenPhone, phone)
		value = strings.ReplaceAll(value, constants.ParamTokenContent, record.Content)
		query.Set(key, value)
	}
	if len(query) == 0 {
		// Documented defaults when no parameter template is configured.
		query.Set("phoneNum", phone)
		query.Set("mesConent", record.Content)
		query.Set("regionCode", "371000000000")
		query.Set("source", "oms")
	}

	base := strings.TrimRight(cfg.ApiURL, "?&")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	fullURL := base + sep + query.Encode()

	log.Printf("[短信发送请求] 记录ID: %d, 手机号: %s, 请求方式: POST, 完整URL: %s", record.ID, phone, fullURL)

	// POST with the parameters in the query string, not the body; that
	// is the gateway's contract.
	req, err := http.NewRequest(http.MethodPost, fullURL, nil)
	if err != nil {
		return s.failRecord(record, fmt.Sprintf("构建短信请求失败: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return s.failRecord(record, "短信接口请求超时")
		}
		return s.failRecord(record, fmt.Sprintf("短信接口请求异常: %v", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	record.ResponseData = string(body)

	var parsed map[string]any
	isJSON := json.Unmarshal(body, &parsed) == nil

	log.Printf("[短信发送响应] 记录ID: %d, 手机号: %s, HTTP状态码: %d, 响应内容: %s",
		record.ID, phone, resp.StatusCode, record.ResponseData)

	if resp.StatusCode != http.StatusOK {
		return s.failRecord(record, fmt.Sprintf("短信接口返回错误HTTP状态码: %d", resp.StatusCode))
	}

	if isJSON {
		code := fmt.Sprintf("%v", parsed["code"])
		if code != "200" {
			return s.failRecord(record, fmt.Sprintf("短信接口返回失败: code=%s", code))
		}
		return s.succeedRecord(record)
	}

	// HTTP 200 with a non-JSON body: treated as success, flagged for a
	// human to double-check.
	log.Printf("[短信发送警告] 记录ID: %d, 手机号: %s, HTTP状态码200但响应体不是JSON格式，已标记为成功，请人工检查",
		record.ID, phone)
	return s.succeedRecord(record)
}

func (s *SmsService) succeedRecord(record *models.SmsRecord) bool {
	now := time.Now()
	record.Status = constants.SmsSuccess
	record.SentAt = &now
	record.ErrorMessage = ""
	err := s.DB.Model(&models.SmsRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
		"status":        record.Status,
		"error_message": "",
		"response_data": record.ResponseData,
		"sent_at":       now,
	}).Error
	if err != nil {
		log.Printf("[短信记录] 更新记录失败: %v", err)
	}
	log.Printf("[短信发送成功] 记录ID: %d, 手机号: %s", record.ID, record.Phone)
	return true
}

func (s *SmsService) failRecord(record *models.SmsRecord, errMsg string) bool {
	record.Status = constants.SmsFailed
	record.ErrorMessage = errMsg
	err := s.DB.Model(&models.SmsRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
		"status":        constants.SmsFailed,
		"error_message": errMsg,
		"response_data": record.ResponseData,
	}).Error
	if err != nil {
		log.Printf("[短信记录] 更新记录失败: %v", err)
	}
	log.Printf("[短信发送失败] 记录ID: %d, 手机号: %s, 原因: %s", record.ID, record.Phone, errMsg)
	return false
}

// SendTaskSms renders the event's template and delivers to the given
// recipient, or to the event type's default recipient. Missing
// template, unresolvable recipient or a missing phone number each
// produce a failed record without touching the network.
func (s *SmsService) SendTaskSms(templateType string, task *models.Task, recipient *models.User, extra map[string]string) bool {
	tmpl := s.GetTemplate(templateType)
	if tmpl == nil {
		errMsg := "未找到启用的短信模板: " + templateType
		log.Printf("[短信发送] %s (任务ID: %d)", errMsg, task.ID)
		var rid *uint
		if recipient != nil {
			rid = &recipient.ID
		}
		s.createFailedRecord("", "", templateType, &task.ID, rid, errMsg)
		return false
	}

	if recipient == nil {
		recipient = s.defaultRecipient(templateType, task)
	}

	content := RenderTemplate(tmpl.Content, taskContext(task, extra))

	if recipient == nil {
		errMsg := "无法确定短信接收人: " + templateType
		log.Printf("[短信发送] %s (任务ID: %d)", errMsg, task.ID)
		s.createFailedRecord("", content, templateType, &task.ID, nil, errMsg)
		return false
	}
	if !recipient.HasPhone() {
		errMsg := fmt.Sprintf("接收人 %s 未设置手机号，无法发送短信", recipient.Username)
		log.Printf("[短信发送] %s (任务ID: %d)", errMsg, task.ID)
		s.createFailedRecord("", content, templateType, &task.ID, &recipient.ID, errMsg)
		return false
	}

	return s.Send(recipient.Phone, content, templateType, &task.ID, &recipient.ID)
}

// defaultRecipient derives the recipient from event type and task.
func (s *SmsService) defaultRecipient(templateType string, task *models.Task) *models.User {
	switch templateType {
	case constants.SmsTaskSubmitted:
		var admin models.User
		err := s.DB.Where("role = ? AND is_active = ? AND phone <> ''", constants.RoleAdmin, true).
			Order("id").First(&admin).Error
		if err != nil {
			return nil
		}
		return &admin
	case constants.SmsTaskReviewed:
		return s.loadUser(task.AssigneeID)
	case constants.SmsTaskRejected:
		id := task.CreatorID
		return s.loadUser(&id)
	case constants.SmsTaskAssigned:
		return s.loadUser(task.HandlerID)
	case constants.SmsTaskCompleted:
		id := task.CreatorID
		return s.loadUser(&id)
	}
	return nil
}

func (s *SmsService) loadUser(id *uint) *models.User {
	if id == nil {
		return nil
	}
	var user models.User
	if err := s.DB.First(&user, *id).Error; err != nil {
		return nil
	}
	return &user
}

// broadcastTaskSms sends one event's SMS to every active user of a role
// that has a phone number. When nobody is reachable, a failed record is
// written per user so the gap shows up in the operator view.
func (s *SmsService) broadcastTaskSms(templateType, role, roleLabel string, task *models.Task) bool {
	tmpl := s.GetTemplate(templateType)
	if tmpl == nil {
		errMsg := "未找到启用的短信模板: " + templateType
		log.Printf("[短信发送] %s (任务ID: %d)", errMsg, task.ID)
		s.createFailedRecord("", "", templateType, &task.ID, nil, errMsg)
		return false
	}

	var all []models.User
	if err := s.DB.Where("role = ? AND is_active = ?", role, true).Find(&all).Error; err != nil {
		log.Printf("[短信发送] 查询%s用户失败: %v", roleLabel, err)
		return false
	}

	content := RenderTemplate(tmpl.Content, taskContext(task, nil))

	var withPhone []models.User
	for _, u := range all {
		if u.HasPhone() {
			withPhone = append(withPhone, u)
		}
	}
	if len(withPhone) == 0 {
		log.Printf("[短信发送] 没有找到可发送短信的%s用户 (任务ID: %d)", roleLabel, task.ID)
		for _, u := range all {
			uid := u.ID
			s.createFailedRecord(u.Phone, content, templateType, &task.ID, &uid,
				fmt.Sprintf("%s用户 %s 未设置手机号", roleLabel, u.Username))
		}
		return false
	}

	sent := 0
	for _, u := range withPhone {
		uid := u.ID
		if s.Send(u.Phone, content, templateType, &task.ID, &uid) {
			sent++
		}
	}
	return sent > 0
}

// SendTaskSubmittedSms notifies every reachable admin of a new task.
func (s *SmsService) SendTaskSubmittedSms(task *models.Task) bool {
	return s.broadcastTaskSms(constants.SmsTaskSubmitted, constants.RoleAdmin, "管理方", task)
}

// SendTaskReviewedSms notifies every reachable project manager that a
// task passed review and waits for assignment.
func (s *SmsService) SendTaskReviewedSms(task *models.Task) bool {
	return s.broadcastTaskSms(constants.SmsTaskReviewed, constants.RoleManager, "项目经理", task)
}

// Resend re-attempts delivery for an existing record. The record is
// reset to pending and reused as-is: no dedup (resend is an explicit
// override), no new row, the whole history stays on one id.
func (s *SmsService) Resend(recordID uint) (bool, error) {
	var record models.SmsRecord
	if err := s.DB.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, notFoundErr("短信记录不存在")
		}
		return false, err
	}

	if strings.TrimSpace(record.Phone) == "" {
		log.Printf("[短信重发] 手机号为空，无法重发短信 (ID: %d)", record.ID)
		return s.failRecord(&record, "手机号为空"), nil
	}

	err := s.DB.Model(&models.SmsRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
		"status":        constants.SmsPending,
		"error_message": "",
		"response_data": "",
		"sent_at":       nil,
	}).Error
	if err != nil {
		return false, err
	}
	record.Status = constants.SmsPending
	record.ErrorMessage = ""
	record.ResponseData = ""
	record.SentAt = nil

	cfg := s.GetConfig()
	if cfg == nil {
		return s.failRecord(&record, "未配置短信接口或配置已禁用"), nil
	}

	log.Printf("[短信重发请求] 记录ID: %d, 手机号: %s", record.ID, record.Phone)
	return s.deliver(&record, cfg), nil
}
