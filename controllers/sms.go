package controllers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
	"github.com/borischow0801-web/OMS/services"
)

// SmsController is the operator surface: gateway config and templates,
// the delivery record list, and manual resend. SMS failures are visible
// here and nowhere else in the task UI.
type SmsController struct {
	DB  *gorm.DB
	Sms *services.SmsService
}

var placeholderPattern = regexp.MustCompile(`\{[^{}]+\}`)

// validateTemplateContent rejects tokens outside the fixed placeholder
// set, so a typo cannot silently survive to the rendered message.
func validateTemplateContent(content string) (string, bool) {
	known := map[string]bool{}
	for _, p := range constants.KnownPlaceholders {
		known[p] = true
	}
	for _, token := range placeholderPattern.FindAllString(content, -1) {
		if !known[token] {
			return token, false
		}
	}
	return "", true
}

func (sc *SmsController) GetConfigs(c *gin.Context) {
	var configs []models.SmsConfig
	sc.DB.Order("updated_at DESC").Find(&configs)
	c.JSON(http.StatusOK, configs)
}

type smsConfigInput struct {
	Name      string `json:"name"`
	ApiURL    string `json:"api_url" binding:"required"`
	ApiParams string `json:"api_params"`
	IsEnabled *bool  `json:"is_enabled"`
}

func (sc *SmsController) validateConfigInput(in *smsConfigInput, excludeID uint) (string, bool) {
	if in.ApiParams != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(in.ApiParams), &params); err != nil {
			return "接口参数模板必须是合法的JSON", false
		}
	}
	// At most one enabled config, enforced here rather than resolved
	// arbitrarily at read time.
	if in.IsEnabled == nil || *in.IsEnabled {
		var n int64
		q := sc.DB.Model(&models.SmsConfig{}).Where("is_enabled = ?", true)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		q.Count(&n)
		if n > 0 {
			return "已存在启用的短信配置，请先禁用后再启用新配置", false
		}
	}
	return "", true
}

func (sc *SmsController) CreateConfig(c *gin.Context) {
	var input smsConfigInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := sc.validateConfigInput(&input, 0); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	cfg := models.SmsConfig{
		Name:      input.Name,
		ApiURL:    input.ApiURL,
		ApiParams: input.ApiParams,
		IsEnabled: input.IsEnabled == nil || *input.IsEnabled,
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if err := sc.DB.Create(&cfg).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "配置名称已存在"})
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (sc *SmsController) UpdateConfig(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var cfg models.SmsConfig
	if err := sc.DB.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "短信配置不存在"})
		return
	}
	var input smsConfigInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := sc.validateConfigInput(&input, cfg.ID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if input.Name != "" {
		cfg.Name = input.Name
	}
	cfg.ApiURL = input.ApiURL
	cfg.ApiParams = input.ApiParams
	if input.IsEnabled != nil {
		cfg.IsEnabled = *input.IsEnabled
	}
	sc.DB.Save(&cfg)
	c.JSON(http.StatusOK, cfg)
}

func (sc *SmsController) GetTemplates(c *gin.Context) {
	var templates []models.SmsTemplate
	sc.DB.Order("template_type").Find(&templates)
	c.JSON(http.StatusOK, templates)
}

type smsTemplateInput struct {
	TemplateType string `json:"template_type" binding:"required"`
	Content      string `json:"content" binding:"required"`
	IsEnabled    *bool  `json:"is_enabled"`
}

func (sc *SmsController) validateTemplateInput(in *smsTemplateInput, excludeID uint) (string, bool) {
	if !constants.IsValidTemplateType(in.TemplateType) {
		return "无效的模板类型", false
	}
	if token, ok := validateTemplateContent(in.Content); !ok {
		return "模板包含未知的占位符: " + token, false
	}
	// At most one enabled template per type.
	if in.IsEnabled == nil || *in.IsEnabled {
		var n int64
		q := sc.DB.Model(&models.SmsTemplate{}).
			Where("template_type = ? AND is_enabled = ?", in.TemplateType, true)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		q.Count(&n)
		if n > 0 {
			return "该模板类型已存在启用的模板，请先禁用后再启用新模板", false
		}
	}
	return "", true
}

func (sc *SmsController) CreateTemplate(c *gin.Context) {
	var input smsTemplateInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := sc.validateTemplateInput(&input, 0); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	tmpl := models.SmsTemplate{
		TemplateType: input.TemplateType,
		Content:      input.Content,
		IsEnabled:    input.IsEnabled == nil || *input.IsEnabled,
	}
	sc.DB.Create(&tmpl)
	c.JSON(http.StatusCreated, tmpl)
}

func (sc *SmsController) UpdateTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var tmpl models.SmsTemplate
	if err := sc.DB.First(&tmpl, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "短信模板不存在"})
		return
	}
	var input smsTemplateInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := sc.validateTemplateInput(&input, tmpl.ID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	tmpl.TemplateType = input.TemplateType
	tmpl.Content = input.Content
	if input.IsEnabled != nil {
		tmpl.IsEnabled = *input.IsEnabled
	}
	sc.DB.Save(&tmpl)
	c.JSON(http.StatusOK, tmpl)
}

func (sc *SmsController) GetRecords(c *gin.Context) {
	q := sc.DB.Model(&models.SmsRecord{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if phone := c.Query("phone"); phone != "" {
		q = q.Where("phone = ?", phone)
	}
	var records []models.SmsRecord
	q.Preload("Recipient").Order("created_at DESC").Order("id DESC").Limit(200).Find(&records)
	c.JSON(http.StatusOK, records)
}

// ResendRecord is the explicit operator retry. It blocks until the
// gateway call resolves or times out.
func (sc *SmsController) ResendRecord(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sent, err := sc.Sms.Resend(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": sent})
}
