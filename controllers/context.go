package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/models"
	"github.com/borischow0801-web/OMS/services"
)

// currentUser loads the authenticated user set by the auth middleware.
func currentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证信息"})
		return nil, false
	}
	userID, ok := id.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证信息"})
		return nil, false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
		return nil, false
	}
	return &user, true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的ID"})
		return 0, false
	}
	return uint(v), true
}

// respondServiceError maps the service error taxonomy to HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var fe *services.ForbiddenError
	var nfe *services.NotFoundError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.As(err, &fe):
		c.JSON(http.StatusForbidden, gin.H{"error": fe.Message})
	case errors.As(err, &nfe):
		c.JSON(http.StatusNotFound, gin.H{"error": nfe.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
