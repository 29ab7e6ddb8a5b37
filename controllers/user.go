package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/models"
	"github.com/borischow0801-web/OMS/utils"
)

type UserController struct {
	DB *gorm.DB
}

func (uc *UserController) GetUsers(c *gin.Context) {
	var users []models.User
	uc.DB.Order("created_at DESC").Find(&users)
	c.JSON(http.StatusOK, users)
}

// GetEmployees lists active field employees, for assignment pickers.
func (uc *UserController) GetEmployees(c *gin.Context) {
	var employees []models.User
	uc.DB.Where("role = ? AND is_active = ?", constants.RoleEmployee, true).
		Order("id").Find(&employees)
	c.JSON(http.StatusOK, employees)
}

func (uc *UserController) Me(c *gin.Context) {
	user, ok := currentUser(c, uc.DB)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	var user models.User

	if err := uc.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	var input struct {
		Name       *string `json:"name"`
		Role       *string `json:"role"`
		Phone      *string `json:"phone"`
		Department *string `json:"department"`
		IsActive   *bool   `json:"is_active"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Role != nil {
		if !constants.IsValidRole(*input.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的角色"})
			return
		}
		user.Role = *input.Role
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	uc.DB.Save(&user)

	c.JSON(http.StatusOK, user)
}

func (uc *UserController) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c, uc.DB)
	if !ok {
		return
	}

	var input struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.CheckPassword(input.OldPassword, user.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "原密码错误"})
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	uc.DB.Model(&user).Update("password", hashed)

	c.JSON(http.StatusOK, gin.H{"message": "密码修改成功"})
}
