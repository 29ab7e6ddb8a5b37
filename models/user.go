package models

import (
	"time"

	"github.com/borischow0801-web/OMS/constants"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:150" json:"username"`
	Password   string    `json:"-"`
	Name       string    `gorm:"size:100" json:"name"`
	Role       string    `gorm:"size:20;default:'user'" json:"role"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Department string    `gorm:"size:100" json:"department"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) IsUser() bool     { return u.Role == constants.RoleUser }
func (u *User) IsAdmin() bool    { return u.Role == constants.RoleAdmin }
func (u *User) IsManager() bool  { return u.Role == constants.RoleManager }
func (u *User) IsEmployee() bool { return u.Role == constants.RoleEmployee }

// HasPhone reports whether SMS can be addressed to this user.
func (u *User) HasPhone() bool { return u.Phone != "" }

// DisplayName prefers the full name over the login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
