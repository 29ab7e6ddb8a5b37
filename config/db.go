package config

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/models"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		Env("DB_USER", "oms"),
		Env("DB_PASSWORD", "oms"),
		Env("DB_HOST", "127.0.0.1"),
		Env("DB_PORT", "3306"),
		Env("DB_NAME", "oms"),
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	return db
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Comment{},
		&models.TaskAttachment{},
		&models.WorkflowLog{},
		&models.Notification{},
		&models.SmsConfig{},
		&models.SmsTemplate{},
		&models.SmsRecord{},
	)
}
