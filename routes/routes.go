package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/borischow0801-web/OMS/constants"
	"github.com/borischow0801-web/OMS/controllers"
	"github.com/borischow0801-web/OMS/middleware"
	"github.com/borischow0801-web/OMS/services"
	"github.com/borischow0801-web/OMS/storage"
)

func SetupRouter(db *gorm.DB, store storage.FileStore, smsSvc *services.SmsService, queue *services.SmsQueue) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestID())

	workflow := services.NewWorkflowService(db, queue, store)

	authController := controllers.AuthController{DB: db}
	userController := controllers.UserController{DB: db}
	taskController := controllers.TaskController{DB: db, Workflow: workflow}
	workflowController := controllers.WorkflowController{DB: db}
	smsController := controllers.SmsController{DB: db, Sms: smsSvc}
	attachmentController := controllers.AttachmentController{DB: db, Workflow: workflow, Store: store}

	r.POST("/api/auth/login", authController.Login)

	api := r.Group("/api", middleware.AuthMiddleware())

	api.POST("/auth/register", middleware.RoleMiddleware(constants.RoleAdmin), authController.Register)

	users := api.Group("/users")
	{
		users.GET("", middleware.RoleMiddleware(constants.RoleAdmin), userController.GetUsers)
		users.PUT("/:id", middleware.RoleMiddleware(constants.RoleAdmin), userController.UpdateUser)
		users.GET("/me", userController.Me)
		users.GET("/employees", userController.GetEmployees)
		users.POST("/change_password", userController.ChangePassword)
	}

	tasks := api.Group("/tasks")
	{
		tasks.POST("", taskController.CreateTask)
		tasks.GET("", taskController.GetTasks)
		tasks.GET("/:id", taskController.GetTask)
		tasks.PUT("/:id", taskController.UpdateTask)
		tasks.DELETE("/:id", taskController.DeleteTask)

		// Workflow transitions. Role and identity gating happens in the
		// capability table, once, before any mutation.
		tasks.POST("/:id/submit_draft", taskController.SubmitDraft)
		tasks.POST("/:id/review", taskController.Review)
		tasks.POST("/:id/assign", taskController.Assign)
		tasks.POST("/:id/set_assistants", taskController.SetAssistants)
		tasks.POST("/:id/handle", taskController.Handle)
		tasks.POST("/:id/complete", taskController.Complete)
		tasks.POST("/:id/confirm", taskController.Confirm)
		tasks.POST("/:id/comments", taskController.AddComment)

		tasks.POST("/:id/attachments", attachmentController.Upload)
		tasks.DELETE("/:id/attachments/:attachment_id", attachmentController.Delete)
		tasks.GET("/:id/attachments/:attachment_id/download", attachmentController.Download)
	}

	wf := api.Group("/workflow")
	{
		wf.GET("/logs", workflowController.GetLogs)
		wf.GET("/notifications", workflowController.GetNotifications)
		wf.POST("/notifications/:id/mark_read", workflowController.MarkRead)
		wf.POST("/notifications/mark_all_read", workflowController.MarkAllRead)
	}

	sms := api.Group("/sms", middleware.RoleMiddleware(constants.RoleAdmin))
	{
		sms.GET("/configs", smsController.GetConfigs)
		sms.POST("/configs", smsController.CreateConfig)
		sms.PUT("/configs/:id", smsController.UpdateConfig)
		sms.GET("/templates", smsController.GetTemplates)
		sms.POST("/templates", smsController.CreateTemplate)
		sms.PUT("/templates/:id", smsController.UpdateTemplate)
		sms.GET("/records", smsController.GetRecords)
		sms.POST("/records/:id/resend", smsController.ResendRecord)
	}

	return r
}
