package routes

import (
	"github.com/gin-gonic/gin"

	"schoolhub/internal/authz"
	"schoolhub/internal/handlers"
	"schoolhub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	studentHandler *handlers.StudentHandler,
	chatHandler *handlers.ChatHandler,
	taskHandler *handlers.TaskHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/password-reset", authHandler.RequestPasswordReset)
	r.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// ---- chat: anonymous allowed, a valid token sets the username
	chat := r.Group("", middleware.OptionalAuth(jwtSecret))
	{
		chat.GET("/chat/:group", chatHandler.Room)
		chat.GET("/ws/chat/:group", chatHandler.Websocket)
	}

	// ---- protected
	api := r.Group("", middleware.AuthMiddleware(jwtSecret))

	api.POST("/logout", authHandler.Logout)
	api.POST("/password/change", authHandler.ChangePassword)
	api.POST("/password/set", authHandler.SetPassword)
	api.GET("/me", userHandler.Me)
	api.GET("/dashboard", userHandler.Dashboard)

	// USERS
	users := api.Group("/users")
	{
		users.POST("", middleware.RequireAnyPerm(authz.PermAddUser), userHandler.CreateUser)
		users.GET("", middleware.RequireAnyPerm(authz.PermViewUser, authz.PermChangeUser, authz.PermDeleteUser), userHandler.ListUsers)
		users.GET("/:id", middleware.RequireAnyPerm(authz.PermViewUser), userHandler.GetUserByID)
		users.PUT("/:id", middleware.RequireAnyPerm(authz.PermChangeUser), userHandler.UpdateUser)
		users.PUT("/:id/profile", userHandler.UpdateProfile)
		users.DELETE("/:id", middleware.RequireAnyPerm(authz.PermDeleteUser), userHandler.DeleteUser)
	}

	// STUDENTS
	students := api.Group("/students")
	{
		students.POST("", middleware.RequireAnyPerm(authz.PermAddStudent), studentHandler.Create)
		students.GET("", middleware.RequireAnyPerm(authz.PermViewStudent, authz.PermChangeStudent, authz.PermDeleteStudent), studentHandler.List)
		students.GET("/:id", middleware.RequireAnyPerm(authz.PermViewStudent), studentHandler.Get)
		students.GET("/:id/pdf", middleware.RequireAnyPerm(authz.PermViewStudent), studentHandler.PDF)
		students.PUT("/:id", middleware.RequireAnyPerm(authz.PermChangeStudent), studentHandler.Update)
		students.POST("/:id/image", middleware.RequireAnyPerm(authz.PermChangeStudent), studentHandler.UploadImage)
		students.DELETE("/:id", middleware.RequireAnyPerm(authz.PermDeleteStudent), studentHandler.Delete)
	}

	// TASKS (Admin)
	tasks := api.Group("/tasks", middleware.RequireRoles(authz.RoleAdmin))
	{
		tasks.POST("/welcome-email", taskHandler.EnqueueWelcomeEmail)
		tasks.GET("/:id", taskHandler.GetTask)
	}

	return r
}
