package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/controllers"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Alumni       *controllers.AlumniController
	AcademicUnit *controllers.AcademicUnitController
	Contact      *controllers.ContactController
	Settings     *controllers.SettingsController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/health", c.Health.Health)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/forgot-password", c.Auth.ForgotPassword)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}

	v1.GET("/alumni", c.Alumni.ListAlumni)

	units := v1.Group("/academic-units")
	{
		units.GET("", c.AcademicUnit.GetAll)
		units.GET("/:id", c.AcademicUnit.GetByID)
		units.GET("/:id/programs", c.AcademicUnit.GetPrograms)
	}

	v1.POST("/contact", c.Contact.Submit)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	alumni := authenticated.Group("/alumni")
	{
		// registered before /:id so "search" is not taken as an id
		alumni.GET("/search", c.Alumni.SearchAlumni)
		alumni.GET("/:id", c.Alumni.GetAlumni)
		alumni.POST("", c.Alumni.CreateAlumni)
		alumni.PUT("/:id", c.Alumni.UpdateAlumni)
		alumni.DELETE("/:id", authMiddleware.RoleRequired(models.RoleAdmin), c.Alumni.DeleteAlumni)
	}

	me := authenticated.Group("/users/me")
	{
		me.GET("", c.User.GetProfile)
		me.PUT("", c.User.UpdateProfile)
		me.PUT("/password", c.User.ChangePassword)
		me.POST("/photo", c.User.UploadProfilePhoto)
	}

	settings := authenticated.Group("/settings")
	{
		settings.GET("", c.Settings.Get)
		settings.PUT("", c.Settings.Update)
		settings.DELETE("", c.Settings.Reset)
	}

	// --- Admin routes ---
	admin := authenticated.Group("")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", c.User.ListUsers)
		admin.PUT("/users/:id/role", c.User.UpdateRole)
		admin.DELETE("/users/:id", c.User.DeleteUser)

		admin.POST("/academic-units", c.AcademicUnit.Create)
		admin.PUT("/academic-units/:id", c.AcademicUnit.Update)
		admin.DELETE("/academic-units/:id", c.AcademicUnit.Delete)

		admin.GET("/contact", c.Contact.List)
		admin.GET("/contact/:id", c.Contact.Get)
		admin.PATCH("/contact/:id/read", c.Contact.MarkRead)
		admin.DELETE("/contact/:id", c.Contact.Delete)
	}
}
