package app

import (
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/middleware"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public
	a.registerPublicRoutes(router, c, cfg)

	// 2. signed-in learners
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearnerRoutes(authGroup, c)
	}

	// 3. admin
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/compliance/policy", c.compliance.Policy)
		admin.POST("/compliance/screen", c.compliance.Screen)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// optional auth: anonymous readers can browse generated courses
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
		public.GET("/lessons/:id", middleware.TryAuthMiddleware(cfg), c.lesson.GetLesson)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.GET("/courses", c.course.ListMyCourses)
	rg.POST("/courses/generate", c.course.GenerateCourse)
	rg.GET("/courses/:id/progress", c.course.GetProgress)

	rg.POST("/lessons/:id/complete", c.lesson.CompleteLesson)
	rg.GET("/lessons/:id/status", c.lesson.GetStatus)

	rg.POST("/chat/ask", c.chat.Ask)
	rg.GET("/chat/history", c.chat.History)
}
