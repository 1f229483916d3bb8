package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamtask/teamtask-api/internal/middleware"
	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/services"
)

// RouterConfig holds what NewRouter needs to wire the HTTP surface.
type RouterConfig struct {
	AuthService *services.AuthService
	TaskService *services.TaskService
	TeamService *services.TeamService
	Log         *slog.Logger

	RateLimitWindow  time.Duration
	RateLimitGeneral int
	RateLimitLogin   int
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Log))

	authHandler := NewAuthHandler(cfg.AuthService)
	taskHandler := NewTaskHandler(cfg.TaskService)
	teamHandler := NewTeamHandler(cfg.TeamService)

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimitGeneral, cfg.RateLimitWindow,
		"Too many requests, please try again later.")
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLogin, cfg.RateLimitWindow,
		"Too many login attempts, please try again later.")

	requireAuth := middleware.RequireAuth(cfg.AuthService)
	requireManager := middleware.RequireRole(models.RoleManager, models.RoleAdmin)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Management API is running",
		})
	})

	api := r.Group("/api")
	api.Use(generalLimiter.Middleware())
	{
		users := api.Group("/users")
		{
			// Public
			users.POST("/register", loginLimiter.Middleware(), authHandler.Register)
			users.POST("/login", loginLimiter.Middleware(), authHandler.Login)

			users.GET("/profile", requireAuth, authHandler.GetProfile)
			users.POST("/logout", requireAuth, authHandler.Logout)
			users.PUT("/preference", requireAuth, authHandler.UpdatePreference)
			users.PUT("/:id/roles", requireAuth, requireAdmin, authHandler.UpdateRoles)

			users.POST("/teams", requireAuth, requireManager, teamHandler.CreateTeam)
			users.POST("/teams/members", requireAuth, requireManager, teamHandler.AddMember)
			users.GET("/teams/members", requireAuth, requireManager, teamHandler.ListMembers)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", requireManager, taskHandler.CreateTask)
			tasks.GET("/assigned-by-me", requireManager, taskHandler.ListAssignedByMe)
			tasks.POST("/generate", requireManager, taskHandler.GenerateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", requireManager, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireManager, taskHandler.DeleteTask)
			tasks.POST("/:id/assign", requireManager, taskHandler.AssignTask)
			tasks.PUT("/:id/assignee", requireManager, taskHandler.ReassignTask)
			tasks.PUT("/:id/status", taskHandler.UpdateTaskStatus)
		}
	}

	return r
}
