package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskhive/backend/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	WS      *apiHandler.WSHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Realtime channel; authenticates itself via the token query parameter.
	r.GET("/ws", handlers.WS.Connect)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/export", authMiddleware(handlers.Task.ExportTasks))
	r.POST("/api/v1/tasks/import", authMiddleware(handlers.Task.ImportTasks))
	r.GET("/api/v1/tasks/stats", authMiddleware(handlers.Task.Stats))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.POST("/api/v1/tasks/{id}/subtasks", authMiddleware(handlers.Task.AddSubtask))
	r.PUT("/api/v1/tasks/{id}/subtasks/{subId}", authMiddleware(handlers.Task.UpdateSubtask))
	r.DELETE("/api/v1/tasks/{id}/subtasks/{subId}", authMiddleware(handlers.Task.DeleteSubtask))

	return r
}
