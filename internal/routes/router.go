package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"task-manager/internal/controller"
	"task-manager/internal/middleware"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Auth     *controller.AuthHandler
	Tasks    *controller.TaskHandler
	Verifier middleware.TokenVerifier
	Accounts middleware.AccountResolver
	Ready    map[string]controller.Pinger
}

func Router(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(d.Ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public: no auth
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", d.Auth.Signup)
		auth.POST("/login", d.Auth.Login)
	}

	// Protected: JWT required
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Verifier, d.Accounts))
	{
		api.GET("/profile", d.Auth.Profile)

		api.GET("/tasks", d.Tasks.List)
		api.POST("/tasks", d.Tasks.Create)
		api.GET("/tasks/:id", d.Tasks.Get)
		api.PATCH("/tasks/:id/status", d.Tasks.PatchStatus)
		api.PUT("/tasks/:id", d.Tasks.Update)
		api.DELETE("/tasks/:id", d.Tasks.Delete)
	}

	return router
}
