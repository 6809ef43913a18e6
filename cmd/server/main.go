package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"curriculum-engine/internal/api/handler"
	"curriculum-engine/internal/config"
	"curriculum-engine/internal/core/postgres/repository"
	"curriculum-engine/internal/engine"
	redisinfra "curriculum-engine/internal/infrastructure/redis"
	"curriculum-engine/internal/service"
	"curriculum-engine/internal/template"
	"curriculum-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 1. Set up database connection and schema
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// 2. Redis for progress broadcast
	redisClient, err := redisinfra.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}

	// 3. Collaborators: store, broadcaster, worker invoker
	store := repository.NewWorkflowStore(db)
	broadcaster := redisinfra.NewProgressBroadcaster(redisClient)
	invoker := worker.NewInvoker(worker.InitRegistry(), worker.TimeoutConfig{
		Default: cfg.DefaultWorkerTimeout(),
		PerType: cfg.WorkerTimeouts(),
	})

	// 4. Templates and scheduler
	templates := template.NewDefaultRegistry()
	scheduler := engine.NewScheduler(templates, invoker, store, broadcaster, engine.Config{
		MaxRetries:  cfg.Engine.MaxRetries,
		BaseBackoff: cfg.BaseBackoff(),
		MaxBackoff:  cfg.MaxBackoff(),
	})

	// 5. HTTP surface
	workflowSvc := service.NewWorkflowService(scheduler)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)

	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.POST("/workflows", workflowHandler.StartWorkflow)
		api.GET("/workflows/:id", workflowHandler.GetWorkflow)
		api.POST("/workflows/:id/cancel", workflowHandler.CancelWorkflow)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Println("Server starting on", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
