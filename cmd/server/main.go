package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"letter-tracker/backend/internal/automation"
	"letter-tracker/backend/internal/cache"
	"letter-tracker/backend/internal/config"
	"letter-tracker/backend/internal/deadline"
	"letter-tracker/backend/internal/handlers"
	"letter-tracker/backend/internal/middleware"
	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/monitoring"
	"letter-tracker/backend/internal/notify"
	"letter-tracker/backend/internal/services"
	"letter-tracker/backend/internal/worker"
	"letter-tracker/backend/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := mustConnectDB(cfg)
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access sql DB: %v", err)
	}
	defer sqlDB.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	deliveryWorker := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  redisClient,
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		Queues:       cfg.Worker.Queues,
	})
	deliveryWorker.RegisterHandler(worker.JobTypeEmailDelivery, worker.EmailHandler)
	deliveryWorker.RegisterHandler(worker.JobTypePushDelivery, worker.PushHandler)
	deliveryWorker.Start(cfg.Worker.Concurrency)
	defer deliveryWorker.Stop()

	jobQueue := worker.NewJobQueue(redisClient)
	dispatcher := notify.NewDispatcher(notify.NewQueueDelivery(jobQueue))

	letterCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer letterCache.Close()

	engine := workflow.NewEngine(dispatcher)
	monitor := deadline.NewMonitor(deadline.SystemClock{}, dispatcher)
	runner := automation.NewRunner(monitor, deadline.SystemClock{}, cfg.Automation.Budget)

	authService := services.NewAuthService()
	registerService := services.NewRegisterService()
	taskService := services.NewTaskService(dispatcher)
	letterService := services.NewCachedLetterService(services.NewLetterService(dispatcher), letterCache)
	notificationService := services.NewNotificationService()
	reportService := services.NewReportService()

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	router := buildRouter(cfg, db, routerDeps{
		auth:          handlers.NewAuthHandler(db, authService),
		register:      handlers.NewRegisterHandler(db, registerService),
		refresh:       handlers.NewRefreshHandler(db, authService),
		logout:        handlers.NewLogoutHandler(db, authService),
		tasks:         handlers.NewTaskHandler(db, taskService, engine),
		letters:       handlers.NewLetterHandler(db, letterService),
		notifications: handlers.NewNotificationHandler(db, notificationService),
		reports:       handlers.NewReportHandler(db, reportService),
		automation:    handlers.NewAutomationHandler(db, runner, monitor),
		users:         handlers.NewUserHandler(db),
		departments:   handlers.NewDepartmentHandler(db),
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("letter tracker stopped")
}

type routerDeps struct {
	auth          *handlers.AuthHandler
	register      *handlers.RegisterHandler
	refresh       *handlers.RefreshHandler
	logout        *handlers.LogoutHandler
	tasks         *handlers.TaskHandler
	letters       *handlers.LetterHandler
	notifications *handlers.NotificationHandler
	reports       *handlers.ReportHandler
	automation    *handlers.AutomationHandler
	users         *handlers.UserHandler
	departments   *handlers.DepartmentHandler
}

func buildRouter(cfg *config.Config, db *gorm.DB, deps routerDeps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.Default())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit))

	router.GET("/health", monitoring.HealthHandler)
	router.GET("/metrics", monitoring.MetricsHandler)

	auth := router.Group("/auth")
	{
		auth.POST("/register", deps.register.Register)
		auth.POST("/token", deps.auth.Token)
		auth.POST("/refresh", deps.refresh.Refresh)
		auth.POST("/logout", deps.logout.Logout)
	}

	authed := router.Group("/")
	authed.Use(middleware.AuthzMiddleware(middleware.AuthzConfig{}))
	{
		authed.GET("/users/me", deps.users.Me)

		authed.GET("/letters", deps.letters.GetLetters)
		authed.GET("/letters/:id", deps.letters.GetLetterByID)

		authed.GET("/tasks", deps.tasks.GetTasks)
		authed.GET("/tasks/:id", deps.tasks.GetTaskByID)

		authed.GET("/notifications", deps.notifications.List)
		authed.GET("/notifications/unread-count", deps.notifications.UnreadCount)
		authed.POST("/notifications/:id/read", deps.notifications.MarkRead)
	}

	// VIEWER accounts can read everything above but never mutate.
	contributors := router.Group("/")
	contributors.Use(middleware.AuthzMiddleware(middleware.AuthzConfig{
		Roles: []models.UserRole{models.RoleManager, models.RoleMember},
	}))
	{
		contributors.POST("/letters", deps.letters.CreateLetter)
		contributors.PUT("/letters/:id", deps.letters.UpdateLetter)

		contributors.POST("/tasks", deps.tasks.CreateTask)
		contributors.PATCH("/tasks/:id/status", deps.tasks.UpdateStatus)
		contributors.PUT("/tasks/:id/assignee", deps.tasks.Reassign)
	}

	managers := router.Group("/")
	managers.Use(middleware.AuthzMiddleware(middleware.AuthzConfig{
		Roles: []models.UserRole{models.RoleManager},
	}))
	{
		managers.GET("/reports/letters", deps.reports.LettersReport)
		managers.GET("/reports/tasks", deps.reports.TasksReport)
		managers.GET("/automation/overdue", deps.automation.Overdue)
		managers.GET("/automation/upcoming", deps.automation.Upcoming)
	}

	admins := router.Group("/")
	admins.Use(middleware.AuthzMiddleware(middleware.AuthzConfig{
		Roles: []models.UserRole{models.RoleAdmin},
	}))
	{
		admins.GET("/users", deps.users.ListUsers)
		admins.PUT("/users/:id/role", deps.users.UpdateRole)
		admins.GET("/departments", deps.departments.List)
		admins.POST("/departments", deps.departments.Create)
		admins.PUT("/departments/:id/manager", deps.departments.SetManager)
		admins.POST("/automation/run", deps.automation.Run)
		admins.DELETE("/letters/:id", deps.letters.DeleteLetter)
		admins.DELETE("/tasks/:id", deps.tasks.DeleteTask)
	}

	return router
}

func mustConnectDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to init sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Letter{},
		&models.Task{},
		&models.TaskStatusChange{},
		&models.Notification{},
		&models.AutomationRun{},
		&models.Token{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	return db
}
