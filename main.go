package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/example/todo-api/config"
	"github.com/example/todo-api/modules/activity"
	"github.com/example/todo-api/modules/api"
	"github.com/example/todo-api/modules/store"
	"github.com/example/todo-api/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/requestid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	log.Println("=== Todo API ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("HTTP Port: %d", cfg.Server.Port)
	log.Printf("Database: %s", store.Redact(cfg.Database.URL))

	// LOG_LEVEL=error quiets the framework logger
	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.Log.Level == "error" {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Request ID middleware tags every service call for tracing
	requestIDMiddleware, err := requestid.New(
		requestid.WithHeaderName("X-Request-ID"),
	)
	if err != nil {
		log.Fatalf("Failed to create requestid middleware: %v", err)
	}
	if err := app.Register(requestIDMiddleware); err != nil {
		log.Fatalf("Failed to register requestid middleware: %v", err)
	}

	// The store plugin starts before and stops after every module.
	// The framework calls SetPlugin("store", storePlugin) on the task module.
	storePlugin := store.NewPluginModule(cfg.Database.URL, store.Options{Debug: cfg.Database.Debug}, app.Logger())
	if err := app.RegisterPlugin(storePlugin, "store"); err != nil {
		log.Fatalf("Failed to register store plugin: %v", err)
	}

	// Order: independent modules first, then modules with dependencies
	app.Register(activity.NewModule(activity.DefaultCapacity, app.Logger())) // Event consumer (subscribes to task events)
	app.Register(task.NewModule(app.Logger()))                               // Core domain (uses the store plugin, emits events)

	// Driving adapter (depends on task)
	app.Register(api.NewModule(api.Options{
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window,
		RedisAddr:       cfg.RateLimit.RedisAddr,
		AccessLog:       cfg.Log.Access,
	}, app.Logger()))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Server.Port)
	log.Println("  GET    /todos                - List active tasks")
	log.Println("  POST   /addtodo              - Add a task")
	log.Println("  DELETE /deletetodo/:id       - Complete a task")
	log.Println("  GET    /completedtasks       - List completed tasks")
	log.Println("  DELETE /completedtasks/:id   - Delete a completed task")
	log.Println("  GET    /health               - Health check")
	if cfg.RateLimit.Max > 0 {
		log.Printf("Rate limit: %d requests per %s", cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
