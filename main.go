package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"github.com/zeinputraa/simple-todo-app/config"
	"github.com/zeinputraa/simple-todo-app/logging"
	"github.com/zeinputraa/simple-todo-app/modules/activity"
	"github.com/zeinputraa/simple-todo-app/modules/api"
	"github.com/zeinputraa/simple-todo-app/modules/storage"
	"github.com/zeinputraa/simple-todo-app/modules/todo"
)

func main() {
	log.Println("=== Simple Todo App - Fiber + Key-Value Task Store ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	frameworkLevel := mono.WithLogLevel(mono.LogLevelInfo)
	switch logging.LevelName(cfg.LogLevel) {
	case "debug":
		frameworkLevel = mono.WithLogLevel(mono.LogLevelDebug)
	case "warn":
		frameworkLevel = mono.WithLogLevel(mono.LogLevelWarn)
	case "error":
		frameworkLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		frameworkLevel,
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(cfg.JetStreamDir),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// The jetstream backend reaches the bucket through the "kv" plugin alias;
	// every other backend is opened here and handed to the todo module.
	var todoOpts []todo.Option
	if cfg.Backend() == storage.BackendJetStream {
		kvPlugin, err := kvjetstream.New(kvjetstream.Config{
			Buckets: []kvjetstream.BucketConfig{
				{
					Name:        cfg.KVBucket,
					Description: "Todo collection and backups",
					Storage:     kvjetstream.FileStorage,
				},
			},
		})
		if err != nil {
			log.Fatalf("Failed to create kv plugin: %v", err)
		}
		if err := app.RegisterPlugin(kvPlugin, "kv"); err != nil {
			log.Fatalf("Failed to register kv plugin: %v", err)
		}
		todoOpts = append(todoOpts, todo.WithBucket(cfg.KVBucket))
	} else {
		facility, err := storage.Open(context.Background(), cfg.StorageOptions())
		if err != nil {
			log.Fatalf("Failed to open %s storage: %v", cfg.StorageBackend, err)
		}
		todoOpts = append(todoOpts, todo.WithFacility(facility))
	}

	// Order: independent modules first, then modules with dependencies
	// - activity: Event consumer (subscribes to todo events)
	// - todo: Core domain (task store, persistence writer, emits events)
	// - api: Driving adapter (Fiber HTTP server, depends on todo and activity)
	app.Register(activity.NewModule(activity.DefaultLimit))
	app.Register(todo.NewModule(logger, todoOpts...))
	app.Register(api.NewModule(cfg.HTTPPort, logger))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
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

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber")
	log.Printf("  - Storage Backend: %s", cfg.StorageBackend)
	if cfg.Backend() == storage.BackendJetStream {
		log.Printf("  - KV Bucket: %s (%s)", cfg.KVBucket, cfg.JetStreamDir)
	}
	log.Println("")
	log.Println("Event-Driven Activity:")
	log.Println("  - TodoAdded/TodoToggled/TodoDeleted events -> activity module")
	log.Println("  - CompletedCleared/CollectionReplaced events -> activity module")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("  GET    /api/v1/todos?filter=all|active|completed - List todos")
	log.Println("  POST   /api/v1/todos                            - Add a todo")
	log.Println("  POST   /api/v1/todos/:id/toggle                 - Toggle completion")
	log.Println("  DELETE /api/v1/todos/:id                        - Delete a todo")
	log.Println("  POST   /api/v1/todos/clear-completed            - Remove completed todos")
	log.Println("  GET    /api/v1/storage/export                   - Export snapshot")
	log.Println("  POST   /api/v1/storage/import                   - Import snapshot")
	log.Println("  DELETE /api/v1/storage                          - Clear stored todos")
	log.Println("  GET    /api/v1/storage/stats                    - Storage statistics")
	log.Println("  GET    /api/v1/storage/backups                  - List backups")
	log.Println("  POST   /api/v1/storage/backups                  - Create backup")
	log.Println("  POST   /api/v1/storage/backups/:key/restore     - Restore backup")
	log.Println("  DELETE /api/v1/storage/backups/:key             - Delete backup")
	log.Println("  GET    /api/v1/activity?limit=n                 - Recent activity")
	log.Println("  GET    /health                                  - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
