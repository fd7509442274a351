package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-assessment-be/internal/bootstrap"
	"ai-assessment-be/internal/config"
	"ai-assessment-be/internal/server"
	"ai-assessment-be/internal/tracer"
	"ai-assessment-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 1.5 Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(context.Background(), tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.App.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	defer shutdownTracer(context.Background())

	// 2. Usage ledger database (optional)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to bootstrap application: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := container.UsageConsumer.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)
	printBanner(cfg, gormDB != nil)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		cancel()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func printBanner(cfg *config.Config, ledger bool) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	value := color.New(color.FgGreen)

	title.Println("AI Assessment Report Assistant")
	row := func(k, v string) {
		label.Printf("  %-14s", k)
		value.Println(v)
	}
	row("environment", cfg.App.Environment)
	row("llm", cfg.Ai.LLMProvider+" / "+cfg.Ai.LLMModel)
	row("sessions", cfg.Session.Store)
	if ledger {
		row("usage ledger", "postgres")
	} else {
		row("usage ledger", "log only")
	}
	if cfg.App.NatsURL != "" {
		row("events", "gochannel + nats")
	} else {
		row("events", "gochannel")
	}
}
