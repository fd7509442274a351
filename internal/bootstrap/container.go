package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-assessment-be/internal/config"
	"ai-assessment-be/internal/controller"
	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/internal/repository/implementation"
	"ai-assessment-be/internal/repository/memory"
	redisRepo "ai-assessment-be/internal/repository/redis"
	"ai-assessment-be/internal/service"
	"ai-assessment-be/pkg/events"
	"ai-assessment-be/pkg/llm/factory"
	"ai-assessment-be/pkg/metrics"
	"ai-assessment-be/pkg/usage"

	pktNats "ai-assessment-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	WorkflowController controller.IWorkflowController

	// Background Services (Exposed for main.go to run)
	UsageConsumer service.IUsageConsumerService

	Registry *prometheus.Registry
	Logger   logger.ILogger

	closers []func()
}

// NewContainer wires the application. db may be nil, in which case usage
// events are only logged.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	c := &Container{Logger: sysLogger}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Registry = registry
	workflowMetrics := metrics.New(registry)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publishers := events.MultiPublisher{events.NewGoChannelPublisher(pubSub, cfg.App.EventsTopic)}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Session storage
	sessionRepo, err := newSessionRepository(cfg, c)
	if err != nil {
		return nil, err
	}

	// 4. Generative backend
	client, err := factory.NewGenerativeClient(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		providerBaseURL(cfg),
		cfg.Keys.GoogleGemini,
		llmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generative client: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Services
	accountant := usage.NewAccountant(usage.Pricing{
		InputPerMillion:  cfg.Pricing.InputPerMillion,
		OutputPerMillion: cfg.Pricing.OutputPerMillion,
	})

	workflowService := service.NewWorkflowService(sessionRepo, client, accountant, sysLogger,
		service.WithPublisher(publishers),
		service.WithMetrics(workflowMetrics),
	)

	authService, err := service.NewAuthService(
		cfg.Auth.Password,
		cfg.Auth.PasswordHash,
		cfg.Auth.JWTSecret,
		cfg.Auth.CredentialTTL,
		sysLogger,
	)
	if err != nil {
		return nil, err
	}

	var usageRecords contract.UsageRecordRepository
	if db != nil {
		usageRecords = implementation.NewUsageRecordRepository(db)
	}
	c.UsageConsumer = service.NewUsageConsumerService(pubSub, cfg.App.EventsTopic, usageRecords, sysLogger)

	// 6. Controllers
	c.AuthController = controller.NewAuthController(authService, cfg.IsProduction())
	c.WorkflowController = controller.NewWorkflowController(
		workflowService,
		service.NewUsageService(usageRecords, accountant),
		cfg.Auth.JWTSecret,
	)

	return c, nil
}

func newSessionRepository(cfg *config.Config, c *Container) (contract.SessionRepository, error) {
	if cfg.Session.Store != "redis" {
		log.Printf("[INFO] Using in-memory session store (ttl %s)", cfg.Session.TTL)
		return memory.NewSessionRepository(cfg.Session.TTL), nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	log.Printf("[INFO] Using Redis session store (ttl %s)", cfg.Session.TTL)
	return redisRepo.NewSessionRepository(rdb, cfg.Session.TTL), nil
}

func providerBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.GeminiBaseURL
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
