package bootstrap

import (
	"context"
	"net/http"
	"time"

	"llm-chat-be/internal/config"
	"llm-chat-be/internal/controller"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/metrics"
	"llm-chat-be/internal/repository/unitofwork"
	"llm-chat-be/internal/service"
	"llm-chat-be/pkg/events"
	"llm-chat-be/pkg/llm/factory"
	pktNats "llm-chat-be/pkg/nats"
	"llm-chat-be/pkg/prompt"
	"llm-chat-be/pkg/redislock"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// SessionEventsTopic is the in-process topic session lifecycle events are published on.
const SessionEventsTopic = "session-events"

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger  logger.ILogger
	Metrics *metrics.PrometheusRecorder

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	recorder := metrics.NewPrometheusRecorder()

	c := &Container{
		Logger:  sysLogger,
		Metrics: recorder,
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publishers := []events.Publisher{events.NewWatermillPublisher(pubSub, SessionEventsTopic)}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	sessionPublisher := events.NewSessionPublisher(events.NewFanOut(publishers...), sysLogger)

	// 3. Infrastructure
	var locker redislock.Locker = redislock.Noop{}
	if cfg.App.RedisURL != "" {
		redisLocker, rdb, err := redislock.NewFromURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Invalid Redis URL, sweeping without a lock", map[string]interface{}{"error": err.Error()})
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := rdb.Ping(ctx).Err(); err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
			}
			cancel()
			locker = redisLocker
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	llmProvider, err := factory.NewCompletionProvider(cfg.Ai)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM Provider", map[string]interface{}{
		"provider": llmProvider.Name(),
		"model":    llmProvider.Model(),
	})

	seedBuilder := prompt.NewSeedBuilder(
		cfg.Ai.DocsURL,
		cfg.Ai.SystemInstruction,
		cfg.Ai.DocsCacheTTL,
		&http.Client{Timeout: 10 * time.Second},
	)

	// 4. Services
	convLog := service.NewConversationLog(uowFactory, service.SystemClock)
	admissionService := service.NewAdmissionService(uowFactory, convLog, seedBuilder, sessionPublisher, recorder, sysLogger)
	reclaimerService := service.NewReclaimerService(
		uowFactory,
		locker,
		cfg.Session.SweepLockTTL,
		service.SystemClock,
		sessionPublisher,
		recorder,
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		admissionService,
		convLog,
		llmProvider,
		cfg.Ai.ProviderTimeout,
		sessionPublisher,
		recorder,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(pubSub, SessionEventsTopic, sysLogger)

	// 5. Controllers
	c.ChatController = controller.NewChatController(
		chatService,
		admissionService,
		reclaimerService,
		cfg.Session.StaleThreshold,
		cfg.Auth.ReclaimerToken,
	)

	return c, nil
}

// Close releases bus and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
