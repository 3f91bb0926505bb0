package bootstrap

import (
	"context"
	"log"

	"collab-notes-be/internal/config"
	"collab-notes-be/internal/notification"
	"collab-notes-be/internal/pkg/logger"
	"collab-notes-be/internal/repository/memory"
	"collab-notes-be/internal/repository/unitofwork"
	"collab-notes-be/internal/service"
	"collab-notes-be/pkg/keymutex"

	pkgNats "collab-notes-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Core Services
	UserService        service.IUserService
	NoteService        service.INoteService
	NoteLockService    service.INoteLockService
	NoteVersionService service.INoteVersionService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	SweeperService  service.ISweeperService

	// Notification
	Hub *notification.Hub

	// Infrastructure handles for graceful shutdown
	Logger  logger.ILogger
	NatsPub *pkgNats.Publisher
	NatsSub *pkgNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// Notification Hub
	hubLogger := logger.NewIsolatedLogger("logs/notification.log")
	hub := notification.NewHub(rdb, hubLogger)

	// In-memory edit-session registry and the per-note serialization point
	sessions := memory.NewEditSessionRepository(cfg.Lock.TTL)
	locks := keymutex.New()

	// 3. Services
	publisherService := service.NewPublisherService(service.NoteEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		service.NoteEventsTopic,
		natsPub,
		hub,
	)

	userService := service.NewUserService(uowFactory)
	versionService := service.NewNoteVersionService(uowFactory)
	lockService := service.NewNoteLockService(
		uowFactory,
		publisherService,
		sessions,
		locks,
		cfg.Lock.TTL,
		sysLogger,
	)
	noteService := service.NewNoteService(
		uowFactory,
		versionService,
		publisherService,
		sessions,
		locks,
		sysLogger,
	)

	sweeperService := service.NewSweeperService(lockService, cfg.Lock.SweepInterval, sysLogger)

	return &Container{
		UserService:        userService,
		NoteService:        noteService,
		NoteLockService:    lockService,
		NoteVersionService: versionService,

		ConsumerService: consumerService,
		SweeperService:  sweeperService,

		Hub: hub,

		Logger:  sysLogger,
		NatsPub: natsPub,
		NatsSub: natsSub,
	}
}
