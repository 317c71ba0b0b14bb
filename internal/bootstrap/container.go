package bootstrap

import (
	"context"
	"log"

	"chromir-be/internal/config"
	"chromir-be/internal/controller"
	"chromir-be/internal/handler"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/pkg/mailer"
	"chromir-be/internal/pkg/serverutils"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/internal/service"
	"chromir-be/internal/websocket"
	"chromir-be/pkg/events"
	"chromir-be/pkg/fal"
	pktNats "chromir-be/pkg/nats"
	"chromir-be/pkg/session"
	"chromir-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const modelReadyDurable = "model-ready-mailer"

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	TokenController controller.ITokenController
	ModelController controller.IModelController
	ImageController controller.IImageController

	// Realtime progress
	ProgressHandler  *handler.ProgressHandler
	ProgressConsumer service.IProgressConsumer
	WebSocketHub     *websocket.Hub

	ModelReadyService service.IModelReadyService

	Logger logger.ILogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
	pubSub  *gochannel.GoChannel
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Sessions and progress stay local to this instance", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func newObjectStore(cfg config.StorageConfig, baseURL string) storage.ObjectStore {
	if cfg.AccessKey == "" {
		log.Printf("[WARN] STORAGE_ACCESS_KEY not set, using in-memory object store")
		return storage.NewMemoryStore(baseURL + "/objects")
	}
	store, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object storage: %v", err)
	}
	return store
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// A nil *Publisher must not become a non-nil Sink.
	var sink events.Sink
	if natsPub != nil {
		sink = natsPub
	}
	eventPublisher := events.NewPublisher(sink, sysLogger)

	rdb := connectRedis(cfg.App.RedisURL)
	issuer := session.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	denylist := session.NewDenylist(rdb)
	notifier := session.NewNotifier(rdb)

	store := newObjectStore(cfg.Storage, cfg.App.BaseURL)

	falLogger := logger.NewIsolatedLogger("logs/fal.log")
	falClient := fal.NewClient(fal.Config{
		Key:          cfg.Fal.Key,
		QueueURL:     cfg.Fal.QueueURL,
		PollInterval: cfg.Fal.PollInterval,
	}, falLogger)

	// 3. Progress bus: flows publish, the consumer fans out to sockets.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	progressService := service.NewProgressService(pubSub, cfg.App.ProgressTopic, sysLogger)
	progressConsumer := service.NewProgressConsumer(pubSub, cfg.App.ProgressTopic, wsHub, wsLogger)

	// 4. Services
	ledgerService := service.NewLedgerService(uowFactory, cfg.Ledger, eventPublisher)
	jobAdapter := service.NewJobAdapter(falClient, cfg.Fal, sysLogger)

	authService := service.NewAuthService(uowFactory, issuer, denylist, notifier, emailService, eventPublisher, cfg.Ledger, sysLogger)
	modelService := service.NewModelService(uowFactory)
	flowService := service.NewModelFlowService(uowFactory, ledgerService, jobAdapter, store, cfg.Storage, progressService, eventPublisher, sysLogger)
	inferenceService := service.NewInferenceService(uowFactory, ledgerService, jobAdapter, progressService, eventPublisher, sysLogger)
	purchaseService := service.NewPurchaseService(uowFactory, ledgerService, service.NewSnapClient(cfg.Payment), cfg.Payment, eventPublisher, sysLogger)
	modelReadyService := service.NewModelReadyService(uowFactory, emailService, sysLogger)

	// 5. Controllers
	jwt := serverutils.NewJwtMiddleware(issuer, denylist)

	return &Container{
		AuthController:  controller.NewAuthController(authService, jwt),
		TokenController: controller.NewTokenController(ledgerService, purchaseService, jwt),
		ModelController: controller.NewModelController(modelService, flowService, jwt),
		ImageController: controller.NewImageController(inferenceService, jwt),

		ProgressHandler:  handler.NewProgressHandler(wsHub, issuer, denylist, notifier, wsLogger),
		ProgressConsumer: progressConsumer,
		WebSocketHub:     wsHub,

		ModelReadyService: modelReadyService,
		Logger:            sysLogger,

		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
		pubSub:  pubSub,
	}
}

// Start runs the background workers until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ProgressConsumer.Consume(ctx); err != nil {
		return err
	}

	if c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, events.TypeModelCreated, modelReadyDurable, c.ModelReadyService.HandleModelCreated); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Model ready mails disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.pubSub.Close()
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
