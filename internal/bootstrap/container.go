package bootstrap

import (
	"context"
	"fmt"
	"log"

	"notevault/internal/config"
	"notevault/internal/controller"
	"notevault/internal/handler"
	"notevault/internal/pkg/logger"
	"notevault/internal/repository/memory"
	"notevault/internal/service"
	"notevault/internal/websocket"
	"notevault/pkg/identity"
	"notevault/pkg/ledger/rpc"

	pktNats "notevault/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	VaultController controller.IVaultController
	EventHandler    *handler.EventHandler

	// Background services, started by main
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger
	Owner  identity.PublicKey

	natsPub *pktNats.Publisher
	rdb     *redis.Client
	pubSub  *gochannel.GoChannel
}

// NewContainer wires the presentation side for the identity stored in
// cfg.Ledger.KeypairPath. NATS and Redis are optional; an empty URL or a
// failed connection only disables the mirror.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	signer, err := identity.LoadKeypairFile(cfg.Ledger.KeypairPath)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	program, err := identity.PublicKeyFromBase58(cfg.Ledger.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}

	auth := cfg.Auth
	if auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		auth.JWTSecret = uuid.NewString()
		sysLogger.Warn("Bootstrap", "JWT_SECRET not set, using a random per-process secret", nil)
	}

	gateway := rpc.NewClient(cfg.Ledger.Endpoint, program, signer,
		rpc.WithSubmitTimeout(cfg.Ledger.SubmitTimeout),
		rpc.WithQueryTimeout(cfg.Ledger.QueryTimeout),
		rpc.WithLogger(sysLogger),
	)
	sysLogger.Info("Bootstrap", "Ledger gateway ready", map[string]interface{}{
		"endpoint": cfg.Ledger.Endpoint,
		"program":  gateway.Program().String(),
		"owner":    signer.PublicKey().String(),
	})

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	wsLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	sessionRepo := memory.NewSessionRepository(cfg.App.SessionIdleTimeout)

	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.EventTopic, wsHub, sysLogger)
	vaultService := service.NewVaultService(program, gateway, publisherService, natsPub, sysLogger)

	return &Container{
		VaultController: controller.NewVaultController(vaultService, sessionRepo, signer.PublicKey(), auth),
		EventHandler:    handler.NewEventHandler(wsHub, sessionRepo, auth.JWTSecret, wsLogger),
		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
		Logger:          sysLogger,
		Owner:           signer.PublicKey(),
		natsPub:         natsPub,
		rdb:             rdb,
		pubSub:          pubSub,
	}, nil
}

func (c *Container) Close() {
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.pubSub.Close()
	_ = c.Logger.Sync()
}
