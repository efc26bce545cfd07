package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	osuser "os/user"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/broadcast"
	"github.com/lexilens/lexilens-go/internal/config"
	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/handler"
	"github.com/lexilens/lexilens-go/internal/localcache"
	"github.com/lexilens/lexilens-go/internal/middleware"
	"github.com/lexilens/lexilens-go/internal/router"
	"github.com/lexilens/lexilens-go/internal/store"
	"github.com/lexilens/lexilens-go/internal/ws"
	"github.com/lexilens/lexilens-go/pkg/hash"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "lexilens-sync")
	log := middleware.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Remote document store
	var remote docstore.Store
	var pool *pgxpool.Pool
	switch cfg.RemoteBackend {
	case "postgres":
		var err error
		pool, err = docstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer pool.Close()

		pg := docstore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
		remote = pg
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("aws configuration failed")
		}
		remote = docstore.NewDynamo(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
	case "memory":
		log.Warn().Msg("using in-memory document store, data will not survive restarts")
		remote = docstore.NewMemory()
	default:
		log.Fatal().Str("backend", cfg.RemoteBackend).Msg("unknown REMOTE_BACKEND")
	}

	handler.InitMetrics(pool)

	// Local snapshot cache
	var cache *localcache.Cache
	if cfg.EnableLocalCache {
		var err error
		cache, err = localcache.Open(cfg.CachePath, cfg.CachePrefix, log)
		if err != nil {
			log.Warn().Err(err).Msg("local cache unavailable, continuing without")
			cfg.EnableLocalCache = false
		} else {
			defer cache.Close()
		}
	}

	// Cross-instance broadcast, scoped to the machine user so two people
	// sharing a Redis don't see each other's events. Left nil when the
	// feature is off so the readiness check reports it disabled.
	var transport *broadcast.Redis
	if cfg.EnableBroadcast {
		channel := cfg.BroadcastChannel
		if u, err := osuser.Current(); err == nil {
			channel = hash.UserChannel(cfg.BroadcastChannel, u.Username)
		}
		transport = broadcast.NewRedis(cfg.RedisURL, channel, log)
	}

	session := auth.NewSession()
	verifier := auth.NewVerifier(cfg.JWTSecret)

	st := store.New(store.Options{
		Remote:           remote,
		Cache:            cache,
		Session:          session,
		Transport:        transport,
		EnableLocalCache: cfg.EnableLocalCache,
		EnableBroadcast:  cfg.EnableBroadcast,
		PingInterval:     cfg.PingInterval,
		Logger:           log,
	})
	if err := st.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("store initialization failed")
	}
	defer st.Shutdown()

	handler.ObserveEvents(st.Bus())

	// Websocket feed on its own listener: the fasthttp stack serving the
	// REST API cannot hand the connection to gorilla/websocket.
	hub := ws.NewHub(log)
	hub.Attach(st.Bus())
	defer hub.Close()

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", hub.Serve())
	wsServer := &http.Server{
		Addr:              "localhost:" + cfg.WSPort,
		Handler:           wsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", wsServer.Addr).Msg("websocket feed listening")
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("websocket listener failed")
		}
	}()

	// Periodic resync worker
	worker := store.NewResyncWorker(st, cfg.ResyncInterval, log)
	go worker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "LexiLens Sync",
		ServerHeader: "LexiLens",
	})
	router.Setup(app, &router.Handlers{
		Notes:     handler.NewNotesHandler(st),
		Chats:     handler.NewChatsHandler(st),
		Words:     handler.NewWordsHandler(st),
		Wordlists: handler.NewWordlistsHandler(st),
		User:      handler.NewUserHandler(st),
		Sync:      handler.NewSyncHandler(st),
		Auth:      handler.NewAuthHandler(session, verifier, st),
		Health:    handler.NewHealthHandler(remote, transport, st, hub),
	}, verifier, cfg.CORSOrigins)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("api listening")
		if err := app.Listen("localhost:" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("api listener failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("websocket shutdown failed")
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api shutdown failed")
	}
}
