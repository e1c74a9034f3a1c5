package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/beam-cloud/satchel/pkg/admin"
	apiv1 "github.com/beam-cloud/satchel/pkg/api/v1"
	"github.com/beam-cloud/satchel/pkg/assistant"
	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/drive"
	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/summary"
	"github.com/beam-cloud/satchel/pkg/types"
)

type Gateway struct {
	Config      types.AppConfig
	RedisClient *common.RedisClient
	BackendRepo repository.BackendRepository
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group
	rootRouteGroup *echo.Group

	googleOAuth  *oauth.GoogleClient
	pendingStore oauth.PendingStore
	assistant    *assistant.Assistant
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	config := configManager.GetConfig()

	// Setup logging
	if config.PrettyLogs {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Default the OAuth redirect to the public callback route
	if config.Drive.RedirectURL == "" && config.Gateway.HTTP.ExternalURL != "" {
		config.Drive.RedirectURL = strings.TrimRight(config.Gateway.HTTP.ExternalURL, "/") +
			apiv1.HttpServerBaseRoute + "/oauth/callback"
	}

	ctx, cancel := context.WithCancel(context.Background())
	gateway := &Gateway{
		Config:      config,
		ctx:         ctx,
		cancelFunc:  cancel,
		googleOAuth: oauth.NewGoogleClient(config.Drive),
	}

	var locker assistant.UserLocker

	// Local mode: skip Redis and Postgres
	if config.IsLocalMode() {
		log.Info().Msg("running in local mode - Redis and Postgres disabled")

		gateway.BackendRepo = repository.NewMemoryBackend()
		gateway.pendingStore = oauth.NewMemoryPendingStore(config.Drive.PendingAuthTTL)
		locker = assistant.NewMemoryUserLocker()
	} else {
		// Remote mode: Redis is required, Postgres optional
		redisClient, err := common.NewRedisClient(config.Database.Redis, common.WithClientName("SatchelGateway"))
		if err != nil {
			cancel()
			return nil, err
		}
		gateway.RedisClient = redisClient
		gateway.pendingStore = oauth.NewRedisPendingStore(redisClient, config.Drive.PendingAuthTTL)
		locker = assistant.NewRedisUserLocker(redisClient)

		if config.Database.Postgres.Host != "" {
			backendRepo, err := repository.NewPostgresBackend(config.Database.Postgres)
			if err != nil {
				cancel()
				return nil, fmt.Errorf("failed to connect to postgres: %w", err)
			}
			gateway.BackendRepo = backendRepo

			if err := gateway.runMigrations(backendRepo); err != nil {
				log.Warn().Err(err).Msg("failed to run postgres migrations")
			}
		} else {
			log.Warn().Msg("postgres not configured - connections will not survive restarts")
			gateway.BackendRepo = repository.NewMemoryBackend()
		}
	}

	// Assemble the assistant core
	driveClient := drive.NewClient()
	executor := assistant.NewDriveExecutor(
		driveClient,
		drive.NewPathResolver(driveClient),
		summary.NewSummarizer(config.Summary),
		apiv1.NewMediaFetcher(config.Transport),
	)
	credentials := assistant.NewCredentialManager(gateway.BackendRepo, gateway.googleOAuth)
	gateway.assistant = assistant.New(gateway.googleOAuth, gateway.pendingStore, credentials, executor, locker)

	return gateway, nil
}

// runMigrations applies pending schema changes under a cluster-wide lock so
// concurrent replicas don't race each other on startup.
func (g *Gateway) runMigrations(backendRepo *repository.PostgresBackend) error {
	release, err := g.initLock("migrations")
	if err != nil {
		return err
	}
	defer release()

	return backendRepo.RunMigrations()
}

func (g *Gateway) initLock(name string) (func(), error) {
	// Skip locking in local mode (no Redis)
	if g.RedisClient == nil {
		return func() {}, nil
	}

	lockKey := common.Keys.GatewayInitLock(name)
	lock := common.NewRedisLock(g.RedisClient)

	if err := lock.Acquire(g.ctx, lockKey, common.RedisLockOptions{TtlS: 10, Retries: 1}); err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(lockKey); err != nil {
			log.Error().Str("lock_key", lockKey).Err(err).Msg("failed to release init lock")
		}
	}, nil
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	// Configure logging middleware
	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)
	g.rootRouteGroup = e.Group(apiv1.HttpServerRootRoute)

	return nil
}

func (g *Gateway) registerServices() error {
	// Health check works without Redis in local mode
	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.RedisClient, g.BackendRepo)

	// Inbound message webhook; behind webhook tokens when a durable backend
	// exists, otherwise behind the gateway token alone
	var tokens repository.WebhookTokenRepository
	if !g.Config.IsLocalMode() && g.Config.Database.Postgres.Host != "" {
		tokens = g.BackendRepo
	}
	messagesGroup := g.baseRouteGroup.Group("/messages")
	messagesGroup.Use(apiv1.NewWebhookAuthMiddleware(apiv1.WebhookAuthConfig{
		AuthToken: g.Config.Gateway.AuthToken,
		Tokens:    tokens,
	}))
	apiv1.NewMessagesGroup(messagesGroup, g.assistant, g.Config.Transport)

	// OAuth callback completing the SETUP flow
	if g.googleOAuth.IsConfigured() {
		apiv1.NewOAuthGroup(g.baseRouteGroup.Group("/oauth"), g.assistant)
		log.Info().Msg("oauth callback registered at /api/v1/oauth/callback")
	} else {
		log.Warn().Msg("drive oauth not configured - SETUP is disabled")
	}

	// Register admin console if enabled
	if g.Config.Admin.Enabled {
		admin.NewService(g.Config.Admin, g.Config.Gateway.AuthToken, g.BackendRepo, g.pendingStore).RegisterRoutes(g.echo)
		log.Info().Msg("admin console registered at /admin")
	}

	return nil
}

// StartAsync starts the gateway server without blocking.
// Use this when embedding the gateway in another process (e.g., CLI).
func (g *Gateway) StartAsync() error {
	err := g.initHTTP()
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	err = g.registerServices()
	if err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	// Start HTTP server
	go func() {
		addr := fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Msg("failed to listen on http")
			return
		}

		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Str("mode", g.Config.Mode).
		Msg("gateway http server running")

	return nil
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

// shutdown gracefully shuts down the gateway
func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Gateway.ShutdownTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Stop HTTP server
	eg.Go(func() error {
		return g.httpServer.Shutdown(ctx)
	})

	// Stop pending-authorization cleanup
	if g.pendingStore != nil {
		eg.Go(func() error {
			g.pendingStore.Stop()
			return nil
		})
	}

	// Close the backend store
	if g.BackendRepo != nil {
		eg.Go(func() error {
			return g.BackendRepo.Close()
		})
	}

	g.cancelFunc()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	log.Info().Msg("gateway stopped")
}
