package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "salescrm/docs"
	"salescrm/internal/authz"
	"salescrm/internal/cache"
	"salescrm/internal/config"
	"salescrm/internal/events"
	"salescrm/internal/handlers"
	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/middleware"
	"salescrm/internal/realtime"
	"salescrm/internal/repositories"
	"salescrm/internal/routes"
	"salescrm/internal/services"
	"salescrm/internal/store"
	"salescrm/internal/upstream"
)

type historyStore interface {
	services.HistoryRecorder
	services.HistoryReader
}

func Run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level)
	m := metrics.New()

	// === Upstream ===
	var gateway upstream.Gateway
	if cfg.IsDemo() {
		gateway = upstream.NewDemo(upstream.DemoOptions{
			Seed:        cfg.Demo.Seed,
			Leads:       cfg.Demo.Leads,
			FailureRate: cfg.Demo.FailureRate,
			Latency:     cfg.Demo.Latency,
		})
		log.Warn("running against the in-memory demo CRM", "leads", cfg.Demo.Leads, "failure_rate", cfg.Demo.FailureRate)
	} else {
		gateway = upstream.NewClient(upstream.ClientOptions{
			BaseURL:       cfg.Upstream.BaseURL,
			Token:         cfg.Upstream.Token,
			Timeout:       cfg.Upstream.Timeout,
			RatePerSecond: cfg.Upstream.RatePerSecond,
			Burst:         cfg.Upstream.Burst,
		})
	}

	// === Stage history ===
	var history historyStore = repositories.NewMemoryStageHistory()
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close database", "error", err)
			}
		}()
		repo, err := repositories.NewStageHistoryRepository(db)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.Migrate(ctx)
		cancel()
		if err != nil {
			return err
		}
		history = repo
	}

	// === Roster cache ===
	var rosterStore services.RosterStore
	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		rosterStore = cache.NewRosterCache(client, cfg.Redis.RosterTTL)
	}

	// === Core ===
	leadCache := store.NewLeadCache()
	leadService := services.NewLeadService(leadCache, history)
	hub := realtime.NewBoardHub(leadService, log, m)
	publishers := services.Publishers{hub}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// === Event relay ===
	if cfg.Events.AMQPURL != "" {
		mq, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return err
		}
		defer mq.Close()
		relay := events.NewRelay(mq.Ch, cfg.Events.Exchange, log)
		go relay.Run(hubCtx)
		publishers = append(publishers, relay)
	}

	coord := services.NewCoordinator(leadCache, gateway, services.CoordinatorOptions{
		Timeout:   cfg.Pipeline.MutationTimeout,
		Logger:    log,
		Metrics:   m,
		History:   history,
		Publisher: publishers,
	})
	rosters := services.NewRosterService(gateway, rosterStore, log, m)
	syncService := services.NewSyncService(gateway, coord, services.SyncOptions{
		PageLimit: cfg.Upstream.PageLimit,
		Timeout:   cfg.Pipeline.SyncTimeout,
		Logger:    log,
		Metrics:   m,
		Rosters:   rosters,
	})

	if _, err := syncService.Refresh(context.Background()); err != nil {
		// the scheduler retries; serving an empty board beats not starting
		log.Error("initial lead sync failed", "error", err)
	}
	if err := syncService.Start(cfg.Pipeline.SyncSchedule); err != nil {
		return err
	}

	// === Handlers ===
	boardHandler := handlers.NewBoardHandler(leadService, coord, hub, log)
	leadHandler := handlers.NewLeadHandler(leadService)
	syncHandler := handlers.NewSyncHandler(syncService, leadCache, coord)

	// === Gin ===
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics(m))
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	routes.SetupRoutes(router,
		routes.Auth{Secret: []byte(cfg.Auth.JWTSecret), Viewers: rosters, Log: log},
		boardHandler,
		leadHandler,
		syncHandler,
	)

	if cfg.IsDemo() && cfg.Log.Level == "debug" {
		logDemoTokens(log, []byte(cfg.Auth.JWTSecret))
	}

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.MutationTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := syncService.Stop(ctx); err != nil {
		log.Error("sync scheduler did not stop", "error", err)
	}
	// open drags finish reconciling before the process exits
	if err := coord.Close(ctx); err != nil {
		log.Error("stage changes still in flight at exit", "lead_ids", coord.InFlight(), "error", err)
	}
	stopHub()
	return nil
}

// logDemoTokens prints one token per demo user so the board can be tried without an identity
// provider. They are long-lived admin credentials, so they only show at debug level.
func logDemoTokens(log logger.Logger, secret []byte) {
	demoUsers := []struct {
		id   int
		role authz.Role
	}{
		{1, authz.RoleAdmin}, {2, authz.RoleCEO}, {3, authz.RoleLeader}, {5, authz.RoleSale},
	}
	for _, u := range demoUsers {
		tok, err := middleware.IssueToken(secret, u.id, u.role, 24*time.Hour)
		if err != nil {
			log.Error("failed to issue demo token", "user_id", u.id, "error", err)
			continue
		}
		log.Debug("demo token", "user_id", u.id, "role", u.role, "token", tok)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
