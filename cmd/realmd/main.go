package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openmmo/realmd/internal/accountsvc"
	"github.com/openmmo/realmd/internal/ai"
	"github.com/openmmo/realmd/internal/config"
	"github.com/openmmo/realmd/internal/conn"
	"github.com/openmmo/realmd/internal/health"
	"github.com/openmmo/realmd/internal/persist"
	"github.com/openmmo/realmd/internal/session"
	"github.com/openmmo/realmd/internal/telemetry"
	"github.com/openmmo/realmd/internal/tick"
	"github.com/openmmo/realmd/internal/world"
	"github.com/openmmo/realmd/internal/worlddata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	cancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	log.Info("connected to database")

	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = persist.RunMigrations(migCtx, db.Pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	accountRepo := persist.NewAccountRepo(db)
	characterRepo := persist.NewCharacterRepo(db)
	accounts := accountsvc.New(accountRepo, characterRepo, log)

	worldContentPath := os.Getenv("REALMD_WORLD_FILE")
	table, err := worlddata.LoadOrDefault(worldContentPath)
	if err != nil {
		return fmt.Errorf("load world content: %w", err)
	}
	templates, err := worlddata.LoadTemplatesOrDefault(os.Getenv("REALMD_TEMPLATE_FILE"))
	if err != nil {
		return fmt.Errorf("load npc templates: %w", err)
	}
	worldState := worlddata.Apply(table, templates)
	log.Info("world loaded", zap.Int("zones", len(table.Zone)), zap.Int("portals", len(table.Portal)), zap.Int("spawns", len(table.Spawn)))

	sessions := session.NewRegistry()

	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)

	scriptSources, err := ai.LoadScripts(os.Getenv("REALMD_SCRIPTS_DIR"))
	if err != nil {
		return fmt.Errorf("load ai scripts: %w", err)
	}
	luaRunner, err := ai.NewLuaRunner(scriptSources)
	if err != nil {
		return fmt.Errorf("compile ai scripts: %w", err)
	}
	engine := ai.New(log, luaRunner)

	loop := tick.New(worldState, sessions, engine, cfg.Network.TickRate, log, metrics)

	deps := &conn.Deps{
		Accounts:  accounts,
		World:     worldState,
		Sessions:  sessions,
		Snapshots: loop.Snapshots(),
		Log:       log,
		Network:   cfg.Network,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", conn.ServeHTTP(ctx, deps))
	mux.HandleFunc("/health", health.Handler)
	mux.HandleFunc("/health/db", health.DBHandler(db.Pool))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:         cfg.Network.BindAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}

	go loop.Run(ctx)
	go tick.PersistenceTicker(ctx, cfg.Network.PersistInterval, func(flushCtx context.Context) {
		persistOnlineCharacters(flushCtx, worldState, sessions, accounts, log)
	}, log)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Network.BindAddress))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

// persistOnlineCharacters is the persistence cadence's flush: every
// session with a selected character has its current pose written
// back, matching the teacher's PersistenceSystem batch save but
// driven by session/world lookups instead of an ECS component
// iteration.
func persistOnlineCharacters(ctx context.Context, worldState *world.State, sessions *session.Registry, accounts *accountsvc.Service, log *zap.Logger) {
	for _, sess := range sessions.All() {
		playerID, ok := sess.AllocatePlayerID()
		if !ok || sess.CharacterID == nil {
			continue
		}

		worldState.RLock()
		pose, hasPose := worldState.GetPlayerPose(playerID)
		zoneID, _ := worldState.PlayerZoneID(playerID)
		worldState.RUnlock()
		if !hasPose {
			continue
		}

		if err := accounts.SavePose(ctx, *sess.CharacterID, zoneID, pose.X, pose.Y, pose.Z, pose.Yaw); err != nil {
			log.Warn("periodic pose save failed", zap.String("session", sess.ID), zap.Error(err))
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
