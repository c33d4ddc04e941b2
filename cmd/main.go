package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powerband/internal/driver"
	"powerband/internal/handlers"
	"powerband/internal/logger"
	"powerband/internal/pricefeed"
	"powerband/internal/repository"
	"powerband/internal/repository/db"
	"powerband/internal/server"
	"powerband/internal/service"

	"github.com/spf13/viper"
)

const defaultTelemetryTick = 60 * time.Second

func main() {
	// load config.yml first so the log level is configurable
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(database)
	feed := pricefeed.NewClient(pricefeed.Config{
		BaseURL: viper.GetString("feed.base_url"),
		Product: viper.GetString("feed.product"),
		Tariff:  viper.GetString("feed.tariff"),
		Timeout: viper.GetDuration("feed.timeout"),
	})
	services := service.NewService(repos, feed, driver.NewFactory(), engineConfig(), log)
	apiHandler := handlers.NewHandler(services, log)

	// seed the default band table on a fresh database
	seedBands(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start evaluation loop and telemetry poller
	go services.Engine.Run(ctx)
	go services.Telemetry.Run(ctx, telemetryTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func engineConfig() service.EngineConfig {
	return service.EngineConfig{
		SlotDuration:          time.Duration(viper.GetInt("engine.slot_minutes")) * time.Minute,
		PricePoll:             viper.GetDuration("engine.price_poll"),
		SuddenChangeThreshold: viper.GetFloat64("engine.sudden_change_threshold"),
		DispatchConcurrency:   viper.GetInt("engine.dispatch_concurrency"),
		DispatchRetries:       viper.GetInt("engine.dispatch_retries"),
		DispatchTimeout:       viper.GetDuration("engine.dispatch_timeout"),
	}
}

func telemetryTick() time.Duration {
	if d := viper.GetDuration("telemetry.tick"); d > 0 {
		return d
	}
	return defaultTelemetryTick
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "powerband.db")
		dbPath = "powerband.db"
	}
	return db.InitDB(dbPath)
}

// seedBands installs the canonical default band table when none exists.
func seedBands(services *service.Service, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bands, err := services.Bands.List(ctx)
	if err != nil {
		log.Fatalw("failed to load band table", "err", err)
	}
	if len(bands) > 0 {
		return
	}
	if _, err := services.Bands.Reset(ctx); err != nil {
		log.Fatalw("failed to seed default bands", "err", err)
	}
	log.Infow("seeded default band table")
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
