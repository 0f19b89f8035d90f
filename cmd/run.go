package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wagerly/config"
	"wagerly/database"
	"wagerly/events"
	"wagerly/httpapi"
	"wagerly/metrics"
	"wagerly/notify"
	"wagerly/repository"
	"wagerly/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting wagerly...")

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledger := service.NewWalletLedger()
	services := httpapi.Services{
		Users:    service.NewUserService(uowFactory),
		Wallets:  service.NewWalletService(uowFactory, ledger),
		Bets:     service.NewBetService(uowFactory, ledger, service.SystemClock{}, cfg.BetLocation),
		Disputes: service.NewDisputeService(uowFactory),
	}
	log.WithField("betTimezone", cfg.BetLocation.String()).Info("Services initialized successfully")

	// Metrics and notification sinks hang off the post-commit bus
	appMetrics := metrics.New()
	appMetrics.Subscribe(eventBus)

	notifiers, closers, err := buildNotifiers(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("Error closing notifier")
			}
		}
	}()
	notify.Register(eventBus, notifiers...)

	router := httpapi.NewRouter(services, httpapi.Options{
		JWTSecret:      cfg.JWTSecret,
		PaymentSecret:  cfg.PaymentSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        appMetrics,
		Health:         db.Ping,
		Context:        ctx,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      httpapi.DefaultTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	// Let in-flight notifications finish before their sinks are closed
	done := make(chan struct{})
	go func() {
		eventBus.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("Shutdown completed")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded, dropping pending notifications")
	}

	return nil
}

// buildNotifiers creates every sink that has configuration. The log sink is always on.
func buildNotifiers(ctx context.Context, cfg *config.Config) ([]notify.Notifier, []io.Closer, error) {
	notifiers := []notify.Notifier{notify.LogNotifier{}}
	var closers []io.Closer

	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discord, err := notify.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifiers = append(notifiers, discord)
	}

	if cfg.RedisURL != "" {
		redisNotifier, err := notify.NewRedisNotifier(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis notifier: %w", err)
		}
		notifiers = append(notifiers, redisNotifier)
		closers = append(closers, redisNotifier)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		notifiers = append(notifiers, kafkaNotifier)
		closers = append(closers, kafkaNotifier)
	}

	return notifiers, closers, nil
}
