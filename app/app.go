package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solemart/solemart/internal/cache"
	"github.com/solemart/solemart/internal/catalog"
	"github.com/solemart/solemart/internal/config"
	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/email"
	"github.com/solemart/solemart/internal/gateway"
	"github.com/solemart/solemart/internal/handlers"
	"github.com/solemart/solemart/internal/logging"
	"github.com/solemart/solemart/internal/services"
	"github.com/solemart/solemart/internal/stripe"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers

	logFile *os.File
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	closeLogFile := func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}

	storefront, err := loadStorefront(cfg.StorefrontConfigPath)
	if err != nil {
		closeLogFile()
		return nil, err
	}

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		closeLogFile()
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		closeLogFile()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	store := db.NewStore(database)
	gatewayClient := gateway.NewClient(cfg.GatewayEndpoint, cfg.GatewaySecret, cfg.BaseURL+"/payments/callback")

	initiators := map[catalog.PaymentKind]services.PaymentInitiator{
		catalog.KindRedirect: services.NewRedirectInitiator(gatewayClient),
	}
	if cfg.StripeSecretKey != "" {
		stripeClient := stripe.NewClient(cfg.StripeSecretKey, storefront.Currency)
		initiators[catalog.KindStripe] = services.NewStripeInitiator(stripeClient, store, cfg.PaymentResultURL, cfg.PaymentResultURL)
	}

	emailProvider, err := email.NewProvider(email.Config{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.EmailFrom,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	emailSender := services.NewStoreEmailSender(emailProvider, storefront.Name, storefront.Currency)

	checkoutService := services.NewCheckoutService(store, storefront, initiators, logger.With("component", "checkout_service"))
	settlementService := services.NewSettlementService(store, emailSender, logger.With("component", "settlement_service"))
	retryService := services.NewRetryService(store, storefront, initiators, logger.With("component", "retry_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:        cfg,
		DB:            database,
		Store:         store,
		CacheProvider: cacheProvider,
		GatewayClient: gatewayClient,
		Checkout:      checkoutService,
		Settlement:    settlementService,
		Retry:         retryService,
		Logger:        logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		closeLogFile()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		logFile:       logFile,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func loadStorefront(path string) (*catalog.Storefront, error) {
	storefront, err := catalog.NewParser().ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load storefront config: %w", err)
	}
	if err := catalog.NewValidator().Validate(storefront); err != nil {
		return nil, fmt.Errorf("invalid storefront config: %w", err)
	}
	return storefront, nil
}

// newLogger builds the process logger: tint or JSON on stdout by
// format, teed into a JSON file sink when one is configured. The
// returned file, if any, stays open for the process lifetime.
func newLogger(cfg *config.Config) (*slog.Logger, *os.File, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		})
	}

	if cfg.LogFile == "" {
		return slog.New(console), nil, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	handler := logging.MultiHandler(console, slog.NewJSONHandler(file, opts))
	return slog.New(handler), file, nil
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
