package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solemart/solemart/internal/cache"
	"github.com/solemart/solemart/internal/config"
	"github.com/solemart/solemart/internal/db"
	"github.com/solemart/solemart/internal/gateway"
	"github.com/solemart/solemart/internal/logging"
	"github.com/solemart/solemart/internal/services"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP request handlers for the storefront API.
type Handlers struct {
	config        *config.Config
	db            *pgxpool.Pool
	store         *db.Store
	cacheProvider cache.Provider
	gatewayClient *gateway.Client
	checkout      *services.CheckoutService
	settlement    *services.SettlementService
	retry         *services.RetryService
	logger        *slog.Logger
}

type Dependencies struct {
	Config        *config.Config
	DB            *pgxpool.Pool
	Store         *db.Store
	CacheProvider cache.Provider
	GatewayClient *gateway.Client
	Checkout      *services.CheckoutService
	Settlement    *services.SettlementService
	Retry         *services.RetryService
	Logger        *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("handlers dependencies: store is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.GatewayClient == nil {
		return nil, fmt.Errorf("handlers dependencies: gatewayClient is required")
	}
	if deps.Checkout == nil {
		return nil, fmt.Errorf("handlers dependencies: checkout service is required")
	}
	if deps.Settlement == nil {
		return nil, fmt.Errorf("handlers dependencies: settlement service is required")
	}
	if deps.Retry == nil {
		return nil, fmt.Errorf("handlers dependencies: retry service is required")
	}

	return &Handlers{
		config:        deps.Config,
		db:            deps.DB,
		store:         deps.Store,
		cacheProvider: deps.CacheProvider,
		gatewayClient: deps.GatewayClient,
		checkout:      deps.Checkout,
		settlement:    deps.Settlement,
		retry:         deps.Retry,
		logger:        logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
