package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-tracker/api"
	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/budget"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/dashboard"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/receipt"
	"github.com/frahmantamala/expense-tracker/internal/receipt/mock"
	"github.com/frahmantamala/expense-tracker/internal/storage"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	"github.com/frahmantamala/expense-tracker/internal/user"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

var seedDemoData bool

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&seedDemoData, "demo", false, "seed a demo account with budgets and expenses on start")
}

type Dependencies struct {
	Config   *internal.Config
	Storage  storage.Repository
	Close    func() error
	Bus      *events.EventBus
	Services *Services
	Router   *chi.Mux
	Logger   *slog.Logger
}

type Services struct {
	Auth      *auth.Service
	User      *user.Service
	Category  *category.Service
	Expense   *expense.Service
	Budget    *budget.Service
	Dashboard *dashboard.Service
	Receipt   *receipt.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if seedDemoData {
		if err := seedDemo(context.Background(), deps.Services, deps.Logger); err != nil {
			deps.Logger.Error("demo seed failed", "error", err)
		}
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "storage", deps.Config.Storage.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server error", "error", err)
		}
	}

	// let in-flight budget checks finish before the store goes away
	deps.Bus.Wait()
	if err := deps.Close(); err != nil {
		deps.Logger.Error("Storage close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies(path string) (*Dependencies, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	store, closeStore, err := openStorage(cfg.Storage, lg)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(lg)
	budget.NewAlerter(store, store, lg).Register(bus)

	return &Dependencies{
		Config:   cfg,
		Storage:  store,
		Close:    closeStore,
		Bus:      bus,
		Services: newServices(cfg, store, bus, lg),
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

func newServices(cfg *internal.Config, store storage.Repository, bus *events.EventBus, lg *slog.Logger) *Services {
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)

	return &Services{
		Auth:      auth.NewService(store, tokenGen, cfg.Security.BCryptCost),
		User:      user.NewService(store),
		Category:  category.NewService(store, lg),
		Expense:   expense.NewService(store, store, bus, lg),
		Budget:    budget.NewService(store, lg),
		Dashboard: dashboard.NewService(store, lg),
		Receipt: receipt.NewService(store,
			mock.NewUploadExtractor(),
			mock.NewHeuristicExtractor(store),
			lg,
			receipt.WithTimeout(cfg.OCR.ExtractTimeout),
		),
	}
}

func setupRoutes(deps *Dependencies) error {
	svc := deps.Services
	lg := deps.Logger

	handlers := rest.Handlers{
		Auth:      auth.NewHandler(svc.Auth, lg),
		User:      user.NewHandler(svc.User, lg),
		Category:  category.NewHandler(transport.NewBaseHandler(lg), svc.Category),
		Expense:   expense.NewHandler(svc.Expense, lg),
		Budget:    budget.NewHandler(svc.Budget, lg),
		Dashboard: dashboard.NewHandler(svc.Dashboard, lg),
		Receipt:   receipt.NewHandler(svc.Receipt, deps.Config.Server.MaxUploadBytes, lg),
		Health:    rest.NewHealthHandler(deps.Storage, deps.Config.Storage.Driver),
	}

	return rest.RegisterAllRoutes(deps.Router, handlers, svc.Auth, rest.Options{
		AllowedOrigins: deps.Config.Server.Origins(),
		OpenAPI:        api.OpenAPI,
		MaxBodyBytes:   deps.Config.Server.MaxUploadBytes,
	}, lg)
}
