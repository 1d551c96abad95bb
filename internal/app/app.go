package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ghexplorer/internal/bot"
	"ghexplorer/internal/config"
	"ghexplorer/internal/github"
	"ghexplorer/internal/loading"
	"ghexplorer/internal/storage"
	"ghexplorer/internal/storage/ch"
	"ghexplorer/internal/storage/stubs"
	"ghexplorer/internal/view"
	"ghexplorer/internal/viewstate"
)

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger
	db     storage.Storage
	store  viewstate.Store
	bot    *bot.Bot
	server *http.Server

	// ctx is cancelled on shutdown; every update handler runs under it
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{config: cfg, logger: logger, ctx: ctx, cancel: cancel}

	logger.Info("Starting GitHub Explorer Bot...")

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, err
	}

	if err := app.initBot(); err != nil {
		cancel()
		return nil, err
	}

	app.initHTTPServer()

	return app, nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initDatabase initializes the activity journal
func (a *App) initDatabase() error {
	var db storage.Storage
	if a.config.UseMockDB {
		a.logger.Info("Using mock database")
		db = stubs.NewMockDB()
	} else {
		a.logger.Info("Connecting to ClickHouse",
			zap.String("host", a.config.ClickHouseHost),
			zap.Int("port", a.config.ClickHousePort),
			zap.String("database", a.config.ClickHouseDatabase),
			zap.String("user", a.config.ClickHouseUser),
			zap.Bool("tls", a.config.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			a.config.ClickHouseHost,
			a.config.ClickHousePort,
			a.config.ClickHouseDatabase,
			a.config.ClickHouseUser,
			a.config.ClickHousePassword,
			a.config.ClickHouseUseTLS,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	}

	if err := db.Initialize(a.ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initBot wires the GitHub client, view controller and Telegram bot
func (a *App) initBot() error {
	api, err := bot.NewBotAPI(a.config.TelegramToken, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	gh := github.NewClient(github.Config{
		Token:         a.config.GitHubToken,
		Timeout:       a.config.GitHubTimeout,
		MaxRetries:    a.config.GitHubMaxRetries,
		RatePerSecond: a.config.GitHubRatePerSecond,
	}, a.logger.Named("github"))
	if a.config.GitHubToken == "" {
		a.logger.Warn("GITHUB_TOKEN not set, GitHub allows only 60 requests per hour")
	}

	a.store = viewstate.NewMemoryStore(a.config.StateMaxConvs, a.config.StateTTL)
	loader := loading.NewController(a.logger.Named("loading"), a.config.AnimationStyle, a.config.AnimationCadence)
	platform := bot.NewPlatform(api, a.logger.Named("telegram"))
	views := view.NewController(gh, a.store, loader, platform, a.db, a.logger.Named("view"), view.Options{
		PageSize:      a.config.PageSize,
		AdminUsername: a.config.AdminGitHubUsername,
	})

	a.bot = bot.NewBot(api, platform, views, a.db, a.config.AllowedUserIDs, a.logger)
	if len(a.config.AllowedUserIDs) == 0 {
		a.logger.Info("Bot created, open to all users")
	} else {
		a.logger.Info("Bot created", zap.Int64s("allowed_users", a.config.AllowedUserIDs))
	}
	return nil
}

// initHTTPServer initializes the HTTP server for health checks, metrics,
// the admin API and the webhook
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		mode := "polling"
		if a.config.WebhookMode {
			mode = "webhook"
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "GitHub Explorer Bot is running (mode: %s)", mode)
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Webhook endpoint (only used in webhook mode)
	mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.logger.Warn("Error decoding webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Respond quickly; the update is handled in the background
		a.bot.Dispatch(a.ctx, update)
		w.WriteHeader(http.StatusOK)
	})

	bot.NewHTTPServer(a.bot, a.config.AdminAPIToken, a.config.WebhookMode).RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigCtx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.config.WebhookMode {
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured. Bot will receive updates via HTTP endpoint /telegram-webhook")
	} else {
		go func() {
			if err := a.bot.Start(sigCtx); err != nil {
				a.logger.Error("Polling stopped", zap.Error(err))
				stop()
			}
		}()
	}

	<-sigCtx.Done()

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// Stop in-flight actions; their loading animations end with them
	a.cancel()
	a.bot.Wait()

	if err := a.store.Close(); err != nil {
		a.logger.Warn("Error closing view state store", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
