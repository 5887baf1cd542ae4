package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/handlers"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/auth"
	"github.com/ternarybob/serendib/internal/services/content"
	"github.com/ternarybob/serendib/internal/services/dispatch"
	"github.com/ternarybob/serendib/internal/services/events"
	"github.com/ternarybob/serendib/internal/services/mailer"
	"github.com/ternarybob/serendib/internal/services/pdf"
	"github.com/ternarybob/serendib/internal/services/scheduler"
	"github.com/ternarybob/serendib/internal/services/seo"
	"github.com/ternarybob/serendib/internal/services/sessions"
	"github.com/ternarybob/serendib/internal/services/systemlogs"
	"github.com/ternarybob/serendib/internal/services/workers"
	"github.com/ternarybob/serendib/internal/storage"
	"github.com/ternarybob/serendib/pages"
)

const (
	// adminCleanupSchedule runs the expired admin session cleanup hourly
	adminCleanupSchedule = "0 * * * *"
	// storageGCSchedule reclaims badger value log space nightly
	storageGCSchedule = "30 3 * * *"

	backgroundWorkers    = 2
	backgroundQueueSize  = 64
	backgroundJobTimeout = 30 * time.Second
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Trip planner
	Catalog    *planner.Catalog
	Dispatcher planner.Dispatcher
	Sessions   *sessions.Manager

	// Site services
	ContentService  *content.Service
	MailerService   *mailer.Service
	PDFService      *pdf.Service
	DispatchService *dispatch.Service
	AuthService     *auth.Service
	SEO             *seo.Builder
	BackgroundPool  *workers.Pool

	// HTTP handlers
	Pages          *handlers.PageRenderer
	APIHandler     *handlers.APIHandler
	PageHandler    *handlers.PageHandler
	PlannerHandler *handlers.PlannerHandler
	WSHandler      *handlers.WebSocketHandler
	InquiryHandler *handlers.InquiryHandler
	AdminHandler   *handlers.AdminHandler
	MailerHandler  *handlers.MailerHandler
	LogsHandler    *handlers.LogsHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.EventService = events.NewService(app.Logger)
	if err := events.SubscribeLoggerToAllEvents(app.EventService, app.Logger); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to subscribe logger to events")
	}
	app.SchedulerService = scheduler.NewService(app.Logger)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.SchedulerService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	app.Logger.Info().
		Int("places", app.Catalog.PlaceCount()).
		Bool("remote_dispatch", cfg.Planner.DispatchURL != "").
		Bool("admin_enabled", app.AuthService.Configured()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices wires the planner, content, mail and admin services
func (a *App) initServices() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Place catalogue, loaded once and shared read-only by every session
	a.Catalog = planner.LoadCatalog(ctx, planner.NewCatalogSource(a.Config.Catalog.Path), a.Logger)

	// 2. Content collections
	a.ContentService = content.NewService(a.StorageManager, a.EventService, a.Logger)
	a.SEO = seo.NewBuilder(a.Config.Site)

	// 3. Mail delivery. SMTP settings live in the settings store, seeded from config on first run.
	a.MailerService = mailer.NewService(a.StorageManager.Settings(), a.Logger)
	if err := a.MailerService.SeedConfig(ctx, a.Config.Mail); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to seed mail configuration")
	}
	if !a.MailerService.IsConfigured(ctx) {
		a.Logger.Warn().Msg("SMTP is not configured; inquiries will be recorded as failed until it is set in the admin area")
	}

	a.PDFService = pdf.NewService(a.Logger)
	a.DispatchService = dispatch.NewService(
		a.MailerService,
		a.PDFService,
		a.StorageManager.InquiryStorage(),
		a.EventService,
		a.Config.Site,
		a.Config.Mail,
		a.Logger,
	)
	a.BackgroundPool = workers.NewPool(backgroundWorkers, backgroundQueueSize, backgroundJobTimeout, a.Logger)
	a.BackgroundPool.Start()
	a.DispatchService.UseBackgroundPool(a.BackgroundPool)

	// 4. Planner dispatcher: in-process unless a remote endpoint is configured
	a.Dispatcher = a.DispatchService
	if url := strings.TrimSpace(a.Config.Planner.DispatchURL); url != "" {
		a.Dispatcher = dispatch.NewHTTPClient(url, a.Config.Planner.DispatchTimeoutDuration(), a.Logger)
		a.Logger.Info().Str("url", url).Msg("Planner submissions use the remote dispatch endpoint")
	}

	// 5. Planner sessions, swept by the scheduler
	a.Sessions = sessions.NewManager(a.Catalog, a.Dispatcher, a.Config.Planner.SessionTimeout(), a.EventService, a.Logger)
	if err := a.Sessions.RegisterSweeper(a.SchedulerService, a.Config.Planner.SweepSchedule); err != nil {
		return fmt.Errorf("failed to register session sweeper: %w", err)
	}

	// 6. Admin credentials provider
	authService, err := auth.NewService(a.Config.Admin, a.StorageManager.AdminSessionStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	a.AuthService = authService
	if err := a.AuthService.RegisterCleanup(a.SchedulerService, adminCleanupSchedule); err != nil {
		return fmt.Errorf("failed to register admin session cleanup: %w", err)
	}

	// 7. Storage maintenance
	if err := a.SchedulerService.RegisterJob("storage-gc", storageGCSchedule, "Reclaim database value log space", func() error {
		_, err := a.StorageManager.RunGC()
		return err
	}); err != nil {
		return fmt.Errorf("failed to register storage GC: %w", err)
	}

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() error {
	secureCookies := a.Config.IsProduction() || strings.HasPrefix(a.Config.Site.BaseURL, "https://")

	pageRenderer, err := handlers.NewPageRenderer(a.Config.Site, a.SEO, a.Logger)
	if err != nil {
		return err
	}
	a.Pages = pageRenderer

	a.APIHandler = handlers.NewAPIHandler(a.healthChecks(), a.runtimeStatus, a.Logger)
	a.PageHandler = handlers.NewPageHandler(a.ContentService, a.Sessions, a.SEO, a.Pages, pages.Static(), secureCookies, a.Logger)
	trustedProxies, err := common.ParseTrustedProxies(a.Config.Server.TrustedProxies)
	if err != nil {
		return err
	}
	clientIP := handlers.NewClientIPResolver(trustedProxies)

	a.PlannerHandler = handlers.NewPlannerHandler(a.Sessions, a.Config.Planner.DispatchTimeoutDuration(), secureCookies, clientIP, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Sessions, a.Logger)
	a.InquiryHandler = handlers.NewInquiryHandler(a.DispatchService, clientIP, a.Logger)
	a.AdminHandler = handlers.NewAdminHandler(
		a.AuthService,
		a.ContentService,
		a.StorageManager.InquiryStorage(),
		a.SchedulerService,
		a.Pages,
		secureCookies,
		a.Logger,
	)
	a.MailerHandler = handlers.NewMailerHandler(a.MailerService, a.Logger)
	a.LogsHandler = handlers.NewLogsHandler(systemlogs.NewService(common.LogDirectory(), common.LogFileName, a.Logger), a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// healthChecks probes the dependencies the site cannot serve without
func (a *App) healthChecks() map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"storage": func(ctx context.Context) error {
			_, err := a.StorageManager.Settings().Get(ctx, "health:probe")
			if errors.Is(err, interfaces.ErrKeyNotFound) {
				return nil
			}
			return err
		},
		"catalog": func(context.Context) error {
			if a.Catalog.PlaceCount() == 0 {
				return errors.New("place catalogue is empty")
			}
			return nil
		},
	}
}

// runtimeStatus reports counters for the health endpoint
func (a *App) runtimeStatus() map[string]interface{} {
	status := map[string]interface{}{
		"planner_sessions":   a.Sessions.Count(),
		"background_pending": a.BackgroundPool.Pending(),
		"background_failed":  a.BackgroundPool.Failed(),
		"safe_goroutines":    common.ActiveGoroutines(),
	}
	if a.WSHandler != nil {
		status["websocket_clients"] = a.WSHandler.ClientCount()
	}
	return status
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Sessions != nil {
		a.Sessions.Close()
		a.Logger.Info().Msg("Planner sessions closed")
	}

	if a.BackgroundPool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		if err := a.BackgroundPool.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Background jobs did not finish before shutdown")
		}
		cancel()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
