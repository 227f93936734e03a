package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/cache"
	"github.com/CryptracSolutions/ultaura-insights/internal/crypto"
	"github.com/CryptracSolutions/ultaura-insights/internal/db"
	apphttp "github.com/CryptracSolutions/ultaura-insights/internal/http"
	httpH "github.com/CryptracSolutions/ultaura-insights/internal/http/handlers"
	httpMW "github.com/CryptracSolutions/ultaura-insights/internal/http/middleware"
	"github.com/CryptracSolutions/ultaura-insights/internal/observability"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
	"github.com/CryptracSolutions/ultaura-insights/internal/repos"
	"github.com/CryptracSolutions/ultaura-insights/internal/services"
)

type Repos struct {
	Lines       repos.LineRepo
	AccountKeys repos.AccountKeyRepo
	Insights    repos.CallInsightRepo
	Sessions    repos.CallSessionRepo
	Summaries   repos.WeeklySummaryRepo
	Baselines   repos.LineBaselineRepo
	Privacy     repos.InsightPrivacyRepo
	Prefs       repos.NotificationPreferencesRepo
}

type Services struct {
	Keyring   *crypto.Keyring
	Insights  services.InsightService
	Dashboard services.DashboardService
	Summary   services.SummaryService
	Privacy   services.PrivacyService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Cache    *cache.DashboardCache

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "ultaura-insights",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	// The root key is non-negotiable: without it no stored insight can be
	// read or written.
	keyring, err := crypto.NewKeyring(cfg.KEKHex, reposet.AccountKeys, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init keyring: %w", err)
	}

	dashCache, err := cache.NewDashboardCache(log)
	if err != nil {
		log.Warn("dashboard cache disabled", "error", err)
		dashCache = nil
	}

	serviceset := wireServices(theDB, log, reposet, keyring, dashCache)

	authMW, err := httpMW.NewAuthMiddleware(log, cfg.AuthJWTSecret)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init auth middleware: %w", err)
	}

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:             log,
		AuthMiddleware:  authMW,
		InsightsHandler: httpH.NewInsightsHandler(reposet.Lines, serviceset.Dashboard, serviceset.Summary),
		SettingsHandler: httpH.NewSettingsHandler(reposet.Lines, serviceset.Privacy),
		HealthHandler:   httpH.NewHealthHandler(),
		TracingEnabled:  observability.Enabled(),
		ServiceName:     "ultaura-insights",
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Server:       apphttp.NewServer(router, cfg.ListenAddr),
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Cache:        dashCache,
		otelShutdown: otelShutdown,
	}, nil
}

func wireRepos(theDB *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Lines:       repos.NewLineRepo(theDB, log),
		AccountKeys: repos.NewAccountKeyRepo(theDB, log),
		Insights:    repos.NewCallInsightRepo(theDB, log),
		Sessions:    repos.NewCallSessionRepo(theDB, log),
		Summaries:   repos.NewWeeklySummaryRepo(theDB, log),
		Baselines:   repos.NewLineBaselineRepo(theDB, log),
		Privacy:     repos.NewInsightPrivacyRepo(theDB, log),
		Prefs:       repos.NewNotificationPreferencesRepo(theDB, log),
	}
}

func wireServices(theDB *gorm.DB, log *logger.Logger, r Repos, keyring *crypto.Keyring, dashCache *cache.DashboardCache) Services {
	insightService := services.NewInsightService(theDB, log, r.Lines, r.Insights, keyring)
	return Services{
		Keyring:  keyring,
		Insights: insightService,
		Dashboard: services.NewDashboardService(
			theDB, log, r.Lines, r.Sessions, r.Baselines, r.Privacy, insightService, dashCache,
		),
		Summary: services.NewSummaryService(theDB, log, r.Lines, r.Summaries, keyring),
		Privacy: services.NewPrivacyService(theDB, log, r.Lines, r.Privacy, r.Prefs, dashCache),
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = a.Server.Shutdown(ctx)
		cancel()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
