package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/careerforge/identity-service/internal/config"
	"github.com/careerforge/identity-service/internal/handler"
	"github.com/careerforge/identity-service/internal/repository"
	"github.com/careerforge/identity-service/internal/service"
	"github.com/careerforge/identity-service/internal/utils"
	"github.com/careerforge/identity-service/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra        Infrastructure
	config       *config.Config
	router       *gin.Engine
	server       *http.Server
	stateCleaner *service.StateCleaner
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	sessionService, err := service.NewSessionService(
		repos.User,
		repos.Organization,
		repos.Membership,
		repos.Session,
		utils.DefaultArgon2Params,
		cfg.Session.TTL.Duration,
		infra.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	providerClient := service.NewProviderClient(cfg.OAuth, infra.Logger())

	accountLinker := service.NewAccountLinker(
		repos.ExternalAccount,
		repos.OAuthState,
		providerClient,
		cfg.OAuth.StateTTL.Duration,
		infra.Logger(),
	)

	tokenRefresher := service.NewTokenRefresher(
		repos.ExternalAccount,
		providerClient,
		cfg.OAuth.RefreshSkew.Duration,
		infra.Logger(),
	)

	stateCleaner := service.NewStateCleaner(repos.OAuthState, cfg.OAuth.CleanupInterval.Duration, infra.Logger())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authHandler := handler.NewAuthHandler(sessionService, cfg.Session)
	oauthHandler := handler.NewOAuthHandler(accountLinker)

	router := gin.Default()
	router.Use(otelgin.Middleware("identity-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, oauthHandler, sessionService, tokenRefresher, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:        infra,
		config:       cfg,
		router:       router,
		server:       srv,
		stateCleaner: stateCleaner,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	oauthHandler *handler.OAuthHandler,
	sessionService service.SessionService,
	tokenSource service.TokenSource,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	requireSession := handler.RequireSession(sessionService, cfg.Session.CookieName)
	requireConnection := handler.RequireConnection(tokenSource)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey),
				authHandler.Signup,
			)
			auth.POST("/login",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey),
				authHandler.Login,
			)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireSession, authHandler.GetMe)
		}

		api.POST("/orgs", requireSession, authHandler.CreateOrganization)

		provider := api.Group("/provider")
		{
			provider.POST("/connect", requireSession, oauthHandler.Connect)
			// The provider redirects the browser here; there is no session
			// requirement, the state nonce is the proof of initiation
			provider.GET("/callback", oauthHandler.Callback)
			provider.GET("/status", requireSession, oauthHandler.Status)
			provider.DELETE("/connection", requireSession, oauthHandler.Disconnect)
			provider.GET("/token", requireSession, requireConnection, oauthHandler.Token)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	cleanerCtx, stopCleaner := context.WithCancel(ctx)
	defer stopCleaner()
	go a.stateCleaner.Run(cleanerCtx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
