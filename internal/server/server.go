package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/config"
	"github.com/farellandr/eventease/internal/handlers"
	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/middleware"
	"github.com/farellandr/eventease/internal/payment"
	"github.com/farellandr/eventease/internal/qr"
	"github.com/farellandr/eventease/internal/session"
	"github.com/farellandr/eventease/internal/ticketing"
)

// App holds everything the HTTP server and the background workers share.
type App struct {
	Config       *config.Config
	DB           *gorm.DB
	Services     *middleware.Services
	Regenerator  *qr.Regenerator
	LoginLimiter *session.RateLimiter
	BuyLimiter   *session.RateLimiter
}

// NewRenderer builds the QR renderer from configuration.
func NewRenderer(cfg *config.Config) (*qr.Renderer, error) {
	store, err := qr.NewFileStore(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	return qr.NewRenderer(store,
		qr.WithScale(cfg.QRScale),
		qr.WithTimeout(cfg.QRTimeout, cfg.StorageTimeout),
		qr.WithAttempts(cfg.QRRetryAttempts),
	), nil
}

// NewApp wires services around an open database. Redis is optional.
func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	tokens, err := identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set, rate limiting and token revocation are disabled")
	}

	return &App{
		Config: cfg,
		DB:     db,
		Services: &middleware.Services{
			Ticketing:   ticketing.NewService(db, renderer, ticketing.WithStorageTimeout(cfg.StorageTimeout)),
			Tokens:      tokens,
			Denylist:    session.NewDenylist(rdb),
			StorageRoot: cfg.StorageRoot,
		},
		Regenerator:  qr.NewRegenerator(renderer, ticketing.NewPendingTickets(db), 100),
		LoginLimiter: session.NewRateLimiter(rdb, "login", cfg.LoginRateLimit, time.Minute),
		BuyLimiter:   session.NewRateLimiter(rdb, "purchase", cfg.LoginRateLimit, time.Minute),
	}, nil
}

func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	payment.RegisterValidations(v)
	return nil
}

// Router builds the gin engine with every route mounted.
func (a *App) Router() (*gin.Engine, error) {
	if !a.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := registerValidations(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	setupRoutes(r, a)
	return r, nil
}

func setupRoutes(r *gin.Engine, a *App) {
	r.Use(middleware.DatabaseMiddleware(a.DB))
	r.Use(middleware.ServicesMiddleware(a.Services))

	r.GET("/healthz", handlers.Healthz)
	if a.Config.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Static("/media/event-images", filepath.Join(a.Config.StorageRoot, helpers.EventImageDir))

	public := r.Group("")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", middleware.RateLimit(a.LoginLimiter), handlers.Login)
		}

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}
	}

	protected := r.Group("")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.Logout)
		protected.POST("/auth/reset-password", handlers.ResetPassword)
		protected.GET("/profile", handlers.GetProfile)

		transactions := protected.Group("/transactions")
		{
			transactions.GET("/create", handlers.GetCheckout)
			transactions.POST("/create", middleware.RateLimit(a.BuyLimiter), handlers.PurchaseTicket)
		}

		tickets := protected.Group("/tickets")
		{
			tickets.POST("/buy", middleware.RateLimit(a.BuyLimiter), handlers.PurchaseTicket)
			tickets.GET("/mine", handlers.MyTickets)
			tickets.GET("/:id/qr", handlers.TicketQR)
			tickets.POST("/:id/delete", handlers.DeleteTicket)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.POST("/:id/read", handlers.MarkNotificationRead)
		}
	}

	organizer := r.Group("")
	organizer.Use(
		middleware.JWTAuthMiddleware(),
		middleware.RequirePolicy(identity.CanPublishEvents, "Only approved organizers can manage events."),
	)
	{
		organizer.GET("/organizer/events", handlers.ListMyEvents)
		organizer.POST("/events", handlers.CreateEvent)
		organizer.PUT("/events/:id", handlers.UpdateEvent)
		organizer.DELETE("/events/:id", handlers.DeleteEvent)
		organizer.POST("/events/:id/images", handlers.UploadEventImages)
		organizer.GET("/events/:id/guests", handlers.ListGuests)
		organizer.POST("/events/:id/guests", handlers.AddGuest)
		organizer.DELETE("/events/:id/guests/:guestId", handlers.RemoveGuest)
		organizer.POST("/tickets/validate", handlers.ValidateTicket)
	}

	admin := r.Group("/admin")
	admin.Use(
		middleware.JWTAuthMiddleware(),
		middleware.RequirePolicy(identity.CanAdminister, "Admin access required."),
	)
	{
		admin.GET("/organizers/pending", handlers.PendingOrganizers)
		admin.POST("/organizers/:id/approve", handlers.ApproveOrganizer)
		admin.GET("/users", handlers.ListUsers)
		admin.PUT("/users/:id", handlers.UpdateUser)
		admin.DELETE("/users/:id", handlers.DeleteUser)
		admin.POST("/users/:id/reset-password", handlers.AdminResetPassword)
	}
}

// Start serves HTTP and runs the QR regenerator until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	r, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.Regenerator.Run(ctx, a.Config.QRRegenInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
