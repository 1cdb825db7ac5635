package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/WillRy/kabanas-api/internal/config"
	s3infra "github.com/WillRy/kabanas-api/internal/infra/s3"
	"github.com/WillRy/kabanas-api/internal/jobs/cleanup"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	redrepo "github.com/WillRy/kabanas-api/internal/repo/redis"
	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	bookingssvc "github.com/WillRy/kabanas-api/internal/services/bookings"
	guestssvc "github.com/WillRy/kabanas-api/internal/services/guests"
	mediasvc "github.com/WillRy/kabanas-api/internal/services/media"
	propertiessvc "github.com/WillRy/kabanas-api/internal/services/properties"
	ratesvc "github.com/WillRy/kabanas-api/internal/services/rate"
	settingssvc "github.com/WillRy/kabanas-api/internal/services/settings"
	userssvc "github.com/WillRy/kabanas-api/internal/services/users"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	cleanupJob *cleanup.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing without image storage", zap.Error(err))
	} else {
		s3Client = c
	}

	tokenRepo := pgrepo.NewTokenRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	otpRepo := pgrepo.NewOtpRepo(pool)
	guestRepo := pgrepo.NewGuestRepo(pool)
	propertyRepo := pgrepo.NewPropertyRepo(pool)
	bookingRepo := pgrepo.NewBookingRepo(pool)
	settingRepo := pgrepo.NewSettingRepo(pool)
	rateRepo := redrepo.NewRateRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	authService := authsvc.NewService(jwtManager, tokenRepo, cfg.Auth.RefreshTTL, cfg.Auth.RefreshGrace)
	authzChecker := authz.NewChecker(userRepo)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Auth.LoginPerMinute)
	userService := userssvc.NewService(userRepo, otpRepo, userssvc.LogMailer{Logger: log}, cfg.Auth.OTPValidity)
	guestService := guestssvc.NewService(guestRepo)
	settingService := settingssvc.NewService(settingRepo, authzChecker)

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	propertyService := propertiessvc.NewService(propertyRepo, mediaStorage, authzChecker, log)

	bookingService := bookingssvc.NewService(bookingssvc.Dependencies{
		BookingStore: bookingRepo,
		Properties:   propertyRepo,
		Settings:     settingService,
		Guests:       guestService,
		Availability: propertyService,
		Authz:        authzChecker,
	})

	cleanupJob := cleanup.NewJob(authService, cfg.Cleanup.Interval, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		UserService:     userService,
		AuthzChecker:    authzChecker,
		RateLimiter:     rateLimiter,
		BookingService:  bookingService,
		PropertyService: propertyService,
		GuestService:    guestService,
		SettingService:  settingService,
		Logger:          log,
		Config:          cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		cleanupJob: cleanupJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.cleanupJob.Start(ctx)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.cleanupJob.Stop()

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
