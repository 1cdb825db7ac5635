package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/WillRy/kabanas-api/internal/config"
	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	bookingssvc "github.com/WillRy/kabanas-api/internal/services/bookings"
	guestssvc "github.com/WillRy/kabanas-api/internal/services/guests"
	propertiessvc "github.com/WillRy/kabanas-api/internal/services/properties"
	ratesvc "github.com/WillRy/kabanas-api/internal/services/rate"
	settingssvc "github.com/WillRy/kabanas-api/internal/services/settings"
	userssvc "github.com/WillRy/kabanas-api/internal/services/users"
	"github.com/WillRy/kabanas-api/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	UserService     *userssvc.Service
	AuthzChecker    *authz.Checker
	RateLimiter     *ratesvc.Limiter
	BookingService  *bookingssvc.Service
	PropertyService *propertiessvc.Service
	GuestService    *guestssvc.Service
	SettingService  *settingssvc.Service
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.UserService, deps.AuthzChecker, deps.RateLimiter, deps.Logger, handlers.AuthHandlerConfig{
		RefreshTTL:   deps.Config.Auth.RefreshTTL,
		CookieSecure: deps.Config.Auth.CookieSecure,
	})
	userHandler := handlers.NewUserHandler(deps.UserService, deps.AuthzChecker, deps.Logger)
	bookingHandler := handlers.NewBookingHandler(deps.BookingService, deps.Logger)
	propertyHandler := handlers.NewPropertyHandler(deps.PropertyService, deps.Logger)
	guestHandler := handlers.NewGuestHandler(deps.GuestService, deps.Logger)
	settingHandler := handlers.NewSettingHandler(deps.SettingService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/start-password-reset", authHandler.StartPasswordReset)
		r.Post("/password-reset", authHandler.PasswordReset)
	})

	// Logout accepts any verb and never fails.
	r.Handle("/logout", http.HandlerFunc(authHandler.Logout))

	r.With(authMW).Get("/user", userHandler.Me)
	r.With(authMW).Post("/profile", userHandler.UpdateProfile)

	r.Route("/property", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", propertyHandler.List)
		r.Post("/", propertyHandler.Create)
		r.Post("/{id}", propertyHandler.Update)
		r.Delete("/{id}", propertyHandler.Delete)
		r.Get("/{id}/unavailable-dates", propertyHandler.UnavailableDates)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", bookingHandler.List)
		r.Post("/", bookingHandler.Create)
		r.Get("/stats", bookingHandler.Stats)
		r.Get("/today-activity", bookingHandler.TodayActivity)
		r.Get("/{id}", bookingHandler.View)
		r.Put("/{id}/check-in", bookingHandler.CheckIn)
		r.Put("/{id}/check-out", bookingHandler.CheckOut)
		r.Delete("/{id}", bookingHandler.Delete)
	})

	r.Route("/setting", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", settingHandler.Get)
		r.Put("/", settingHandler.Update)
	})

	r.With(authMW).Get("/guests/autocomplete", guestHandler.Autocomplete)
}
