package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"venuebook/internal/config"
	"venuebook/internal/handler"
	"venuebook/internal/logger"
	"venuebook/internal/metrics"
	"venuebook/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Bookings    *handler.BookingHandler
	Venues      *handler.VenueHandler
	Analytics   *handler.AnalyticsHandler
	Improvement *handler.ImprovementHandler
}

// Middleware groups the request guards built in main.
type Middleware struct {
	// Auth validates the Bearer access token.
	Auth echo.MiddlewareFunc
	// LoginLimit throttles signup and login per client IP.
	LoginLimit echo.MiddlewareFunc
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, log logger.Logger, m *metrics.Metrics, h Handlers, mw Middleware) {
	e.HideBanner = true
	e.IPExtractor = middleware.ClientIP(cfg.TrustedProxies, log)
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = handler.NewErrorHandler(cfg.Debug, log)

	e.Use(echomw.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(m.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/signup", h.Auth.Signup, mw.LoginLimit)
	api.POST("/login", h.Auth.Login, mw.LoginLimit)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/venues", h.Venues.ListVenues)

	// Secured routes (require JWT authentication)
	secured := api.Group("", mw.Auth)
	secured.GET("/me", h.Auth.Me)
	secured.POST("/logout", h.Auth.Logout)
	secured.POST("/bookings", h.Bookings.CreateBooking)
	secured.GET("/bookings", h.Bookings.ListBookings)
	secured.DELETE("/bookings/:id", h.Bookings.DeleteBooking)
	secured.POST("/improvement-requests", h.Improvement.Submit)

	// Admin routes
	admin := api.Group("", mw.Auth, middleware.RequireAdmin)
	admin.GET("/bookings/logs", h.Bookings.ListBookingLogs)

	admin.POST("/venues", h.Venues.AddVenue)
	admin.GET("/venues/:name", h.Venues.GetVenue)
	admin.PUT("/venues/:name", h.Venues.UpdateVenue)
	admin.DELETE("/venues/:name", h.Venues.DeleteVenue)
	admin.PUT("/venues/:name/toggle-status", h.Venues.ToggleVenueStatus)

	admin.GET("/users", h.Users.ListUsers)
	admin.DELETE("/users/:username", h.Users.DeleteUser)
	admin.PUT("/users/:username/toggle-status", h.Users.ToggleUserStatus)
	admin.PUT("/users/:username/toggle-role", h.Users.ToggleUserRole)

	admin.GET("/analytics", h.Analytics.GetAnalytics)
	admin.GET("/analytics/export", h.Analytics.ExportAnalytics)

	admin.GET("/improvement-requests", h.Improvement.List)
	admin.PUT("/improvement-requests/:id/resolve", h.Improvement.Resolve)
}

// requestLogger writes one structured line per request.
func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			kv := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Warn("request", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
