// Package http provides the HTTP server for mission control.
package http

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/feed"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
	v1 "github.com/ahoque32/mission-control-dashboard-sub001/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server. Requests other than the
// feed websocket are bounded by requestTimeout.
func NewServer(svc *service.Service, feedServer *feed.Server, requestTimeout time.Duration, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	if requestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Path(), "/v1/feed")
			},
			Timeout: requestTimeout,
		}))
	}

	// Handlers
	v1Handler := v1.NewHandler(svc, feedServer)

	// Register Routes
	v1Handler.RegisterRoutes(e)

	return e
}
