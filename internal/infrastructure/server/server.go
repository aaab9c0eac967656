package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/openmesa/binderd/internal/api/http"
	"github.com/openmesa/binderd/internal/api/middleware"
	"github.com/openmesa/binderd/internal/device"
	"github.com/openmesa/binderd/internal/infrastructure/config"
	"github.com/openmesa/binderd/internal/infrastructure/logging"
	"github.com/openmesa/binderd/internal/infrastructure/monitoring"
)

// Server wires the device to the admin HTTP API.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	device  *device.Device
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a server instance with its device, metrics and routes.
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing binderd",
		zap.String("admin_host", cfg.Admin.Host),
		zap.String("admin_port", cfg.Admin.Port),
	)

	metrics := monitoring.NewMetrics()
	dev := device.New(logger.Named("device"), cfg.Dispatch).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	apihttp.NewHandlers(dev, metrics).Register(router)

	return &Server{
		router:  router,
		device:  dev,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Device exposes the device for embedding hosts.
func (s *Server) Device() *device.Device {
	return s.device
}

// Run serves the admin API until Close is called.
func (s *Server) Run() error {
	addr := s.config.Admin.Host + ":" + s.config.Admin.Port
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("Admin API listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the admin API down and releases every open process.
func (s *Server) Close() error {
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Warn("Admin API shutdown", zap.Error(err))
		}
	}

	s.device.Close()
	_ = s.logger.Sync()
	return nil
}
