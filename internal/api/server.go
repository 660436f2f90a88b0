package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/marketplace-core/internal/audit"
	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/config"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/logging"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/marketplace-core/internal/media"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Database is the part of the store the server reports on.
// *database.DB satisfies it.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Uploads    config.UploadsConfig
	Logger     *logging.Logger
	DB         Database // optional: health and metrics only
	Auth       *auth.Service
	Products   catalog.ProductRepository
	Categories *catalog.CategorySet
	Media      media.Store
	AuditRepo  audit.Repository // optional
	MQTT       *mqtt.Client     // optional
	InfluxDB   *influxdb.Client // optional
	Observer   GateObserver     // defaults to logging plus InfluxDB
	Version    string
}

// Server is the marketplace HTTP API server.
//
// It is created with New() and started with Start(). Handler() exposes the
// router without listening, which is what the tests use.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	uploads    config.UploadsConfig
	logger     *logging.Logger
	db         Database
	auth       *auth.Service
	products   catalog.ProductRepository
	categories *catalog.CategorySet
	media      media.Store
	auditRepo  audit.Repository
	auditCh    chan *audit.Entry
	mqtt       *mqtt.Client
	influx     *influxdb.Client
	observer   GateObserver
	version    string
	startTime  time.Time

	hub      *Hub
	relaying atomic.Bool // true once the MQTT relay subscription is live

	server *http.Server
	cancel context.CancelFunc // stops background goroutines on Close()
	wg     sync.WaitGroup
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if deps.Categories == nil {
		return nil, fmt.Errorf("category set is required")
	}
	if deps.Media == nil {
		return nil, fmt.Errorf("media store is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		uploads:    deps.Uploads,
		logger:     deps.Logger,
		db:         deps.DB,
		auth:       deps.Auth,
		products:   deps.Products,
		categories: deps.Categories,
		media:      deps.Media,
		auditRepo:  deps.AuditRepo,
		mqtt:       deps.MQTT,
		influx:     deps.InfluxDB,
		observer:   deps.Observer,
		version:    deps.Version,
		startTime:  time.Now(),
		hub:        NewHub(deps.WS, deps.Logger),
	}

	if s.observer == nil {
		s.observer = &defaultGateObserver{logger: deps.Logger, influx: deps.InfluxDB}
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It runs the WebSocket hub and audit writer, subscribes to product events
// for the live feed, and launches the listener in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(srvCtx)
	}()

	if s.auditCh != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drainAuditLog(srvCtx)
		}()
	}

	if err := s.subscribeProductEvents(); err != nil {
		s.logger.Warn("product event relay unavailable, broadcasting locally", "error", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests, then stops the hub and
// flushes queued audit entries before returning.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
