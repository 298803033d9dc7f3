package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/config"
	"github.com/2beens/coachai/internal/gymstats/profile"
	"github.com/2beens/coachai/internal/gymstats/tracker"
	"github.com/2beens/coachai/internal/inference"
	"github.com/2beens/coachai/internal/middleware"
	"github.com/2beens/coachai/internal/telemetry/metrics"
	"github.com/2beens/coachai/internal/telemetry/tracing"
	"github.com/2beens/coachai/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config   *config.Config
	backends *Backends
	tracker  *tracker.Tracker

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresPassword        string
	InferenceAPIKey         string
	VersionInfo             string
	HoneycombTracingEnabled bool
	// Clock defaults to the system clock.
	Clock calendar.Clock
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 once serving

	backends, err := OpenBackends(ctx, OpenBackendsParams{
		Config:           cfg,
		RedisPassword:    params.RedisPassword,
		PostgresPassword: params.PostgresPassword,
		TracingEnabled:   params.HoneycombTracingEnabled,
		WithRateLimiter:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}

	if backends.DBPool != nil {
		if err := metrics.RegisterDBPool(promRegistry, backends.DBPool, cfg.PostgresDB); err != nil {
			log.Errorf("register db pool metrics: %s", err)
		}
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "coachai-backend", backends.RedisClient)
	if err != nil {
		backends.Close()
		return nil, err
	}

	clock := params.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}

	trackerParams := tracker.Params{
		KV:          backends.KV,
		Engine:      profile.NewEngine(clock, cfg.Location()),
		Clock:       clock,
		Metrics:     metricsManager,
		ProfileID:   cfg.ProfileID,
		ProfileName: cfg.ProfileName,
	}
	if size := cfg.ReplayCacheSizeBytes(); size > 0 {
		log.Debugf("ingestion replay enabled, cache size: %d bytes", size)
		trackerParams.Replays = tracker.NewReplayCache(size, cfg.ReplayExpireSec)
	}
	if cfg.InferenceURL != "" {
		trackerParams.Inference = inference.NewClient(cfg.InferenceURL, params.InferenceAPIKey, cfg.InferenceTimeout())
	} else {
		log.Warnln("inference url not set, video ingestion disabled")
	}

	t := tracker.New(trackerParams)
	if err := t.Load(ctx); err != nil {
		otelShutdown()
		backends.Close()
		return nil, fmt.Errorf("load profile: %w", err)
	}

	return &Server{
		config:      cfg,
		backends:    backends,
		tracker:     t,
		versionInfo: params.VersionInfo,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("coachai-router"))

	trackerHandler := tracker.NewHandler(s.tracker)

	r.HandleFunc("/profile", trackerHandler.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile/dashboard", trackerHandler.HandleGetDashboard).Methods("GET", "OPTIONS").Name("get-dashboard")
	r.HandleFunc("/sessions", trackerHandler.HandleListSessions).Methods("GET", "OPTIONS").Name("list-sessions")
	r.HandleFunc("/activities", trackerHandler.HandleLogActivity).Methods("POST", "OPTIONS").Name("log-activity")
	r.HandleFunc("/weight", trackerHandler.HandleUpdateWeight).Methods("POST", "OPTIONS").Name("update-weight")
	r.HandleFunc("/schedule", trackerHandler.HandleSchedule).Methods("POST", "OPTIONS").Name("schedule-workout")
	r.HandleFunc("/schedule/upcoming", trackerHandler.HandleUpcoming).Methods("GET", "OPTIONS").Name("upcoming-workouts")
	r.HandleFunc("/report", trackerHandler.HandleReport).Methods("GET", "OPTIONS").Name("report")
	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	ingest := http.Handler(http.HandlerFunc(trackerHandler.HandleIngest))
	ingestVideo := http.Handler(http.HandlerFunc(trackerHandler.HandleIngestVideo))
	if s.backends.RedisClient != nil && s.config.IngestRateLimitPerMin > 0 {
		reqRateLimiter := redis_rate.NewLimiter(s.backends.RedisClient)
		ingest = middleware.RateLimit(reqRateLimiter, s.metricsManager, "ingest-analysis", s.config.IngestRateLimitPerMin)(ingest)
		ingestVideo = middleware.RateLimit(reqRateLimiter, s.metricsManager, "ingest-video", s.config.IngestRateLimitPerMin)(ingestVideo)
	}
	r.Handle("/analysis", ingest).Methods("POST", "OPTIONS").Name("ingest-analysis")
	r.Handle("/analysis/video", ingestVideo).Methods("POST", "OPTIONS").Name("ingest-video")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsOrigins...))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: 5 * time.Minute, // video uploads wait on inference
		ReadTimeout:  5 * time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.MetricsHost, strconv.Itoa(s.config.MetricsPort))
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the storage goes away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.backends.Close()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
