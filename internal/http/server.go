package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"hubtrack/internal/auth"
	"hubtrack/internal/cache"
	"hubtrack/internal/log"
	"hubtrack/internal/middleware/ratelimit"
	"hubtrack/internal/middleware/security"
	"hubtrack/internal/middleware/trace"
	"hubtrack/internal/services"
)

const defaultMaxBodyBytes = 1 << 20

// Options tune the middleware chain. The zero value is usable.
type Options struct {
	Logger          *log.Logger
	RateLimit       ratelimit.Config
	TrustedProxies  []string
	MaxBodyBytes    int64
	CleanupInterval time.Duration
}

type Server struct {
	http.Server
	svc  *services.HubService
	auth *auth.Authenticator

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	maxBody int64
	started time.Time
	now     func() time.Time

	stop         context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware and starts the background
// cleanup of rate limiter state and the token cache.
func NewServer(addr string, svc *services.HubService, authn *auth.Authenticator, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		svc:      svc,
		auth:     authn,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		caches:   cache.NewManager(),
		maxBody:  opts.MaxBodyBytes,
		started:  time.Now(),
		now:      time.Now,
	}
	s.routes(mux)

	var h http.Handler = mux
	h = authn.Middleware(h)
	h = s.limiter.Middleware(detector.ExtractClientIP)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP), trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	h = detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.caches.Register(authn.Cache())
	s.caches.StartCleanup(ctx, opts.CleanupInterval)
	go s.limiter.Run(ctx, opts.RateLimit.CleanupInterval)

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("GET /entrepreneur/dashboard", s.authed(s.handleDashboard))
	mux.HandleFunc("POST /businesses", s.authed(s.handleAddBusiness))
	mux.HandleFunc("GET /businesses", s.authed(s.handleListBusinesses))
	mux.HandleFunc("POST /entrepreneur/payment", s.authed(s.handleCreatePayment))
	mux.HandleFunc("GET /entrepreneur/payments", s.authed(s.handleListOwnPayments))

	mux.HandleFunc("GET /admin/reports", s.authed(s.handleAdminReport))
	mux.HandleFunc("GET /admin/reports/export.xlsx", s.authed(s.handleExportReport))
	mux.HandleFunc("GET /admin/entrepreneurs", s.authed(s.handleListEntrepreneurs))
	mux.HandleFunc("PUT /admin/entrepreneurs/{id}", s.authed(s.handleToggleEntrepreneur))
	mux.HandleFunc("GET /admin/payments", s.authed(s.handleListPayments))
	mux.HandleFunc("POST /admin/payments", s.authed(s.handleAdminCreatePayment))
	mux.HandleFunc("PUT /admin/payments/{id}", s.authed(s.handleSetPaymentStatus))
	mux.HandleFunc("GET /admin/payments/{id}/history", s.authed(s.handlePaymentHistory))
	mux.HandleFunc("GET /admin/businesses/all", s.authed(s.handleListAllBusinesses))
	mux.HandleFunc("GET /admin/bootcamp/cohorts", s.authed(s.handleListAssignments))
	mux.HandleFunc("GET /admin/bootcamp/overview", s.authed(s.handleCohortOverview))
	mux.HandleFunc("GET /admin/bootcamp/details", s.authed(s.handleCohortDetails))
	mux.HandleFunc("POST /admin/bootcamp/assign", s.authed(s.handleAssignCohort))
	mux.HandleFunc("PUT /admin/bootcamp/assignments/{id}", s.authed(s.handleUpdateAssignment))
}

// Shutdown stops background cleanup and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
