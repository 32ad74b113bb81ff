package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budget/internal/auth"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Accounts *services.Accounts
	Ledger   *services.Ledger
	Savings  *services.Savings
	Reports  *services.Reports
	Sessions *auth.SessionManager
	Logger   *log.Logger

	// Ready reports whether backing services respond; nil means always ready.
	Ready func(ctx context.Context) error

	// LoginRateLimit is POSTs per minute per client on /login and /register.
	LoginRateLimit int
}

type Server struct {
	http.Server

	accounts *services.Accounts
	ledger   *services.Ledger
	savings  *services.Savings
	reports  *services.Reports
	sessions *auth.SessionManager
	logger   *log.Logger
	ready    func(ctx context.Context) error

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		accounts: deps.Accounts,
		ledger:   deps.Ledger,
		savings:  deps.Savings,
		reports:  deps.Reports,
		sessions: deps.Sessions,
		logger:   logger.WithComponent(log.ComponentHTTP),
		ready:    deps.Ready,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.LoginRateLimit}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = recoverer(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	throttle := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.Handle("POST /register", throttle(http.HandlerFunc(s.handleRegister)))
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.Handle("POST /login", throttle(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("/logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireUser(s.handleDashboard))
	mux.HandleFunc("GET /profile", s.requireUser(s.handleProfile))
	mux.HandleFunc("POST /profile", s.requireUser(s.handleSetCurrency))
	mux.HandleFunc("GET /income", s.requireUser(s.handleIncome))
	mux.HandleFunc("GET /expenses", s.requireUser(s.handleExpenses))
	mux.HandleFunc("GET /export", s.requireUser(s.handleExport))

	mux.HandleFunc("GET /categories", s.requireUser(s.handleCategories))
	mux.HandleFunc("POST /categories", s.requireUser(s.handleCreateCategory))
	mux.HandleFunc("POST /categories/delete/{id}", s.requireUser(s.handleDeleteCategory))

	mux.HandleFunc("GET /add", s.requireUser(s.handleTransactionForm))
	mux.HandleFunc("POST /add", s.requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /edit/{id}", s.requireUser(s.handleEditTransactionForm))
	mux.HandleFunc("POST /edit/{id}", s.requireUser(s.handleUpdateTransaction))
	mux.HandleFunc("POST /delete/{id}", s.requireUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /savings", s.requireUser(s.handleGoals))
	mux.HandleFunc("GET /savings/add", s.requireUser(s.handleGoalForm))
	mux.HandleFunc("POST /savings/add", s.requireUser(s.handleCreateGoal))
	mux.HandleFunc("GET /savings/edit/{id}", s.requireUser(s.handleEditGoalForm))
	mux.HandleFunc("POST /savings/edit/{id}", s.requireUser(s.handleUpdateGoal))
	mux.HandleFunc("POST /savings/delete/{id}", s.requireUser(s.handleDeleteGoal))
	mux.HandleFunc("GET /savings/update/{id}", s.requireUser(s.handleEditGoalForm))
	mux.HandleFunc("POST /savings/update/{id}", s.requireUser(s.handleAdjustGoal))

	mux.HandleFunc("GET /staff/users", s.requireSuperuser(s.handleListUsers))
	mux.HandleFunc("GET /staff/users/edit/{id}", s.requireSuperuser(s.handleGetUser))
	mux.HandleFunc("POST /staff/users/edit/{id}", s.requireSuperuser(s.handleUpdateUser))
	mux.HandleFunc("GET /staff/users/delete/{id}", s.requireSuperuser(s.handleGetUser))
	mux.HandleFunc("POST /staff/users/delete/{id}", s.requireSuperuser(s.handleDeleteUser))
}

// Shutdown stops background helpers and drains the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
