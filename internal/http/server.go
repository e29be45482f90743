package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/middleware/ratelimit"
	"budgeteer/internal/middleware/security"
	"budgeteer/internal/middleware/trace"
	"budgeteer/internal/services"
	appweb "budgeteer/web"
)

// Budget is the slice of the budget service the pages need.
type Budget interface {
	CurrentMonth() core.YearMonth
	NeedsOnboarding(ctx context.Context, userID string) (bool, error)
	CompleteOnboarding(ctx context.Context, userID, email string, income decimal.Decimal, currency string) (core.BudgetMonth, error)
	Profile(ctx context.Context, userID string) (core.User, error)
	UpdateCurrency(ctx context.Context, userID, currency string) error

	Month(ctx context.Context, userID string, ym core.YearMonth) (services.MonthView, error)
	MonthByID(ctx context.Context, userID, monthID string) (services.MonthView, error)
	UpdateIncome(ctx context.Context, userID, monthID string, amount decimal.Decimal) (core.BudgetMonth, error)
	UpdateSavingsRate(ctx context.Context, userID, monthID string, percent decimal.Decimal, reason string) (core.BudgetMonth, error)

	SetAllocation(ctx context.Context, userID, monthID, categoryID string, amount decimal.Decimal) error
	DeleteAllocation(ctx context.Context, userID, allocationID string) error
	CopyFromPreviousMonth(ctx context.Context, userID, targetMonthID string) (int, error)

	Categories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID, name, color string) (core.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, upd services.CategoryUpdate) (core.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	ReorderCategories(ctx context.Context, userID string, ids []string) error

	Insights(ctx context.Context, userID string) (core.Insights, error)
}

// Options configures NewServer. Budget and Auth are required.
type Options struct {
	Addr   string
	Budget Budget
	Auth   auth.Provider
	Logger *log.Logger

	// Ready backs /readyz, typically the store's Ping.
	Ready func(ctx context.Context) error

	RateLimitPerMinute int
	SecureCookies      bool

	// API is mounted under /api/ when set.
	API http.Handler
}

type Server struct {
	http.Server
	pages    map[string]*template.Template
	partials *template.Template

	budget   Budget
	auth     auth.Provider
	logger   *log.Logger
	ready    func(ctx context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	secureCookies bool
}

// NewServer parses the embedded templates, registers routes and wraps them in
// the middleware chain: trace, security headers, probe detection, rate limit.
func NewServer(opts Options) (*Server, error) {
	if opts.Budget == nil || opts.Auth == nil {
		return nil, fmt.Errorf("budget service and auth provider are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	partials, pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		pages:         pages,
		partials:      partials,
		budget:        opts.Budget,
		auth:          opts.Auth,
		logger:        logger.WithComponent(log.ComponentHTTP),
		ready:         opts.Ready,
		limiter:       ratelimit.NewLimiter(limiterCfg),
		detector:      security.NewDetector(),
		secureCookies: opts.SecureCookies,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)

	mux := http.NewServeMux()
	s.routes(mux, opts.API)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP, ratelimit.Mutating, s.handleRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Handler(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, api http.Handler) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignUpPage)
	mux.HandleFunc("POST /signup", s.handleSignUp)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /forgot-password", s.handleForgotPage)
	mux.HandleFunc("POST /forgot-password", s.handleForgot)
	mux.HandleFunc("GET /reset-password", s.handleResetPage)
	mux.HandleFunc("POST /reset-password", s.handleReset)

	mux.HandleFunc("GET /{$}", s.requireUser(s.handleDashboard))
	mux.HandleFunc("GET /onboarding", s.requireUser(s.handleOnboardingPage))
	mux.HandleFunc("POST /onboarding", s.requireUser(s.handleOnboarding))
	mux.HandleFunc("GET /budget/{year}/{month}", s.requireUser(s.handleMonthPage))

	mux.HandleFunc("GET /months/{id}/panel", s.requireUser(s.handleMonthPanel))
	mux.HandleFunc("POST /months/{id}/income", s.requireUser(s.handleUpdateIncome))
	mux.HandleFunc("POST /months/{id}/savings-rate", s.requireUser(s.handleUpdateSavingsRate))
	mux.HandleFunc("POST /months/{id}/allocations", s.requireUser(s.handleSetAllocation))
	mux.HandleFunc("DELETE /months/{id}/allocations/{allocationID}", s.requireUser(s.handleDeleteAllocation))
	mux.HandleFunc("POST /months/{id}/copy-previous", s.requireUser(s.handleCopyPrevious))

	mux.HandleFunc("GET /categories", s.requireUser(s.handleCategoriesPage))
	mux.HandleFunc("POST /categories", s.requireUser(s.handleCreateCategory))
	mux.HandleFunc("POST /categories/reorder", s.requireUser(s.handleReorderCategories))
	mux.HandleFunc("POST /categories/{id}", s.requireUser(s.handleUpdateCategory))
	mux.HandleFunc("PATCH /categories/{id}", s.requireUser(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.requireUser(s.handleDeleteCategory))

	mux.HandleFunc("GET /insights", s.requireUser(s.handleInsightsPage))

	mux.HandleFunc("GET /settings", s.requireUser(s.handleSettingsPage))
	mux.HandleFunc("POST /settings/currency", s.requireUser(s.handleUpdateCurrency))
	mux.HandleFunc("POST /settings/password", s.requireUser(s.handleUpdatePassword))

	if api != nil {
		mux.Handle("/api/", api)
	}
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// TotalRequests reports the number of requests traced since start.
func (s *Server) TotalRequests() int64 {
	return s.tracer.TotalRequests()
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
