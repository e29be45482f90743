// Package api exposes the budget operations as a JSON API under /api/v1,
// authenticated with the same bearer tokens the pages keep in a cookie.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

// Budget is the service surface the API drives.
type Budget interface {
	NeedsOnboarding(ctx context.Context, userID string) (bool, error)
	CompleteOnboarding(ctx context.Context, userID, email string, income decimal.Decimal, currency string) (core.BudgetMonth, error)
	Profile(ctx context.Context, userID string) (core.User, error)
	UpdateCurrency(ctx context.Context, userID, currency string) error

	Month(ctx context.Context, userID string, ym core.YearMonth) (services.MonthView, error)
	MonthByID(ctx context.Context, userID, monthID string) (services.MonthView, error)
	History(ctx context.Context, userID string) ([]core.MonthWithAllocations, error)
	UpdateIncome(ctx context.Context, userID, monthID string, amount decimal.Decimal) (core.BudgetMonth, error)
	UpdateSavingsRate(ctx context.Context, userID, monthID string, percent decimal.Decimal, reason string) (core.BudgetMonth, error)

	SetAllocation(ctx context.Context, userID, monthID, categoryID string, amount decimal.Decimal) error
	DeleteAllocation(ctx context.Context, userID, allocationID string) error
	CopyAllocations(ctx context.Context, userID, targetMonthID, sourceMonthID string) (int, error)
	CopyFromPreviousMonth(ctx context.Context, userID, targetMonthID string) (int, error)

	Categories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID, name, color string) (core.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, upd services.CategoryUpdate) (core.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	ReorderCategories(ctx context.Context, userID string, ids []string) error

	Insights(ctx context.Context, userID string) (core.Insights, error)
}

type Config struct {
	Budget      Budget
	Auth        auth.Provider
	Logger      *log.Logger
	CORSOrigins []string
}

type Handler struct {
	budget Budget
	auth   auth.Provider
	logger *log.Logger
}

const identityKey = "identity"

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	h := &Handler{budget: cfg.Budget, auth: cfg.Auth, logger: logger.WithComponent(log.ComponentAPI)}

	r := gin.New()
	r.Use(gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/auth/signup", h.SignUp)
	v1.POST("/auth/login", h.SignIn)
	v1.POST("/auth/forgot-password", h.RequestPasswordReset)
	v1.POST("/auth/reset-password", h.ResetPassword)

	authed := v1.Group("")
	authed.Use(h.RequireAuth())
	authed.POST("/auth/logout", h.SignOut)

	authed.GET("/me", h.Me)
	authed.PUT("/me/currency", h.UpdateCurrency)
	authed.PUT("/me/password", h.UpdatePassword)
	authed.POST("/onboarding", h.CompleteOnboarding)

	authed.GET("/budget/:year/:month", h.MonthByCalendar)
	authed.GET("/months", h.History)
	authed.GET("/months/:id", h.MonthByID)
	authed.PUT("/months/:id/income", h.UpdateIncome)
	authed.PUT("/months/:id/savings-rate", h.UpdateSavingsRate)
	authed.POST("/months/:id/allocations", h.SetAllocation)
	authed.POST("/months/:id/copy-previous", h.CopyPrevious)
	authed.POST("/months/:id/copy-from/:sourceId", h.CopyFrom)
	authed.DELETE("/allocations/:id", h.DeleteAllocation)

	authed.GET("/categories", h.Categories)
	authed.POST("/categories", h.CreateCategory)
	authed.PUT("/categories/order", h.ReorderCategories)
	authed.PATCH("/categories/:id", h.UpdateCategory)
	authed.DELETE("/categories/:id", h.DeleteCategory)

	authed.GET("/insights", h.Insights)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}

// RequireAuth resolves the bearer token into an identity.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		id, err := h.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": core.UserMessage(err)})
			return
		}
		c.Set(identityKey, id)
		ctx := log.NewContext(c.Request.Context(), log.FromContext(c.Request.Context()).With(log.FieldUserID, id.ID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func identity(c *gin.Context) core.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(core.Identity)
	return id
}

func bearer(c *gin.Context) string {
	token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return token
}

func statusFor(err error) int {
	switch core.Kind(err) {
	case core.ErrUnauthenticated:
		return http.StatusUnauthorized
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrValidation:
		return http.StatusUnprocessableEntity
	case core.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"error": message} with the status of err's kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ctx := c.Request.Context()
		log.FromContext(ctx).ErrorContext(ctx, "API request failed",
			log.FieldComponent, log.ComponentAPI,
			log.FieldPath, c.FullPath(),
			log.FieldError, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": core.UserMessage(err)})
}

// bind decodes the JSON body, reporting malformed input as a validation error.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, core.Invalid("Invalid JSON"))
		return false
	}
	return true
}
