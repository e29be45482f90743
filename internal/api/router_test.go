package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/services"
	"budgeteer/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var march2025 = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	router *gin.Engine
	store  *memory.Store
	budget *services.BudgetService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.New()
	budget := services.NewBudgetService(store, services.WithClock(func() time.Time { return march2025 }))
	provider := auth.NewLocalProvider(store, auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour),
		auth.NewLogMailer(nil), "http://localhost/reset-password", auth.WithBcryptCost(bcrypt.MinCost))
	return &apiFixture{
		router: NewRouter(Config{Budget: budget, Auth: provider, CORSOrigins: []string{"http://localhost:5173"}}),
		store:  store,
		budget: budget,
	}
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rr)["error"]
}

// onboard signs up email, completes onboarding with income 5000 and returns the
// token and the current month view.
func (f *apiFixture) onboard(t *testing.T, email string) (string, monthViewJSON) {
	t.Helper()
	rr := f.call(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": email, "password": "Secret123", "confirmPassword": "Secret123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sess := decode[sessionResponse](t, rr)
	require.NotEmpty(t, sess.Token)

	rr = f.call(t, http.MethodPost, "/api/v1/onboarding", sess.Token, map[string]string{"income": "5000", "currency": "GBP"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.call(t, http.MethodGet, "/api/v1/budget/2025/3", sess.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return sess.Token, decode[monthViewJSON](t, rr)
}

func TestRequiresBearerToken(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.call(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Not authenticated", errorMessage(t, rr))

	rr = f.call(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignUpSignInAndMe(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.call(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret", "confirmPassword": "secret",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Password must be at least 8 characters", errorMessage(t, rr))

	rr = f.call(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "Secret123", "confirmPassword": "Secret123",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid email or password", errorMessage(t, rr))

	rr = f.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, rr.Code)
	token := decode[sessionResponse](t, rr).Token

	rr = f.call(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[profileJSON](t, rr)
	assert.Equal(t, "ana@example.com", me.Email)
	assert.Equal(t, core.DefaultCurrency, me.Currency)
	assert.True(t, me.NeedsOnboarding)

	rr = f.call(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.call(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMalformedJSON(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Invalid JSON", errorMessage(t, rr))
}

func TestMonthEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, view := f.onboard(t, "ana@example.com")

	assert.True(t, view.IsCurrent)
	assert.Equal(t, "5000", view.Month.Income.String())
	assert.Equal(t, "1000", view.Summary.SavingsAmount.String())

	rr := f.call(t, http.MethodGet, "/api/v1/budget/2025/2", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Budget month not found", errorMessage(t, rr))

	rr = f.call(t, http.MethodGet, "/api/v1/budget/2101/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.call(t, http.MethodPut, "/api/v1/months/"+view.Month.ID+"/income", token, map[string]string{"amount": "6000.555"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "6000.56", decode[monthViewJSON](t, rr).Month.Income.String())

	rr = f.call(t, http.MethodPut, "/api/v1/months/"+view.Month.ID+"/savings-rate", token, map[string]any{"percent": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.call(t, http.MethodPut, "/api/v1/months/"+view.Month.ID+"/savings-rate", token,
		map[string]any{"percent": 5, "reason": "Emergency repairs this month"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[monthViewJSON](t, rr)
	assert.Equal(t, "0.05", updated.Month.SavingsRate.String())
	assert.Equal(t, "Emergency repairs this month", updated.Month.AdjustmentReason)

	rr = f.call(t, http.MethodGet, "/api/v1/months", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]historyJSON](t, rr), 1)
}

func TestAllocationEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, view := f.onboard(t, "ana@example.com")

	rr := f.call(t, http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cats := decode[[]categoryJSON](t, rr)
	require.Len(t, cats, len(core.DefaultCategories))
	savings, spend := cats[0], cats[1]
	require.True(t, savings.IsSavings)

	rr = f.call(t, http.MethodPost, "/api/v1/months/"+view.Month.ID+"/allocations", token,
		map[string]string{"categoryId": savings.ID, "amount": "10"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.call(t, http.MethodPost, "/api/v1/months/"+view.Month.ID+"/allocations", token,
		map[string]string{"categoryId": spend.ID, "amount": "4200"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[monthViewJSON](t, rr)
	require.Len(t, got.Allocations, 1)
	assert.True(t, got.Summary.OverBudget)
	assert.Equal(t, "-200", got.Summary.Remaining.String())

	rr = f.call(t, http.MethodDelete, "/api/v1/allocations/"+got.Allocations[0].ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.call(t, http.MethodDelete, "/api/v1/allocations/"+got.Allocations[0].ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCopyFromAnotherMonth(t *testing.T) {
	f := newAPIFixture(t)
	token, view := f.onboard(t, "ana@example.com")
	ctx := context.Background()

	me := decode[profileJSON](t, f.call(t, http.MethodGet, "/api/v1/me", token, nil))
	cats, err := f.budget.Categories(ctx, me.ID)
	require.NoError(t, err)

	feb := core.BudgetMonth{ID: "feb", UserID: me.ID, Year: 2025, Month: 2, Income: view.Month.Income, SavingsRate: core.MinSavingsRate}
	require.NoError(t, f.store.CreateMonth(ctx, feb))
	require.NoError(t, f.store.UpsertAllocation(ctx, core.Allocation{ID: "a1", BudgetMonthID: "feb", CategoryID: cats[1].ID, Amount: decimal.NewFromInt(100)}))

	rr := f.call(t, http.MethodPost, "/api/v1/months/"+view.Month.ID+"/copy-from/feb", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, float64(1), decode[map[string]float64](t, rr)["copied"])

	rr = f.call(t, http.MethodPost, "/api/v1/months/"+view.Month.ID+"/copy-previous", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	otherToken, _ := f.onboard(t, "bob@example.com")
	rr = f.call(t, http.MethodPost, "/api/v1/months/"+view.Month.ID+"/copy-from/feb", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.onboard(t, "ana@example.com")

	rr := f.call(t, http.MethodPost, "/api/v1/categories", token, map[string]string{"name": "Gym"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	gym := decode[categoryJSON](t, rr)
	assert.Equal(t, core.DefaultCategoryColor, gym.Color)
	assert.Equal(t, len(core.DefaultCategories), gym.SortOrder)

	rr = f.call(t, http.MethodPost, "/api/v1/categories", token, map[string]string{"name": "Gym"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.call(t, http.MethodPatch, "/api/v1/categories/"+gym.ID, token, map[string]string{"color": "#000000"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Gym", decode[categoryJSON](t, rr).Name)

	rr = f.call(t, http.MethodPatch, "/api/v1/categories/"+gym.ID, token, map[string]string{"color": "black"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	cats := decode[[]categoryJSON](t, f.call(t, http.MethodGet, "/api/v1/categories", token, nil))
	ids := make([]string, 0, len(cats))
	for i := len(cats) - 1; i >= 0; i-- {
		ids = append(ids, cats[i].ID)
	}
	rr = f.call(t, http.MethodPut, "/api/v1/categories/order", token, map[string][]string{"ids": ids})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, gym.ID, decode[[]categoryJSON](t, rr)[0].ID)

	rr = f.call(t, http.MethodDelete, "/api/v1/categories/"+gym.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.call(t, http.MethodDelete, "/api/v1/categories/"+gym.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInsightsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token, view := f.onboard(t, "ana@example.com")

	rr := f.call(t, http.MethodGet, "/api/v1/insights", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	in := decode[insightsJSON](t, rr)
	assert.Equal(t, 1, in.TotalMonths)
	assert.Equal(t, "5000", in.AverageIncome.String())
	require.Len(t, in.MonthlyTrends, 1)
	assert.Equal(t, 3, in.MonthlyTrends[0].Month)
	assert.NotNil(t, in.MonthsWithLowSavings)
	assert.Empty(t, in.MonthsWithLowSavings)

	rr = f.call(t, http.MethodPut, "/api/v1/months/"+view.Month.ID+"/savings-rate", token,
		map[string]any{"percent": 10, "reason": "Boiler replacement"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.call(t, http.MethodGet, "/api/v1/insights", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	in = decode[insightsJSON](t, rr)
	require.Len(t, in.MonthsWithLowSavings, 1)
	low := in.MonthsWithLowSavings[0]
	assert.Equal(t, 2025, low.Year)
	assert.Equal(t, 3, low.Month)
	assert.Equal(t, "0.1", low.SavingsRate.String())
	assert.Equal(t, "Boiler replacement", low.AdjustmentReason)
}

func TestSettingsEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.onboard(t, "ana@example.com")

	rr := f.call(t, http.MethodPut, "/api/v1/me/currency", token, map[string]string{"currency": "NGN"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "NGN", decode[profileJSON](t, f.call(t, http.MethodGet, "/api/v1/me", token, nil)).Currency)

	rr = f.call(t, http.MethodPut, "/api/v1/me/password", token, map[string]string{"password": "NewSecret1", "confirmPassword": "NewSecret1"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.call(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/categories", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.call(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found", errorMessage(t, rr))
}
