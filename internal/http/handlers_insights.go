package http

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/core"
)

type insightsPage struct {
	Insights core.Insights
	Currency string
	// Chart is the JSON consumed by the Chart.js canvases.
	Chart string
}

type chartData struct {
	Labels     []string  `json:"labels"`
	Income     []float64 `json:"income"`
	Savings    []float64 `json:"savings"`
	Allocated  []float64 `json:"allocated"`
	Rates      []float64 `json:"rates"`
	Categories []string  `json:"categories"`
	Totals     []float64 `json:"totals"`
	Colors     []string  `json:"colors"`
}

func newChartData(in core.Insights) chartData {
	c := chartData{
		Labels:     []string{},
		Income:     []float64{},
		Savings:    []float64{},
		Allocated:  []float64{},
		Rates:      []float64{},
		Categories: []string{},
		Totals:     []float64{},
		Colors:     []string{},
	}
	for _, t := range in.MonthlyTrends {
		c.Labels = append(c.Labels, t.YearMonth.Short())
		c.Income = append(c.Income, t.Income.InexactFloat64())
		c.Savings = append(c.Savings, t.SavingsAmount.InexactFloat64())
		c.Allocated = append(c.Allocated, t.TotalAllocated.InexactFloat64())
		c.Rates = append(c.Rates, t.SavingsRate.Shift(2).InexactFloat64())
	}
	for _, cat := range in.TopCategories {
		c.Categories = append(c.Categories, cat.Name)
		c.Totals = append(c.Totals, cat.Total.InexactFloat64())
		c.Colors = append(c.Colors, cat.Color)
	}
	return c
}

func (s *Server) handleInsightsPage(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	var (
		user     core.User
		insights core.Insights
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		user, err = s.budget.Profile(ctx, id.ID)
		return err
	})
	g.Go(func() error {
		var err error
		insights, err = s.budget.Insights(ctx, id.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.respondError(w, r, err)
		return
	}

	chart, err := json.Marshal(newChartData(insights))
	if err != nil {
		s.respondError(w, r, core.Failed("load insights", err))
		return
	}
	s.renderPage(w, r, http.StatusOK, "insights", page{
		Title:  "Insights",
		Active: "insights",
		Data:   insightsPage{Insights: insights, Currency: user.Currency, Chart: string(chart)},
	})
}
