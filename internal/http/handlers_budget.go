package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

// allocationRow is one spendable category with its amount for the month.
type allocationRow struct {
	Category     core.Category
	AllocationID string
	Amount       decimal.Decimal
}

// monthPanel feeds the budget_panel partial and the month page.
type monthPanel struct {
	User     core.User
	View     services.MonthView
	Savings  *core.Category
	Rows     []allocationRow
	Previous core.YearMonth
	Next     core.YearMonth
	HasNext  bool
	Current  core.YearMonth
}

func (p monthPanel) Currency() string {
	return p.User.Currency
}

// NeedsReason reports whether the savings rate sits below the recommended minimum.
func (p monthPanel) NeedsReason() bool {
	return p.View.Month.SavingsRate.LessThan(core.MinSavingsRate)
}

// loadPanel fetches the profile, the month and the categories concurrently.
func (s *Server) loadPanel(ctx context.Context, userID string, month func(ctx context.Context) (services.MonthView, error)) (monthPanel, error) {
	var (
		user core.User
		view services.MonthView
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.budget.Profile(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		view, err = month(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.budget.Categories(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return monthPanel{}, err
	}
	return buildPanel(user, view, cats, s.budget.CurrentMonth()), nil
}

func buildPanel(user core.User, view services.MonthView, cats []core.Category, current core.YearMonth) monthPanel {
	byCategory := make(map[string]core.AllocationDetail, len(view.Allocations))
	for _, a := range view.Allocations {
		byCategory[a.CategoryID] = a
	}

	p := monthPanel{
		User:     user,
		View:     view,
		Current:  current,
		Previous: view.Month.Key().Previous(),
		Next:     view.Month.Key().Next(),
	}
	p.HasNext = !current.Before(p.Next) && p.Next.Valid()
	for i := range cats {
		c := cats[i]
		if c.IsSavings {
			p.Savings = &c
			continue
		}
		row := allocationRow{Category: c, Amount: decimal.Zero}
		if a, ok := byCategory[c.ID]; ok {
			row.AllocationID = a.ID
			row.Amount = a.Amount
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

// handleDashboard shows the current month, sending new users to onboarding first.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	needs, err := s.budget.NeedsOnboarding(r.Context(), id.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if needs {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	s.renderMonth(w, r, s.budget.CurrentMonth())
}

func (s *Server) handleMonthPage(w http.ResponseWriter, r *http.Request) {
	ym, err := ParseYearMonthPath(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderMonth(w, r, ym)
}

func (s *Server) renderMonth(w http.ResponseWriter, r *http.Request, ym core.YearMonth) {
	id := currentIdentity(r)
	panel, err := s.loadPanel(r.Context(), id.ID, func(ctx context.Context) (services.MonthView, error) {
		return s.budget.Month(ctx, id.ID, ym)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "month", page{Title: ym.Label(), Active: "budget", Data: panel})
}

func (s *Server) handleMonthPanel(w http.ResponseWriter, r *http.Request) {
	s.writePanel(w, r, r.PathValue("id"), NewHTMXResponse())
}

// writePanel re-renders the budget panel of monthID into b.
func (s *Server) writePanel(w http.ResponseWriter, r *http.Request, monthID string, b *HTMXResponseBuilder) {
	id := currentIdentity(r)
	panel, err := s.loadPanel(r.Context(), id.ID, func(ctx context.Context) (services.MonthView, error) {
		return s.budget.MonthByID(ctx, id.ID, monthID)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPartial(w, r, b, "budget_panel", panel)
}

func (s *Server) handleOnboardingPage(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	needs, err := s.budget.NeedsOnboarding(r.Context(), id.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !needs {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "onboarding", page{
		Title: "Welcome",
		Data:  onboardingForm{Currency: core.DefaultCurrency},
	})
}

type onboardingForm struct {
	Income   string
	Currency string
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	form := NewRequestBodyParser(r)
	in := onboardingForm{Income: form.Get("income"), Currency: form.Get("currency")}

	fail := func(err error) {
		s.renderPage(w, r, statusFor(err), "onboarding", page{Title: "Welcome", Error: core.UserMessage(err), Data: in})
	}
	income, err := ParseAmountField(form, "income")
	if err != nil {
		fail(err)
		return
	}
	m, err := s.budget.CompleteOnboarding(r.Context(), id.ID, id.Email, income, in.Currency)
	if err != nil {
		fail(err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Onboarding completed",
		log.FieldMonthID, m.ID,
		log.FieldComponent, log.ComponentOnboarding)
	redirect(w, r, "/")
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	monthID := r.PathValue("id")
	form := NewRequestBodyParser(r)

	amount, err := ParseAmountField(form, "income")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.budget.UpdateIncome(r.Context(), id.ID, monthID, amount); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePanel(w, r, monthID, NewHTMXResponse().
		TriggerBudgetChanged(monthID).
		TriggerSuccessNotification("Income updated"))
}

func (s *Server) handleUpdateSavingsRate(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	monthID := r.PathValue("id")
	form := NewRequestBodyParser(r)

	percent, err := ParsePercentField(form, "savings_rate")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.budget.UpdateSavingsRate(r.Context(), id.ID, monthID, percent, form.Get("reason")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePanel(w, r, monthID, NewHTMXResponse().
		TriggerBudgetChanged(monthID).
		TriggerSuccessNotification("Savings rate updated"))
}

func (s *Server) handleSetAllocation(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	monthID := r.PathValue("id")
	form := NewRequestBodyParser(r)

	amount := decimal.Zero
	if form.Get("amount") != "" {
		var err error
		if amount, err = ParseAmountField(form, "amount"); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if err := s.budget.SetAllocation(r.Context(), id.ID, monthID, form.Get("category_id"), amount); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePanel(w, r, monthID, NewHTMXResponse().
		TriggerBudgetChanged(monthID).
		TriggerSuccessNotification("Allocation saved"))
}

func (s *Server) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	monthID := r.PathValue("id")

	if err := s.budget.DeleteAllocation(r.Context(), id.ID, r.PathValue("allocationID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePanel(w, r, monthID, NewHTMXResponse().
		TriggerBudgetChanged(monthID).
		TriggerSuccessNotification("Allocation removed"))
}

func (s *Server) handleCopyPrevious(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	monthID := r.PathValue("id")

	n, err := s.budget.CopyFromPreviousMonth(r.Context(), id.ID, monthID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Copied %d allocations from last month", n)
	if n == 1 {
		msg = "Copied 1 allocation from last month"
	}
	s.writePanel(w, r, monthID, NewHTMXResponse().
		TriggerBudgetChanged(monthID).
		TriggerSuccessNotification(msg))
}
