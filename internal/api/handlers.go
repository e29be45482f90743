package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"budgeteer/internal/core"
	"budgeteer/internal/services"
)

func (h *Handler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	sess, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(sess))
}

func (h *Handler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	sess, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) SignOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), bearer(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPasswordReset always answers 202 so callers cannot probe for accounts.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	id := identity(c)
	ctx := c.Request.Context()
	needs, err := h.budget.NeedsOnboarding(ctx, id.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := profileJSON{ID: id.ID, Email: id.Email, NeedsOnboarding: needs}
	if user, err := h.budget.Profile(ctx, id.ID); err == nil {
		out.Currency = user.Currency
	} else if core.Kind(err) != core.ErrNotFound {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateCurrency(c *gin.Context) {
	var req currencyRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.budget.UpdateCurrency(c.Request.Context(), identity(c).ID, req.Currency); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdatePassword revokes existing tokens, including the caller's; clients sign in again.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.UpdatePassword(c.Request.Context(), identity(c).ID, req.Password, req.ConfirmPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CompleteOnboarding(c *gin.Context) {
	var req onboardingRequest
	if !h.bind(c, &req) {
		return
	}
	id := identity(c)
	m, err := h.budget.CompleteOnboarding(c.Request.Context(), id.ID, id.Email, req.Income.Round(2), req.Currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newMonthJSON(m))
}

func (h *Handler) MonthByCalendar(c *gin.Context) {
	year, err1 := strconv.Atoi(c.Param("year"))
	month, err2 := strconv.Atoi(c.Param("month"))
	ym := core.YearMonth{Year: year, Month: month}
	if err1 != nil || err2 != nil || !ym.Valid() {
		h.fail(c, core.NotFound("Budget month"))
		return
	}
	view, err := h.budget.Month(c.Request.Context(), identity(c).ID, ym)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newMonthView(view))
}

func (h *Handler) MonthByID(c *gin.Context) {
	h.writeMonth(c, http.StatusOK, c.Param("id"))
}

func (h *Handler) writeMonth(c *gin.Context, status int, monthID string) {
	view, err := h.budget.MonthByID(c.Request.Context(), identity(c).ID, monthID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, newMonthView(view))
}

func (h *Handler) History(c *gin.Context) {
	months, err := h.budget.History(c.Request.Context(), identity(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]historyJSON, 0, len(months))
	for _, m := range months {
		out = append(out, historyJSON{monthJSON: newMonthJSON(m.BudgetMonth), Allocations: newAllocationList(m.Allocations)})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateIncome(c *gin.Context) {
	var req amountRequest
	if !h.bind(c, &req) {
		return
	}
	monthID := c.Param("id")
	if _, err := h.budget.UpdateIncome(c.Request.Context(), identity(c).ID, monthID, req.Amount.Round(2)); err != nil {
		h.fail(c, err)
		return
	}
	h.writeMonth(c, http.StatusOK, monthID)
}

func (h *Handler) UpdateSavingsRate(c *gin.Context) {
	var req savingsRateRequest
	if !h.bind(c, &req) {
		return
	}
	monthID := c.Param("id")
	if _, err := h.budget.UpdateSavingsRate(c.Request.Context(), identity(c).ID, monthID, req.Percent, req.Reason); err != nil {
		h.fail(c, err)
		return
	}
	h.writeMonth(c, http.StatusOK, monthID)
}

func (h *Handler) SetAllocation(c *gin.Context) {
	var req allocationRequest
	if !h.bind(c, &req) {
		return
	}
	monthID := c.Param("id")
	if err := h.budget.SetAllocation(c.Request.Context(), identity(c).ID, monthID, req.CategoryID, req.Amount.Round(2)); err != nil {
		h.fail(c, err)
		return
	}
	h.writeMonth(c, http.StatusOK, monthID)
}

func (h *Handler) DeleteAllocation(c *gin.Context) {
	if err := h.budget.DeleteAllocation(c.Request.Context(), identity(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CopyPrevious(c *gin.Context) {
	n, err := h.budget.CopyFromPreviousMonth(c.Request.Context(), identity(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copied": n})
}

func (h *Handler) CopyFrom(c *gin.Context) {
	n, err := h.budget.CopyAllocations(c.Request.Context(), identity(c).ID, c.Param("id"), c.Param("sourceId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copied": n})
}

func (h *Handler) Categories(c *gin.Context) {
	cats, err := h.budget.Categories(c.Request.Context(), identity(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryList(cats))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !h.bind(c, &req) {
		return
	}
	var name, color string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Color != nil {
		color = *req.Color
	}
	cat, err := h.budget.CreateCategory(c.Request.Context(), identity(c).ID, name, color)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryJSON(cat))
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !h.bind(c, &req) {
		return
	}
	cat, err := h.budget.UpdateCategory(c.Request.Context(), identity(c).ID, c.Param("id"), services.CategoryUpdate(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryJSON(cat))
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.budget.DeleteCategory(c.Request.Context(), identity(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReorderCategories(c *gin.Context) {
	var req reorderRequest
	if !h.bind(c, &req) {
		return
	}
	id := identity(c)
	if err := h.budget.ReorderCategories(c.Request.Context(), id.ID, req.IDs); err != nil {
		h.fail(c, err)
		return
	}
	cats, err := h.budget.Categories(c.Request.Context(), id.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryList(cats))
}

func (h *Handler) Insights(c *gin.Context) {
	in, err := h.budget.Insights(c.Request.Context(), identity(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newInsightsJSON(in))
}
