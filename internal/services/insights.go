package services

import (
	"context"

	"budgeteer/internal/core"
)

// Insights aggregates the user's whole history. Results are cached per user until
// the next mutation by that user.
func (s *BudgetService) Insights(ctx context.Context, userID string) (core.Insights, error) {
	if s.insights != nil {
		if cached, ok := s.insights.Get(userID); ok {
			return cached, nil
		}
	}
	history, err := s.History(ctx, userID)
	if err != nil {
		return core.Insights{}, err
	}
	out := core.ComputeInsights(history)
	if s.insights != nil {
		s.insights.Set(userID, out)
	}
	return out, nil
}
