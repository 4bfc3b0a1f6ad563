package bot

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/subscription-bot/internal/budget"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

var errNoCategories = errors.New("no active subscriptions to chart")

// GenerateBudgetChart creates a pie chart of monthly spend by category.
// Returns PNG image as bytes.
func GenerateBudgetChart(state models.BudgetState, currency string) ([]byte, error) {
	keys := budget.Categories(state)
	if len(keys) == 0 {
		return nil, errNoCategories
	}

	values := make([]float64, 0, len(keys))
	for _, k := range keys {
		values = append(values, state.CategoryBreakdown[k].MonthlyTotal.InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Monthly spend by category (%s)", currency),
		}),
		charts.LegendLabelsOptionFunc(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
