package scoring

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

const (
	scoreFloor   = 300
	scoreCeiling = 900
	scoreBase    = 750
	degenerate   = 600
)

// CibilScorer derives a creditworthiness score from the four core financial
// fields. Deterministic: identical fields always yield identical scores.
type CibilScorer struct{}

func NewCibilScorer() *CibilScorer {
	return &CibilScorer{}
}

// Score returns 600 when income or assets are non-positive, otherwise a base
// of 750 adjusted upward by savings rate and asset coverage, clamped to
// [300, 900].
func (s *CibilScorer) Score(fields domain.FinancialFields) float64 {
	if fields.Income <= 0 || fields.Assets <= 0 {
		return degenerate
	}

	savingsRate := 1 - fields.Expenses/fields.Income
	if savingsRate < 0 {
		savingsRate = 0
	}
	coverage := 1 - fields.Liabilities/fields.Assets
	if coverage < 0 {
		coverage = 0
	}

	score := scoreBase + savingsRate*100 + coverage*100
	if score < scoreFloor {
		return scoreFloor
	}
	if score > scoreCeiling {
		return scoreCeiling
	}
	return score
}

// StatementSummarizer writes the free-text summary attached to an analysis.
type StatementSummarizer struct{}

func NewStatementSummarizer() *StatementSummarizer {
	return &StatementSummarizer{}
}

func (s *StatementSummarizer) Summarize(_ context.Context, text string, fields domain.FinancialFields) (string, error) {
	net := fields.Income - fields.Expenses
	worth := fields.Assets - fields.Liabilities

	position := "a positive"
	if net < 0 {
		position = "a negative"
	}
	leverage := "below"
	if fields.Assets > 0 && fields.Liabilities > fields.Assets/2 {
		leverage = "above"
	}

	summary := fmt.Sprintf(
		"The statement reports income of %.2f against expenses of %.2f, leaving %s net position of %.2f. "+
			"Assets of %.2f and liabilities of %.2f put leverage %s half of the asset base, for a net worth of %.2f.",
		fields.Income, fields.Expenses, position, net,
		fields.Assets, fields.Liabilities, leverage, worth,
	)
	if text == "" {
		summary += " Source text could not be read; figures are estimated."
	}
	return summary, nil
}
