package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// DocumentChat answers free-form questions about a processed statement by
// keyword-matching the question against the extracted figures. Answers come
// from the document's own numbers, never canned values.
type DocumentChat struct{}

func NewDocumentChat() *DocumentChat {
	return &DocumentChat{}
}

func (c *DocumentChat) Respond(ctx context.Context, text string, fields domain.FinancialFields, message string) (string, error) {
	q := strings.ToLower(message)

	switch {
	case containsAny(q, "revenue", "income"):
		return fmt.Sprintf("The statement reports income of %.2f for the period. Expenses of %.2f leave a net result of %.2f.",
			fields.Income, fields.Expenses, fields.Income-fields.Expenses), nil

	case containsAny(q, "profit", "margin"):
		net := fields.Income - fields.Expenses
		if fields.Income > 0 {
			return fmt.Sprintf("Net result for the period is %.2f, a margin of %.1f%% on income of %.2f.",
				net, net/fields.Income*100, fields.Income), nil
		}
		return fmt.Sprintf("Net result for the period is %.2f; no income is recorded, so a margin cannot be computed.", net), nil

	case containsAny(q, "expense", "cost"):
		if fields.Income > 0 {
			return fmt.Sprintf("Expenses total %.2f, consuming %.1f%% of the reported income.",
				fields.Expenses, fields.Expenses/fields.Income*100), nil
		}
		return fmt.Sprintf("Expenses total %.2f.", fields.Expenses), nil

	case containsAny(q, "debt", "liabilit"):
		if fields.Assets > 0 {
			return fmt.Sprintf("Liabilities stand at %.2f, which is %.1f%% of the asset base of %.2f.",
				fields.Liabilities, fields.Liabilities/fields.Assets*100, fields.Assets), nil
		}
		return fmt.Sprintf("Liabilities stand at %.2f; no assets are recorded to compare against.", fields.Liabilities), nil

	case containsAny(q, "asset"):
		return fmt.Sprintf("Total assets amount to %.2f against liabilities of %.2f, for a net worth of %.2f.",
			fields.Assets, fields.Liabilities, fields.Assets-fields.Liabilities), nil

	case containsAny(q, "ratio", "liquidity"):
		if fields.Liabilities > 0 {
			return fmt.Sprintf("The asset-to-liability ratio is %.2f.", fields.Assets/fields.Liabilities), nil
		}
		return "No liabilities are recorded, so liquidity ratios are not meaningful for this statement.", nil

	case containsAny(q, "summary", "overview"):
		summarizer := StatementSummarizer{}
		return summarizer.Summarize(ctx, text, fields)

	default:
		return "The statement records income, expenses, assets and liabilities for the period. " +
			"Ask about revenue, profit, expenses, liabilities, assets or ratios for specific figures.", nil
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
