package scoring

import (
	"context"
	"strings"
	"testing"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func TestScoreDegenerateInputs(t *testing.T) {
	scorer := NewCibilScorer()

	cases := []domain.FinancialFields{
		{Income: 0, Assets: 1000},
		{Income: -5, Assets: 1000},
		{Income: 1000, Assets: 0},
		{Income: 1000, Assets: -1},
	}
	for _, fields := range cases {
		if got := scorer.Score(fields); got != 600 {
			t.Fatalf("fields %+v: expected 600, got %v", fields, got)
		}
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	scorer := NewCibilScorer()

	cases := []domain.FinancialFields{
		{Income: 1, Expenses: 0, Assets: 1, Liabilities: 0},
		{Income: 100, Expenses: 1000, Assets: 100, Liabilities: 1000},
		{Income: 500000, Expenses: 300000, Assets: 2000000, Liabilities: 1000000},
	}
	for _, fields := range cases {
		got := scorer.Score(fields)
		if got < 300 || got > 900 {
			t.Fatalf("fields %+v: score %v out of [300,900]", fields, got)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := NewCibilScorer()
	fields := domain.FinancialFields{Income: 500000, Expenses: 300000, Assets: 2000000, Liabilities: 1000000}

	first := scorer.Score(fields)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(fields); got != first {
			t.Fatalf("score changed across calls: %v vs %v", first, got)
		}
	}

	// Savings rate 0.4 and coverage 0.5 on top of the 750 base.
	if first != 840 {
		t.Fatalf("expected 840, got %v", first)
	}
}

func TestScoreIgnoresOverspendAndOverleverage(t *testing.T) {
	scorer := NewCibilScorer()

	// Both adjustment terms floor at zero, never subtract from the base.
	fields := domain.FinancialFields{Income: 100, Expenses: 500, Assets: 100, Liabilities: 900}
	if got := scorer.Score(fields); got != 750 {
		t.Fatalf("expected base 750, got %v", got)
	}
}

func TestSummarizeMentionsEstimateWhenTextMissing(t *testing.T) {
	summarizer := NewStatementSummarizer()
	fields := domain.FinancialFields{Income: 500000, Expenses: 300000, Assets: 2000000, Liabilities: 1000000}

	summary, err := summarizer.Summarize(context.Background(), "", fields)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(summary, "estimated") {
		t.Fatalf("expected estimate note, got %q", summary)
	}

	summary, err = summarizer.Summarize(context.Background(), "statement text", fields)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Contains(summary, "estimated") {
		t.Fatalf("unexpected estimate note with readable text: %q", summary)
	}
}
