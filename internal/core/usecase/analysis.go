package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

type AnalysisUseCase struct {
	docs     ports.DocumentRepository
	analysis ports.AnalysisRepository
	scorer   ports.Scorer
	reports  ports.ReportGenerator
	chat     ports.ChatResponder
}

func NewAnalysisUseCase(
	docs ports.DocumentRepository,
	analysis ports.AnalysisRepository,
	scorer ports.Scorer,
	reports ports.ReportGenerator,
	chat ports.ChatResponder,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		docs:     docs,
		analysis: analysis,
		scorer:   scorer,
		reports:  reports,
		chat:     chat,
	}
}

// completedDocument enforces ownership and the processed precondition shared
// by the result-serving endpoints.
func (uc *AnalysisUseCase) completedDocument(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if doc.Status != domain.StatusCompleted {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read analysis",
			errors.New("document has not been processed yet"))
	}
	return doc, nil
}

func (uc *AnalysisUseCase) ownedDocument(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return doc, nil
}

func (uc *AnalysisUseCase) Results(ctx context.Context, userID, documentID string) (*domain.AnalysisResults, error) {
	if _, err := uc.completedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return composeResults(ctx, uc.analysis, documentID)
}

func (uc *AnalysisUseCase) Cibil(ctx context.Context, userID, documentID string) (*domain.CibilScore, error) {
	if _, err := uc.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	analysis, err := uc.analysis.GetAnalysis(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis: %w", err)
	}
	extracted, err := uc.analysis.GetExtractedData(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch extracted data: %w", err)
	}

	return &domain.CibilScore{
		Score:         int(analysis.CibilScore),
		ExtractedData: extracted.Fields,
	}, nil
}

// UpdateCibil overwrites the four known financial fields and recomputes the
// score from them; both writes happen in one transaction.
func (uc *AnalysisUseCase) UpdateCibil(ctx context.Context, userID, documentID string, fields domain.FinancialFields) (*domain.CibilScore, error) {
	if _, err := uc.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	extracted, err := uc.analysis.GetExtractedData(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch extracted data: %w", err)
	}

	// Extension fields survive a correction of the four known ones.
	fields.Extra = extracted.Fields.Extra

	score := uc.scorer.Score(fields)
	if err := uc.analysis.UpdateFinancials(ctx, documentID, fields, score); err != nil {
		return nil, fmt.Errorf("update financials: %w", err)
	}

	return &domain.CibilScore{
		Score:         int(score),
		ExtractedData: fields,
	}, nil
}

func (uc *AnalysisUseCase) Summary(ctx context.Context, userID, documentID string) (*domain.SummaryResponse, error) {
	doc, err := uc.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	analysis, err := uc.analysis.GetAnalysis(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis: %w", err)
	}
	extracted, err := uc.analysis.GetExtractedData(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch extracted data: %w", err)
	}

	f := extracted.Fields
	return &domain.SummaryResponse{
		Title:       doc.Title,
		Date:        doc.CreatedAt.Format("2006-01-02"),
		Overview:    analysis.Summary,
		KeyFindings: keyFindings(f, analysis.CibilScore),
		FinancialHighlights: domain.FinancialHighlights{
			Revenue:     f.Income,
			Expenses:    f.Expenses,
			Profit:      f.Income - f.Expenses,
			Assets:      f.Assets,
			Liabilities: f.Liabilities,
			Equity:      f.Assets - f.Liabilities,
		},
	}, nil
}

func keyFindings(f domain.FinancialFields, score float64) []string {
	findings := []string{
		fmt.Sprintf("Net result for the period is %.0f against an income of %.0f.", f.Income-f.Expenses, f.Income),
		fmt.Sprintf("Computed creditworthiness score is %d.", int(score)),
	}
	if f.Income > 0 {
		findings = append(findings,
			fmt.Sprintf("Expenses consume %.1f%% of income.", f.Expenses/f.Income*100))
	}
	if f.Assets > 0 {
		findings = append(findings,
			fmt.Sprintf("Liabilities stand at %.1f%% of total assets.", f.Liabilities/f.Assets*100))
	}
	return findings
}

func (uc *AnalysisUseCase) Tables(ctx context.Context, userID, documentID string) ([]domain.Table, error) {
	if _, err := uc.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	extracted, err := uc.analysis.GetExtractedData(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch extracted data: %w", err)
	}
	if len(extracted.Tables) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "read tables",
			errors.New("no tables found in document"))
	}
	return extracted.Tables, nil
}

func (uc *AnalysisUseCase) OCRText(ctx context.Context, userID, documentID string) (*domain.OCRResult, error) {
	if _, err := uc.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	ocr, err := uc.analysis.GetOCRResult(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch ocr result: %w", err)
	}
	return ocr, nil
}

// Chat answers a question about the document from its extracted content.
// Extracted figures are optional; the raw text is not.
func (uc *AnalysisUseCase) Chat(ctx context.Context, userID, documentID, message string) (string, error) {
	if _, err := uc.ownedDocument(ctx, userID, documentID); err != nil {
		return "", err
	}

	ocr, err := uc.analysis.GetOCRResult(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return "", domain.WrapError(domain.ErrNotFound, "chat",
				errors.New("document content not found"))
		}
		return "", fmt.Errorf("fetch ocr result: %w", err)
	}

	var fields domain.FinancialFields
	if extracted, err := uc.analysis.GetExtractedData(ctx, documentID); err == nil {
		fields = extracted.Fields
	} else if !domain.IsKind(err, domain.ErrNotFound) {
		return "", fmt.Errorf("fetch extracted data: %w", err)
	}

	reply, err := uc.chat.Respond(ctx, ocr.Text, fields, message)
	if err != nil {
		return "", fmt.Errorf("generate chat response: %w", err)
	}
	return reply, nil
}

func (uc *AnalysisUseCase) DownloadReport(ctx context.Context, userID, documentID, format string) ([]byte, string, string, error) {
	doc, err := uc.completedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, "", "", err
	}

	results, err := composeResults(ctx, uc.analysis, documentID)
	if err != nil {
		return nil, "", "", err
	}

	content, contentType, err := uc.reports.Render(ctx, format, doc, results)
	if err != nil {
		return nil, "", "", fmt.Errorf("render report: %w", err)
	}

	filename := fmt.Sprintf("analysis-report-%s.%s", documentID, format)
	return content, filename, contentType, nil
}
