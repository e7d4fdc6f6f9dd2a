package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) GetAnalysis(ctx context.Context, documentID string) (*domain.Analysis, error) {
	var analysis domain.Analysis
	err := r.db.QueryRowContext(ctx, `
SELECT document_id, cibil_score, summary, created_at
FROM analyses
WHERE document_id = $1
`, documentID).Scan(&analysis.DocumentID, &analysis.CibilScore, &analysis.Summary, &analysis.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch analysis", errors.New("analysis not found"))
		}
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	return &analysis, nil
}

func (r *AnalysisRepository) GetExtractedData(ctx context.Context, documentID string) (*domain.ExtractedData, error) {
	var data domain.ExtractedData
	var fieldsJSON, tablesJSON []byte
	err := r.db.QueryRowContext(ctx, `
SELECT document_id, fields, tables, created_at
FROM extracted_data
WHERE document_id = $1
`, documentID).Scan(&data.DocumentID, &fieldsJSON, &tablesJSON, &data.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch extracted data", errors.New("extracted data not found"))
		}
		return nil, fmt.Errorf("scan extracted data: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &data.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal(tablesJSON, &data.Tables); err != nil {
		return nil, fmt.Errorf("unmarshal tables: %w", err)
	}
	return &data, nil
}

func (r *AnalysisRepository) GetOCRResult(ctx context.Context, documentID string) (*domain.OCRResult, error) {
	var result domain.OCRResult
	err := r.db.QueryRowContext(ctx, `
SELECT document_id, text, confidence, created_at
FROM ocr_results
WHERE document_id = $1
`, documentID).Scan(&result.DocumentID, &result.Text, &result.Confidence, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch ocr result", errors.New("ocr result not found"))
		}
		return nil, fmt.Errorf("scan ocr result: %w", err)
	}
	return &result, nil
}

// UpdateFinancials rewrites corrected fields and the recomputed score
// together so a reader never observes one without the other.
func (r *AnalysisRepository) UpdateFinancials(ctx context.Context, documentID string, fields domain.FinancialFields, score float64) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin financials tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
UPDATE extracted_data
SET fields = $2
WHERE document_id = $1
`, documentID, fieldsJSON)
	if err != nil {
		return fmt.Errorf("update extracted fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fields rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update financials", errors.New("extracted data not found"))
	}

	res, err = tx.ExecContext(ctx, `
UPDATE analyses
SET cibil_score = $2
WHERE document_id = $1
`, documentID, score)
	if err != nil {
		return fmt.Errorf("update analysis score: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update score rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update financials", errors.New("analysis not found"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit financials tx: %w", err)
	}
	return nil
}
