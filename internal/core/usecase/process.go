package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

// ProcessDocumentUseCase runs the worker-side pipeline: OCR, structured
// extraction, tables, summary, score. All outputs land in one transaction
// together with the completed flip; any error leaves the document failed
// with no partial side-data.
type ProcessDocumentUseCase struct {
	docs       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	scorer     ports.Scorer
	summarizer ports.Summarizer
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	docs ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	scorer ports.Scorer,
	summarizer ports.Summarizer,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		docs:       docs,
		storage:    storage,
		extractor:  extractor,
		scorer:     scorer,
		summarizer: summarizer,
		logger:     logger,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.docs.GetAny(ctx, documentID)
	if err != nil {
		// No row to flip; the dispatcher failure hook is a no-op too.
		return fmt.Errorf("fetch document by id: %w", err)
	}

	out, err := uc.runPipeline(ctx, doc)
	if err != nil {
		if failErr := uc.docs.MarkFailed(ctx, documentID); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %w", err, failErr)
		}
		return err
	}

	if err := uc.docs.SaveResults(ctx, *out); err != nil {
		if failErr := uc.docs.MarkFailed(ctx, documentID); failErr != nil {
			return fmt.Errorf("persist results: %w; mark failed status: %w", err, failErr)
		}
		return fmt.Errorf("persist results: %w", err)
	}

	uc.logger.Info("document processed",
		"document_id", documentID,
		"score", out.Analysis.CibilScore,
		"confidence", out.OCR.Confidence,
	)
	return nil
}

func (uc *ProcessDocumentUseCase) runPipeline(ctx context.Context, doc *domain.Document) (*domain.ProcessingOutput, error) {
	// A missing backing file is fatal, not a graceful-degradation case.
	f, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessingFailure, "open stored file", err)
	}
	_ = f.Close()

	ocr, err := uc.extractor.ExtractText(ctx, doc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessingFailure, "extract text", err)
	}

	fields, err := uc.extractor.ExtractFields(ctx, doc, ocr.Text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessingFailure, "extract financial fields", err)
	}

	tables, err := uc.extractor.ExtractTables(ctx, doc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessingFailure, "extract tables", err)
	}

	summary, err := uc.summarizer.Summarize(ctx, ocr.Text, fields)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessingFailure, "generate summary", err)
	}

	score := uc.scorer.Score(fields)
	now := time.Now().UTC()

	return &domain.ProcessingOutput{
		OCR: domain.OCRResult{
			DocumentID: doc.ID,
			Text:       ocr.Text,
			Confidence: ocr.Confidence,
			CreatedAt:  now,
		},
		Extracted: domain.ExtractedData{
			DocumentID: doc.ID,
			Fields:     fields,
			Tables:     tables,
			CreatedAt:  now,
		},
		Analysis: domain.Analysis{
			DocumentID: doc.ID,
			CibilScore: score,
			Summary:    summary,
			CreatedAt:  now,
		},
	}, nil
}
