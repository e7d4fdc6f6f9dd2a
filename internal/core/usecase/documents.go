package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

// DocumentLifecycleUseCase owns the uploaded -> processing -> completed|failed
// state machine on the request side. The worker pipeline lives in
// ProcessDocumentUseCase.
type DocumentLifecycleUseCase struct {
	docs       ports.DocumentRepository
	analysis   ports.AnalysisRepository
	storage    ports.ObjectStorage
	dispatcher ports.Dispatcher
	logger     *slog.Logger
}

func NewDocumentLifecycleUseCase(
	docs ports.DocumentRepository,
	analysis ports.AnalysisRepository,
	storage ports.ObjectStorage,
	dispatcher ports.Dispatcher,
	logger *slog.Logger,
) *DocumentLifecycleUseCase {
	return &DocumentLifecycleUseCase{
		docs:       docs,
		analysis:   analysis,
		storage:    storage,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (uc *DocumentLifecycleUseCase) List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error) {
	docs, err := uc.docs.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (uc *DocumentLifecycleUseCase) Get(ctx context.Context, userID, id string) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return doc, nil
}

// TriggerProcessing flips the document into processing and enqueues the job.
// Already-completed documents return their existing results idempotently;
// a concurrent double-trigger loses the compare-and-swap and gets an invalid
// state error. Re-triggering a failed document is allowed.
func (uc *DocumentLifecycleUseCase) TriggerProcessing(ctx context.Context, userID, id string) (*domain.ProcessResponse, error) {
	doc, err := uc.docs.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	switch doc.Status {
	case domain.StatusProcessing:
		return nil, domain.WrapError(domain.ErrInvalidInput, "trigger processing",
			errors.New("document is already being processed"))
	case domain.StatusCompleted:
		results, err := uc.loadResults(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("load completed results: %w", err)
		}
		return &domain.ProcessResponse{
			DocumentID: doc.ID,
			Status:     domain.StatusCompleted,
			Message:    "Document has already been processed",
			Results:    results,
		}, nil
	}

	if err := uc.docs.MarkProcessing(ctx, id); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "trigger processing",
				errors.New("document is already being processed"))
		}
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	if err := uc.dispatcher.Enqueue(ctx, id); err != nil {
		// The job never reached the queue; park the document in failed so
		// the client can re-trigger instead of polling a stuck status.
		if failErr := uc.docs.MarkFailed(ctx, id); failErr != nil {
			uc.logger.Error("mark failed after enqueue error", "document_id", id, "error", failErr)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "enqueue processing job", err)
	}

	return &domain.ProcessResponse{
		DocumentID: id,
		Status:     domain.StatusProcessing,
		Message:    "Document processing started",
	}, nil
}

func (uc *DocumentLifecycleUseCase) Status(ctx context.Context, userID, id string) (*domain.StatusResponse, error) {
	doc, err := uc.docs.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return &domain.StatusResponse{
		DocumentID:  doc.ID,
		Status:      doc.Status,
		ProcessedAt: doc.ProcessedAt,
	}, nil
}

// Delete removes the backing file best-effort and then cascades the database
// delete. A storage failure is logged, not surfaced: the database row is the
// authoritative lifecycle record.
func (uc *DocumentLifecycleUseCase) Delete(ctx context.Context, userID, id string) error {
	doc, err := uc.docs.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}

	if err := uc.storage.Delete(ctx, doc.FilePath); err != nil {
		uc.logger.Warn("delete stored file", "document_id", id, "storage_key", doc.FilePath, "error", err)
	}

	if err := uc.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (uc *DocumentLifecycleUseCase) loadResults(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
	return composeResults(ctx, uc.analysis, documentID)
}

// composeResults joins the three 1:1 result rows into the combined payload.
func composeResults(ctx context.Context, repo ports.AnalysisRepository, documentID string) (*domain.AnalysisResults, error) {
	analysis, err := repo.GetAnalysis(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis: %w", err)
	}
	extracted, err := repo.GetExtractedData(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch extracted data: %w", err)
	}
	ocr, err := repo.GetOCRResult(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch ocr result: %w", err)
	}

	return &domain.AnalysisResults{
		Analysis: domain.AnalysisSnapshot{
			CibilScore: analysis.CibilScore,
			Summary:    analysis.Summary,
		},
		ExtractedData: extracted.Fields,
		TableData:     domain.TableData{Tables: extracted.Tables},
		OCRText:       ocr.Text,
		Confidence:    ocr.Confidence,
	}, nil
}
