package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type UploadDocumentUseCase struct {
	docs          ports.DocumentRepository
	clients       ports.ClientRepository
	storage       ports.ObjectStorage
	maxUploadSize int64
	logger        *slog.Logger
}

func NewUploadDocumentUseCase(
	docs ports.DocumentRepository,
	clients ports.ClientRepository,
	storage ports.ObjectStorage,
	maxUploadSize int64,
	logger *slog.Logger,
) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		docs:          docs,
		clients:       clients,
		storage:       storage,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (uc *UploadDocumentUseCase) Upload(ctx context.Context, owner *domain.User, in domain.UploadInput) (*domain.Document, error) {
	if in.Size > uc.maxUploadSize {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("file too large, maximum size is %dMB", uc.maxUploadSize/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedExtensions[ext] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			errors.New("only PDF and image files (JPG, JPEG, PNG) are allowed"))
	}

	if in.ClientID != "" {
		if _, err := uc.clients.GetByID(ctx, in.ClientID, owner.ID); err != nil {
			return nil, fmt.Errorf("validate client: %w", err)
		}
	}

	id := uuid.NewString()
	storageKey := id + ext

	// The file hits durable storage before the row that references it; the
	// reverse order leaves records pointing at nothing after a crash.
	if err := uc.storage.Save(ctx, storageKey, in.Content); err != nil {
		return nil, fmt.Errorf("save uploaded file: %w", err)
	}

	title := in.Title
	if title == "" {
		title = in.Filename
	}

	doc := &domain.Document{
		ID:          id,
		Title:       title,
		Description: in.Description,
		FilePath:    storageKey,
		FileType:    in.ContentType,
		Status:      domain.StatusUploaded,
		ClientID:    in.ClientID,
		UserID:      owner.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.docs.Create(ctx, doc); err != nil {
		if delErr := uc.storage.Delete(ctx, storageKey); delErr != nil {
			uc.logger.Error("orphan cleanup failed", "storage_key", storageKey, "error", delErr)
		}
		return nil, fmt.Errorf("create document record: %w", err)
	}

	return doc, nil
}
