package usecase

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

const recentItems = 5

// CAUseCase builds the CA user's workload dashboard from their own clients
// and documents.
type CAUseCase struct {
	clients ports.ClientRepository
	docs    ports.DocumentRepository
}

func NewCAUseCase(clients ports.ClientRepository, docs ports.DocumentRepository) *CAUseCase {
	return &CAUseCase{clients: clients, docs: docs}
}

func (uc *CAUseCase) Dashboard(ctx context.Context, caID string) (*domain.CADashboard, error) {
	totalClients, err := uc.clients.Count(ctx, caID)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	totalDocs, completedDocs, err := uc.docs.CountForUser(ctx, caID)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	docs, err := uc.docs.List(ctx, caID, domain.DocumentFilter{Limit: recentItems})
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}
	recentDocs := make([]domain.RecentDocument, 0, len(docs))
	for _, doc := range docs {
		recentDocs = append(recentDocs, domain.RecentDocument{
			ID:         doc.ID,
			Title:      doc.Title,
			Status:     doc.Status,
			CreatedAt:  doc.CreatedAt,
			ClientName: doc.ClientName,
		})
	}

	clients, err := uc.clients.List(ctx, caID, "", 0, recentItems)
	if err != nil {
		return nil, fmt.Errorf("list recent clients: %w", err)
	}
	recentClients := make([]domain.RecentClient, 0, len(clients))
	for _, client := range clients {
		recentClients = append(recentClients, domain.RecentClient{
			ID:             client.ID,
			Name:           client.Name,
			Email:          client.Email,
			DocumentsCount: client.DocumentCount,
		})
	}

	return &domain.CADashboard{
		TotalClients:       totalClients,
		TotalDocuments:     totalDocs,
		ProcessedDocuments: completedDocs,
		RecentDocuments:    recentDocs,
		RecentClients:      recentClients,
	}, nil
}
