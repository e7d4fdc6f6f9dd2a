package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

type ClientsUseCase struct {
	clients ports.ClientRepository
}

func NewClientsUseCase(clients ports.ClientRepository) *ClientsUseCase {
	return &ClientsUseCase{clients: clients}
}

func (uc *ClientsUseCase) List(ctx context.Context, caID, search string, skip, limit int) ([]domain.Client, error) {
	clients, err := uc.clients.List(ctx, caID, search, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (uc *ClientsUseCase) Create(ctx context.Context, caID string, in domain.ClientInput) (*domain.Client, error) {
	if in.Name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create client",
			errors.New("client name is required"))
	}

	now := time.Now().UTC()
	client := &domain.Client{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CAID:      caID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (uc *ClientsUseCase) Get(ctx context.Context, caID, id string) (*domain.Client, error) {
	client, err := uc.clients.GetByID(ctx, id, caID)
	if err != nil {
		return nil, fmt.Errorf("fetch client: %w", err)
	}
	return client, nil
}

func (uc *ClientsUseCase) Update(ctx context.Context, caID, id string, in domain.ClientInput) (*domain.Client, error) {
	client, err := uc.clients.GetByID(ctx, id, caID)
	if err != nil {
		return nil, fmt.Errorf("fetch client: %w", err)
	}

	if in.Name != "" {
		client.Name = in.Name
	}
	client.Email = in.Email
	client.Phone = in.Phone
	client.Address = in.Address
	client.UpdatedAt = time.Now().UTC()

	if err := uc.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete cascades to the client's documents and their side-data inside the
// repository transaction.
func (uc *ClientsUseCase) Delete(ctx context.Context, caID, id string) error {
	if _, err := uc.clients.GetByID(ctx, id, caID); err != nil {
		return fmt.Errorf("fetch client: %w", err)
	}
	if err := uc.clients.Delete(ctx, id, caID); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
