package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

type AdminUseCase struct {
	users  ports.UserRepository
	docs   ports.DocumentRepository
	hasher ports.PasswordHasher
}

func NewAdminUseCase(users ports.UserRepository, docs ports.DocumentRepository, hasher ports.PasswordHasher) *AdminUseCase {
	return &AdminUseCase{users: users, docs: docs, hasher: hasher}
}

func (uc *AdminUseCase) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	totalUsers, err := uc.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totalDocs, completedDocs, err := uc.docs.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	rate := 0
	if totalDocs > 0 {
		rate = completedDocs * 100 / totalDocs
	}

	return &domain.DashboardStats{
		TotalUsers:         totalUsers,
		TotalDocuments:     totalDocs,
		ProcessedDocuments: completedDocs,
		ProcessingRate:     rate,
	}, nil
}

// Stats aggregates document activity over a trailing window. The range names
// mirror the dashboard controls.
func (uc *AdminUseCase) Stats(ctx context.Context, timeRange string) (*domain.UsageStats, error) {
	window, ok := statsWindows[timeRange]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "usage stats",
			errors.New("time_range must be one of week, month, quarter, year"))
	}

	byType, err := uc.docs.CountByFileTypeSince(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("count documents by type: %w", err)
	}
	total, completed, err := uc.docs.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	return &domain.UsageStats{
		TimeRange:          timeRange,
		DocumentsByType:    byType,
		TotalDocuments:     total,
		ProcessedDocuments: completed,
	}, nil
}

var statsWindows = map[string]time.Duration{
	"week":    7 * 24 * time.Hour,
	"month":   30 * 24 * time.Hour,
	"quarter": 91 * 24 * time.Hour,
	"year":    365 * 24 * time.Hour,
}

func (uc *AdminUseCase) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	users, err := uc.users.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (uc *AdminUseCase) CreateUser(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	return createUser(ctx, uc.users, uc.hasher, in)
}

func (uc *AdminUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

func (uc *AdminUseCase) UpdateUser(ctx context.Context, id string, in domain.UserUpdate) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if err := applyUserUpdate(ctx, uc.users, uc.hasher, user, in); err != nil {
		return nil, err
	}
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// DeleteUser cascades to every client and document the user owns. The blast
// radius is deliberate product behavior; self-deletion is rejected so an
// administrator cannot lock the instance out.
func (uc *AdminUseCase) DeleteUser(ctx context.Context, requester *domain.User, id string) error {
	if requester.ID == id {
		return domain.WrapError(domain.ErrInvalidInput, "delete user",
			errors.New("cannot delete your own account"))
	}
	if _, err := uc.users.GetByID(ctx, id); err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if err := uc.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
