package ports

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// DocumentIngestor is the inbound contract for statement upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, owner *domain.User, in domain.UploadInput) (*domain.Document, error)
}

// DocumentLifecycle is the inbound contract for document bookkeeping and the
// processing state machine.
type DocumentLifecycle interface {
	List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error)
	Get(ctx context.Context, userID, id string) (*domain.Document, error)
	TriggerProcessing(ctx context.Context, userID, id string) (*domain.ProcessResponse, error)
	Status(ctx context.Context, userID, id string) (*domain.StatusResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

// DocumentProcessor runs the worker-side pipeline for one document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// AnalysisService serves processed results and score corrections.
type AnalysisService interface {
	Results(ctx context.Context, userID, documentID string) (*domain.AnalysisResults, error)
	Cibil(ctx context.Context, userID, documentID string) (*domain.CibilScore, error)
	UpdateCibil(ctx context.Context, userID, documentID string, fields domain.FinancialFields) (*domain.CibilScore, error)
	Summary(ctx context.Context, userID, documentID string) (*domain.SummaryResponse, error)
	Tables(ctx context.Context, userID, documentID string) ([]domain.Table, error)
	OCRText(ctx context.Context, userID, documentID string) (*domain.OCRResult, error)
	Chat(ctx context.Context, userID, documentID, message string) (string, error)
	DownloadReport(ctx context.Context, userID, documentID, format string) (content []byte, filename, contentType string, err error)
}

// AuthService authenticates requests and manages the caller's own account.
type AuthService interface {
	Login(ctx context.Context, login, password string) (*domain.TokenResponse, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, requester *domain.User, in domain.RegisterInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User, in domain.UserUpdate) (*domain.User, error)
	// RequestPasswordReset never reveals whether the email has an account.
	RequestPasswordReset(ctx context.Context, email string) error
}

// ClientDirectory is the inbound contract for CA client bookkeeping.
type ClientDirectory interface {
	List(ctx context.Context, caID, search string, skip, limit int) ([]domain.Client, error)
	Create(ctx context.Context, caID string, in domain.ClientInput) (*domain.Client, error)
	Get(ctx context.Context, caID, id string) (*domain.Client, error)
	Update(ctx context.Context, caID, id string, in domain.ClientInput) (*domain.Client, error)
	Delete(ctx context.Context, caID, id string) error
}

// AdminService exposes administrator-only user management and stats.
type AdminService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	Stats(ctx context.Context, timeRange string) (*domain.UsageStats, error)
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error)
	CreateUser(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in domain.UserUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, requester *domain.User, id string) error
}

// CAService serves the CA user's own workload dashboard.
type CAService interface {
	Dashboard(ctx context.Context, caID string) (*domain.CADashboard, error)
}
