package ports

import (
	"context"
	"io"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// UserRepository persists credential holders.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error)
	LoginTaken(ctx context.Context, username, email, excludeID string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
	// Delete removes the user and, child-first in one transaction, every
	// client, document and document side-data the user owns.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ClientRepository persists CA-scoped customer records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id, caID string) (*domain.Client, error)
	List(ctx context.Context, caID, search string, skip, limit int) ([]domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id, caID string) error
	Count(ctx context.Context, caID string) (int, error)
}

// DocumentRepository is the single source of truth for lifecycle state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	// GetByID is ownership-scoped: an existing document owned by someone
	// else is ErrNotFound, never ErrForbidden.
	GetByID(ctx context.Context, id, userID string) (*domain.Document, error)
	// GetAny loads without an ownership filter; worker-side only.
	GetAny(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error)
	// MarkProcessing flips uploaded|failed -> processing with a single
	// compare-and-swap UPDATE. ErrConflict when the row was not in an
	// eligible state, ErrNotFound when it does not exist.
	MarkProcessing(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	// SaveResults persists OCRResult, ExtractedData and Analysis together
	// with the completed flip and processed_at in one transaction.
	SaveResults(ctx context.Context, out domain.ProcessingOutput) error
	// Delete cascades to analysis/extracted_data/ocr_results child-first
	// inside one transaction.
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (total, completed int, err error)
	CountForUser(ctx context.Context, userID string) (total, completed int, err error)
	CountByFileTypeSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// AnalysisRepository reads and corrects processed results.
type AnalysisRepository interface {
	GetAnalysis(ctx context.Context, documentID string) (*domain.Analysis, error)
	GetExtractedData(ctx context.Context, documentID string) (*domain.ExtractedData, error)
	GetOCRResult(ctx context.Context, documentID string) (*domain.OCRResult, error)
	// UpdateFinancials rewrites the known financial fields and the
	// recomputed score in one transaction.
	UpdateFinancials(ctx context.Context, documentID string, fields domain.FinancialFields, score float64) error
}

// ObjectStorage stores uploaded statement files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher hands processing jobs to the worker pool. Delivery is
// at-least-once; the payload is the document id only.
type Dispatcher interface {
	Enqueue(ctx context.Context, documentID string) error
	// Subscribe consumes jobs until ctx is done. onFailure runs whenever
	// handler errors or panics, independent of the handler body.
	Subscribe(ctx context.Context, handler func(context.Context, string) error, onFailure func(context.Context, string, error)) error
}

type OCRText struct {
	Text       string
	Confidence float64
}

// TextExtractor is the extraction collaborator boundary. ExtractText must
// degrade to empty text and zero confidence on unreadable input; only an
// unsupported file extension is a hard ErrUnsupportedFileType.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc *domain.Document) (OCRText, error)
	ExtractFields(ctx context.Context, doc *domain.Document, text string) (domain.FinancialFields, error)
	ExtractTables(ctx context.Context, doc *domain.Document) ([]domain.Table, error)
}

// Scorer turns financial fields into a bounded score. Deterministic for
// identical inputs, clamped to [300,900], fixed default on degenerate input.
type Scorer interface {
	Score(fields domain.FinancialFields) float64
}

// Summarizer produces the free-text statement summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, fields domain.FinancialFields) (string, error)
}

// ChatResponder answers a free-form question about one processed document
// from its extracted text and figures.
type ChatResponder interface {
	Respond(ctx context.Context, text string, fields domain.FinancialFields, message string) (string, error)
}

// ReportGenerator renders a downloadable analysis report.
type ReportGenerator interface {
	Render(ctx context.Context, format string, doc *domain.Document, results *domain.AnalysisResults) (content []byte, contentType string, err error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer mints and verifies bearer tokens carrying the user id subject.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (subject string, err error)
}
