package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const documentColumns = `d.id, d.title, d.description, d.file_path, d.file_type, d.status, d.client_id, d.user_id, c.name, d.created_at, d.processed_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, title, description, file_path, file_type, status, client_id, user_id, created_at, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Title, doc.Description, doc.FilePath, doc.FileType, string(doc.Status),
		nullable(doc.ClientID), doc.UserID, doc.CreatedAt, doc.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id, userID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
LEFT JOIN clients c ON c.id = d.client_id
WHERE d.id = $1 AND d.user_id = $2
`, id, userID)
	return scanDocument(row)
}

// GetAny loads without the ownership filter; used only by the worker, which
// acts on ids received from the queue rather than from a user.
func (r *DocumentRepository) GetAny(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
LEFT JOIN clients c ON c.id = d.client_id
WHERE d.id = $1
`, id)
	return scanDocument(row)
}

func (r *DocumentRepository) List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error) {
	builder := psql.
		Select("d.id", "d.title", "d.description", "d.file_path", "d.file_type", "d.status",
			"d.client_id", "d.user_id", "c.name", "d.created_at", "d.processed_at").
		From("documents d").
		LeftJoin("clients c ON c.id = d.client_id").
		Where(sq.Eq{"d.user_id": userID}).
		OrderBy("d.created_at DESC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"d.status": string(filter.Status)})
	}
	if filter.ClientID != "" {
		builder = builder.Where(sq.Eq{"d.client_id": filter.ClientID})
	}
	if filter.Skip > 0 {
		builder = builder.Offset(uint64(filter.Skip))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// MarkProcessing is the compare-and-swap closing the double-trigger race:
// two racing requests both read `uploaded`, only one update matches.
func (r *DocumentRepository) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2
WHERE id = $1 AND status IN ($3, $4)
`, id, string(domain.StatusProcessing), string(domain.StatusUploaded), string(domain.StatusFailed))
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check document existence: %w", err)
	}
	if !exists {
		return domain.WrapError(domain.ErrNotFound, "mark processing", errors.New("document not found"))
	}
	return domain.WrapError(domain.ErrConflict, "mark processing", errors.New("document not in a processable state"))
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2
WHERE id = $1
`, id, string(domain.StatusFailed))
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// SaveResults commits all worker outputs and the terminal flip atomically;
// a failure anywhere rolls the whole batch back so no partial side-data can
// ever accompany a failed document.
func (r *DocumentRepository) SaveResults(ctx context.Context, out domain.ProcessingOutput) error {
	fieldsJSON, err := json.Marshal(out.Extracted.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	tablesJSON, err := json.Marshal(out.Extracted.Tables)
	if err != nil {
		return fmt.Errorf("marshal tables: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ocr_results (document_id, text, confidence, created_at)
VALUES ($1,$2,$3,$4)
`, out.OCR.DocumentID, out.OCR.Text, out.OCR.Confidence, out.OCR.CreatedAt); err != nil {
		return fmt.Errorf("insert ocr result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO extracted_data (document_id, fields, tables, created_at)
VALUES ($1,$2,$3,$4)
`, out.Extracted.DocumentID, fieldsJSON, tablesJSON, out.Extracted.CreatedAt); err != nil {
		return fmt.Errorf("insert extracted data: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO analyses (document_id, cibil_score, summary, created_at)
VALUES ($1,$2,$3,$4)
`, out.Analysis.DocumentID, out.Analysis.CibilScore, out.Analysis.Summary, out.Analysis.CreatedAt); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
UPDATE documents
SET status = $2, processed_at = $3
WHERE id = $1
`, out.OCR.DocumentID, string(domain.StatusCompleted), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("flip completed status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completed flip rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "save results", errors.New("document disappeared"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results tx: %w", err)
	}
	return nil
}

// Delete removes side-data child-first, then the document, in one
// transaction — the cascade is explicit so the blast radius is auditable.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteDocumentChildren(ctx, tx, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete document", errors.New("document not found"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func deleteDocumentChildren(ctx context.Context, tx *sql.Tx, documentID string) error {
	for _, stmt := range []string{
		`DELETE FROM ocr_results WHERE document_id = $1`,
		`DELETE FROM extracted_data WHERE document_id = $1`,
		`DELETE FROM analyses WHERE document_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, documentID); err != nil {
			return fmt.Errorf("delete document side-data: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepository) CountByStatus(ctx context.Context) (int, int, error) {
	var total, completed int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
FROM documents
`, string(domain.StatusCompleted)).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	return total, completed, nil
}

func (r *DocumentRepository) CountForUser(ctx context.Context, userID string) (int, int, error) {
	var total, completed int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
FROM documents
WHERE user_id = $2
`, string(domain.StatusCompleted), userID).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count user documents: %w", err)
	}
	return total, completed, nil
}

func (r *DocumentRepository) CountByFileTypeSince(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT file_type, COUNT(*)
FROM documents
WHERE created_at >= $1
GROUP BY file_type
`, since)
	if err != nil {
		return nil, fmt.Errorf("count documents by type: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var fileType string
		var n int
		if err := rows.Scan(&fileType, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[fileType] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch document", errors.New("document not found"))
		}
		return nil, err
	}
	return doc, nil
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var clientID, clientName sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.FilePath, &doc.FileType, &status,
		&clientID, &doc.UserID, &clientName, &doc.CreatedAt, &processedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.ClientID = clientID.String
	doc.ClientName = clientName.String
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
