package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO clients (id, name, email, phone, address, ca_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		client.ID, client.Name, client.Email, client.Phone, client.Address,
		client.CAID, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id, caID string) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT c.id, c.name, c.email, c.phone, c.address, c.ca_id, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM documents d WHERE d.client_id = c.id)
FROM clients c
WHERE c.id = $1 AND c.ca_id = $2
`, id, caID)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch client", errors.New("client not found"))
		}
		return nil, err
	}
	return client, nil
}

func (r *ClientRepository) List(ctx context.Context, caID, search string, skip, limit int) ([]domain.Client, error) {
	builder := psql.
		Select("c.id", "c.name", "c.email", "c.phone", "c.address", "c.ca_id", "c.created_at", "c.updated_at",
			"(SELECT COUNT(*) FROM documents d WHERE d.client_id = c.id)").
		From("clients c").
		Where(sq.Eq{"c.ca_id": caID}).
		OrderBy("c.name ASC")

	if search != "" {
		pattern := "%" + search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"c.name": pattern},
			sq.ILike{"c.email": pattern},
		})
	}
	if skip > 0 {
		builder = builder.Offset(uint64(skip))
	}
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
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE clients
SET name = $3, email = $4, phone = $5, address = $6, updated_at = $7
WHERE id = $1 AND ca_id = $2
`,
		client.ID, client.CAID, client.Name, client.Email, client.Phone, client.Address, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update client", errors.New("client not found"))
	}
	return nil
}

// Delete cascades to the client's documents and their side-data, child-first
// in one transaction.
func (r *ClientRepository) Delete(ctx context.Context, id, caID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range []string{
		`DELETE FROM ocr_results WHERE document_id IN (SELECT id FROM documents WHERE client_id = $1)`,
		`DELETE FROM extracted_data WHERE document_id IN (SELECT id FROM documents WHERE client_id = $1)`,
		`DELETE FROM analyses WHERE document_id IN (SELECT id FROM documents WHERE client_id = $1)`,
		`DELETE FROM documents WHERE client_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade client delete: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND ca_id = $2`, id, caID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete client rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete client", errors.New("client not found"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func (r *ClientRepository) Count(ctx context.Context, caID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE ca_id = $1`, caID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var client domain.Client
	err := row.Scan(
		&client.ID, &client.Name, &client.Email, &client.Phone, &client.Address,
		&client.CAID, &client.CreatedAt, &client.UpdatedAt, &client.DocumentCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return &client, nil
}
