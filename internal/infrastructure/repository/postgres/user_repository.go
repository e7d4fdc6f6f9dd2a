package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, is_active, created_at, last_login`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, role, first_name, last_name, is_active, created_at, last_login)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, user.IsActive, user.CreatedAt, user.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByLogin resolves a username or an email, in that order.
func (r *UserRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE username = $1 OR email = $1
ORDER BY (username = $1) DESC
LIMIT 1
`, usernameOrEmail)
	return scanUser(row)
}

func (r *UserRepository) LoginTaken(ctx context.Context, username, email, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM users
	WHERE (username = $1 OR email = $2) AND id <> $3
)
`, username, email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check login taken: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET username = $2, email = $3, password_hash = $4, role = $5, first_name = $6, last_name = $7, is_active = $8
WHERE id = $1
`,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, user.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update user", errors.New("user not found"))
	}
	return nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY created_at DESC
OFFSET $1 LIMIT $2
`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Delete removes the user and everything the user owns: per owned document
// its side-data and the row, then the clients, then the user — child-first,
// one transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range []string{
		`DELETE FROM ocr_results WHERE document_id IN (SELECT id FROM documents WHERE user_id = $1)`,
		`DELETE FROM extracted_data WHERE document_id IN (SELECT id FROM documents WHERE user_id = $1)`,
		`DELETE FROM analyses WHERE document_id IN (SELECT id FROM documents WHERE user_id = $1)`,
		`DELETE FROM documents WHERE user_id = $1`,
		`DELETE FROM clients WHERE ca_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade user delete: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete user", errors.New("user not found"))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "fetch user", errors.New("user not found"))
		}
		return nil, err
	}
	return user, nil
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	var role string
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role,
		&user.FirstName, &user.LastName, &user.IsActive, &user.CreatedAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Role = domain.UserRole(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}
