package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"planbook/internal/entity"
)

// ErrDuplicateEmail is returned by Create when the email is taken.
var ErrDuplicateEmail = errors.New("email already in use")

const uniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, status, created_at`

// FindByEmail matches case-insensitively. Returns (nil, nil) when no
// user exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.FirstName, u.LastName, u.Email, u.PasswordHash, int(u.Role), string(u.Status)).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1 WHERE id = $2
	`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *UserRepository) SetStatus(ctx context.Context, userID int, status entity.Status) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $1 WHERE id = $2
	`, string(status), userID)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		var u entity.User
		var role int
		var status string
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
			&u.PasswordHash, &role, &status, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = entity.Role(role)
		u.Status = entity.Status(status)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var u entity.User
	var role int
	var status string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &role, &status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Status = entity.Status(status)
	return &u, nil
}
