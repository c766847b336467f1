package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planbook/internal/entity"
)

// ErrPlanNotFound covers both a missing plan and a plan owned by
// someone else; callers must not be able to tell the two apart.
var ErrPlanNotFound = errors.New("lesson plan not found")

type LessonPlanRepository struct {
	db *sql.DB
}

func NewLessonPlanRepository(db *sql.DB) *LessonPlanRepository {
	return &LessonPlanRepository{db: db}
}

const planColumns = `id, owner_id, title, subject, grade_level, duration_minutes,
	objectives, materials, body, created_at, updated_at`

func (r *LessonPlanRepository) Create(ctx context.Context, p *entity.LessonPlan) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lesson_plans
			(owner_id, title, subject, grade_level, duration_minutes, objectives, materials, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, p.OwnerID, p.Title, p.Subject, p.GradeLevel, p.DurationMinutes,
		p.Objectives, p.Materials, p.Body).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create lesson plan: %w", err)
	}
	return id, nil
}

// GetForOwner fetches a plan only when ownerID owns it.
func (r *LessonPlanRepository) GetForOwner(ctx context.Context, id, ownerID int) (*entity.LessonPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+planColumns+`
		FROM lesson_plans
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)

	var p entity.LessonPlan
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Subject, &p.GradeLevel,
		&p.DurationMinutes, &p.Objectives, &p.Materials, &p.Body,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LessonPlanRepository) Update(ctx context.Context, p *entity.LessonPlan) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lesson_plans
		SET title = $1, subject = $2, grade_level = $3, duration_minutes = $4,
			objectives = $5, materials = $6, body = $7, updated_at = now()
		WHERE id = $8 AND owner_id = $9
	`, p.Title, p.Subject, p.GradeLevel, p.DurationMinutes,
		p.Objectives, p.Materials, p.Body, p.ID, p.OwnerID)
	if err != nil {
		return fmt.Errorf("update lesson plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *LessonPlanRepository) Delete(ctx context.Context, id, ownerID int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM lesson_plans WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete lesson plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *LessonPlanRepository) ListByOwner(ctx context.Context, ownerID int) ([]entity.LessonPlan, error) {
	return r.list(ctx, `
		SELECT `+planColumns+`
		FROM lesson_plans
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, ownerID)
}

func (r *LessonPlanRepository) ListAll(ctx context.Context) ([]entity.LessonPlan, error) {
	return r.list(ctx, `
		SELECT `+planColumns+`
		FROM lesson_plans
		ORDER BY updated_at DESC
	`)
}

func (r *LessonPlanRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lesson_plans`).Scan(&n)
	return n, err
}

func (r *LessonPlanRepository) list(ctx context.Context, query string, args ...any) ([]entity.LessonPlan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lesson plans: %w", err)
	}
	defer rows.Close()

	var plans []entity.LessonPlan
	for rows.Next() {
		var p entity.LessonPlan
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Subject, &p.GradeLevel,
			&p.DurationMinutes, &p.Objectives, &p.Materials, &p.Body,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
