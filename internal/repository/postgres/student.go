package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/internal/repository"
)

type studentRepository struct {
	BaseRepository
}

func NewStudentRepository(base BaseRepository) repository.StudentRepository {
	return &studentRepository{base}
}

func (r *studentRepository) Create(ctx context.Context, student *model.Student) error {
	query := r.db.Rebind(`
		INSERT INTO students (last_name, first_mid_name, enrollment_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	student.CreatedAt = r.now()
	student.UpdatedAt = student.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		student.LastName,
		student.FirstMidName,
		student.EnrollmentDate,
		student.CreatedAt,
		student.UpdatedAt,
	).Scan(&student.ID)
	if err != nil {
		return r.observe("student.create", fmt.Errorf("failed to create student: %w", err))
	}
	return r.observe("student.create", nil)
}

func (r *studentRepository) Get(ctx context.Context, id int64) (*model.Student, error) {
	query := r.db.Rebind(`
		SELECT id, last_name, first_mid_name, enrollment_date, created_at, updated_at
		FROM students
		WHERE id = ?
	`)
	var student model.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, r.observe("student.get", fmt.Errorf("failed to get student: %w", notFound(err)))
	}
	return &student, r.observe("student.get", nil)
}

func (r *studentRepository) Update(ctx context.Context, student *model.Student) error {
	query := r.db.Rebind(`
		UPDATE students
		SET last_name = ?, first_mid_name = ?, enrollment_date = ?, updated_at = ?
		WHERE id = ?
	`)
	student.UpdatedAt = r.now()

	result, err := r.db.ExecContext(ctx, query,
		student.LastName,
		student.FirstMidName,
		student.EnrollmentDate,
		student.UpdatedAt,
		student.ID,
	)
	if err != nil {
		return r.observe("student.update", fmt.Errorf("failed to update student: %w", err))
	}
	if err := requireAffected(result); err != nil {
		return r.observe("student.update", fmt.Errorf("failed to update student: %w", err))
	}
	return r.observe("student.update", nil)
}

func (r *studentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM students WHERE id = ?`), id)
	if err != nil {
		return r.observe("student.delete", fmt.Errorf("failed to delete student: %w", err))
	}
	if err := requireAffected(result); err != nil {
		return r.observe("student.delete", fmt.Errorf("failed to delete student: %w", err))
	}
	return r.observe("student.delete", nil)
}

func (r *studentRepository) List(ctx context.Context, filter *model.StudentFilter) ([]*model.Student, error) {
	if filter == nil {
		filter = &model.StudentFilter{}
	}

	query := `
		SELECT id, last_name, first_mid_name, enrollment_date, created_at, updated_at
		FROM students
		WHERE 1=1
	`
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query += " AND (LOWER(last_name) LIKE ? OR LOWER(first_mid_name) LIKE ?)"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY last_name, id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit(), filter.Offset())

	students := []*model.Student{}
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, r.observe("student.list", fmt.Errorf("failed to list students: %w", err))
	}
	return students, r.observe("student.list", nil)
}
