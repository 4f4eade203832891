package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/internal/repository"
)

type courseRepository struct {
	BaseRepository
}

func NewCourseRepository(base BaseRepository) repository.CourseRepository {
	return &courseRepository{base}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	query := r.db.Rebind(`
		INSERT INTO courses (title, credits, department_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	course.CreatedAt = r.now()
	course.UpdatedAt = course.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		course.Title,
		course.Credits,
		course.DepartmentID,
		course.CreatedAt,
		course.UpdatedAt,
	).Scan(&course.ID)
	if err != nil {
		return r.observe("course.create", fmt.Errorf("failed to create course: %w", err))
	}
	return r.observe("course.create", nil)
}

func (r *courseRepository) Get(ctx context.Context, id int64) (*model.Course, error) {
	query := r.db.Rebind(`
		SELECT id, title, credits, department_id, created_at, updated_at
		FROM courses
		WHERE id = ?
	`)
	var course model.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, r.observe("course.get", fmt.Errorf("failed to get course: %w", notFound(err)))
	}
	return &course, r.observe("course.get", nil)
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	query := r.db.Rebind(`
		UPDATE courses
		SET title = ?, credits = ?, department_id = ?, updated_at = ?
		WHERE id = ?
	`)
	course.UpdatedAt = r.now()

	result, err := r.db.ExecContext(ctx, query,
		course.Title,
		course.Credits,
		course.DepartmentID,
		course.UpdatedAt,
		course.ID,
	)
	if err != nil {
		return r.observe("course.update", fmt.Errorf("failed to update course: %w", err))
	}
	if err := requireAffected(result); err != nil {
		return r.observe("course.update", fmt.Errorf("failed to update course: %w", err))
	}
	return r.observe("course.update", nil)
}

func (r *courseRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM courses WHERE id = ?`), id)
	if err != nil {
		return r.observe("course.delete", fmt.Errorf("failed to delete course: %w", err))
	}
	if err := requireAffected(result); err != nil {
		return r.observe("course.delete", fmt.Errorf("failed to delete course: %w", err))
	}
	return r.observe("course.delete", nil)
}

func (r *courseRepository) List(ctx context.Context, filter *model.CourseFilter) ([]*model.Course, error) {
	if filter == nil {
		filter = &model.CourseFilter{}
	}

	query := `
		SELECT id, title, credits, department_id, created_at, updated_at
		FROM courses
		WHERE 1=1
	`
	var args []interface{}
	if filter.DepartmentID > 0 {
		query += " AND department_id = ?"
		args = append(args, filter.DepartmentID)
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit(), filter.Offset())

	courses := []*model.Course{}
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, r.observe("course.list", fmt.Errorf("failed to list courses: %w", err))
	}
	return courses, r.observe("course.list", nil)
}
