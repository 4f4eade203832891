package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/internal/repository"
)

type departmentRepository struct {
	BaseRepository
}

func NewDepartmentRepository(base BaseRepository) repository.DepartmentRepository {
	return &departmentRepository{base}
}

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	query := r.db.Rebind(`
		INSERT INTO departments (name, budget, start_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	department.CreatedAt = r.now()
	department.UpdatedAt = department.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		department.Name,
		department.Budget,
		department.StartDate,
		department.CreatedAt,
		department.UpdatedAt,
	).Scan(&department.ID)
	if err != nil {
		return r.observe("department.create", fmt.Errorf("failed to create department: %w", err))
	}
	return r.observe("department.create", nil)
}

func (r *departmentRepository) Get(ctx context.Context, id int64) (*model.Department, error) {
	query := r.db.Rebind(`
		SELECT id, name, budget, start_date, created_at, updated_at
		FROM departments
		WHERE id = ?
	`)
	var department model.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, r.observe("department.get", fmt.Errorf("failed to get department: %w", notFound(err)))
	}
	return &department, r.observe("department.get", nil)
}

func (r *departmentRepository) Update(ctx context.Context, department *model.Department) error {
	query := r.db.Rebind(`
		UPDATE departments
		SET name = ?, budget = ?, start_date = ?, updated_at = ?
		WHERE id = ?
	`)
	department.UpdatedAt = r.now()

	result, err := r.db.ExecContext(ctx, query,
		department.Name,
		department.Budget,
		department.StartDate,
		department.UpdatedAt,
		department.ID,
	)
	if err != nil {
		return r.observe("department.update", fmt.Errorf("failed to update department: %w", err))
	}
	if err := requireAffected(result); err != nil {
		return r.observe("department.update", fmt.Errorf("failed to update department: %w", err))
	}
	return r.observe("department.update", nil)
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM courses WHERE department_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete department courses: %w", err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM departments WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return nil
	})
	return r.observe("department.delete", err)
}

func (r *departmentRepository) List(ctx context.Context, page model.Pagination) ([]*model.Department, error) {
	query := r.db.Rebind(`
		SELECT id, name, budget, start_date, created_at, updated_at
		FROM departments
		ORDER BY name, id
		LIMIT ? OFFSET ?
	`)
	departments := []*model.Department{}
	if err := r.db.SelectContext(ctx, &departments, query, page.Limit(), page.Offset()); err != nil {
		return nil, r.observe("department.list", fmt.Errorf("failed to list departments: %w", err))
	}
	return departments, r.observe("department.list", nil)
}
