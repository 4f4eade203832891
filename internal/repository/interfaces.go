package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/university-api/internal/model"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	CourseRepository interface {
		Create(ctx context.Context, course *model.Course) error
		Get(ctx context.Context, id int64) (*model.Course, error)
		Update(ctx context.Context, course *model.Course) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filter *model.CourseFilter) ([]*model.Course, error)
	}

	DepartmentRepository interface {
		Create(ctx context.Context, department *model.Department) error
		Get(ctx context.Context, id int64) (*model.Department, error)
		Update(ctx context.Context, department *model.Department) error
		// Delete removes the department together with its courses.
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, page model.Pagination) ([]*model.Department, error)
	}

	StudentRepository interface {
		Create(ctx context.Context, student *model.Student) error
		Get(ctx context.Context, id int64) (*model.Student, error)
		Update(ctx context.Context, student *model.Student) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filter *model.StudentFilter) ([]*model.Student, error)
	}
)
