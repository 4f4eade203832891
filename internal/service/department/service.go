package department

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jwalitptl/university-api/internal/model"
	"github.com/jwalitptl/university-api/internal/repository"
	"github.com/jwalitptl/university-api/internal/service/notification"
	apperrors "github.com/jwalitptl/university-api/pkg/errors"
	"github.com/jwalitptl/university-api/pkg/validator"
)

const entityType = "Department"

type DepartmentServicer interface {
	CreateDepartment(ctx context.Context, department *model.Department) error
	GetDepartment(ctx context.Context, id int64) (*model.Department, error)
	UpdateDepartment(ctx context.Context, department *model.Department) error
	DeleteDepartment(ctx context.Context, id int64) error
	ListDepartments(ctx context.Context, page model.Pagination) ([]*model.Department, error)
}

type Service struct {
	repo      repository.DepartmentRepository
	validator validator.Validator
	emitter   *notification.Emitter
}

func NewService(repo repository.DepartmentRepository, v validator.Validator, emitter *notification.Emitter) *Service {
	return &Service{
		repo:      repo,
		validator: v,
		emitter:   emitter,
	}
}

func (s *Service) CreateDepartment(ctx context.Context, department *model.Department) error {
	if err := s.validator.Validate(department); err != nil {
		return fmt.Errorf("invalid department data: %w", err)
	}

	if err := s.repo.Create(ctx, department); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create department: %w", err))
	}

	s.notify(ctx, department.ID, department.DisplayName(), model.OperationCreate)
	return nil
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (*model.Department, error) {
	department, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, repoError(err)
	}
	return department, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, department *model.Department) error {
	if err := s.validator.Validate(department); err != nil {
		return fmt.Errorf("invalid department data: %w", err)
	}

	if err := s.repo.Update(ctx, department); err != nil {
		return repoError(err)
	}

	s.notify(ctx, department.ID, department.DisplayName(), model.OperationUpdate)
	return nil
}

// DeleteDepartment also removes the department's courses. Only the
// department itself is announced.
func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	department, err := s.repo.Get(ctx, id)
	if err != nil {
		return repoError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err)
	}

	s.notify(ctx, id, department.DisplayName(), model.OperationDelete)
	return nil
}

func (s *Service) ListDepartments(ctx context.Context, page model.Pagination) ([]*model.Department, error) {
	departments, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list departments: %w", err))
	}
	return departments, nil
}

func (s *Service) notify(ctx context.Context, id int64, name string, op model.EntityOperation) {
	s.emitter.Emit(ctx, notification.Event{
		EntityType:  entityType,
		EntityID:    strconv.FormatInt(id, 10),
		DisplayName: name,
		Operation:   op,
	})
}

func repoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("department", err)
	}
	return apperrors.Internal(err)
}
