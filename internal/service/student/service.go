package student

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

const entityType = "Student"

type StudentServicer interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	UpdateStudent(ctx context.Context, student *model.Student) error
	DeleteStudent(ctx context.Context, id int64) error
	ListStudents(ctx context.Context, filter *model.StudentFilter) ([]*model.Student, error)
}

type Service struct {
	repo      repository.StudentRepository
	validator validator.Validator
	emitter   *notification.Emitter
}

func NewService(repo repository.StudentRepository, v validator.Validator, emitter *notification.Emitter) *Service {
	return &Service{
		repo:      repo,
		validator: v,
		emitter:   emitter,
	}
}

func (s *Service) CreateStudent(ctx context.Context, student *model.Student) error {
	if err := s.validator.Validate(student); err != nil {
		return fmt.Errorf("invalid student data: %w", err)
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create student: %w", err))
	}

	s.notify(ctx, student.ID, student.DisplayName(), model.OperationCreate)
	return nil
}

func (s *Service) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, repoError(err)
	}
	return student, nil
}

func (s *Service) UpdateStudent(ctx context.Context, student *model.Student) error {
	if err := s.validator.Validate(student); err != nil {
		return fmt.Errorf("invalid student data: %w", err)
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return repoError(err)
	}

	s.notify(ctx, student.ID, student.DisplayName(), model.OperationUpdate)
	return nil
}

func (s *Service) DeleteStudent(ctx context.Context, id int64) error {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return repoError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err)
	}

	s.notify(ctx, id, student.DisplayName(), model.OperationDelete)
	return nil
}

func (s *Service) ListStudents(ctx context.Context, filter *model.StudentFilter) ([]*model.Student, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list students: %w", err))
	}
	return students, nil
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
		return apperrors.NotFound("student", err)
	}
	return apperrors.Internal(err)
}
