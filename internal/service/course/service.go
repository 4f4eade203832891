package course

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

const entityType = "Course"

type CourseServicer interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	UpdateCourse(ctx context.Context, course *model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	ListCourses(ctx context.Context, filter *model.CourseFilter) ([]*model.Course, error)
}

type Service struct {
	repo        repository.CourseRepository
	departments repository.DepartmentRepository
	validator   validator.Validator
	emitter     *notification.Emitter
}

func NewService(repo repository.CourseRepository, departments repository.DepartmentRepository, v validator.Validator, emitter *notification.Emitter) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		validator:   v,
		emitter:     emitter,
	}
}

func (s *Service) CreateCourse(ctx context.Context, course *model.Course) error {
	if err := s.validateCourse(ctx, course); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create course: %w", err))
	}

	s.notify(ctx, course.ID, course.DisplayName(), model.OperationCreate)
	return nil
}

func (s *Service) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, repoError(err)
	}
	return course, nil
}

func (s *Service) UpdateCourse(ctx context.Context, course *model.Course) error {
	if err := s.validateCourse(ctx, course); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return repoError(err)
	}

	s.notify(ctx, course.ID, course.DisplayName(), model.OperationUpdate)
	return nil
}

// DeleteCourse looks the course up first so the notification can name it.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return repoError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err)
	}

	s.notify(ctx, id, course.DisplayName(), model.OperationDelete)
	return nil
}

func (s *Service) ListCourses(ctx context.Context, filter *model.CourseFilter) ([]*model.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list courses: %w", err))
	}
	return courses, nil
}

func (s *Service) validateCourse(ctx context.Context, course *model.Course) error {
	if err := s.validator.Validate(course); err != nil {
		return fmt.Errorf("invalid course data: %w", err)
	}

	if _, err := s.departments.Get(ctx, course.DepartmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest(fmt.Sprintf("department %d does not exist", course.DepartmentID), err)
		}
		return apperrors.Internal(err)
	}
	return nil
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
		return apperrors.NotFound("course", err)
	}
	return apperrors.Internal(err)
}
