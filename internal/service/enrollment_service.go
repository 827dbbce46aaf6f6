package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
)

var (
	// ErrInvalidCourseCode indicates no course exists with the given code.
	ErrInvalidCourseCode = errors.New("invalid course code")
	// ErrAlreadyEnrolled indicates the student already joined the course.
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	// ErrNotEnrolled indicates the student has no enrollment in the course.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
)

// EnrollmentService manages course membership. Students join with the short
// course code rather than a course id so teachers can share it out of band.
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID string, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
	Leave(ctx context.Context, courseID, studentID string) error
	Roster(ctx context.Context, courseID string) ([]dto.EnrollmentResponse, error)
	CoursesForStudent(ctx context.Context, studentID string) ([]dto.CourseResponse, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(enrollmentRepo repository.EnrollmentRepository, courseRepo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollmentRepo,
		courses:     courseRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID string, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	course, err := s.courses.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrInvalidCourseCode
		}
		return dto.EnrollmentResponse{}, fmt.Errorf("failed to look up course code: %w", err)
	}

	exists, err := s.enrollments.Exists(ctx, course.ID, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if exists {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{
		ID:        uuid.NewString(),
		CourseID:  course.ID,
		StudentID: studentID,
		CreatedAt: s.now(),
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("student_id", studentID).
		Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Leave(ctx context.Context, courseID, studentID string) error {
	exists, err := s.enrollments.Exists(ctx, courseID, studentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotEnrolled
	}

	return s.enrollments.Delete(ctx, courseID, studentID)
}

func (s *enrollmentService) Roster(ctx context.Context, courseID string) ([]dto.EnrollmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) CoursesForStudent(ctx context.Context, studentID string) ([]dto.CourseResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := s.courses.GetByID(ctx, enrollment.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		responses = append(responses, dto.NewCourseResponse(course))
	}

	return responses, nil
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return s.enrollments.Exists(ctx, courseID, studentID)
}
