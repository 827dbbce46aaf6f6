package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/observability"
	"github.com/campusflow/campusflow-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// AssignmentSubmissionService orchestrates the hand-in and grading
// workflows. Grade writes go through a load-mutate-save cycle checked
// against the loaded version, so concurrent graders surface as conflicts
// instead of lost updates.
type AssignmentSubmissionService interface {
	List(ctx context.Context, filter dto.AssignmentSubmissionFilter) ([]dto.AssignmentSubmissionResponse, error)
	Get(ctx context.Context, id string) (dto.AssignmentSubmissionResponse, error)
	Submit(ctx context.Context, assignmentID, studentID string, payload dto.AssignmentSubmitRequest) (dto.AssignmentSubmissionResponse, error)
	Resubmit(ctx context.Context, id, studentID string, payload dto.AssignmentSubmitRequest) (dto.AssignmentSubmissionResponse, error)
	UpdateContent(ctx context.Context, id, studentID string, payload dto.AssignmentContentUpdateRequest) (dto.AssignmentSubmissionResponse, error)
	Grade(ctx context.Context, id string, payload dto.GradeRequest) (dto.AssignmentSubmissionResponse, error)
	UpdateGrade(ctx context.Context, id string, payload dto.GradeRequest) (dto.AssignmentSubmissionResponse, error)
}

type assignmentSubmissionService struct {
	submissions repository.AssignmentSubmissionRepository
	assignments repository.AssignmentRepository
	notifier    NotificationPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssignmentSubmissionService constructs an AssignmentSubmissionService
// instance. The notifier may be nil when live notifications are disabled.
func NewAssignmentSubmissionService(submissionRepo repository.AssignmentSubmissionRepository, assignmentRepo repository.AssignmentRepository, notifier NotificationPublisher, validate *validator.Validate, logger zerolog.Logger) AssignmentSubmissionService {
	return &assignmentSubmissionService{
		submissions: submissionRepo,
		assignments: assignmentRepo,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_submission_service").Logger(),
		tracer:      otel.Tracer("github.com/campusflow/campusflow-api/internal/service/assignment_submission"),
		now:         time.Now,
	}
}

func (s *assignmentSubmissionService) List(ctx context.Context, filter dto.AssignmentSubmissionFilter) ([]dto.AssignmentSubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.AssignmentSubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentSubmissionResponseSlice(submissions), nil
}

func (s *assignmentSubmissionService) Get(ctx context.Context, id string) (dto.AssignmentSubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	return dto.NewAssignmentSubmissionResponse(submission), nil
}

func (s *assignmentSubmissionService) Submit(ctx context.Context, assignmentID, studentID string, payload dto.AssignmentSubmitRequest) (dto.AssignmentSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment_submission.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("assignment.id", assignmentID),
		attribute.String("student.id", studentID),
	)

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	now := s.now()
	isLate := assignment.IsPastDue(now)

	submission, loadErr := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	created := false
	if loadErr != nil {
		if !errors.Is(loadErr, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, loadErr
		}
		fresh, err := models.NewAssignmentSubmission(assignmentID, studentID, now)
		if err != nil {
			return dto.AssignmentSubmissionResponse{}, err
		}
		submission = *fresh
		created = true
	}

	loadedVersion, loadedStatus := submission.Version, submission.Status
	applyHandIn(&submission, payload)

	if err := submission.Submit(isLate, now); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	if created {
		err = s.submissions.Create(ctx, &submission)
	} else {
		err = s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus)
	}
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.AssignmentSubmissionResponse{}, models.ErrSubmissionVersionConflict
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", assignmentID).
		Bool("is_late", isLate).
		Msg("assignment submitted")

	return dto.NewAssignmentSubmissionResponse(submission), nil
}

func (s *assignmentSubmissionService) Resubmit(ctx context.Context, id, studentID string, payload dto.AssignmentSubmitRequest) (dto.AssignmentSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment_submission.resubmit")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	now := s.now()
	loadedVersion, loadedStatus := submission.Version, submission.Status
	applyHandIn(&submission, payload)

	if err := submission.Resubmit(assignment.IsPastDue(now), now); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.AssignmentSubmissionResponse{}, models.ErrSubmissionVersionConflict
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	return dto.NewAssignmentSubmissionResponse(submission), nil
}

func (s *assignmentSubmissionService) UpdateContent(ctx context.Context, id, studentID string, payload dto.AssignmentContentUpdateRequest) (dto.AssignmentSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
	}

	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := submission.UpdateContent(payload.Content, payload.FilePath, payload.FileName, s.now()); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.AssignmentSubmissionResponse{}, models.ErrSubmissionVersionConflict
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	return dto.NewAssignmentSubmissionResponse(submission), nil
}

func (s *assignmentSubmissionService) Grade(ctx context.Context, id string, payload dto.GradeRequest) (dto.AssignmentSubmissionResponse, error) {
	return s.applyGrade(ctx, id, payload, "assignment_submission.grade", func(submission *models.AssignmentSubmission, now time.Time) error {
		return submission.AssignGrade(payload.Grade, payload.Feedback, payload.ExpectedVersion, now)
	})
}

func (s *assignmentSubmissionService) UpdateGrade(ctx context.Context, id string, payload dto.GradeRequest) (dto.AssignmentSubmissionResponse, error) {
	return s.applyGrade(ctx, id, payload, "assignment_submission.update_grade", func(submission *models.AssignmentSubmission, now time.Time) error {
		return submission.UpdateGrade(payload.Grade, payload.Feedback, payload.ExpectedVersion, now)
	})
}

func (s *assignmentSubmissionService) applyGrade(ctx context.Context, id string, payload dto.GradeRequest, spanName string, mutate func(*models.AssignmentSubmission, time.Time) error) (dto.AssignmentSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := mutate(&submission, s.now()); err != nil {
		if errors.Is(err, models.ErrSubmissionVersionConflict) {
			observability.GradeConflicts().WithLabelValues("assignment").Inc()
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			observability.GradeConflicts().WithLabelValues("assignment").Inc()
			return dto.AssignmentSubmissionResponse{}, models.ErrSubmissionVersionConflict
		}
		return dto.AssignmentSubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Int("submission.version", submission.Version))
	s.logger.Info().
		Str("submission_id", submission.ID).
		Float64("grade", payload.Grade).
		Int("version", submission.Version).
		Msg("assignment submission graded")

	s.notifyGraded(ctx, submission)

	return dto.NewAssignmentSubmissionResponse(submission), nil
}

// notifyGraded fans the grade out to the student. Delivery failures are
// logged, never surfaced: the grade write already committed.
func (s *assignmentSubmissionService) notifyGraded(ctx context.Context, submission models.AssignmentSubmission) {
	if s.notifier == nil {
		return
	}

	grade := 0.0
	if submission.Grade != nil {
		grade = *submission.Grade
	}

	_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  submission.StudentID,
		Type:    models.NotificationTypeGraded,
		Message: fmt.Sprintf("Your assignment submission was graded: %.1f", grade),
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", submission.ID).
			Msg("failed to publish graded notification")
	}
}

func applyHandIn(submission *models.AssignmentSubmission, payload dto.AssignmentSubmitRequest) {
	if payload.Content != "" {
		submission.Content = payload.Content
	}
	if payload.FilePath != "" {
		submission.FilePath = payload.FilePath
	}
	if payload.FileName != "" {
		submission.FileName = payload.FileName
	}
}
