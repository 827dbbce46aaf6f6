package service

import (
	"context"
	"errors"
	"strings"
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
	"github.com/campusflow/campusflow-api/internal/timing"
	"github.com/campusflow/campusflow-api/pkg/ai"
)

var (
	// ErrQuizNotFound indicates the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizAttemptNotFound indicates the requested attempt does not exist.
	ErrQuizAttemptNotFound = errors.New("quiz submission not found")
	// ErrReviewerUnavailable indicates the AI reviewer is not configured.
	ErrReviewerUnavailable = errors.New("reviewer unavailable")
	// ErrNoEssayAnswer indicates the attempt holds no essay text to review.
	ErrNoEssayAnswer = errors.New("submission has no essay answer to review")
)

// QuizSubmissionService drives timed quiz attempts from start through
// grading. Every state change loads the attempt, applies a lifecycle method
// and saves against the loaded version and status, so an expired timer
// racing a manual submit resolves to exactly one submission.
type QuizSubmissionService interface {
	Start(ctx context.Context, quizID, studentID string) (dto.QuizSubmissionResponse, error)
	Get(ctx context.Context, id string) (dto.QuizSubmissionResponse, error)
	GetForStudent(ctx context.Context, quizID, studentID string) (dto.QuizSubmissionResponse, error)
	List(ctx context.Context, filter repository.QuizSubmissionFilter) ([]dto.QuizSubmissionResponse, error)
	SaveAnswers(ctx context.Context, id, studentID string, payload dto.QuizAnswersRequest) (dto.QuizSubmissionResponse, error)
	Submit(ctx context.Context, id, studentID string, payload dto.QuizAnswersRequest) (dto.QuizSubmissionResponse, error)
	AutoSubmit(ctx context.Context, id string) (dto.QuizSubmissionResponse, error)
	Grade(ctx context.Context, id string, payload dto.GradeRequest) (dto.QuizSubmissionResponse, error)
	UpdateGrade(ctx context.Context, id string, payload dto.GradeRequest) (dto.QuizSubmissionResponse, error)
	SuggestFeedback(ctx context.Context, id string) (ai.ReviewResult, error)
}

type quizSubmissionService struct {
	submissions repository.QuizSubmissionRepository
	quizzes     repository.QuizRepository
	notifier    NotificationPublisher
	reviewer    ai.Reviewer
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewQuizSubmissionService constructs a QuizSubmissionService instance. The
// notifier and reviewer may be nil when those integrations are disabled.
func NewQuizSubmissionService(submissionRepo repository.QuizSubmissionRepository, quizRepo repository.QuizRepository, notifier NotificationPublisher, reviewer ai.Reviewer, validate *validator.Validate, logger zerolog.Logger) QuizSubmissionService {
	return &quizSubmissionService{
		submissions: submissionRepo,
		quizzes:     quizRepo,
		notifier:    notifier,
		reviewer:    reviewer,
		validator:   validate,
		logger:      logger.With().Str("component", "quiz_submission_service").Logger(),
		tracer:      otel.Tracer("github.com/campusflow/campusflow-api/internal/service/quiz_submission"),
		now:         time.Now,
	}
}

func (s *quizSubmissionService) Start(ctx context.Context, quizID, studentID string) (dto.QuizSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz_submission.start")
	defer span.End()
	span.SetAttributes(
		attribute.String("quiz.id", quizID),
		attribute.String("student.id", studentID),
	)

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizSubmissionResponse{}, ErrQuizNotFound
		}
		return dto.QuizSubmissionResponse{}, err
	}

	now := s.now()
	submission, loadErr := s.submissions.GetByQuizAndStudent(ctx, quizID, studentID)
	created := false
	if loadErr != nil {
		if !errors.Is(loadErr, gorm.ErrRecordNotFound) {
			return dto.QuizSubmissionResponse{}, loadErr
		}
		fresh, err := models.NewQuizSubmission(quizID, studentID, now)
		if err != nil {
			return dto.QuizSubmissionResponse{}, err
		}
		submission = *fresh
		created = true
	}

	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := submission.Start(quiz.DueDate, now); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if created {
		err = s.submissions.Create(ctx, &submission)
	} else {
		err = s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus)
	}
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.QuizSubmissionResponse{}, models.ErrQuizAlreadyStarted
		}
		return dto.QuizSubmissionResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("quiz_id", quizID).
		Int("time_limit_minutes", quiz.TimeLimitMinutes).
		Msg("quiz attempt started")

	return s.buildResponse(submission, quiz, s.now()), nil
}

func (s *quizSubmissionService) Get(ctx context.Context, id string) (dto.QuizSubmissionResponse, error) {
	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	return s.buildResponse(submission, quiz, s.now()), nil
}

func (s *quizSubmissionService) GetForStudent(ctx context.Context, quizID, studentID string) (dto.QuizSubmissionResponse, error) {
	submission, err := s.submissions.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizSubmissionResponse{}, ErrQuizAttemptNotFound
		}
		return dto.QuizSubmissionResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, submission.QuizID)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	return s.buildResponse(submission, quiz, s.now()), nil
}

func (s *quizSubmissionService) List(ctx context.Context, filter repository.QuizSubmissionFilter) ([]dto.QuizSubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.QuizSubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		quiz, err := s.quizzes.GetByID(ctx, submission.QuizID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		responses = append(responses, s.buildResponse(submission, quiz, now))
	}

	return responses, nil
}

func (s *quizSubmissionService) SaveAnswers(ctx context.Context, id, studentID string, payload dto.QuizAnswersRequest) (dto.QuizSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.QuizSubmissionResponse{}, ErrQuizAttemptNotFound
	}

	now := s.now()
	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := submission.UpdateAnswers(payload.ToAnswers(), now); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.QuizSubmissionResponse{}, models.ErrQuizNotInProgress
		}
		return dto.QuizSubmissionResponse{}, err
	}

	return s.buildResponse(submission, quiz, now), nil
}

func (s *quizSubmissionService) Submit(ctx context.Context, id, studentID string, payload dto.QuizAnswersRequest) (dto.QuizSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz_submission.submit")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.QuizSubmissionResponse{}, ErrQuizAttemptNotFound
	}

	now := s.now()
	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := submission.Submit(payload.ToAnswers(), float64(quiz.TimeLimitMinutes), false, now); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return dto.QuizSubmissionResponse{}, models.ErrQuizSubmitState
		}
		return dto.QuizSubmissionResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("quiz_id", submission.QuizID).
		Msg("quiz submitted")

	return s.buildResponse(submission, quiz, now), nil
}

// AutoSubmit closes an expired attempt with whatever answers were last
// autosaved. Expiry is only ever detected on this call, never by a timer
// firing server-side. There is no ownership check and no answer payload.
func (s *quizSubmissionService) AutoSubmit(ctx context.Context, id string) (dto.QuizSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz_submission.auto_submit")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	now := s.now()
	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := submission.AutoSubmit(float64(quiz.TimeLimitMinutes), now); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			// The student's own submit won the race. Surface the stored row.
			return s.Get(ctx, id)
		}
		return dto.QuizSubmissionResponse{}, err
	}

	observability.AutoSubmits().Inc()
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("quiz_id", submission.QuizID).
		Msg("quiz auto-submitted on expiry")

	return s.buildResponse(submission, quiz, now), nil
}

func (s *quizSubmissionService) Grade(ctx context.Context, id string, payload dto.GradeRequest) (dto.QuizSubmissionResponse, error) {
	return s.applyGrade(ctx, id, payload, "quiz_submission.grade", func(submission *models.QuizSubmission, now time.Time) error {
		return submission.SetGrade(payload.Grade, payload.Feedback, now)
	})
}

func (s *quizSubmissionService) UpdateGrade(ctx context.Context, id string, payload dto.GradeRequest) (dto.QuizSubmissionResponse, error) {
	return s.applyGrade(ctx, id, payload, "quiz_submission.update_grade", func(submission *models.QuizSubmission, now time.Time) error {
		return submission.UpdateGrade(payload.Grade, payload.Feedback, now)
	})
}

func (s *quizSubmissionService) applyGrade(ctx context.Context, id string, payload dto.GradeRequest, spanName string, mutate func(*models.QuizSubmission, time.Time) error) (dto.QuizSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if payload.ExpectedVersion != nil && *payload.ExpectedVersion != submission.Version {
		observability.GradeConflicts().WithLabelValues("quiz").Inc()
		return dto.QuizSubmissionResponse{}, models.ErrSubmissionVersionConflict
	}

	now := s.now()
	loadedVersion, loadedStatus := submission.Version, submission.Status
	if err := mutate(&submission, now); err != nil {
		return dto.QuizSubmissionResponse{}, err
	}

	if err := s.submissions.Save(ctx, &submission, loadedVersion, loadedStatus); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			observability.GradeConflicts().WithLabelValues("quiz").Inc()
			return dto.QuizSubmissionResponse{}, models.ErrSubmissionVersionConflict
		}
		return dto.QuizSubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Int("submission.version", submission.Version))
	s.logger.Info().
		Str("submission_id", submission.ID).
		Float64("grade", payload.Grade).
		Int("version", submission.Version).
		Msg("quiz submission graded")

	s.notifyGraded(ctx, submission)

	return s.buildResponse(submission, quiz, now), nil
}

// SuggestFeedback asks the AI reviewer for draft feedback on the first essay
// answer in a submitted attempt. The suggestion is returned to the teacher,
// never written to the submission.
func (s *quizSubmissionService) SuggestFeedback(ctx context.Context, id string) (ai.ReviewResult, error) {
	if s.reviewer == nil {
		return ai.ReviewResult{}, ErrReviewerUnavailable
	}

	ctx, span := s.tracer.Start(ctx, "quiz_submission.suggest_feedback")
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", id))

	submission, quiz, err := s.load(ctx, id)
	if err != nil {
		return ai.ReviewResult{}, err
	}
	if submission.Status != models.QuizSubmissionStatusSubmitted && submission.Status != models.QuizSubmissionStatusGraded {
		return ai.ReviewResult{}, models.ErrQuizNotSubmitted
	}

	answers, err := submission.DecodedAnswers()
	if err != nil {
		return ai.ReviewResult{}, err
	}

	questions := quiz.QuestionList()
	for _, answer := range answers {
		if strings.TrimSpace(answer.Text) == "" {
			continue
		}

		input := ai.ReviewInput{
			QuizTitle: quiz.Title,
			Answer:    answer.Text,
			MaxPoints: 100,
		}
		if answer.QuestionIndex >= 0 && answer.QuestionIndex < len(questions) {
			input.Prompt = questions[answer.QuestionIndex].Prompt
			if questions[answer.QuestionIndex].Points > 0 {
				input.MaxPoints = questions[answer.QuestionIndex].Points
			}
		}

		return s.reviewer.Review(ctx, input)
	}

	return ai.ReviewResult{}, ErrNoEssayAnswer
}

func (s *quizSubmissionService) load(ctx context.Context, id string) (models.QuizSubmission, models.Quiz, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuizSubmission{}, models.Quiz{}, ErrQuizAttemptNotFound
		}
		return models.QuizSubmission{}, models.Quiz{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, submission.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuizSubmission{}, models.Quiz{}, ErrQuizNotFound
		}
		return models.QuizSubmission{}, models.Quiz{}, err
	}

	return submission, quiz, nil
}

func (s *quizSubmissionService) buildResponse(submission models.QuizSubmission, quiz models.Quiz, now time.Time) dto.QuizSubmissionResponse {
	response := dto.QuizSubmissionResponse{
		ID:          submission.ID,
		QuizID:      submission.QuizID,
		StudentID:   submission.StudentID,
		StartedAt:   submission.StartedAt,
		SubmittedAt: submission.SubmittedAt,
		Grade:       submission.Grade,
		Feedback:    submission.Feedback,
		Status:      string(submission.Status),
		Version:     submission.Version,
		CreatedAt:   submission.CreatedAt,
		UpdatedAt:   submission.UpdatedAt,
	}

	if answers, err := submission.DecodedAnswers(); err == nil {
		response.Answers = answers
	}

	// Countdown fields only tick while the attempt is open.
	if submission.Status == models.QuizSubmissionStatusInProgress {
		remaining, err := timing.RemainingSeconds(submission.StartedAt, quiz.TimeLimitMinutes, now)
		if err == nil {
			response.RemainingSeconds = remaining
			response.RemainingDisplay = timing.FormatSeconds(remaining)
		}
		if expiresAt, err := timing.ExpiresAt(submission.StartedAt, quiz.TimeLimitMinutes); err == nil {
			response.ExpiresAt = expiresAt
		}
	}

	return response
}

func (s *quizSubmissionService) notifyGraded(ctx context.Context, submission models.QuizSubmission) {
	if s.notifier == nil {
		return
	}

	_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  submission.StudentID,
		Type:    models.NotificationTypeGraded,
		Message: "Your quiz submission has been graded",
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", submission.ID).
			Msg("failed to publish graded notification")
	}
}
