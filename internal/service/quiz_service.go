package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
	"github.com/campusflow/campusflow-api/internal/timing"
)

// ErrInvalidQuestion indicates a question definition is internally
// inconsistent.
var ErrInvalidQuestion = errors.New("invalid quiz question definition")

// QuizService exposes quiz definition use cases. Attempt handling lives in
// QuizSubmissionService.
type QuizService interface {
	ListByCourse(ctx context.Context, courseID string) ([]dto.QuizResponse, error)
	Get(ctx context.Context, id string) (dto.QuizResponse, error)
	Create(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	Update(ctx context.Context, id string, payload dto.QuizUpdateRequest) (dto.QuizResponse, error)
	Delete(ctx context.Context, id string) error
}

type quizService struct {
	quizzes   repository.QuizRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService constructs a QuizService instance.
func NewQuizService(quizRepo repository.QuizRepository, courseRepo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizRepo,
		courses:   courseRepo,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

func (s *quizService) ListByCourse(ctx context.Context, courseID string) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuizResponseSlice(quizzes), nil
}

func (s *quizService) Get(ctx context.Context, id string) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Create(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}
	if payload.TimeLimitMinutes <= 0 {
		return dto.QuizResponse{}, timing.ErrInvalidTimeLimit
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrCourseNotFound
		}
		return dto.QuizResponse{}, err
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	if !dueDate.After(s.now()) {
		return dto.QuizResponse{}, ErrDueDateInPast
	}

	questions, err := toQuestions(payload.Questions)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	now := s.now()
	quiz := models.Quiz{
		ID:               uuid.NewString(),
		CourseID:         payload.CourseID,
		Title:            strings.TrimSpace(payload.Title),
		Description:      payload.Description,
		TimeLimitMinutes: payload.TimeLimitMinutes,
		DueDate:          dueDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := quiz.SetQuestions(questions); err != nil {
		return dto.QuizResponse{}, err
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().
		Str("quiz_id", quiz.ID).
		Str("course_id", quiz.CourseID).
		Int("questions", len(questions)).
		Msg("quiz created")

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Update(ctx context.Context, id string, payload dto.QuizUpdateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	if payload.Title != nil {
		quiz.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		quiz.Description = *payload.Description
	}
	if payload.TimeLimitMinutes != nil {
		if *payload.TimeLimitMinutes <= 0 {
			return dto.QuizResponse{}, timing.ErrInvalidTimeLimit
		}
		quiz.TimeLimitMinutes = *payload.TimeLimitMinutes
	}
	if payload.DueDate != nil {
		dueDate, err := parseDueDate(*payload.DueDate)
		if err != nil {
			return dto.QuizResponse{}, err
		}
		quiz.DueDate = dueDate
	}
	if payload.Questions != nil {
		questions, err := toQuestions(payload.Questions)
		if err != nil {
			return dto.QuizResponse{}, err
		}
		if err := quiz.SetQuestions(questions); err != nil {
			return dto.QuizResponse{}, err
		}
	}
	quiz.UpdatedAt = s.now()

	if err := s.quizzes.Update(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) Delete(ctx context.Context, id string) error {
	if _, err := s.quizzes.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	return s.quizzes.Delete(ctx, id)
}

// toQuestions converts request payloads into stored questions, enforcing the
// cross-field rules the struct validator cannot express.
func toQuestions(payloads []dto.QuizQuestionPayload) ([]models.QuizQuestion, error) {
	questions := make([]models.QuizQuestion, 0, len(payloads))
	for _, payload := range payloads {
		question := models.QuizQuestion{
			Type:          payload.Type,
			Prompt:        strings.TrimSpace(payload.Prompt),
			Options:       payload.Options,
			CorrectOption: payload.CorrectOption,
			Points:        payload.Points,
		}

		switch question.Type {
		case models.QuestionTypeMultipleChoice:
			if len(question.Options) < 2 {
				return nil, ErrInvalidQuestion
			}
			if question.CorrectOption == nil || *question.CorrectOption >= len(question.Options) {
				return nil, ErrInvalidQuestion
			}
		case models.QuestionTypeEssay:
			if len(question.Options) > 0 || question.CorrectOption != nil {
				return nil, ErrInvalidQuestion
			}
		default:
			return nil, ErrInvalidQuestion
		}

		questions = append(questions, question)
	}

	return questions, nil
}
