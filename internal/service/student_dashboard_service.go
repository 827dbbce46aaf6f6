package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
)

// StudentDashboardService aggregates a student's standing in one course:
// assignment and quiz rows plus roll-up counters, cached briefly in Redis
// because the dashboard is the most polled page in the product.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, courseID, studentID string) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	assignments           repository.AssignmentRepository
	assignmentSubmissions repository.AssignmentSubmissionRepository
	quizzes               repository.QuizRepository
	quizSubmissions       repository.QuizSubmissionRepository
	cache                 *redis.Client
	cacheTTL              time.Duration
	logger                zerolog.Logger
	now                   func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator. The cache
// client may be nil; every request then recomputes from the database.
func NewStudentDashboardService(
	assignments repository.AssignmentRepository,
	assignmentSubmissions repository.AssignmentSubmissionRepository,
	quizzes repository.QuizRepository,
	quizSubmissions repository.QuizSubmissionRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) StudentDashboardService {
	return &studentDashboardService{
		assignments:           assignments,
		assignmentSubmissions: assignmentSubmissions,
		quizzes:               quizzes,
		quizSubmissions:       quizSubmissions,
		cache:                 cache,
		cacheTTL:              ttl,
		logger:                logger.With().Str("component", "student_dashboard_service").Logger(),
		now:                   time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, courseID, studentID string) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:course:%s:student:%s", courseID, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				s.logger.Debug().Str("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	assignmentSubs, err := s.assignmentSubmissions.List(ctx, repository.AssignmentSubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	quizSubs, err := s.quizSubmissions.List(ctx, repository.QuizSubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(courseID, assignments, assignmentSubs, quizzes, quizSubs)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(
	courseID string,
	assignments []models.Assignment,
	assignmentSubs []models.AssignmentSubmission,
	quizzes []models.Quiz,
	quizSubs []models.QuizSubmission,
) dto.StudentDashboardResponse {
	now := s.now()

	subByAssignment := map[string]models.AssignmentSubmission{}
	for _, submission := range assignmentSubs {
		if _, exists := subByAssignment[submission.AssignmentID]; !exists {
			subByAssignment[submission.AssignmentID] = submission
		}
	}

	subByQuiz := map[string]models.QuizSubmission{}
	for _, submission := range quizSubs {
		if _, exists := subByQuiz[submission.QuizID]; !exists {
			subByQuiz[submission.QuizID] = submission
		}
	}

	summary := dto.ProgressSummary{}
	var gradeTotal float64
	var gradedCount int

	assignmentRows := make([]dto.AssignmentProgress, 0, len(assignments))
	for _, assignment := range assignments {
		summary.TotalAssignments++

		row := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Status:       string(models.AssignmentSubmissionStatusNotSubmitted),
			UpdatedAt:    assignment.UpdatedAt,
		}

		submission, submitted := subByAssignment[assignment.ID]
		if submitted {
			row.Status = string(submission.Status)
			row.IsLate = submission.IsLate
			row.Grade = submission.Grade
			row.Feedback = submission.Feedback
			row.UpdatedAt = submission.UpdatedAt

			if submission.Status != models.AssignmentSubmissionStatusNotSubmitted {
				summary.Submitted++
			}
			if submission.IsLate {
				summary.Late++
			}
			if submission.Status == models.AssignmentSubmissionStatusGraded && submission.Grade != nil {
				summary.Graded++
				gradeTotal += *submission.Grade
				gradedCount++
			}
		}

		if !submitted && assignment.IsPastDue(now) {
			summary.Overdue++
		}

		assignmentRows = append(assignmentRows, row)
	}

	quizRows := make([]dto.QuizProgress, 0, len(quizzes))
	for _, quiz := range quizzes {
		summary.TotalQuizzes++

		row := dto.QuizProgress{
			QuizID:           quiz.ID,
			Title:            quiz.Title,
			DueDate:          quiz.DueDate,
			TimeLimitMinutes: quiz.TimeLimitMinutes,
			Status:           string(models.QuizSubmissionStatusNotStarted),
			UpdatedAt:        quiz.UpdatedAt,
		}

		submission, taken := subByQuiz[quiz.ID]
		if taken {
			row.Status = string(submission.Status)
			row.Grade = submission.Grade
			row.UpdatedAt = submission.UpdatedAt

			switch submission.Status {
			case models.QuizSubmissionStatusSubmitted:
				summary.QuizzesTaken++
			case models.QuizSubmissionStatusGraded:
				summary.QuizzesTaken++
				summary.QuizzesGraded++
				if submission.Grade != nil {
					gradeTotal += *submission.Grade
					gradedCount++
				}
			}
		}

		quizRows = append(quizRows, row)
	}

	response := dto.StudentDashboardResponse{
		CourseID:    courseID,
		Summary:     summary,
		Assignments: assignmentRows,
		Quizzes:     quizRows,
		GeneratedAt: now,
	}
	if gradedCount > 0 {
		average := gradeTotal / float64(gradedCount)
		response.AverageGrade = &average
	}

	return response
}
