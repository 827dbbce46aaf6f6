package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/models"
)

// QuizSubmissionFilter narrows quiz attempt listings.
type QuizSubmissionFilter struct {
	QuizID    *string
	StudentID *string
	Status    *string
}

// QuizSubmissionRepository defines data operations for quiz attempts, with
// the same load-mutate-save discipline as assignment submissions.
type QuizSubmissionRepository interface {
	List(ctx context.Context, filter QuizSubmissionFilter) ([]models.QuizSubmission, error)
	GetByID(ctx context.Context, id string) (models.QuizSubmission, error)
	GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (models.QuizSubmission, error)
	Create(ctx context.Context, submission *models.QuizSubmission) error
	Save(ctx context.Context, submission *models.QuizSubmission, loadedVersion int, loadedStatus models.QuizSubmissionStatus) error
}

type quizSubmissionRepository struct {
	db *gorm.DB
}

// NewQuizSubmissionRepository instantiates the repository.
func NewQuizSubmissionRepository(db *gorm.DB) QuizSubmissionRepository {
	return &quizSubmissionRepository{db: db}
}

func (r *quizSubmissionRepository) List(ctx context.Context, filter QuizSubmissionFilter) ([]models.QuizSubmission, error) {
	query := r.db.WithContext(ctx).Model(&models.QuizSubmission{})

	if filter.QuizID != nil {
		query = query.Where("quiz_id = ?", *filter.QuizID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.QuizSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *quizSubmissionRepository) GetByID(ctx context.Context, id string) (models.QuizSubmission, error) {
	var submission models.QuizSubmission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.QuizSubmission{}, err
	}
	if err := submission.Validate(); err != nil {
		return models.QuizSubmission{}, fmt.Errorf("stored quiz submission %s is invalid: %w", id, err)
	}
	return submission, nil
}

func (r *quizSubmissionRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (models.QuizSubmission, error) {
	var submission models.QuizSubmission
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("created_at DESC").
		First(&submission).Error
	if err != nil {
		return models.QuizSubmission{}, err
	}
	if err := submission.Validate(); err != nil {
		return models.QuizSubmission{}, fmt.Errorf("stored quiz submission %s is invalid: %w", submission.ID, err)
	}
	return submission, nil
}

func (r *quizSubmissionRepository) Create(ctx context.Context, submission *models.QuizSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// Save writes the mutated entity back only if the stored row still carries
// the version and status the caller loaded. The version alone cannot catch
// every race: submit-path transitions leave it unchanged, so a manual submit
// racing an auto-submit is detected by the status clause instead.
func (r *quizSubmissionRepository) Save(ctx context.Context, submission *models.QuizSubmission, loadedVersion int, loadedStatus models.QuizSubmissionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("id = ? AND version = ? AND status = ?", submission.ID, loadedVersion, loadedStatus).
		Select("*").
		Omit("id", "created_at").
		Updates(submission)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}
