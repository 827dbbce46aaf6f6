package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/models"
)

// ErrStaleRecord signals that the row changed since it was loaded: the
// version or status the caller read no longer matches storage. Mapped to a
// conflict response upstream.
var ErrStaleRecord = errors.New("record version is stale")

// AssignmentSubmissionFilter narrows submission listings.
type AssignmentSubmissionFilter struct {
	AssignmentID *string
	StudentID    *string
	Status       *string
}

// AssignmentSubmissionRepository defines data operations for assignment
// submissions. Saves re-check the stored version so two graders working from
// the same snapshot cannot silently overwrite each other.
type AssignmentSubmissionRepository interface {
	List(ctx context.Context, filter AssignmentSubmissionFilter) ([]models.AssignmentSubmission, error)
	GetByID(ctx context.Context, id string) (models.AssignmentSubmission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (models.AssignmentSubmission, error)
	Create(ctx context.Context, submission *models.AssignmentSubmission) error
	Save(ctx context.Context, submission *models.AssignmentSubmission, loadedVersion int, loadedStatus models.AssignmentSubmissionStatus) error
}

type assignmentSubmissionRepository struct {
	db *gorm.DB
}

// NewAssignmentSubmissionRepository instantiates the repository.
func NewAssignmentSubmissionRepository(db *gorm.DB) AssignmentSubmissionRepository {
	return &assignmentSubmissionRepository{db: db}
}

func (r *assignmentSubmissionRepository) List(ctx context.Context, filter AssignmentSubmissionFilter) ([]models.AssignmentSubmission, error) {
	query := r.db.WithContext(ctx).Model(&models.AssignmentSubmission{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.AssignmentSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *assignmentSubmissionRepository) GetByID(ctx context.Context, id string) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}
	if err := submission.Validate(); err != nil {
		return models.AssignmentSubmission{}, fmt.Errorf("stored assignment submission %s is invalid: %w", id, err)
	}
	return submission, nil
}

func (r *assignmentSubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Order("created_at DESC").
		First(&submission).Error
	if err != nil {
		return models.AssignmentSubmission{}, err
	}
	if err := submission.Validate(); err != nil {
		return models.AssignmentSubmission{}, fmt.Errorf("stored assignment submission %s is invalid: %w", submission.ID, err)
	}
	return submission, nil
}

func (r *assignmentSubmissionRepository) Create(ctx context.Context, submission *models.AssignmentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// Save writes the mutated entity back only if the stored row still carries
// the version and status the caller loaded. Grading bumps the version, but
// submit and resubmit do not, so those transitions are guarded by the status
// clause.
func (r *assignmentSubmissionRepository) Save(ctx context.Context, submission *models.AssignmentSubmission, loadedVersion int, loadedStatus models.AssignmentSubmissionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
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
