package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssignmentSubmissionStatus enumerates the lifecycle states of an assignment
// submission.
type AssignmentSubmissionStatus string

const (
	// AssignmentSubmissionStatusNotSubmitted is the state before any hand-in.
	AssignmentSubmissionStatusNotSubmitted AssignmentSubmissionStatus = "not_submitted"
	// AssignmentSubmissionStatusSubmitted means work has been handed in and
	// can still be replaced until grading starts.
	AssignmentSubmissionStatusSubmitted AssignmentSubmissionStatus = "submitted"
	// AssignmentSubmissionStatusGraded is the terminal state.
	AssignmentSubmissionStatusGraded AssignmentSubmissionStatus = "graded"
)

// Lifecycle rule violations surfaced by AssignmentSubmission methods.
var (
	ErrSubmissionAlreadySubmitted = errors.New("submission has already been submitted")
	ErrSubmissionResubmitGraded   = errors.New("cannot resubmit after grading has started")
	ErrSubmissionResubmitPending  = errors.New("submission must be submitted before resubmitting")
	ErrSubmissionContentLocked    = errors.New("cannot update content after grading has started")
	ErrSubmissionNotSubmitted     = errors.New("cannot grade submission that has not been submitted")
	ErrSubmissionNotGraded        = errors.New("cannot update grade for submission that has not been graded")
	ErrSubmissionVersionConflict  = errors.New("submission has been modified by another user")
)

// AssignmentSubmission is one student's hand-in for one assignment. Unlike
// quiz attempts there is no timer: resubmission is allowed until grading
// starts, and lateness is decided by the caller against the assignment due
// date.
type AssignmentSubmission struct {
	ID           string                     `gorm:"primaryKey;size:36" json:"id"`
	AssignmentID string                     `gorm:"size:36;not null;index:idx_assignment_student" json:"assignment_id"`
	StudentID    string                     `gorm:"size:36;not null;index:idx_assignment_student" json:"student_id"`
	Content      string                     `gorm:"type:text" json:"content"`
	FilePath     string                     `gorm:"size:512" json:"file_path"`
	FileName     string                     `gorm:"size:255" json:"file_name"`
	IsLate       bool                       `gorm:"not null;default:false" json:"is_late"`
	Status       AssignmentSubmissionStatus `gorm:"size:32;not null" json:"status"`
	Grade        *float64                   `json:"grade"`
	Feedback     string                     `gorm:"type:text" json:"feedback"`
	SubmittedAt  *time.Time                 `json:"submitted_at"`
	GradedAt     *time.Time                 `json:"graded_at"`
	Version      int                        `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
	Assignment   Assignment                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      User                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// NewAssignmentSubmission creates a pending submission shell. The version
// counter starts at zero for this entity.
func NewAssignmentSubmission(assignmentID, studentID string, now time.Time) (*AssignmentSubmission, error) {
	if assignmentID == "" {
		return nil, errors.New("assignment id is required")
	}
	if studentID == "" {
		return nil, errors.New("student id is required")
	}

	return &AssignmentSubmission{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       AssignmentSubmissionStatusNotSubmitted,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks the entity invariants after reconstitution from storage.
func (s *AssignmentSubmission) Validate() error {
	if s.ID == "" || s.AssignmentID == "" || s.StudentID == "" {
		return errors.New("assignment submission identifiers must not be empty")
	}

	switch s.Status {
	case AssignmentSubmissionStatusNotSubmitted:
	case AssignmentSubmissionStatusSubmitted:
		if s.SubmittedAt == nil {
			return errors.New("submitted submission must have a submission time")
		}
	case AssignmentSubmissionStatusGraded:
		if s.Grade == nil || !gradeInRange(*s.Grade) {
			return ErrGradeOutOfRange
		}
	default:
		return fmt.Errorf("unknown assignment submission status %q", s.Status)
	}

	if s.Version < 0 {
		return errors.New("assignment submission version must not be negative")
	}

	return nil
}

// Submit hands in the work for the first time.
func (s *AssignmentSubmission) Submit(isLate bool, now time.Time) error {
	if s.Status != AssignmentSubmissionStatusNotSubmitted {
		return ErrSubmissionAlreadySubmitted
	}

	submittedAt := now
	s.SubmittedAt = &submittedAt
	s.IsLate = isLate
	s.Status = AssignmentSubmissionStatusSubmitted
	s.UpdatedAt = now

	return nil
}

// Resubmit replaces an earlier hand-in, refreshing the submission time and
// lateness flag. Allowed only until grading starts.
func (s *AssignmentSubmission) Resubmit(isLate bool, now time.Time) error {
	if s.Status == AssignmentSubmissionStatusGraded {
		return ErrSubmissionResubmitGraded
	}
	if s.Status != AssignmentSubmissionStatusSubmitted {
		return ErrSubmissionResubmitPending
	}

	submittedAt := now
	s.SubmittedAt = &submittedAt
	s.IsLate = isLate
	s.UpdatedAt = now

	return nil
}

// UpdateContent changes the answer text or attached file. Nil fields are left
// untouched. Locked once grading starts.
func (s *AssignmentSubmission) UpdateContent(content, filePath, fileName *string, now time.Time) error {
	if s.Status == AssignmentSubmissionStatusGraded {
		return ErrSubmissionContentLocked
	}

	if content != nil {
		s.Content = *content
	}
	if filePath != nil {
		s.FilePath = *filePath
	}
	if fileName != nil {
		s.FileName = *fileName
	}
	s.UpdatedAt = now

	return nil
}

// AssignGrade records the first grade. When expectedVersion is supplied it
// must match the current version, otherwise the write is rejected as a
// concurrent-edit conflict before any field changes.
func (s *AssignmentSubmission) AssignGrade(grade float64, feedback string, expectedVersion *int, now time.Time) error {
	if expectedVersion != nil && *expectedVersion != s.Version {
		return ErrSubmissionVersionConflict
	}
	if s.Status != AssignmentSubmissionStatusSubmitted {
		return ErrSubmissionNotSubmitted
	}
	if !gradeInRange(grade) {
		return ErrGradeOutOfRange
	}

	s.Grade = &grade
	s.Feedback = feedback
	gradedAt := now
	s.GradedAt = &gradedAt
	s.Status = AssignmentSubmissionStatusGraded
	s.Version++
	s.UpdatedAt = now

	return nil
}

// UpdateGrade revises the grade on an already graded submission, with the
// same optimistic version guard as AssignGrade.
func (s *AssignmentSubmission) UpdateGrade(grade float64, feedback string, expectedVersion *int, now time.Time) error {
	if expectedVersion != nil && *expectedVersion != s.Version {
		return ErrSubmissionVersionConflict
	}
	if s.Status != AssignmentSubmissionStatusGraded {
		return ErrSubmissionNotGraded
	}
	if !gradeInRange(grade) {
		return ErrGradeOutOfRange
	}

	s.Grade = &grade
	s.Feedback = feedback
	s.Version++
	s.UpdatedAt = now

	return nil
}

// MarkAsLate flags the submission as late regardless of state.
func (s *AssignmentSubmission) MarkAsLate(now time.Time) {
	s.IsLate = true
	s.UpdatedAt = now
}

// IsGraded reports whether the submission has reached its terminal state.
func (s *AssignmentSubmission) IsGraded() bool {
	return s.Status == AssignmentSubmissionStatusGraded
}
