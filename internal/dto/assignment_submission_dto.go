package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// AssignmentSubmitRequest describes a hand-in or resubmission payload.
type AssignmentSubmitRequest struct {
	Content  string `json:"content" form:"content" validate:"omitempty,max=100000"`
	FilePath string `json:"file_path" form:"file_path" validate:"omitempty,max=512"`
	FileName string `json:"file_name" form:"file_name" validate:"omitempty,max=255"`
}

// AssignmentContentUpdateRequest updates draft content before grading.
type AssignmentContentUpdateRequest struct {
	Content  *string `json:"content" validate:"omitempty,max=100000"`
	FilePath *string `json:"file_path" validate:"omitempty,max=512"`
	FileName *string `json:"file_name" validate:"omitempty,max=255"`
}

// GradeRequest carries a grade write with an optional expected version for
// conflict detection.
type GradeRequest struct {
	Grade           float64 `json:"grade" validate:"gte=0,lte=100"`
	Feedback        string  `json:"feedback" validate:"omitempty,max=10000"`
	ExpectedVersion *int    `json:"expected_version" validate:"omitempty,gte=0"`
}

// AssignmentSubmissionFilter describes query string filters for listings.
type AssignmentSubmissionFilter struct {
	AssignmentID *string `query:"assignment_id"`
	StudentID    *string `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=not_submitted submitted graded"`
}

// AssignmentSubmissionResponse is returned to API clients when viewing
// assignment submissions.
type AssignmentSubmissionResponse struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	Content      string     `json:"content"`
	FilePath     string     `json:"file_path"`
	FileName     string     `json:"file_name"`
	IsLate       bool       `json:"is_late"`
	Status       string     `json:"status"`
	Grade        *float64   `json:"grade"`
	Feedback     string     `json:"feedback"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewAssignmentSubmissionResponse converts an AssignmentSubmission model
// into a DTO.
func NewAssignmentSubmissionResponse(model models.AssignmentSubmission) AssignmentSubmissionResponse {
	return AssignmentSubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		FilePath:     model.FilePath,
		FileName:     model.FileName,
		IsLate:       model.IsLate,
		Status:       string(model.Status),
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
		Version:      model.Version,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentSubmissionResponseSlice converts submission models into DTOs.
func NewAssignmentSubmissionResponseSlice(models []models.AssignmentSubmission) []AssignmentSubmissionResponse {
	responses := make([]AssignmentSubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewAssignmentSubmissionResponse(submission))
	}
	return responses
}
