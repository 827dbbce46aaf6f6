package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID       string `json:"course_id" form:"course_id" validate:"required"`
	Title          string `json:"title" form:"title" validate:"required,min=3,max=255"`
	Description    string `json:"description" form:"description" validate:"omitempty,max=10000"`
	DueDate        string `json:"due_date" form:"due_date" validate:"required"`
	SubmissionType string `json:"submission_type" form:"submission_type" validate:"omitempty,oneof=text file either"`
}

// AssignmentUpdateRequest carries optional assignment fields to change.
type AssignmentUpdateRequest struct {
	Title          *string `json:"title" form:"title" validate:"omitempty,min=3,max=255"`
	Description    *string `json:"description" form:"description" validate:"omitempty,max=10000"`
	DueDate        *string `json:"due_date" form:"due_date"`
	SubmissionType *string `json:"submission_type" form:"submission_type" validate:"omitempty,oneof=text file either"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID             string    `json:"id"`
	CourseID       string    `json:"course_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	DueDate        time.Time `json:"due_date"`
	SubmissionType string    `json:"submission_type"`
	FileURL        string    `json:"file_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		CourseID:       model.CourseID,
		Title:          model.Title,
		Description:    model.Description,
		DueDate:        model.DueDate,
		SubmissionType: model.SubmissionType,
		FileURL:        model.FileURL,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, assignment := range models {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}
