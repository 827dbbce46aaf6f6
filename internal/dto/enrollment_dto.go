package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// EnrollRequest is the payload for a student joining a course by code.
type EnrollRequest struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}

// EnrollmentResponse is returned when viewing a course roster.
type EnrollmentResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	Student   UserLite  `json:"student"`
	CreatedAt time.Time `json:"created_at"`
}

// UserLite summarizes an account without exposing full profile data.
type UserLite struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		StudentID: model.StudentID,
		CreatedAt: model.CreatedAt,
	}

	if model.Student.ID != "" {
		response.Student = UserLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(models []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(models))
	for _, enrollment := range models {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}
	return responses
}
