package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// MaterialCreateRequest describes the multipart payload for a material upload.
type MaterialCreateRequest struct {
	CourseID string `form:"course_id" validate:"required"`
	Title    string `form:"title" validate:"required,min=1,max=255"`
}

// MaterialResponse is returned to API clients when viewing materials.
type MaterialResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMaterialResponse converts a Material model into a DTO.
func NewMaterialResponse(model models.Material) MaterialResponse {
	return MaterialResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Title:     model.Title,
		FileURL:   model.FileURL,
		FileName:  model.FileName,
		MimeType:  model.MimeType,
		SizeBytes: model.SizeBytes,
		CreatedAt: model.CreatedAt,
	}
}

// NewMaterialResponseSlice converts material models into DTOs.
func NewMaterialResponseSlice(models []models.Material) []MaterialResponse {
	responses := make([]MaterialResponse, 0, len(models))
	for _, material := range models {
		responses = append(responses, NewMaterialResponse(material))
	}
	return responses
}
