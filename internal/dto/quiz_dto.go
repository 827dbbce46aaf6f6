package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// QuizQuestionPayload is one question inside a quiz create/update request.
type QuizQuestionPayload struct {
	Type          string   `json:"type" validate:"required,oneof=multiple_choice essay"`
	Prompt        string   `json:"prompt" validate:"required,min=1"`
	Options       []string `json:"options" validate:"omitempty,max=10,dive,min=1"`
	CorrectOption *int     `json:"correct_option" validate:"omitempty,gte=0"`
	Points        float64  `json:"points" validate:"gte=0"`
}

// QuizCreateRequest describes the payload for creating a quiz.
type QuizCreateRequest struct {
	CourseID         string                `json:"course_id" validate:"required"`
	Title            string                `json:"title" validate:"required,min=3,max=255"`
	Description      string                `json:"description" validate:"omitempty,max=10000"`
	Questions        []QuizQuestionPayload `json:"questions" validate:"required,min=1,dive"`
	TimeLimitMinutes int                   `json:"time_limit_minutes" validate:"required,gt=0"`
	DueDate          string                `json:"due_date" validate:"required"`
}

// QuizUpdateRequest carries optional quiz fields to change.
type QuizUpdateRequest struct {
	Title            *string               `json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string               `json:"description" validate:"omitempty,max=10000"`
	Questions        []QuizQuestionPayload `json:"questions" validate:"omitempty,min=1,dive"`
	TimeLimitMinutes *int                  `json:"time_limit_minutes" validate:"omitempty,gt=0"`
	DueDate          *string               `json:"due_date"`
}

// QuizResponse is returned to API clients when viewing quizzes. Correct
// answers are stripped for students by the handler layer.
type QuizResponse struct {
	ID               string                `json:"id"`
	CourseID         string                `json:"course_id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Questions        []QuizQuestionPayload `json:"questions"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	DueDate          time.Time             `json:"due_date"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// NewQuizResponse converts a Quiz model into a DTO.
func NewQuizResponse(model models.Quiz) QuizResponse {
	questions := make([]QuizQuestionPayload, 0)
	for _, question := range model.QuestionList() {
		questions = append(questions, QuizQuestionPayload{
			Type:          question.Type,
			Prompt:        question.Prompt,
			Options:       question.Options,
			CorrectOption: question.CorrectOption,
			Points:        question.Points,
		})
	}

	return QuizResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		Title:            model.Title,
		Description:      model.Description,
		Questions:        questions,
		TimeLimitMinutes: model.TimeLimitMinutes,
		DueDate:          model.DueDate,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// StripAnswers removes grading keys from the question list so students
// cannot read the correct options out of the API.
func (r QuizResponse) StripAnswers() QuizResponse {
	stripped := r
	stripped.Questions = make([]QuizQuestionPayload, 0, len(r.Questions))
	for _, question := range r.Questions {
		question.CorrectOption = nil
		stripped.Questions = append(stripped.Questions, question)
	}
	return stripped
}

// NewQuizResponseSlice converts quiz models into DTOs.
func NewQuizResponseSlice(models []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(models))
	for _, quiz := range models {
		responses = append(responses, NewQuizResponse(quiz))
	}
	return responses
}
