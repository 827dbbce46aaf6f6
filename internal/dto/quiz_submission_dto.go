package dto

import (
	"time"

	"github.com/campusflow/campusflow-api/internal/models"
)

// QuizAnswerPayload is one answer entry in a save or submit request. Choice
// is set for multiple-choice questions, Text for essays.
type QuizAnswerPayload struct {
	QuestionIndex int     `json:"question_index" validate:"gte=0"`
	Choice        *int    `json:"choice" validate:"omitempty,gte=0"`
	Text          *string `json:"text" validate:"omitempty,max=100000"`
}

// QuizAnswersRequest carries the answer sheet for autosave or submit.
type QuizAnswersRequest struct {
	Answers []QuizAnswerPayload `json:"answers" validate:"dive"`
}

// QuizSubmissionResponse is returned to API clients when viewing a quiz
// attempt. RemainingSeconds and the countdown string are computed at
// response time so polling clients can drive their timers.
type QuizSubmissionResponse struct {
	ID               string      `json:"id"`
	QuizID           string      `json:"quiz_id"`
	StudentID        string      `json:"student_id"`
	Answers          interface{} `json:"answers"`
	StartedAt        *time.Time  `json:"started_at"`
	SubmittedAt      *time.Time  `json:"submitted_at"`
	Grade            *float64    `json:"grade"`
	Feedback         string      `json:"feedback"`
	Status           string      `json:"status"`
	Version          int         `json:"version"`
	RemainingSeconds int         `json:"remaining_seconds"`
	RemainingDisplay string      `json:"remaining_display"`
	ExpiresAt        *time.Time  `json:"expires_at"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ToAnswers converts request payloads into the entity answer type.
func (r QuizAnswersRequest) ToAnswers() []models.QuizAnswer {
	answers := make([]models.QuizAnswer, 0, len(r.Answers))
	for _, payload := range r.Answers {
		answer := models.QuizAnswer{QuestionIndex: payload.QuestionIndex, Choice: payload.Choice}
		if payload.Text != nil {
			answer.Text = *payload.Text
		}
		answers = append(answers, answer)
	}
	return answers
}
