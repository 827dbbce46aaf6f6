package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Question kinds stored inside a quiz definition.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeEssay          = "essay"
)

// QuizQuestion is one entry in a quiz definition. Options are only present
// for multiple-choice questions.
type QuizQuestion struct {
	Type          string   `json:"type"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options,omitempty"`
	CorrectOption *int     `json:"correct_option,omitempty"`
	Points        float64  `json:"points"`
}

// Quiz is a timed assessment definition. Attempts are tracked separately as
// QuizSubmission rows.
type Quiz struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	CourseID         string           `gorm:"size:36;not null;index" json:"course_id"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Description      string           `gorm:"type:text" json:"description"`
	Questions        datatypes.JSON   `gorm:"type:json" json:"-"`
	TimeLimitMinutes int              `gorm:"not null" json:"time_limit_minutes"`
	DueDate          time.Time        `gorm:"not null" json:"due_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Submissions      []QuizSubmission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SetQuestions serializes the question list into the JSON storage column.
func (q *Quiz) SetQuestions(questions []QuizQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	q.Questions = datatypes.JSON(data)
	return nil
}

// QuestionList deserializes the stored questions.
func (q Quiz) QuestionList() []QuizQuestion {
	if len(q.Questions) == 0 {
		return nil
	}

	var questions []QuizQuestion
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil
	}

	return questions
}

// IsPastDue returns true when no new attempts may be started.
func (q Quiz) IsPastDue(reference time.Time) bool {
	return !reference.Before(q.DueDate)
}
