package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizSubmissionStatus enumerates the lifecycle states of a quiz attempt.
type QuizSubmissionStatus string

const (
	// QuizSubmissionStatusNotStarted is the state of a freshly created attempt.
	QuizSubmissionStatusNotStarted QuizSubmissionStatus = "not_started"
	// QuizSubmissionStatusInProgress means the student has started the timer.
	QuizSubmissionStatusInProgress QuizSubmissionStatus = "in_progress"
	// QuizSubmissionStatusSubmitted means answers are locked and await grading.
	QuizSubmissionStatusSubmitted QuizSubmissionStatus = "submitted"
	// QuizSubmissionStatusGraded is the terminal state.
	QuizSubmissionStatusGraded QuizSubmissionStatus = "graded"
)

// Lifecycle rule violations surfaced by QuizSubmission methods.
var (
	ErrQuizAlreadyStarted     = errors.New("quiz has already been started or submitted")
	ErrQuizPastDue            = errors.New("cannot start quiz after due date")
	ErrQuizNotInProgress      = errors.New("cannot update answers when quiz is not in progress")
	ErrQuizSubmitState        = errors.New("quiz must be in progress to submit")
	ErrQuizTimeExpired        = errors.New("quiz time has expired")
	ErrQuizAutoSubmitState    = errors.New("quiz must be in progress to auto-submit")
	ErrQuizAutoSubmitTooEarly = errors.New("cannot auto-submit before time expires")
	ErrQuizNotSubmitted       = errors.New("can only grade submitted submissions")
	ErrQuizNotGraded          = errors.New("can only update grade for graded submissions")
)

// Validation errors shared by both submission entities.
var (
	ErrGradeOutOfRange  = errors.New("grade must be between 0 and 100")
	ErrInvalidTimeLimit = errors.New("time limit must be a positive number of minutes")
)

// QuizAnswer holds a single response: a choice index for multiple-choice
// questions or free text for essay questions.
type QuizAnswer struct {
	QuestionIndex int
	Choice        *int
	Text          string
}

type quizAnswerJSON struct {
	QuestionIndex int         `json:"question_index"`
	Answer        interface{} `json:"answer"`
}

// MarshalJSON renders the answer as a bare number or string depending on the
// question kind.
func (a QuizAnswer) MarshalJSON() ([]byte, error) {
	payload := quizAnswerJSON{QuestionIndex: a.QuestionIndex}
	if a.Choice != nil {
		payload.Answer = *a.Choice
	} else {
		payload.Answer = a.Text
	}
	return json.Marshal(payload)
}

// UnmarshalJSON accepts either a numeric choice index or an essay string.
func (a *QuizAnswer) UnmarshalJSON(data []byte) error {
	var payload quizAnswerJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	a.QuestionIndex = payload.QuestionIndex
	a.Choice = nil
	a.Text = ""

	switch value := payload.Answer.(type) {
	case nil:
	case string:
		a.Text = value
	case float64:
		choice := int(value)
		a.Choice = &choice
	default:
		return fmt.Errorf("unsupported answer type %T", payload.Answer)
	}

	return nil
}

// QuizSubmission is one student's attempt at one quiz. All state changes go
// through the lifecycle methods below; a failed call leaves the entity
// untouched.
type QuizSubmission struct {
	ID          string               `gorm:"primaryKey;size:36" json:"id"`
	QuizID      string               `gorm:"size:36;not null;index:idx_quiz_student" json:"quiz_id"`
	StudentID   string               `gorm:"size:36;not null;index:idx_quiz_student" json:"student_id"`
	Answers     datatypes.JSON       `gorm:"type:json" json:"answers"`
	StartedAt   *time.Time           `json:"started_at"`
	SubmittedAt *time.Time           `json:"submitted_at"`
	Grade       *float64             `json:"grade"`
	Feedback    string               `gorm:"type:text" json:"feedback"`
	Status      QuizSubmissionStatus `gorm:"size:32;not null" json:"status"`
	Version     int                  `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Quiz        Quiz                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student     User                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// NewQuizSubmission creates a fresh attempt in the not-started state with
// version 1 and an empty answer sheet.
func NewQuizSubmission(quizID, studentID string, now time.Time) (*QuizSubmission, error) {
	if quizID == "" {
		return nil, errors.New("quiz id is required")
	}
	if studentID == "" {
		return nil, errors.New("student id is required")
	}

	return &QuizSubmission{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   datatypes.JSON([]byte("[]")),
		Status:    QuizSubmissionStatusNotStarted,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the entity invariants. Repositories run it after loading so
// a corrupted row never reaches the lifecycle methods.
func (s *QuizSubmission) Validate() error {
	if s.ID == "" || s.QuizID == "" || s.StudentID == "" {
		return errors.New("quiz submission identifiers must not be empty")
	}

	switch s.Status {
	case QuizSubmissionStatusNotStarted:
	case QuizSubmissionStatusInProgress:
		if s.StartedAt == nil {
			return errors.New("in-progress quiz submission must have a start time")
		}
	case QuizSubmissionStatusSubmitted:
		if s.SubmittedAt == nil {
			return errors.New("submitted quiz submission must have a submission time")
		}
	case QuizSubmissionStatusGraded:
		if s.SubmittedAt == nil {
			return errors.New("graded quiz submission must have a submission time")
		}
		if s.Grade == nil || !gradeInRange(*s.Grade) {
			return ErrGradeOutOfRange
		}
	default:
		return fmt.Errorf("unknown quiz submission status %q", s.Status)
	}

	if s.Version < 1 {
		return errors.New("quiz submission version must be at least 1")
	}

	return nil
}

// Start begins the attempt and stamps the timer. It is rejected once the quiz
// due date has passed; expiry of the running timer is a separate concern.
func (s *QuizSubmission) Start(quizDueDate, now time.Time) error {
	if s.Status != QuizSubmissionStatusNotStarted {
		return ErrQuizAlreadyStarted
	}
	if !now.Before(quizDueDate) {
		return ErrQuizPastDue
	}

	startedAt := now
	s.StartedAt = &startedAt
	s.Status = QuizSubmissionStatusInProgress
	s.UpdatedAt = now

	return nil
}

// UpdateAnswers replaces the autosaved answer sheet while the attempt runs.
func (s *QuizSubmission) UpdateAnswers(answers []QuizAnswer, now time.Time) error {
	if s.Status != QuizSubmissionStatusInProgress {
		return ErrQuizNotInProgress
	}

	encoded, err := encodeQuizAnswers(answers)
	if err != nil {
		return err
	}

	s.Answers = encoded
	s.UpdatedAt = now

	return nil
}

// Submit closes the attempt with a final answer payload. A regular submit is
// rejected once the time limit has elapsed; callers acting on behalf of the
// system set isAutoSubmit to bypass that check.
func (s *QuizSubmission) Submit(answers []QuizAnswer, timeLimitMinutes float64, isAutoSubmit bool, now time.Time) error {
	if s.Status != QuizSubmissionStatusInProgress {
		return ErrQuizSubmitState
	}
	if timeLimitMinutes <= 0 {
		return ErrInvalidTimeLimit
	}
	if !isAutoSubmit && s.TimeExpired(timeLimitMinutes, now) {
		return ErrQuizTimeExpired
	}

	encoded, err := encodeQuizAnswers(answers)
	if err != nil {
		return err
	}

	s.Answers = encoded
	submittedAt := now
	s.SubmittedAt = &submittedAt
	s.Status = QuizSubmissionStatusSubmitted
	s.UpdatedAt = now

	return nil
}

// AutoSubmit force-closes an expired attempt, keeping whatever answers were
// last autosaved. It fires only after the limit has elapsed.
func (s *QuizSubmission) AutoSubmit(timeLimitMinutes float64, now time.Time) error {
	if s.Status != QuizSubmissionStatusInProgress {
		return ErrQuizAutoSubmitState
	}
	if timeLimitMinutes <= 0 {
		return ErrInvalidTimeLimit
	}
	if !s.TimeExpired(timeLimitMinutes, now) {
		return ErrQuizAutoSubmitTooEarly
	}

	submittedAt := now
	s.SubmittedAt = &submittedAt
	s.Status = QuizSubmissionStatusSubmitted
	s.UpdatedAt = now

	return nil
}

// SetGrade records the first grade and moves the attempt to its terminal
// state. Each successful grade write bumps the optimistic-locking version.
func (s *QuizSubmission) SetGrade(grade float64, feedback string, now time.Time) error {
	if s.Status != QuizSubmissionStatusSubmitted {
		return ErrQuizNotSubmitted
	}
	if !gradeInRange(grade) {
		return ErrGradeOutOfRange
	}

	s.Grade = &grade
	s.Feedback = feedback
	s.Status = QuizSubmissionStatusGraded
	s.Version++
	s.UpdatedAt = now

	return nil
}

// UpdateGrade revises an existing grade on an already graded attempt.
func (s *QuizSubmission) UpdateGrade(grade float64, feedback string, now time.Time) error {
	if s.Status != QuizSubmissionStatusGraded {
		return ErrQuizNotGraded
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

// TimeExpired reports whether the running timer has used up the limit.
// Elapsed time exactly equal to the limit counts as expired. Fractional
// minute limits are accepted here so short-limit flows behave sensibly.
func (s *QuizSubmission) TimeExpired(timeLimitMinutes float64, now time.Time) bool {
	if s.StartedAt == nil || timeLimitMinutes <= 0 {
		return false
	}

	allowance := time.Duration(timeLimitMinutes * float64(time.Minute))
	return now.Sub(*s.StartedAt) >= allowance
}

// RemainingSeconds returns the whole seconds left on the clock, clamped at
// zero. Before the attempt starts the full allowance is reported.
func (s *QuizSubmission) RemainingSeconds(timeLimitMinutes float64, now time.Time) int {
	total := int(timeLimitMinutes * 60)
	if s.StartedAt == nil {
		return total
	}

	elapsed := int(now.Sub(*s.StartedAt) / time.Second)
	remaining := total - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLate always reports false: the timer prevents late quiz submissions, so
// anything past expiry goes through auto-submit instead of being flagged late.
func (s *QuizSubmission) IsLate() bool {
	return false
}

// DecodedAnswers unpacks the stored answer sheet.
func (s *QuizSubmission) DecodedAnswers() ([]QuizAnswer, error) {
	if len(s.Answers) == 0 {
		return []QuizAnswer{}, nil
	}

	var answers []QuizAnswer
	if err := json.Unmarshal(s.Answers, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode quiz answers: %w", err)
	}
	if answers == nil {
		answers = []QuizAnswer{}
	}

	return answers, nil
}

func encodeQuizAnswers(answers []QuizAnswer) (datatypes.JSON, error) {
	if answers == nil {
		answers = []QuizAnswer{}
	}

	data, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz answers: %w", err)
	}

	return datatypes.JSON(data), nil
}

func gradeInRange(grade float64) bool {
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return false
	}
	return grade >= 0 && grade <= 100
}
