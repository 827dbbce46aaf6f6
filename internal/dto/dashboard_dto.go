package dto

import "time"

// ProgressSummary aggregates a student's standing across one course.
type ProgressSummary struct {
	TotalAssignments int `json:"total_assignments"`
	Submitted        int `json:"submitted"`
	Graded           int `json:"graded"`
	Late             int `json:"late"`
	Overdue          int `json:"overdue"`
	TotalQuizzes     int `json:"total_quizzes"`
	QuizzesTaken     int `json:"quizzes_taken"`
	QuizzesGraded    int `json:"quizzes_graded"`
}

// AssignmentProgress describes one assignment row on the dashboard.
type AssignmentProgress struct {
	AssignmentID string    `json:"assignment_id"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	Status       string    `json:"status"`
	IsLate       bool      `json:"is_late"`
	Grade        *float64  `json:"grade"`
	Feedback     string    `json:"feedback"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuizProgress describes one quiz row on the dashboard.
type QuizProgress struct {
	QuizID           string    `json:"quiz_id"`
	Title            string    `json:"title"`
	DueDate          time.Time `json:"due_date"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	Status           string    `json:"status"`
	Grade            *float64  `json:"grade"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StudentDashboardResponse is the aggregated per-course dashboard payload.
type StudentDashboardResponse struct {
	CourseID     string               `json:"course_id"`
	Summary      ProgressSummary      `json:"summary"`
	AverageGrade *float64             `json:"average_grade"`
	Assignments  []AssignmentProgress `json:"assignments"`
	Quizzes      []QuizProgress       `json:"quizzes"`
	GeneratedAt  time.Time            `json:"generated_at"`
	CacheHit     bool                 `json:"cache_hit"`
}
