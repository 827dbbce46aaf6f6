package models

import "time"

// Submission type constraints for assignments.
const (
	// AssignmentTypeText accepts a written answer only.
	AssignmentTypeText = "text"
	// AssignmentTypeFile accepts an uploaded file only.
	AssignmentTypeFile = "file"
	// AssignmentTypeEither accepts either form.
	AssignmentTypeEither = "either"
)

// Assignment is a gradeable task with a due date. Work handed in after the
// due date is accepted but flagged late.
type Assignment struct {
	ID             string                 `gorm:"primaryKey;size:36" json:"id"`
	CourseID       string                 `gorm:"size:36;not null;index" json:"course_id"`
	Title          string                 `gorm:"size:255;not null" json:"title"`
	Description    string                 `gorm:"type:text" json:"description"`
	DueDate        time.Time              `gorm:"not null" json:"due_date"`
	SubmissionType string                 `gorm:"size:16;not null;default:either" json:"submission_type"`
	FileURL        string                 `gorm:"size:512" json:"file_url"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Submissions    []AssignmentSubmission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPastDue returns true when the deadline has already passed at the given
// reference time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
