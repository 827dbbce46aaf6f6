package models

import "time"

// Course groups materials, assignments and quizzes under a teacher-owned
// join code.
type Course struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Code        string       `gorm:"size:6;uniqueIndex;not null" json:"code"`
	TeacherID   string       `gorm:"size:36;not null;index" json:"teacher_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Teacher     User         `gorm:"foreignKey:TeacherID;references:ID" json:"-"`
	Materials   []Material   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assignments []Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Quizzes     []Quiz       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Enrollments []Enrollment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Enrollment links a student to a course. One row per student per course.
type Enrollment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID  string    `gorm:"size:36;not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID string    `gorm:"size:36;not null;uniqueIndex:idx_course_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Student   User      `gorm:"foreignKey:StudentID;references:ID" json:"-"`
}
