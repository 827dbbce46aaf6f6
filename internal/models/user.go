package models

import "time"

// Role values recognised across the API.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User represents a platform account, either a teacher or a student.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTeacher reports whether the account can create courses and grade work.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
