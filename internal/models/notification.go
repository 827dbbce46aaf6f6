package models

import "time"

// Notification types emitted by the grading and enrollment workflows.
const (
	NotificationTypeGraded       = "submission.graded"
	NotificationTypeAnnouncement = "announcement"
)

// Notification is a message targeted at a specific user, delivered to live
// subscribers and kept for later listing.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
