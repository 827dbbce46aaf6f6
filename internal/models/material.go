package models

import "time"

// Material is a downloadable course resource stored in the media CDN.
type Material struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID  string    `gorm:"size:36;not null;index" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	FileURL   string    `gorm:"size:512;not null" json:"file_url"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
