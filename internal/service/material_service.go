package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
)

var (
	// ErrMaterialNotFound indicates the requested material does not exist.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrMaterialFileRequired indicates the upload is missing its file part.
	ErrMaterialFileRequired = errors.New("material file is required")
	// ErrMaterialTypeNotAllowed indicates the sniffed MIME type is outside
	// the allowlist.
	ErrMaterialTypeNotAllowed = errors.New("file type not allowed")
	// ErrMaterialTooLarge indicates the upload exceeds the configured limit.
	ErrMaterialTooLarge = errors.New("file exceeds maximum allowed size")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// Content types a teacher may attach to a course. Sniffed from content, not
// trusted from the request header.
var allowedMaterialTypes = map[string]struct{}{
	"application/pdf": {},
	"application/zip": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"text/plain; charset=utf-8": {},
	"image/png":                 {},
	"image/jpeg":                {},
	"video/mp4":                 {},
}

// MaterialService manages course resource uploads and listings.
type MaterialService interface {
	ListByCourse(ctx context.Context, courseID string) ([]dto.MaterialResponse, error)
	Upload(ctx context.Context, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
	Delete(ctx context.Context, id string) error
}

type materialService struct {
	materials repository.MaterialRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	uploader  FileUploader
	maxSize   int64
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(materialRepo repository.MaterialRepository, courseRepo repository.CourseRepository, validate *validator.Validate, uploader FileUploader, maxSizeMB int, logger zerolog.Logger) MaterialService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &materialService{
		materials: materialRepo,
		courses:   courseRepo,
		validator: validate,
		uploader:  uploader,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "material_service").Logger(),
		now:       time.Now,
	}
}

func (s *materialService) ListByCourse(ctx context.Context, courseID string) ([]dto.MaterialResponse, error) {
	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Upload(ctx context.Context, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	if file == nil {
		return dto.MaterialResponse{}, ErrMaterialFileRequired
	}
	if file.Size > s.maxSize {
		return dto.MaterialResponse{}, ErrMaterialTooLarge
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrCourseNotFound
		}
		return dto.MaterialResponse{}, err
	}

	src, err := file.Open()
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return dto.MaterialResponse{}, ErrMaterialTooLarge
	}

	detected := mimetype.Detect(data)
	if _, ok := allowedMaterialTypes[detected.String()]; !ok {
		s.logger.Warn().
			Str("mime_type", detected.String()).
			Str("file_name", file.Filename).
			Msg("rejected material upload")
		return dto.MaterialResponse{}, ErrMaterialTypeNotAllowed
	}

	url, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(data))
	if err != nil {
		return dto.MaterialResponse{}, fmt.Errorf("failed to store material: %w", err)
	}

	now := s.now()
	material := models.Material{
		ID:        uuid.NewString(),
		CourseID:  payload.CourseID,
		Title:     strings.TrimSpace(payload.Title),
		FileURL:   url,
		FileName:  file.Filename,
		MimeType:  detected.String(),
		SizeBytes: int64(len(data)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.materials.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().
		Str("material_id", material.ID).
		Str("course_id", material.CourseID).
		Int64("size_bytes", material.SizeBytes).
		Msg("material uploaded")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, id string) error {
	if _, err := s.materials.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}

	return s.materials.Delete(ctx, id)
}
