package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
)

type courseRepoStub struct {
	courses map[string]models.Course
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{courses: make(map[string]models.Course)}
}

func (r *courseRepoStub) List(ctx context.Context, filter repository.CourseFilter) ([]models.Course, error) {
	out := make([]models.Course, 0, len(r.courses))
	for _, course := range r.courses {
		out = append(out, course)
	}
	return out, nil
}

func (r *courseRepoStub) GetByID(ctx context.Context, id string) (models.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r *courseRepoStub) GetByCode(ctx context.Context, code string) (models.Course, error) {
	for _, course := range r.courses {
		if course.Code == code {
			return course, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (r *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	r.courses[course.ID] = *course
	return nil
}

func (r *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	r.courses[course.ID] = *course
	return nil
}

func (r *courseRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *courseRepoStub) IsUnique(ctx context.Context, code string) (bool, error) {
	for _, course := range r.courses {
		if course.Code == code {
			return false, nil
		}
	}
	return true, nil
}

func TestCourseServiceCreateGeneratesCode(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, validator.New(), testLogger())

	resp, err := svc.Create(context.Background(), "teacher-1", dto.CourseCreateRequest{
		Title: "Intro to Databases",
	})
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), resp.Code)
	require.Equal(t, "teacher-1", resp.TeacherID)
}

func TestCourseServiceCreateSanitizesDescription(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, validator.New(), testLogger())

	resp, err := svc.Create(context.Background(), "teacher-1", dto.CourseCreateRequest{
		Title:       "Web Security",
		Description: `<p>Welcome</p><script>alert("x")</script>`,
	})
	require.NoError(t, err)
	require.Contains(t, resp.Description, "<p>Welcome</p>")
	require.NotContains(t, resp.Description, "<script>")
}

func TestCourseServiceUpdateRejectsNonOwner(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, validator.New(), testLogger())

	created, err := svc.Create(context.Background(), "teacher-1", dto.CourseCreateRequest{Title: "Algorithms"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, "teacher-2", dto.CourseUpdateRequest{Title: strPtr("Hijacked")})
	require.ErrorIs(t, err, ErrNotCourseOwner)
}

func TestCourseServiceGetMissing(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), validator.New(), testLogger())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrCourseNotFound)
}
