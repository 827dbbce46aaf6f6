package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
)

type enrollmentRepoStub struct {
	enrollments []models.Enrollment
}

func (r *enrollmentRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	out := make([]models.Enrollment, 0)
	for _, enrollment := range r.enrollments {
		if enrollment.CourseID == courseID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (r *enrollmentRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	out := make([]models.Enrollment, 0)
	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (r *enrollmentRepoStub) Exists(ctx context.Context, courseID, studentID string) (bool, error) {
	for _, enrollment := range r.enrollments {
		if enrollment.CourseID == courseID && enrollment.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *enrollmentRepoStub) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.enrollments = append(r.enrollments, *enrollment)
	return nil
}

func (r *enrollmentRepoStub) Delete(ctx context.Context, courseID, studentID string) error {
	kept := r.enrollments[:0]
	for _, enrollment := range r.enrollments {
		if enrollment.CourseID != courseID || enrollment.StudentID != studentID {
			kept = append(kept, enrollment)
		}
	}
	r.enrollments = kept
	return nil
}

func enrollmentFixture(t *testing.T) (EnrollmentService, *enrollmentRepoStub) {
	t.Helper()

	courses := newCourseRepoStub()
	courses.courses["course-1"] = models.Course{ID: "course-1", Title: "Chemistry", Code: "CHEM01", TeacherID: "teacher-1"}

	enrollments := &enrollmentRepoStub{}
	svc := NewEnrollmentService(enrollments, courses, validator.New(), testLogger())
	return svc, enrollments
}

func TestEnrollByCode(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	resp, err := svc.Enroll(context.Background(), "student-1", dto.EnrollRequest{Code: "chem01"})
	require.NoError(t, err)
	require.Equal(t, "course-1", resp.CourseID)
	require.Equal(t, "student-1", resp.StudentID)
}

func TestEnrollInvalidCode(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "student-1", dto.EnrollRequest{Code: "ZZZZZZ"})
	require.ErrorIs(t, err, ErrInvalidCourseCode)
}

func TestEnrollTwice(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "student-1", dto.EnrollRequest{Code: "CHEM01"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "student-1", dto.EnrollRequest{Code: "CHEM01"})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestLeaveWithoutEnrollment(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	err := svc.Leave(context.Background(), "course-1", "student-1")
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestCoursesForStudent(t *testing.T) {
	svc, _ := enrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "student-1", dto.EnrollRequest{Code: "CHEM01"})
	require.NoError(t, err)

	courses, err := svc.CoursesForStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Chemistry", courses[0].Title)
}
