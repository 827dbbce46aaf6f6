package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/models"
	"github.com/campusflow/campusflow-api/internal/repository"
)

type assignmentRepoStub struct {
	assignments map[string]models.Assignment
}

func (r *assignmentRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0)
	for _, assignment := range r.assignments {
		if assignment.CourseID == courseID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (r *assignmentRepoStub) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	assignment, ok := r.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *assignmentRepoStub) Update(ctx context.Context, assignment *models.Assignment) error {
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.assignments, id)
	return nil
}

// submissionRepoStub mimics the version-checked save of the real repository.
type submissionRepoStub struct {
	submissions map[string]models.AssignmentSubmission
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{submissions: make(map[string]models.AssignmentSubmission)}
}

func (r *submissionRepoStub) List(ctx context.Context, filter repository.AssignmentSubmissionFilter) ([]models.AssignmentSubmission, error) {
	out := make([]models.AssignmentSubmission, 0)
	for _, submission := range r.submissions {
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.Status != nil && string(submission.Status) != *filter.Status {
			continue
		}
		out = append(out, submission)
	}
	return out, nil
}

func (r *submissionRepoStub) GetByID(ctx context.Context, id string) (models.AssignmentSubmission, error) {
	submission, ok := r.submissions[id]
	if !ok {
		return models.AssignmentSubmission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (r *submissionRepoStub) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (models.AssignmentSubmission, error) {
	for _, submission := range r.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.AssignmentSubmission{}, gorm.ErrRecordNotFound
}

func (r *submissionRepoStub) Create(ctx context.Context, submission *models.AssignmentSubmission) error {
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *submissionRepoStub) Save(ctx context.Context, submission *models.AssignmentSubmission, loadedVersion int, loadedStatus models.AssignmentSubmissionStatus) error {
	stored, ok := r.submissions[submission.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != loadedVersion || stored.Status != loadedStatus {
		return repository.ErrStaleRecord
	}
	r.submissions[submission.ID] = *submission
	return nil
}

func newAssignmentSubmissionFixture(t *testing.T, dueIn time.Duration) (AssignmentSubmissionService, *submissionRepoStub, string) {
	t.Helper()

	assignments := &assignmentRepoStub{assignments: map[string]models.Assignment{
		"hw-1": {
			ID:       "hw-1",
			CourseID: "course-1",
			Title:    "Homework 1",
			DueDate:  time.Now().Add(dueIn),
		},
	}}
	submissions := newSubmissionRepoStub()
	svc := NewAssignmentSubmissionService(submissions, assignments, nil, validator.New(), testLogger())
	return svc, submissions, "hw-1"
}

func TestAssignmentSubmissionSubmitOnTime(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	resp, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "my answer"})
	require.NoError(t, err)
	require.Equal(t, "submitted", resp.Status)
	require.False(t, resp.IsLate)
	require.Equal(t, 0, resp.Version)
}

func TestAssignmentSubmissionSubmitLate(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, -time.Hour)

	resp, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "late answer"})
	require.NoError(t, err)
	require.True(t, resp.IsLate)
	require.Equal(t, "submitted", resp.Status)
}

func TestAssignmentSubmissionDoubleSubmit(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	_, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "first"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "second"})
	require.ErrorIs(t, err, models.ErrSubmissionAlreadySubmitted)
}

func TestAssignmentSubmissionGradeWithStaleExpectedVersion(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	submitted, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "work"})
	require.NoError(t, err)

	graded, err := svc.Grade(context.Background(), submitted.ID, dto.GradeRequest{
		Grade:           85,
		Feedback:        "solid",
		ExpectedVersion: intPtr(0),
	})
	require.NoError(t, err)
	require.Equal(t, 1, graded.Version)
	require.Equal(t, "graded", graded.Status)

	// A second grader still holding version 0 must be turned away.
	_, err = svc.Grade(context.Background(), submitted.ID, dto.GradeRequest{
		Grade:           90,
		ExpectedVersion: intPtr(0),
	})
	require.ErrorIs(t, err, models.ErrSubmissionVersionConflict)
}

func TestAssignmentSubmissionUpdateGradeIncrementsVersion(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	submitted, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "work"})
	require.NoError(t, err)

	graded, err := svc.Grade(context.Background(), submitted.ID, dto.GradeRequest{Grade: 70})
	require.NoError(t, err)
	require.Equal(t, 1, graded.Version)

	revised, err := svc.UpdateGrade(context.Background(), submitted.ID, dto.GradeRequest{
		Grade:           75,
		Feedback:        "rounding adjusted",
		ExpectedVersion: intPtr(1),
	})
	require.NoError(t, err)
	require.Equal(t, 2, revised.Version)
	require.NotNil(t, revised.Grade)
	require.Equal(t, 75.0, *revised.Grade)
}

func TestAssignmentSubmissionResubmitBeforeGrading(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	submitted, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "v1"})
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(context.Background(), submitted.ID, "student-1", dto.AssignmentSubmitRequest{Content: "v2"})
	require.NoError(t, err)
	require.Equal(t, "v2", resubmitted.Content)

	_, err = svc.Grade(context.Background(), submitted.ID, dto.GradeRequest{Grade: 95})
	require.NoError(t, err)

	_, err = svc.Resubmit(context.Background(), submitted.ID, "student-1", dto.AssignmentSubmitRequest{Content: "v3"})
	require.ErrorIs(t, err, models.ErrSubmissionResubmitGraded)
}

func TestAssignmentSubmissionUpdateContentLockedAfterGrading(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	submitted, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "work"})
	require.NoError(t, err)

	updated, err := svc.UpdateContent(context.Background(), submitted.ID, "student-1", dto.AssignmentContentUpdateRequest{Content: strPtr("edited")})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	_, err = svc.Grade(context.Background(), submitted.ID, dto.GradeRequest{Grade: 80})
	require.NoError(t, err)

	_, err = svc.UpdateContent(context.Background(), submitted.ID, "student-1", dto.AssignmentContentUpdateRequest{Content: strPtr("too late")})
	require.ErrorIs(t, err, models.ErrSubmissionContentLocked)
}

func TestAssignmentSubmissionOwnershipChecks(t *testing.T) {
	svc, _, assignmentID := newAssignmentSubmissionFixture(t, time.Hour)

	submitted, err := svc.Submit(context.Background(), assignmentID, "student-1", dto.AssignmentSubmitRequest{Content: "work"})
	require.NoError(t, err)

	_, err = svc.UpdateContent(context.Background(), submitted.ID, "student-2", dto.AssignmentContentUpdateRequest{Content: strPtr("stolen")})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.Resubmit(context.Background(), submitted.ID, "student-2", dto.AssignmentSubmitRequest{Content: "stolen"})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
