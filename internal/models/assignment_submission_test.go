package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var assignmentBase = time.Date(2026, time.March, 12, 14, 0, 0, 0, time.UTC)

func newSubmittedAssignmentSubmission(t *testing.T) *AssignmentSubmission {
	t.Helper()

	submission, err := NewAssignmentSubmission("assignment-1", "student-1", assignmentBase)
	require.NoError(t, err)
	require.NoError(t, submission.Submit(false, assignmentBase))

	return submission
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestNewAssignmentSubmissionDefaults(t *testing.T) {
	submission, err := NewAssignmentSubmission("assignment-1", "student-1", assignmentBase)
	require.NoError(t, err)

	require.NotEmpty(t, submission.ID)
	require.Equal(t, AssignmentSubmissionStatusNotSubmitted, submission.Status)
	require.Equal(t, 0, submission.Version)
	require.False(t, submission.IsLate)
	require.NoError(t, submission.Validate())
}

func TestNewAssignmentSubmissionRequiresIdentifiers(t *testing.T) {
	_, err := NewAssignmentSubmission("", "student-1", assignmentBase)
	require.Error(t, err)

	_, err = NewAssignmentSubmission("assignment-1", "", assignmentBase)
	require.Error(t, err)
}

func TestAssignmentSubmissionSubmit(t *testing.T) {
	submission, err := NewAssignmentSubmission("assignment-1", "student-1", assignmentBase)
	require.NoError(t, err)

	require.NoError(t, submission.Submit(true, assignmentBase))
	require.Equal(t, AssignmentSubmissionStatusSubmitted, submission.Status)
	require.True(t, submission.IsLate)
	require.NotNil(t, submission.SubmittedAt)

	err = submission.Submit(false, assignmentBase.Add(time.Minute))
	require.ErrorIs(t, err, ErrSubmissionAlreadySubmitted)
}

func TestAssignmentSubmissionResubmit(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	firstSubmittedAt := *submission.SubmittedAt

	later := assignmentBase.Add(2 * time.Hour)
	require.NoError(t, submission.Resubmit(true, later))
	require.True(t, submission.SubmittedAt.After(firstSubmittedAt))
	require.True(t, submission.IsLate)
	require.Equal(t, AssignmentSubmissionStatusSubmitted, submission.Status)
}

func TestAssignmentSubmissionResubmitAfterGrading(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	require.NoError(t, submission.AssignGrade(80, "", nil, assignmentBase.Add(time.Hour)))

	err := submission.Resubmit(false, assignmentBase.Add(2*time.Hour))
	require.ErrorIs(t, err, ErrSubmissionResubmitGraded)
}

func TestAssignmentSubmissionResubmitBeforeSubmit(t *testing.T) {
	submission, err := NewAssignmentSubmission("assignment-1", "student-1", assignmentBase)
	require.NoError(t, err)

	err = submission.Resubmit(false, assignmentBase)
	require.ErrorIs(t, err, ErrSubmissionResubmitPending)
}

func TestAssignmentSubmissionUpdateContent(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)

	require.NoError(t, submission.UpdateContent(strPtr("revised answer"), nil, nil, assignmentBase.Add(time.Minute)))
	require.Equal(t, "revised answer", submission.Content)

	require.NoError(t, submission.UpdateContent(nil, strPtr("uploads/essay.pdf"), strPtr("essay.pdf"), assignmentBase.Add(2*time.Minute)))
	require.Equal(t, "revised answer", submission.Content)
	require.Equal(t, "uploads/essay.pdf", submission.FilePath)
	require.Equal(t, "essay.pdf", submission.FileName)

	require.NoError(t, submission.AssignGrade(70, "", nil, assignmentBase.Add(time.Hour)))
	err := submission.UpdateContent(strPtr("too late"), nil, nil, assignmentBase.Add(2*time.Hour))
	require.ErrorIs(t, err, ErrSubmissionContentLocked)
	require.Equal(t, "revised answer", submission.Content)
}

func TestAssignmentSubmissionGradeWithVersionCheck(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	require.Equal(t, 0, submission.Version)

	require.NoError(t, submission.AssignGrade(85, "ok", intPtr(0), assignmentBase.Add(time.Hour)))
	require.Equal(t, 1, submission.Version)
	require.Equal(t, AssignmentSubmissionStatusGraded, submission.Status)
	require.NotNil(t, submission.GradedAt)
	require.Equal(t, 85.0, *submission.Grade)

	// Stale expected version loses against the already-applied grade.
	err := submission.AssignGrade(90, "x", intPtr(0), assignmentBase.Add(2*time.Hour))
	require.ErrorIs(t, err, ErrSubmissionVersionConflict)
	require.Equal(t, 85.0, *submission.Grade)
	require.Equal(t, 1, submission.Version)
}

func TestAssignmentSubmissionGradeWithoutVersion(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)

	require.NoError(t, submission.AssignGrade(60, "", nil, assignmentBase.Add(time.Hour)))
	require.NoError(t, submission.UpdateGrade(65, "after review", nil, assignmentBase.Add(2*time.Hour)))
	require.Equal(t, 2, submission.Version)
	require.Equal(t, "after review", submission.Feedback)
}

func TestAssignmentSubmissionUpdateGradeConflict(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	require.NoError(t, submission.AssignGrade(60, "", intPtr(0), assignmentBase.Add(time.Hour)))

	err := submission.UpdateGrade(70, "", intPtr(0), assignmentBase.Add(2*time.Hour))
	require.ErrorIs(t, err, ErrSubmissionVersionConflict)

	require.NoError(t, submission.UpdateGrade(70, "", intPtr(1), assignmentBase.Add(3*time.Hour)))
	require.Equal(t, 2, submission.Version)
}

func TestAssignmentSubmissionGradePreconditions(t *testing.T) {
	pending, err := NewAssignmentSubmission("assignment-1", "student-1", assignmentBase)
	require.NoError(t, err)

	require.ErrorIs(t, pending.AssignGrade(50, "", nil, assignmentBase), ErrSubmissionNotSubmitted)
	require.ErrorIs(t, pending.UpdateGrade(50, "", nil, assignmentBase), ErrSubmissionNotGraded)

	submitted := newSubmittedAssignmentSubmission(t)
	require.ErrorIs(t, submitted.AssignGrade(101, "", nil, assignmentBase), ErrGradeOutOfRange)
	require.ErrorIs(t, submitted.AssignGrade(-0.5, "", nil, assignmentBase), ErrGradeOutOfRange)
	require.ErrorIs(t, submitted.AssignGrade(math.NaN(), "", nil, assignmentBase), ErrGradeOutOfRange)
	require.ErrorIs(t, submitted.AssignGrade(math.Inf(1), "", nil, assignmentBase), ErrGradeOutOfRange)
	require.Equal(t, AssignmentSubmissionStatusSubmitted, submitted.Status)
}

func TestAssignmentSubmissionMarkAsLate(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	require.NoError(t, submission.AssignGrade(90, "", nil, assignmentBase.Add(time.Hour)))

	// Allowed in any state, even terminal.
	submission.MarkAsLate(assignmentBase.Add(2 * time.Hour))
	require.True(t, submission.IsLate)
}

func TestAssignmentSubmissionValidateRejectsBrokenInvariants(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)
	require.NoError(t, submission.AssignGrade(90, "", nil, assignmentBase.Add(time.Hour)))
	require.NoError(t, submission.Validate())

	broken := *submission
	broken.Grade = nil
	require.Error(t, broken.Validate())

	broken = *submission
	grade := 120.0
	broken.Grade = &grade
	require.ErrorIs(t, broken.Validate(), ErrGradeOutOfRange)

	broken = *submission
	broken.Version = -1
	require.Error(t, broken.Validate())

	broken = *submission
	broken.StudentID = ""
	require.Error(t, broken.Validate())
}

func TestAssignmentSubmissionVersionMonotonic(t *testing.T) {
	submission := newSubmittedAssignmentSubmission(t)

	versions := []int{submission.Version}
	require.NoError(t, submission.AssignGrade(50, "", nil, assignmentBase.Add(time.Hour)))
	versions = append(versions, submission.Version)
	require.NoError(t, submission.UpdateGrade(55, "", nil, assignmentBase.Add(2*time.Hour)))
	versions = append(versions, submission.Version)
	require.NoError(t, submission.UpdateGrade(60, "", nil, assignmentBase.Add(3*time.Hour)))
	versions = append(versions, submission.Version)

	require.Equal(t, []int{0, 1, 2, 3}, versions)
}
