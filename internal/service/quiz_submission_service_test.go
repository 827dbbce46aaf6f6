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

type quizRepoStub struct {
	quizzes map[string]models.Quiz
}

func (r *quizRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	out := make([]models.Quiz, 0)
	for _, quiz := range r.quizzes {
		if quiz.CourseID == courseID {
			out = append(out, quiz)
		}
	}
	return out, nil
}

func (r *quizRepoStub) GetByID(ctx context.Context, id string) (models.Quiz, error) {
	quiz, ok := r.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (r *quizRepoStub) Create(ctx context.Context, quiz *models.Quiz) error {
	r.quizzes[quiz.ID] = *quiz
	return nil
}

func (r *quizRepoStub) Update(ctx context.Context, quiz *models.Quiz) error {
	r.quizzes[quiz.ID] = *quiz
	return nil
}

func (r *quizRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.quizzes, id)
	return nil
}

type quizSubmissionRepoStub struct {
	submissions map[string]models.QuizSubmission
}

func newQuizSubmissionRepoStub() *quizSubmissionRepoStub {
	return &quizSubmissionRepoStub{submissions: make(map[string]models.QuizSubmission)}
}

func (r *quizSubmissionRepoStub) List(ctx context.Context, filter repository.QuizSubmissionFilter) ([]models.QuizSubmission, error) {
	out := make([]models.QuizSubmission, 0)
	for _, submission := range r.submissions {
		if filter.QuizID != nil && submission.QuizID != *filter.QuizID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && string(submission.Status) != *filter.Status {
			continue
		}
		out = append(out, submission)
	}
	return out, nil
}

func (r *quizSubmissionRepoStub) GetByID(ctx context.Context, id string) (models.QuizSubmission, error) {
	submission, ok := r.submissions[id]
	if !ok {
		return models.QuizSubmission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (r *quizSubmissionRepoStub) GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (models.QuizSubmission, error) {
	for _, submission := range r.submissions {
		if submission.QuizID == quizID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.QuizSubmission{}, gorm.ErrRecordNotFound
}

func (r *quizSubmissionRepoStub) Create(ctx context.Context, submission *models.QuizSubmission) error {
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *quizSubmissionRepoStub) Save(ctx context.Context, submission *models.QuizSubmission, loadedVersion int, loadedStatus models.QuizSubmissionStatus) error {
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

// quizFixture wires the service with a fixed clock that tests can advance.
type quizFixture struct {
	svc   QuizSubmissionService
	clock *time.Time
}

func newQuizFixture(t *testing.T, timeLimitMinutes int, dueIn time.Duration) quizFixture {
	t.Helper()

	base := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	quizzes := &quizRepoStub{quizzes: map[string]models.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			CourseID:         "course-1",
			Title:            "Midterm",
			TimeLimitMinutes: timeLimitMinutes,
			DueDate:          base.Add(dueIn),
		},
	}}
	submissions := newQuizSubmissionRepoStub()

	svc := NewQuizSubmissionService(submissions, quizzes, nil, nil, validator.New(), testLogger())

	clock := base
	svc.(*quizSubmissionService).now = func() time.Time { return clock }

	return quizFixture{svc: svc, clock: &clock}
}

func (f quizFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestQuizSubmissionStart(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	resp, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, "in_progress", resp.Status)
	require.NotNil(t, resp.StartedAt)
	require.Equal(t, 30*60, resp.RemainingSeconds)
	require.Equal(t, "30:00", resp.RemainingDisplay)
	require.NotNil(t, resp.ExpiresAt)
}

func TestQuizSubmissionStartTwice(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	_, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.ErrorIs(t, err, models.ErrQuizAlreadyStarted)
}

func TestQuizSubmissionStartPastDue(t *testing.T) {
	f := newQuizFixture(t, 30, -time.Minute)

	_, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.ErrorIs(t, err, models.ErrQuizPastDue)
}

func TestQuizSubmissionAutosaveAndSubmit(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	f.advance(5 * time.Minute)
	answers := dto.QuizAnswersRequest{Answers: []dto.QuizAnswerPayload{
		{QuestionIndex: 0, Choice: intPtr(2)},
		{QuestionIndex: 1, Text: strPtr("Photosynthesis converts light into chemical energy.")},
	}}

	saved, err := f.svc.SaveAnswers(context.Background(), started.ID, "student-1", answers)
	require.NoError(t, err)
	require.Equal(t, 25*60, saved.RemainingSeconds)

	f.advance(10 * time.Minute)
	submitted, err := f.svc.Submit(context.Background(), started.ID, "student-1", answers)
	require.NoError(t, err)
	require.Equal(t, "submitted", submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	require.Zero(t, submitted.RemainingSeconds)
}

func TestQuizSubmissionSubmitAfterExpiry(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	f.advance(31 * time.Minute)
	_, err = f.svc.Submit(context.Background(), started.ID, "student-1", dto.QuizAnswersRequest{})
	require.ErrorIs(t, err, models.ErrQuizTimeExpired)
}

func TestQuizSubmissionAutoSubmit(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	// Too early to force-close.
	f.advance(29 * time.Minute)
	_, err = f.svc.AutoSubmit(context.Background(), started.ID)
	require.ErrorIs(t, err, models.ErrQuizAutoSubmitTooEarly)

	f.advance(time.Minute)
	closed, err := f.svc.AutoSubmit(context.Background(), started.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", closed.Status)
}

func TestQuizSubmissionGradeBumpsVersion(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	f.advance(time.Minute)
	_, err = f.svc.Submit(context.Background(), started.ID, "student-1", dto.QuizAnswersRequest{})
	require.NoError(t, err)

	graded, err := f.svc.Grade(context.Background(), started.ID, dto.GradeRequest{Grade: 88, Feedback: "good work"})
	require.NoError(t, err)
	require.Equal(t, "graded", graded.Status)
	require.Equal(t, 2, graded.Version)

	// A stale expected version is rejected before any state changes.
	_, err = f.svc.Grade(context.Background(), started.ID, dto.GradeRequest{Grade: 90, ExpectedVersion: intPtr(1)})
	require.ErrorIs(t, err, models.ErrSubmissionVersionConflict)

	revised, err := f.svc.UpdateGrade(context.Background(), started.ID, dto.GradeRequest{Grade: 90, ExpectedVersion: intPtr(2)})
	require.NoError(t, err)
	require.Equal(t, 3, revised.Version)
}

func TestQuizSubmissionGradeBeforeSubmit(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	_, err = f.svc.Grade(context.Background(), started.ID, dto.GradeRequest{Grade: 50})
	require.ErrorIs(t, err, models.ErrQuizNotSubmitted)
}

func TestQuizSubmissionExpiryDetectedLazily(t *testing.T) {
	f := newQuizFixture(t, 30, 24*time.Hour)

	started, err := f.svc.Start(context.Background(), "quiz-1", "student-1")
	require.NoError(t, err)

	// Long past the limit, the attempt is still open in storage: nothing on
	// the server closes it on its own.
	f.advance(2 * time.Hour)
	open, err := f.svc.Get(context.Background(), started.ID)
	require.NoError(t, err)
	require.Equal(t, "in_progress", open.Status)
	require.Zero(t, open.RemainingSeconds)

	// It closes only when some caller invokes the auto-submit operation.
	closed, err := f.svc.AutoSubmit(context.Background(), started.ID)
	require.NoError(t, err)
	require.Equal(t, "submitted", closed.Status)
}
