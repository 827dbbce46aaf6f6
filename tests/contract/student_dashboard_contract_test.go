package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/campusflow/campusflow-api/internal/dto"
	"github.com/campusflow/campusflow-api/internal/handler"
)

type stubDashboardService struct {
	response dto.StudentDashboardResponse
}

func (s stubDashboardService) GetDashboard(context.Context, string, string) (dto.StudentDashboardResponse, error) {
	return s.response, nil
}

func TestStudentDashboardContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "student_dashboard.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	average := 84.25
	grade := 84.25
	response := dto.StudentDashboardResponse{
		CourseID: "course-1",
		Summary: dto.ProgressSummary{
			TotalAssignments: 3,
			Submitted:        2,
			Graded:           1,
			Late:             1,
			Overdue:          1,
			TotalQuizzes:     2,
			QuizzesTaken:     1,
			QuizzesGraded:    1,
		},
		AverageGrade: &average,
		Assignments: []dto.AssignmentProgress{
			{
				AssignmentID: "assignment-1",
				Title:        "Lab Report",
				DueDate:      now.Add(24 * time.Hour),
				Status:       "graded",
				IsLate:       true,
				Grade:        &grade,
				Feedback:     "Tidy work",
				UpdatedAt:    now,
			},
		},
		Quizzes: []dto.QuizProgress{
			{
				QuizID:           "quiz-1",
				Title:            "Midterm",
				DueDate:          now.Add(48 * time.Hour),
				TimeLimitMinutes: 45,
				Status:           "graded",
				Grade:            &grade,
				UpdatedAt:        now,
			},
		},
		GeneratedAt: now,
	}

	dashboardHandler := handler.NewStudentDashboardHandler(stubDashboardService{response: response}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/student", func(c *fiber.Ctx) error {
		c.Locals("user_id", "student-1")
		c.Locals("user_role", "student")
		return c.Next()
	})
	dashboardHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/courses/course-1/dashboard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
