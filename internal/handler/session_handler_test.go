package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/handler"
	"github.com/lumina-school/lumina-api/internal/service"
)

type mockSessionService struct {
	startResponse    dto.StartExamResponse
	submitResponse   dto.SubmitAnswerResponse
	finalizeResponse dto.FinalizeResponse
	err              error

	lastSchoolID  uint
	lastStudentID uint
	lastSessionID string
}

func (m *mockSessionService) StartExam(_ context.Context, schoolID, _ uint, studentID uint) (dto.StartExamResponse, error) {
	m.lastSchoolID = schoolID
	m.lastStudentID = studentID
	if m.err != nil {
		return dto.StartExamResponse{}, m.err
	}
	return m.startResponse, nil
}

func (m *mockSessionService) GetSessionStatus(_ context.Context, schoolID uint, sessionID string, studentID uint) (dto.SessionStatusResponse, error) {
	m.lastSchoolID = schoolID
	m.lastSessionID = sessionID
	m.lastStudentID = studentID
	if m.err != nil {
		return dto.SessionStatusResponse{}, m.err
	}
	return dto.SessionStatusResponse{SessionID: sessionID}, nil
}

func (m *mockSessionService) SubmitAnswer(_ context.Context, schoolID uint, sessionID string, studentID uint, _ dto.SubmitAnswerRequest) (dto.SubmitAnswerResponse, error) {
	m.lastSchoolID = schoolID
	m.lastSessionID = sessionID
	m.lastStudentID = studentID
	if m.err != nil {
		return dto.SubmitAnswerResponse{}, m.err
	}
	return m.submitResponse, nil
}

func (m *mockSessionService) FinalizeExam(_ context.Context, schoolID uint, sessionID string, studentID uint) (dto.FinalizeResponse, error) {
	m.lastSchoolID = schoolID
	m.lastSessionID = sessionID
	m.lastStudentID = studentID
	if m.err != nil {
		return dto.FinalizeResponse{}, m.err
	}
	return m.finalizeResponse, nil
}

func (m *mockSessionService) GetRevisionReport(_ context.Context, schoolID uint, sessionID string, studentID uint) (dto.RevisionReport, error) {
	m.lastSchoolID = schoolID
	m.lastSessionID = sessionID
	m.lastStudentID = studentID
	if m.err != nil {
		return dto.RevisionReport{}, m.err
	}
	return dto.RevisionReport{SessionID: sessionID}, nil
}

func newSessionApp(svc service.ExamSessionService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/cbt", func(c *fiber.Ctx) error {
		c.Locals("school_id", uint(1))
		c.Locals("user_id", uint(100))
		return c.Next()
	})
	handler.NewSessionHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestSessionHandler_StartCreated(t *testing.T) {
	svc := &mockSessionService{startResponse: dto.StartExamResponse{SessionID: "sess-1", Status: "started"}}
	app := newSessionApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cbt/exams/10/start", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(1), svc.lastSchoolID)
	require.Equal(t, uint(100), svc.lastStudentID)
}

func TestSessionHandler_StartResumedIsOK(t *testing.T) {
	svc := &mockSessionService{startResponse: dto.StartExamResponse{SessionID: "sess-1", Resumed: true}}
	app := newSessionApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cbt/exams/10/start", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionHandler_StartInvalidExamID(t *testing.T) {
	app := newSessionApp(&mockSessionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cbt/exams/abc/start", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_SubmitAnswer(t *testing.T) {
	svc := &mockSessionService{submitResponse: dto.SubmitAnswerResponse{QuestionID: 7, IsCorrect: true, MarksObtained: 5}}
	app := newSessionApp(svc)

	body, err := json.Marshal(dto.SubmitAnswerRequest{QuestionID: 7, Answer: json.RawMessage(`{"selected":"b"}`)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cbt/sessions/sess-1/answers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "sess-1", svc.lastSessionID)

	var response struct {
		Success bool                     `json:"success"`
		Data    dto.SubmitAnswerResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.True(t, response.Data.IsCorrect)
}

func TestSessionHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not_found", err: service.ErrAttemptNotFound, statusCode: fiber.StatusNotFound},
		{name: "not_cbt", err: service.ErrExamNotCBT, statusCode: fiber.StatusUnprocessableEntity},
		{name: "not_active", err: service.ErrExamNotActive, statusCode: fiber.StatusForbidden},
		{name: "not_enrolled", err: service.ErrNotEnrolled, statusCode: fiber.StatusForbidden},
		{name: "expired", err: service.ErrTimeExpired, statusCode: fiber.StatusConflict},
		{name: "finalized", err: service.ErrAlreadyFinalized, statusCode: fiber.StatusConflict},
		{name: "foreign_question", err: service.ErrInvalidQuestionForExam, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSessionApp(&mockSessionService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/cbt/sessions/sess-1/finalize", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestSessionHandler_RevisionReport(t *testing.T) {
	svc := &mockSessionService{}
	app := newSessionApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cbt/sessions/sess-9/revision", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "sess-9", svc.lastSessionID)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
