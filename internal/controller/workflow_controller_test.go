package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/pkg/serverutils"
	"ai-assessment-be/internal/repository/memory"
	"ai-assessment-be/internal/service"
	"ai-assessment-be/pkg/llm"
	"ai-assessment-be/pkg/usage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Generate(ctx context.Context, parts []llm.Part, opts ...llm.Option) (*llm.GenerationResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerationResponse{
		Text:  s.text,
		Usage: &llm.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}, nil
}

func (s *stubClient) Upload(ctx context.Context, file llm.RawFile) (*llm.FileHandle, error) {
	return &llm.FileHandle{Name: file.Name, URI: "files/" + file.Name}, nil
}

func newTestApp(t *testing.T, client llm.GenerativeClient) *fiber.App {
	t.Helper()

	authSvc, err := service.NewAuthService("open-sesame", "", testSecret, 24*time.Hour, nil)
	require.NoError(t, err)
	accountant := usage.NewAccountant(usage.DefaultPricing())
	workflowSvc := service.NewWorkflowService(memory.NewSessionRepository(time.Hour), client, accountant, nil)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewAuthController(authSvc, false).RegisterRoutes(api)
	NewWorkflowController(workflowSvc, service.NewUsageService(nil, accountant), testSecret).RegisterRoutes(api)
	return app
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/v1/login", bytes.NewBufferString(`{"password":"open-sesame"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookieFound bool
	for _, c := range resp.Cookies() {
		if c.Name == serverutils.CredentialCookie {
			cookieFound = true
		}
	}
	assert.True(t, cookieFound)

	var body serverutils.BaseResponse[dto.LoginResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Data.AccessToken
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (*http.Response, serverutils.BaseResponse[dto.WorkflowStateResponse]) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body serverutils.BaseResponse[dto.WorkflowStateResponse]
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newTestApp(t, &stubClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/v1/login", bytes.NewBufferString(`{"password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWorkflowRequiresCredential(t *testing.T) {
	app := newTestApp(t, &stubClient{})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/workflow/v1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWorkflowHappyPath(t *testing.T) {
	app := newTestApp(t, &stubClient{text: "# Report"})
	token := login(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/api/workflow/v1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INPUT", body.Data.Stage)

	resp, body = doJSON(t, app, http.MethodPost, "/api/workflow/v1/input", token, dto.SubmitInputRequest{Description: "task"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GENERATION", body.Data.Stage)
	assert.True(t, body.Data.TopicStepDisabled)

	resp, body = doJSON(t, app, http.MethodPost, "/api/workflow/v1/document", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Report", body.Data.GeneratedText)
	require.NotNil(t, body.Data.Usage)
	assert.Equal(t, "15", body.Data.Usage.Generation.TotalTokensText)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/workflow/v1/document", token, dto.UpdateDocumentRequest{Text: "# Mine"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/workflow/v1/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ai_report.md")
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "# Mine", string(raw))

	resp, body = doJSON(t, app, http.MethodPost, "/api/workflow/v1/reset", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INPUT", body.Data.Stage)
}

func TestSubmitInputMultipart(t *testing.T) {
	tests := []struct {
		name       string
		files      int
		wantStatus int
		wantStage  string
	}{
		{"five attachments", 5, http.StatusOK, "TOPIC_SELECTION"},
		{"six attachments", 6, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &stubClient{})
			token := login(t, app)

			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			require.NoError(t, w.WriteField("description", "Investigate energy"))
			require.NoError(t, w.WriteField("recommend_enabled", "true"))
			for i := 0; i < tt.files; i++ {
				part, err := w.CreateFormFile(attachmentsField, fmt.Sprintf("page%d.png", i))
				require.NoError(t, err)
				_, err = part.Write([]byte("png-bytes"))
				require.NoError(t, err)
			}
			require.NoError(t, w.Close())

			req := httptest.NewRequest(http.MethodPost, "/api/workflow/v1/input", buf)
			req.Header.Set("Content-Type", w.FormDataContentType())
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body serverutils.BaseResponse[dto.WorkflowStateResponse]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantStage != "" {
				assert.Equal(t, tt.wantStage, body.Data.Stage)
				assert.Len(t, body.Data.Inputs.Attachments, tt.files)
			} else {
				assert.False(t, body.Success)
				assert.NotEmpty(t, body.Errors)
			}
		})
	}
}

func TestUsageHistoryWithoutLedger(t *testing.T) {
	app := newTestApp(t, &stubClient{})
	token := login(t, app)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/workflow/v1/usage", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBackendFailureStatus(t *testing.T) {
	app := newTestApp(t, &stubClient{err: fmt.Errorf("quota exceeded")})
	token := login(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/workflow/v1/input", token, dto.SubmitInputRequest{Description: "task", RecommendEnabled: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/workflow/v1/topics", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/workflow/v1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INPUT", body.Data.Stage)
}
