package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/pkg/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"

	fileStateActive     = "ACTIVE"
	fileStateProcessing = "PROCESSING"
	fileStateFailed     = "FAILED"
)

type GeminiProvider struct {
	BaseURL   string
	ApiKey    string
	ModelName string
	Client    *http.Client

	// PollInterval is how long to wait between file state checks after upload
	PollInterval time.Duration
	MaxPolls     int

	logger logger.ILogger
}

// Ensure GeminiProvider implements GenerativeClient
var _ llm.GenerativeClient = &GeminiProvider{}

func NewGeminiProvider(baseURL, apiKey, modelName string, log logger.ILogger) *GeminiProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &GeminiProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ApiKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
		PollInterval: 2 * time.Second,
		MaxPolls:     30,
		logger:       log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiFileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiContent struct {
	Parts []*geminiPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateRequest struct {
	Contents         []*geminiContent        `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiGenerateResponse struct {
	Candidates    []*geminiCandidate   `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
	ModelVersion  string               `json:"modelVersion"`
}

type geminiFile struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType"`
	URI         string `json:"uri"`
	State       string `json:"state"`
}

type geminiUploadResponse struct {
	File geminiFile `json:"file"`
}

// --- Interface Implementation ---

func (g *GeminiProvider) Generate(ctx context.Context, parts []llm.Part, opts ...llm.Option) (*llm.GenerationResponse, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("gemini: at least one part is required")
	}
	options := llm.ApplyOptions(llm.Options{Model: g.ModelName}, opts...)

	// 1. Map generic parts to Gemini parts
	geminiParts := make([]*geminiPart, 0, len(parts))
	for _, p := range parts {
		if p.File != nil {
			geminiParts = append(geminiParts, &geminiPart{
				FileData: &geminiFileData{MimeType: p.File.MimeType, FileURI: p.File.URI},
			})
			continue
		}
		geminiParts = append(geminiParts, &geminiPart{Text: p.Text})
	}

	payload := geminiGenerateRequest{
		Contents: []*geminiContent{{Parts: geminiParts, Role: "user"}},
	}
	if options.Temperature > 0 || options.MaxTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: options.MaxTokens}
		if options.Temperature > 0 {
			t := options.Temperature
			payload.GenerationConfig.Temperature = &t
		}
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// 2. Send Request
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, options.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resBody, err := g.do(req, http.StatusOK)
	if err != nil {
		g.logger.Error("Gemini", "generateContent failed", map[string]interface{}{
			"model": options.Model,
			"parts": len(parts),
			"error": err.Error(),
		})
		return nil, err
	}

	// 3. Parse Response
	var geminiRes geminiGenerateResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range geminiRes.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	result := &llm.GenerationResponse{
		Text:  sb.String(),
		Model: options.Model,
	}
	if geminiRes.ModelVersion != "" {
		result.Model = geminiRes.ModelVersion
	}
	if geminiRes.UsageMetadata != nil {
		result.Usage = &llm.UsageMetadata{
			PromptTokenCount:     geminiRes.UsageMetadata.PromptTokenCount,
			CandidatesTokenCount: geminiRes.UsageMetadata.CandidatesTokenCount,
			TotalTokenCount:      geminiRes.UsageMetadata.TotalTokenCount,
		}
	}

	g.logger.Info("Gemini", "generateContent completed", map[string]interface{}{
		"model":         result.Model,
		"parts":         len(parts),
		"finish_reason": geminiRes.Candidates[0].FinishReason,
		"duration_ms":   time.Since(started).Milliseconds(),
	})

	return result, nil
}

// Upload sends a file through the resumable Files API and waits until the
// backend reports it ACTIVE.
func (g *GeminiProvider) Upload(ctx context.Context, file llm.RawFile) (*llm.FileHandle, error) {
	if !llm.IsSupportedMimeType(file.MimeType) {
		return nil, fmt.Errorf("unsupported mime type %q", file.MimeType)
	}

	// 1. Start resumable session
	meta, err := json.Marshal(map[string]interface{}{
		"file": map[string]string{"display_name": file.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal upload metadata: %w", err)
	}

	startReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/upload/v1beta/files", bytes.NewBuffer(meta))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	startReq.Header.Set("x-goog-api-key", g.ApiKey)
	startReq.Header.Set("Content-Type", "application/json")
	startReq.Header.Set("X-Goog-Upload-Protocol", "resumable")
	startReq.Header.Set("X-Goog-Upload-Command", "start")
	startReq.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(file.Data)))
	startReq.Header.Set("X-Goog-Upload-Header-Content-Type", file.MimeType)

	startRes, err := g.Client.Do(startReq)
	if err != nil {
		return nil, fmt.Errorf("gemini upload start failed: %w", err)
	}
	startBody, _ := io.ReadAll(startRes.Body)
	startRes.Body.Close()
	if startRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini upload start: status %d, body: %s", startRes.StatusCode, string(startBody))
	}
	uploadURL := startRes.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, fmt.Errorf("gemini upload start: missing upload url")
	}

	// 2. Upload bytes and finalize
	dataReq, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	dataReq.Header.Set("X-Goog-Upload-Offset", "0")
	dataReq.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	dataReq.ContentLength = int64(len(file.Data))

	resBody, err := g.do(dataReq, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var uploaded geminiUploadResponse
	if err := json.Unmarshal(resBody, &uploaded); err != nil {
		return nil, fmt.Errorf("unmarshal upload response: %w", err)
	}

	// 3. PDFs are processed asynchronously
	remote, err := g.waitActive(ctx, uploaded.File)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Gemini", "file uploaded", map[string]interface{}{
		"name":      file.Name,
		"mime_type": file.MimeType,
		"bytes":     len(file.Data),
		"remote":    remote.Name,
	})

	mimeType := remote.MimeType
	if mimeType == "" {
		mimeType = file.MimeType
	}
	return &llm.FileHandle{
		Name:     file.Name,
		URI:      remote.URI,
		MimeType: mimeType,
	}, nil
}

func (g *GeminiProvider) waitActive(ctx context.Context, f geminiFile) (geminiFile, error) {
	for i := 0; f.State == fileStateProcessing; i++ {
		if i >= g.MaxPolls {
			return f, fmt.Errorf("file %s still processing after %d checks", f.Name, g.MaxPolls)
		}
		select {
		case <-ctx.Done():
			return f, ctx.Err()
		case <-time.After(g.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1beta/%s", g.BaseURL, f.Name), nil)
		if err != nil {
			return f, fmt.Errorf("create file status request: %w", err)
		}
		req.Header.Set("x-goog-api-key", g.ApiKey)

		body, err := g.do(req, http.StatusOK)
		if err != nil {
			return f, err
		}
		if err := json.Unmarshal(body, &f); err != nil {
			return f, fmt.Errorf("unmarshal file status: %w", err)
		}
	}
	if f.State == fileStateFailed {
		return f, fmt.Errorf("file %s failed processing", f.Name)
	}
	return f, nil
}

func (g *GeminiProvider) do(req *http.Request, wantStatus int) ([]byte, error) {
	res, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != wantStatus {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(body),
		)
	}
	return body, nil
}
