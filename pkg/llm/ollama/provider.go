package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/pkg/llm"
)

const dataURIPrefix = "data:"

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client

	logger logger.ILogger
}

// Ensure OllamaProvider implements GenerativeClient
var _ llm.GenerativeClient = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string, log logger.ILogger) *OllamaProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount *int          `json:"prompt_eval_count"`
	EvalCount       *int          `json:"eval_count"`
}

// --- Interface Implementation ---

// Upload keeps the file with the handle itself: Ollama has no file store,
// images travel inline as base64 on every chat request.
func (o *OllamaProvider) Upload(ctx context.Context, file llm.RawFile) (*llm.FileHandle, error) {
	switch file.MimeType {
	case llm.MimeTypePNG, llm.MimeTypeJPEG:
	default:
		return nil, fmt.Errorf("ollama cannot read %s attachments", file.MimeType)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("attachment %s is empty", file.Name)
	}

	return &llm.FileHandle{
		Name:     file.Name,
		URI:      dataURIPrefix + file.MimeType + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
		MimeType: file.MimeType,
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, parts []llm.Part, opts ...llm.Option) (*llm.GenerationResponse, error) {
	// 1. Process Options
	options := llm.ApplyOptions(llm.Options{Temperature: 0.7, Model: o.ModelName}, opts...)

	// 2. Fold parts into a single user message
	var texts []string
	var images []string
	for _, p := range parts {
		if p.File == nil {
			texts = append(texts, p.Text)
			continue
		}
		img, err := inlineImage(p.File.URI)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", p.File.Name, err)
		}
		images = append(images, img)
	}

	reqPayload := ollamaChatRequest{
		Model: options.Model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: strings.Join(texts, "\n\n"),
			Images:  images,
		}},
		Stream: false,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}

	if options.MaxTokens > 0 {
		reqPayload.Options.NumPredict = options.MaxTokens
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// 3. Send Request
	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// 4. Parse Response
	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result := &llm.GenerationResponse{
		Text:  ollamaResp.Message.Content,
		Model: ollamaResp.Model,
	}
	if ollamaResp.PromptEvalCount != nil && ollamaResp.EvalCount != nil {
		result.Usage = &llm.UsageMetadata{
			PromptTokenCount:     *ollamaResp.PromptEvalCount,
			CandidatesTokenCount: *ollamaResp.EvalCount,
			TotalTokenCount:      *ollamaResp.PromptEvalCount + *ollamaResp.EvalCount,
		}
	}

	o.logger.Info("Ollama", "chat completed", map[string]interface{}{
		"model":  result.Model,
		"images": len(images),
	})

	return result, nil
}

func inlineImage(uri string) (string, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", fmt.Errorf("handle was not issued by ollama provider")
	}
	idx := strings.Index(uri, ";base64,")
	if idx < 0 {
		return "", fmt.Errorf("malformed data uri")
	}
	return uri[idx+len(";base64,"):], nil
}
