package dto

// --- Requests ---

type AttachmentDTO struct {
	Name     string `json:"name" validate:"required"`
	MimeType string `json:"mime_type" validate:"required,oneof=image/png image/jpeg application/pdf"`
	Data     []byte `json:"data" validate:"required,min=1"` // base64 in JSON
}

type SubmitInputRequest struct {
	Description      string          `json:"description" validate:"required"`
	Subject          string          `json:"subject"`
	Level            string          `json:"level"`
	Achievement      string          `json:"achievement"`
	Attachments      []AttachmentDTO `json:"attachments" validate:"max=5,dive"`
	RecommendEnabled bool            `json:"recommend_enabled"`
	TopicMode        string          `json:"topic_mode" validate:"omitempty,oneof=direct none"`
	TopicInput       string          `json:"topic_input"`
}

type ChooseTopicRequest struct {
	Topic string `json:"topic" validate:"required"`
}

type UpdateDocumentRequest struct {
	Text string `json:"text" validate:"required"`
}

// --- Responses ---

type AttachmentSummaryResponse struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

type UserInputsResponse struct {
	Description      string                      `json:"description"`
	Subject          string                      `json:"subject,omitempty"`
	Level            string                      `json:"level,omitempty"`
	Achievement      string                      `json:"achievement,omitempty"`
	Attachments      []AttachmentSummaryResponse `json:"attachments"`
	RecommendEnabled bool                        `json:"recommend_enabled"`
	TopicMode        string                      `json:"topic_mode,omitempty"`
	ChosenTopic      *string                     `json:"chosen_topic,omitempty"`
}

type UsageReportResponse struct {
	Label        string  `json:"label"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	InputCost    float64 `json:"input_cost_usd"`
	OutputCost   float64 `json:"output_cost_usd"`
	TotalCost    float64 `json:"total_cost_usd"`

	// Display strings: "1,234" and "$0.001543"
	InputTokensText  string `json:"input_tokens_text"`
	OutputTokensText string `json:"output_tokens_text"`
	TotalTokensText  string `json:"total_tokens_text"`
	InputCostText    string `json:"input_cost_text"`
	OutputCostText   string `json:"output_cost_text"`
	TotalCostText    string `json:"total_cost_text"`
}

type WorkflowUsageResponse struct {
	Recommendation *UsageReportResponse `json:"recommendation,omitempty"`
	Generation     *UsageReportResponse `json:"generation,omitempty"`
}

type WorkflowStateResponse struct {
	SessionId          string                 `json:"session_id"`
	Stage              string                 `json:"stage"`
	StageIndex         int                    `json:"stage_index"`
	TopicStepDisabled  bool                   `json:"topic_step_disabled"`
	Inputs             *UserInputsResponse    `json:"inputs,omitempty"`
	TopicCandidates    []string               `json:"topic_candidates"`
	RecommendationText string                 `json:"recommendation_text,omitempty"`
	GeneratedText      string                 `json:"generated_text,omitempty"`
	EditedText         string                 `json:"edited_text,omitempty"`
	Usage              *WorkflowUsageResponse `json:"usage,omitempty"`
	Warnings           []string               `json:"warnings,omitempty"`
}

type ExportResponse struct {
	FileName    string
	ContentType string
	Body        string
}
