package dto

import "time"

type UsageRecordResponse struct {
	Id           string    `json:"id"`
	Stage        string    `json:"stage"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	TotalCost    float64   `json:"total_cost_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// UsageHistoryResponse lists every billed call of the current session
type UsageHistoryResponse struct {
	Records       []UsageRecordResponse `json:"records"`
	TotalTokens   int                   `json:"total_tokens"`
	TotalCost     float64               `json:"total_cost_usd"`
	TotalCostText string                `json:"total_cost_text"`
}
