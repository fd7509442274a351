package entity

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one billed backend call in the usage ledger
type UsageRecord struct {
	Id           uuid.UUID
	SessionId    string
	Stage        string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	InputCost    float64
	OutputCost   float64
	TotalCost    float64
	Details      map[string]interface{}
	CreatedAt    time.Time
}
