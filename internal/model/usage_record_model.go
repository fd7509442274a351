package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UsageRecord struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    string         `gorm:"type:text;not null;index"`
	Stage        string         `gorm:"type:text;not null;index"`
	Model        string         `gorm:"type:text"`
	InputTokens  int            `gorm:"not null;default:0"`
	OutputTokens int            `gorm:"not null;default:0"`
	TotalTokens  int            `gorm:"not null;default:0"`
	InputCost    float64        `gorm:"type:numeric(12,6);not null;default:0"`
	OutputCost   float64        `gorm:"type:numeric(12,6);not null;default:0"`
	TotalCost    float64        `gorm:"type:numeric(12,6);not null;default:0"`
	Details      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
