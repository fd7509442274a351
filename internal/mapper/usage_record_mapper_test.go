package mapper

import (
	"testing"
	"time"

	"ai-assessment-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUsageRecordMapperKeepsDetails(t *testing.T) {
	m := NewUsageRecordMapper()
	record := &entity.UsageRecord{
		Id:          uuid.New(),
		SessionId:   "abc",
		Stage:       "final_generation",
		InputTokens: 100,
		TotalCost:   0.5,
		Details:     map[string]interface{}{"attachments": float64(2)},
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got := m.ToEntity(m.ToModel(record))
	assert.Equal(t, record, got)
}

func TestUsageRecordMapperNil(t *testing.T) {
	m := NewUsageRecordMapper()
	assert.Nil(t, m.ToModel(nil))
	assert.Nil(t, m.ToEntity(nil))
}
