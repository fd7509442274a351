package mapper

import (
	"encoding/json"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/model"

	"gorm.io/datatypes"
)

type UsageRecordMapper struct{}

func NewUsageRecordMapper() *UsageRecordMapper {
	return &UsageRecordMapper{}
}

func (m *UsageRecordMapper) ToEntity(r *model.UsageRecord) *entity.UsageRecord {
	if r == nil {
		return nil
	}

	var details map[string]interface{}
	if len(r.Details) > 0 {
		_ = json.Unmarshal(r.Details, &details)
	}

	return &entity.UsageRecord{
		Id:           r.Id,
		SessionId:    r.SessionId,
		Stage:        r.Stage,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		TotalTokens:  r.TotalTokens,
		InputCost:    r.InputCost,
		OutputCost:   r.OutputCost,
		TotalCost:    r.TotalCost,
		Details:      details,
		CreatedAt:    r.CreatedAt,
	}
}

func (m *UsageRecordMapper) ToModel(r *entity.UsageRecord) *model.UsageRecord {
	if r == nil {
		return nil
	}

	var details datatypes.JSON
	if r.Details != nil {
		if raw, err := json.Marshal(r.Details); err == nil {
			details = datatypes.JSON(raw)
		}
	}

	return &model.UsageRecord{
		Id:           r.Id,
		SessionId:    r.SessionId,
		Stage:        r.Stage,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		TotalTokens:  r.TotalTokens,
		InputCost:    r.InputCost,
		OutputCost:   r.OutputCost,
		TotalCost:    r.TotalCost,
		Details:      details,
		CreatedAt:    r.CreatedAt,
	}
}
