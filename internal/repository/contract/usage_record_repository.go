package contract

import (
	"context"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/repository/specification"
)

type UsageRecordRepository interface {
	Create(ctx context.Context, record *entity.UsageRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageRecord, error)
}
