package implementation

import (
	"context"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/mapper"
	"ai-assessment-be/internal/model"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/internal/repository/specification"

	"gorm.io/gorm"
)

type UsageRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UsageRecordMapper
}

func NewUsageRecordRepository(db *gorm.DB) contract.UsageRecordRepository {
	return &UsageRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewUsageRecordMapper(),
	}
}

func (r *UsageRecordRepositoryImpl) Create(ctx context.Context, record *entity.UsageRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *UsageRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageRecord, error) {
	query := r.db.WithContext(ctx).Model(&model.UsageRecord{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.UsageRecord
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]*entity.UsageRecord, 0, len(models))
	for _, m := range models {
		records = append(records, r.mapper.ToEntity(m))
	}
	return records, nil
}
