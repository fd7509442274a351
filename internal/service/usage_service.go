package service

import (
	"context"

	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/internal/repository/specification"
	"ai-assessment-be/pkg/usage"
)

type IUsageService interface {
	History(ctx context.Context, sessionId string) (*dto.UsageHistoryResponse, error)
}

type usageService struct {
	records    contract.UsageRecordRepository
	accountant *usage.Accountant
}

// NewUsageService reads the usage ledger. records may be nil when no
// database is configured.
func NewUsageService(records contract.UsageRecordRepository, accountant *usage.Accountant) IUsageService {
	return &usageService{records: records, accountant: accountant}
}

func (s *usageService) History(ctx context.Context, sessionId string) (*dto.UsageHistoryResponse, error) {
	if s.records == nil {
		return nil, newWorkflowError(ErrKindNotFound, "usage ledger is not enabled", nil)
	}

	rows, err := s.records.FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.UsageHistoryResponse{Records: make([]dto.UsageRecordResponse, 0, len(rows))}
	for _, r := range rows {
		res.Records = append(res.Records, dto.UsageRecordResponse{
			Id:           r.Id.String(),
			Stage:        r.Stage,
			Model:        r.Model,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			TotalTokens:  r.TotalTokens,
			TotalCost:    r.TotalCost,
			CreatedAt:    r.CreatedAt,
		})
		res.TotalTokens += r.TotalTokens
		res.TotalCost += r.TotalCost
	}
	res.TotalCostText = s.accountant.FormatCost(res.TotalCost)

	return res, nil
}
