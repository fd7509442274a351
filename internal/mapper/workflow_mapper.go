package mapper

import (
	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/entity"
	"ai-assessment-be/pkg/usage"
)

type WorkflowMapper struct {
	accountant *usage.Accountant
}

func NewWorkflowMapper(accountant *usage.Accountant) *WorkflowMapper {
	return &WorkflowMapper{accountant: accountant}
}

func (m *WorkflowMapper) SessionToStateResponse(s *entity.Session, warnings []string) *dto.WorkflowStateResponse {
	res := &dto.WorkflowStateResponse{
		SessionId:          s.Id,
		Stage:              string(s.Stage),
		StageIndex:         s.Stage.Index(),
		TopicStepDisabled:  !s.UserInputs.RecommendEnabled,
		TopicCandidates:    append([]string{}, s.TopicCandidates...),
		RecommendationText: s.RecommendationText,
		GeneratedText:      s.GeneratedText,
		EditedText:         s.EditedText,
		Warnings:           warnings,
	}

	if s.Stage != entity.StageInput {
		res.Inputs = m.inputsToResponse(s.UserInputs)
	}

	if s.Usage.Recommendation != nil || s.Usage.Generation != nil {
		res.Usage = &dto.WorkflowUsageResponse{
			Recommendation: m.ReportToResponse(s.Usage.Recommendation),
			Generation:     m.ReportToResponse(s.Usage.Generation),
		}
	}

	return res
}

func (m *WorkflowMapper) inputsToResponse(in entity.UserInputs) *dto.UserInputsResponse {
	attachments := make([]dto.AttachmentSummaryResponse, 0, len(in.Attachments))
	for _, f := range in.Attachments {
		attachments = append(attachments, dto.AttachmentSummaryResponse{
			Name:     f.Name,
			MimeType: f.MimeType,
			Size:     len(f.Data),
		})
	}

	return &dto.UserInputsResponse{
		Description:      in.Description,
		Subject:          in.Subject,
		Level:            in.Level,
		Achievement:      in.Achievement,
		Attachments:      attachments,
		RecommendEnabled: in.RecommendEnabled,
		TopicMode:        string(in.TopicMode),
		ChosenTopic:      in.ChosenTopic,
	}
}

func (m *WorkflowMapper) ReportToResponse(r *usage.Report) *dto.UsageReportResponse {
	if r == nil {
		return nil
	}
	return &dto.UsageReportResponse{
		Label:            r.Label,
		InputTokens:      r.InputTokens,
		OutputTokens:     r.OutputTokens,
		TotalTokens:      r.TotalTokens,
		InputCost:        r.InputCost,
		OutputCost:       r.OutputCost,
		TotalCost:        r.TotalCost,
		InputTokensText:  m.accountant.FormatTokens(r.InputTokens),
		OutputTokensText: m.accountant.FormatTokens(r.OutputTokens),
		TotalTokensText:  m.accountant.FormatTokens(r.TotalTokens),
		InputCostText:    m.accountant.FormatCost(r.InputCost),
		OutputCostText:   m.accountant.FormatCost(r.OutputCost),
		TotalCostText:    m.accountant.FormatCost(r.TotalCost),
	}
}
