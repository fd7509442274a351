package service

import (
	"fmt"
	"strings"

	"ai-assessment-be/internal/constant"
	"ai-assessment-be/internal/entity"
	"ai-assessment-be/pkg/llm"
)

func buildRecommendationParts(in entity.UserInputs, handles []llm.FileHandle) []llm.Part {
	extra := detailBlock(in, handles, false)
	prompt := fmt.Sprintf(constant.TopicRecommendationPromptV1, in.Description, extra)
	return withFiles(prompt, handles)
}

func buildFinalReportParts(in entity.UserInputs, handles []llm.FileHandle) []llm.Part {
	extra := detailBlock(in, handles, true)
	prompt := fmt.Sprintf(constant.FinalReportPromptV1, in.Description, extra)
	return withFiles(prompt, handles)
}

func detailBlock(in entity.UserInputs, handles []llm.FileHandle, includeTopic bool) string {
	var sb strings.Builder
	write := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		sb.WriteString("\n")
		sb.WriteString(label)
		sb.WriteString("\n")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	if includeTopic && in.ChosenTopic != nil {
		write(constant.PromptTopicLabel, *in.ChosenTopic)
	}
	write(constant.PromptSubjectLabel, in.Subject)
	write(constant.PromptLevelLabel, in.Level)
	write(constant.PromptAchievementLabel, in.Achievement)

	if len(handles) > 0 {
		names := make([]string, 0, len(handles))
		for _, h := range handles {
			names = append(names, "- "+h.Name)
		}
		write(constant.PromptAttachmentsLabel, strings.Join(names, "\n"))
	}

	return sb.String()
}

func withFiles(prompt string, handles []llm.FileHandle) []llm.Part {
	parts := make([]llm.Part, 0, len(handles)+1)
	parts = append(parts, llm.TextPart(prompt))
	for _, h := range handles {
		parts = append(parts, llm.FilePart(h))
	}
	return parts
}
