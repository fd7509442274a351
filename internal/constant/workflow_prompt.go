package constant

// Stage labels used for usage reports, metrics and the ledger
const (
	StageLabelRecommendation = "topic_recommendation"
	StageLabelGeneration     = "final_generation"
)

const TopicRecommendationPromptV1 = `You are an experienced advisor helping students with performance assessments.
Read the assessment description and any attached files, then propose exactly five creative, feasible investigation topics.

Answer with a numbered list only, one topic per line, in the form "1. <topic>".

[Assessment description]
%s
%s`

const FinalReportPromptV1 = `You are an experienced advisor helping a student write a performance-assessment report.
Use the assessment description, the optional topic and details, and every attached file.
Write the complete report draft in Markdown with a title, clear section headings and a conclusion.

[Assessment description]
%s
%s`

const (
	PromptTopicLabel       = "[Investigation topic]"
	PromptSubjectLabel     = "[Subject / unit]"
	PromptLevelLabel       = "[Student level]"
	PromptAchievementLabel = "[Key concepts]"
	PromptAttachmentsLabel = "[Attached files]"
)
