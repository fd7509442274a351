package entity

import (
	"time"

	"ai-assessment-be/pkg/llm"
	"ai-assessment-be/pkg/usage"
)

type Stage string

const (
	StageInput          Stage = "INPUT"
	StageTopicSelection Stage = "TOPIC_SELECTION"
	StageGeneration     Stage = "GENERATION"
)

// Index is the position of the stage in the stepper (0, 1, 2)
func (s Stage) Index() int {
	switch s {
	case StageTopicSelection:
		return 1
	case StageGeneration:
		return 2
	default:
		return 0
	}
}

const MaxAttachments = 5

// TopicMode applies only when recommendation is disabled
type TopicMode string

const (
	TopicModeDirect TopicMode = "direct"
	TopicModeNone   TopicMode = "none"
)

type UserInputs struct {
	Description      string        `json:"description"`
	Subject          string        `json:"subject,omitempty"`
	Level            string        `json:"level,omitempty"`
	Achievement      string        `json:"achievement,omitempty"`
	Attachments      []llm.RawFile `json:"attachments,omitempty"`
	RecommendEnabled bool          `json:"recommend_enabled"`
	TopicMode        TopicMode     `json:"topic_mode,omitempty"`
	ChosenTopic      *string       `json:"chosen_topic,omitempty"`
}

type SessionUsage struct {
	Recommendation *usage.Report `json:"recommendation,omitempty"`
	Generation     *usage.Report `json:"generation,omitempty"`
}

// Session is the whole workflow state of one user. It is loaded, mutated
// and saved back once per request.
type Session struct {
	Id                 string           `json:"id"`
	Stage              Stage            `json:"stage"`
	UserInputs         UserInputs       `json:"user_inputs"`
	CachedAttachments  []llm.FileHandle `json:"cached_attachments,omitempty"`
	TopicCandidates    []string         `json:"topic_candidates,omitempty"`
	RecommendationText string           `json:"recommendation_text,omitempty"`
	GeneratedText      string           `json:"generated_text,omitempty"`
	EditedText         string           `json:"edited_text,omitempty"`
	Usage              SessionUsage     `json:"usage"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		Id:        id,
		Stage:     StageInput,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clear returns the session to its initial defaults, keeping only its id
func (s *Session) Clear(now time.Time) {
	*s = *NewSession(s.Id, now)
}

// HasGenerated reports whether the final document exists
func (s *Session) HasGenerated() bool {
	return s.GeneratedText != ""
}

// ExportText is the edited document when the user changed it, the generated one otherwise
func (s *Session) ExportText() string {
	if s.EditedText != "" {
		return s.EditedText
	}
	return s.GeneratedText
}

func (s *Session) HasCandidate(topic string) bool {
	for _, c := range s.TopicCandidates {
		if c == topic {
			return true
		}
	}
	return false
}

// Clone deep-copies the session so stores never share memory with callers
func (s *Session) Clone() *Session {
	c := *s

	if s.UserInputs.Attachments != nil {
		c.UserInputs.Attachments = make([]llm.RawFile, len(s.UserInputs.Attachments))
		for i, f := range s.UserInputs.Attachments {
			f.Data = append([]byte(nil), f.Data...)
			c.UserInputs.Attachments[i] = f
		}
	}
	if s.UserInputs.ChosenTopic != nil {
		topic := *s.UserInputs.ChosenTopic
		c.UserInputs.ChosenTopic = &topic
	}
	if s.CachedAttachments != nil {
		c.CachedAttachments = append([]llm.FileHandle(nil), s.CachedAttachments...)
	}
	if s.TopicCandidates != nil {
		c.TopicCandidates = append([]string(nil), s.TopicCandidates...)
	}
	if s.Usage.Recommendation != nil {
		r := *s.Usage.Recommendation
		c.Usage.Recommendation = &r
	}
	if s.Usage.Generation != nil {
		r := *s.Usage.Generation
		c.Usage.Generation = &r
	}

	return &c
}
