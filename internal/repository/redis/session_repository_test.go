package redis

import (
	"testing"
	"time"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/pkg/llm"
	"ai-assessment-be/pkg/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSurvivesEncoding(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	topic := "Alpha"

	s := entity.NewSession("abc", now)
	s.Stage = entity.StageGeneration
	s.UserInputs = entity.UserInputs{
		Description:      "task",
		Attachments:      []llm.RawFile{{Name: "a.png", MimeType: llm.MimeTypePNG, Data: []byte{0x89, 'P', 'N', 'G'}}},
		RecommendEnabled: true,
		ChosenTopic:      &topic,
	}
	s.CachedAttachments = []llm.FileHandle{{Name: "a.png", URI: "files/1", MimeType: llm.MimeTypePNG}}
	s.TopicCandidates = []string{"Alpha", "Beta"}
	s.Usage.Recommendation = &usage.Report{Label: "topic_recommendation", InputTokens: 10, InputCost: 0.0000125}

	payload, err := encodeSession(s)
	require.NoError(t, err)

	got, err := decodeSession(payload)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeSession([]byte("not json"))
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "workflow:session:abc", sessionKey("abc"))
}
