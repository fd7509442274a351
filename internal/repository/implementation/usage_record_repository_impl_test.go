package implementation

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/model"
	"ai-assessment-be/internal/repository/specification"
	"ai-assessment-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageRecordRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UsageRecord{}))

	repo := NewUsageRecordRepository(db)
	ctx := context.Background()
	sessionId := "it-" + uuid.NewString()
	t.Cleanup(func() {
		db.Where("session_id = ?", sessionId).Delete(&model.UsageRecord{})
	})

	first := &entity.UsageRecord{
		Id:           uuid.New(),
		SessionId:    sessionId,
		Stage:        "topic_recommendation",
		InputTokens:  1000,
		OutputTokens: 200,
		TotalTokens:  1200,
		TotalCost:    0.00325,
		Details:      map[string]interface{}{"model": "gemini-2.5-pro"},
		CreatedAt:    time.Now().Add(-time.Minute),
	}
	second := &entity.UsageRecord{
		Id:          uuid.New(),
		SessionId:   sessionId,
		Stage:       "final_generation",
		TotalTokens: 50,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("Filter by session in order", func(t *testing.T) {
		rows, err := repo.FindAll(ctx,
			specification.BySessionID{SessionID: sessionId},
			specification.OrderBy{Field: "created_at"},
		)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "topic_recommendation", rows[0].Stage)
		assert.InDelta(t, 0.00325, rows[0].TotalCost, 1e-9)
		assert.Equal(t, "gemini-2.5-pro", rows[0].Details["model"])
	})

	t.Run("Filter by stage", func(t *testing.T) {
		rows, err := repo.FindAll(ctx,
			specification.BySessionID{SessionID: sessionId},
			specification.ByStage{Stage: "final_generation"},
			specification.Limit{N: 10},
		)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 50, rows[0].TotalTokens)
	})
}
