package usage

import (
	"errors"
	"testing"

	"ai-assessment-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCost(t *testing.T) {
	a := NewAccountant(DefaultPricing())

	report, err := a.ComputeCost("final", &llm.UsageMetadata{
		PromptTokenCount:     1_000_000,
		CandidatesTokenCount: 1_000_000,
		TotalTokenCount:      2_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, "final", report.Label)
	assert.Equal(t, 1_000_000, report.InputTokens)
	assert.Equal(t, 1_000_000, report.OutputTokens)
	assert.Equal(t, 2_000_000, report.TotalTokens)
	assert.InDelta(t, 1.25, report.InputCost, 1e-9)
	assert.InDelta(t, 10.00, report.OutputCost, 1e-9)
	assert.InDelta(t, 11.25, report.TotalCost, 1e-9)
}

func TestComputeCostSmallCounts(t *testing.T) {
	a := NewAccountant(DefaultPricing())

	report, err := a.ComputeCost("topics", &llm.UsageMetadata{
		PromptTokenCount:     1200,
		CandidatesTokenCount: 800,
		TotalTokenCount:      2000,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.0015, report.InputCost, 1e-12)
	assert.InDelta(t, 0.008, report.OutputCost, 1e-12)
	assert.InDelta(t, 0.0095, report.TotalCost, 1e-12)
}

func TestComputeCostCustomPricing(t *testing.T) {
	a := NewAccountant(Pricing{InputPerMillion: 2, OutputPerMillion: 4})

	report, err := a.ComputeCost("x", &llm.UsageMetadata{
		PromptTokenCount:     500_000,
		CandidatesTokenCount: 250_000,
		TotalTokenCount:      750_000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, report.TotalCost, 1e-9)
}

func TestComputeCostMissingMetadata(t *testing.T) {
	a := NewAccountant(DefaultPricing())

	report, err := a.ComputeCost("final", nil)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrUsageUnavailable))

	report, err = a.ComputeCost("final", &llm.UsageMetadata{PromptTokenCount: -1})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrUsageUnavailable)
}

func TestFormatting(t *testing.T) {
	a := NewAccountant(DefaultPricing())

	assert.Equal(t, "1,234,567", a.FormatTokens(1234567))
	assert.Equal(t, "0", a.FormatTokens(0))
	assert.Equal(t, "$11.250000", a.FormatCost(11.25))
	assert.Equal(t, "$0.000001", a.FormatCost(0.00000125))
}
