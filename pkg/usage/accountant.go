package usage

import (
	"errors"
	"fmt"

	"ai-assessment-be/pkg/llm"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default prices in USD per one million tokens
const (
	DefaultInputPricePerMillion  = 1.25
	DefaultOutputPricePerMillion = 10.00
)

var ErrUsageUnavailable = errors.New("usage metadata unavailable")

// Pricing is fixed at startup and never changes while the process runs
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

func DefaultPricing() Pricing {
	return Pricing{
		InputPerMillion:  DefaultInputPricePerMillion,
		OutputPerMillion: DefaultOutputPricePerMillion,
	}
}

// Report holds the token counts and estimated cost of one backend call
type Report struct {
	Label        string  `json:"label"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
}

type Accountant struct {
	pricing Pricing
	printer *message.Printer
}

func NewAccountant(pricing Pricing) *Accountant {
	return &Accountant{
		pricing: pricing,
		printer: message.NewPrinter(language.English),
	}
}

// ComputeCost derives token counts and cost from usage metadata.
// Missing or inconsistent metadata yields ErrUsageUnavailable; callers are
// expected to treat that as a warning.
func (a *Accountant) ComputeCost(label string, meta *llm.UsageMetadata) (*Report, error) {
	if meta == nil {
		return nil, ErrUsageUnavailable
	}
	if meta.PromptTokenCount < 0 || meta.CandidatesTokenCount < 0 || meta.TotalTokenCount < 0 {
		return nil, fmt.Errorf("%w: negative token count", ErrUsageUnavailable)
	}

	inputCost := float64(meta.PromptTokenCount) / 1_000_000 * a.pricing.InputPerMillion
	outputCost := float64(meta.CandidatesTokenCount) / 1_000_000 * a.pricing.OutputPerMillion

	return &Report{
		Label:        label,
		InputTokens:  meta.PromptTokenCount,
		OutputTokens: meta.CandidatesTokenCount,
		TotalTokens:  meta.TotalTokenCount,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
	}, nil
}

// FormatTokens renders a token count with thousands separators ("1,234,567")
func (a *Accountant) FormatTokens(n int) string {
	return a.printer.Sprintf("%d", n)
}

// FormatCost renders a USD amount with six decimals ("$0.001250")
func (a *Accountant) FormatCost(usd float64) string {
	return fmt.Sprintf("$%.6f", usd)
}
