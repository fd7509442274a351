package llm

import (
	"context"
)

// RawFile is a user-supplied attachment before it has been handed to a backend
type RawFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// FileHandle is an uploaded attachment. Only the provider that issued it
// knows how to interpret URI.
type FileHandle struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mime_type"`
}

// Part is one element of a prompt: inline text or a reference to an uploaded file
type Part struct {
	Text string
	File *FileHandle
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func FilePart(handle FileHandle) Part {
	h := handle
	return Part{File: &h}
}

// UsageMetadata is the token accounting returned alongside generated text
type UsageMetadata struct {
	PromptTokenCount     int `json:"prompt_token_count"`
	CandidatesTokenCount int `json:"candidates_token_count"`
	TotalTokenCount      int `json:"total_token_count"`
}

// GenerationResponse is the result of a single Generate call.
// Usage is nil when the backend did not report token counts.
type GenerationResponse struct {
	Text  string
	Usage *UsageMetadata
	Model string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions folds opts over the given defaults
func ApplyOptions(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// GenerativeClient defines the contract for any generative backend
type GenerativeClient interface {
	// Generate sends an ordered list of text and file parts and returns the model output
	Generate(ctx context.Context, parts []Part, options ...Option) (*GenerationResponse, error)

	// Upload materializes a raw file into a handle the backend can reference
	Upload(ctx context.Context, file RawFile) (*FileHandle, error)
}

// Supported attachment mime types
const (
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
	MimeTypePDF  = "application/pdf"
)

func IsSupportedMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypePNG, MimeTypeJPEG, MimeTypePDF:
		return true
	}
	return false
}
