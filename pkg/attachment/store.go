package attachment

import (
	"context"
	"fmt"

	"ai-assessment-be/pkg/llm"
)

// Uploader is the part of a generative backend that accepts files
type Uploader interface {
	Upload(ctx context.Context, file llm.RawFile) (*llm.FileHandle, error)
}

// Store turns raw attachments into backend handles at most once per session.
// The cached list lives on the session; Store itself holds no state.
type Store struct {
	uploader Uploader
}

func NewStore(uploader Uploader) *Store {
	return &Store{uploader: uploader}
}

// EnsureUploaded returns cached unchanged when it is non-empty. Otherwise it
// uploads every raw file in order and returns the new handles. The bool
// reports whether any upload happened. A single failed upload aborts the
// batch and no handles are returned.
func (s *Store) EnsureUploaded(ctx context.Context, cached []llm.FileHandle, raw []llm.RawFile) ([]llm.FileHandle, bool, error) {
	if len(cached) > 0 {
		return cached, false, nil
	}
	if len(raw) == 0 {
		return []llm.FileHandle{}, false, nil
	}

	handles := make([]llm.FileHandle, 0, len(raw))
	for i, file := range raw {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		handle, err := s.uploader.Upload(ctx, file)
		if err != nil {
			return nil, false, fmt.Errorf("upload attachment %d (%s): %w", i+1, file.Name, err)
		}
		if handle.MimeType == "" {
			handle.MimeType = file.MimeType
		}
		handles = append(handles, *handle)
	}

	return handles, true, nil
}
