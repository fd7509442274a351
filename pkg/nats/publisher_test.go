package nats

import (
	"testing"

	"ai-assessment-be/pkg/events"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{events.EventUsageRecorded, "workflow.usage_recorded"},
		{events.EventStageChanged, "workflow.stage_changed"},
		{events.EventBackendFailed, "workflow.backend_call_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			if got := Subject(tt.eventType); got != tt.want {
				t.Errorf("Subject(%q) = %q, want %q", tt.eventType, got, tt.want)
			}
		})
	}
}
