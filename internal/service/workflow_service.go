package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-assessment-be/internal/constant"
	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/mapper"
	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/internal/pkg/serverutils"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/pkg/attachment"
	"ai-assessment-be/pkg/events"
	"ai-assessment-be/pkg/llm"
	"ai-assessment-be/pkg/metrics"
	"ai-assessment-be/pkg/topic"
	"ai-assessment-be/pkg/usage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workflowModule = "Workflow"

	ExportFileName    = "ai_report.md"
	ExportContentType = "text/markdown; charset=utf-8"
)

type IWorkflowService interface {
	GetState(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error)
	SubmitInput(ctx context.Context, sessionId string, req *dto.SubmitInputRequest) (*dto.WorkflowStateResponse, error)
	EnsureTopics(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error)
	ChooseTopic(ctx context.Context, sessionId string, req *dto.ChooseTopicRequest) (*dto.WorkflowStateResponse, error)
	EnsureFinalDocument(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error)
	UpdateDocument(ctx context.Context, sessionId string, req *dto.UpdateDocumentRequest) (*dto.WorkflowStateResponse, error)
	Export(ctx context.Context, sessionId string) (*dto.ExportResponse, error)
	Reset(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error)
}

type workflowService struct {
	sessions    contract.SessionRepository
	client      llm.GenerativeClient
	attachments *attachment.Store
	accountant  *usage.Accountant
	mapper      *mapper.WorkflowMapper
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      logger.ILogger
	tracer      trace.Tracer

	locksMu sync.Mutex
	locks   map[string]*sessionLock
	now     func() time.Time
}

// sessionLock serialises operations on one session. refs counts the
// holders and waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// WorkflowOption customises optional collaborators of the workflow service
type WorkflowOption func(*workflowService)

func WithPublisher(p events.Publisher) WorkflowOption {
	return func(s *workflowService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) WorkflowOption {
	return func(s *workflowService) { s.metrics = m }
}

func WithClock(now func() time.Time) WorkflowOption {
	return func(s *workflowService) { s.now = now }
}

func NewWorkflowService(
	sessions contract.SessionRepository,
	client llm.GenerativeClient,
	accountant *usage.Accountant,
	log logger.ILogger,
	opts ...WorkflowOption,
) IWorkflowService {
	s := &workflowService{
		sessions:    sessions,
		client:      client,
		attachments: attachment.NewStore(client),
		accountant:  accountant,
		mapper:      mapper.NewWorkflowMapper(accountant),
		logger:      log,
		tracer:      otel.Tracer("ai-assessment-be/workflow"),
		locks:       make(map[string]*sessionLock),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNopLogger()
	}
	return s
}

// --- Read-only ---

func (s *workflowService) GetState(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, created, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
	}
	return s.mapper.SessionToStateResponse(session, nil), nil
}

func (s *workflowService) Export(ctx context.Context, sessionId string) (*dto.ExportResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageGeneration || !session.HasGenerated() {
		return nil, newWorkflowError(ErrKindNotFound, "no generated document to export", nil)
	}

	return &dto.ExportResponse{
		FileName:    ExportFileName,
		ContentType: ExportContentType,
		Body:        session.ExportText(),
	}, nil
}

// --- Stage: INPUT ---

func (s *workflowService) SubmitInput(ctx context.Context, sessionId string, req *dto.SubmitInputRequest) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageInput {
		return nil, stageMismatch(session.Stage, entity.StageInput)
	}

	inputs, err := validateInputs(req)
	if err != nil {
		s.logger.Warn(workflowModule, "Input rejected", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil, err
	}

	session.UserInputs = *inputs
	next := entity.StageGeneration
	if inputs.RecommendEnabled {
		next = entity.StageTopicSelection
	}
	s.transition(ctx, session, next)

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.mapper.SessionToStateResponse(session, nil), nil
}

func validateInputs(req *dto.SubmitInputRequest) (*entity.UserInputs, error) {
	if req == nil {
		return nil, newWorkflowError(ErrKindValidation, "request body is required", nil)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, newWorkflowError(ErrKindValidation, "invalid input", err)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, newWorkflowError(ErrKindValidation, "description is required", nil)
	}
	if len(req.Attachments) > entity.MaxAttachments {
		return nil, newWorkflowError(ErrKindValidation, fmt.Sprintf("at most %d attachments are allowed", entity.MaxAttachments), nil)
	}

	files := make([]llm.RawFile, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if !llm.IsSupportedMimeType(a.MimeType) {
			return nil, newWorkflowError(ErrKindValidation, fmt.Sprintf("unsupported attachment type %q", a.MimeType), nil)
		}
		files = append(files, llm.RawFile{Name: a.Name, MimeType: a.MimeType, Data: a.Data})
	}

	inputs := &entity.UserInputs{
		Description:      req.Description,
		Subject:          strings.TrimSpace(req.Subject),
		Level:            strings.TrimSpace(req.Level),
		Achievement:      strings.TrimSpace(req.Achievement),
		Attachments:      files,
		RecommendEnabled: req.RecommendEnabled,
	}

	// Topic mode only matters when the recommendation step is skipped
	if !req.RecommendEnabled {
		topicInput := strings.TrimSpace(req.TopicInput)
		mode := entity.TopicMode(req.TopicMode)
		if mode == "" {
			mode = entity.TopicModeNone
			if topicInput != "" {
				mode = entity.TopicModeDirect
			}
		}
		if mode == entity.TopicModeDirect {
			if topicInput == "" {
				return nil, newWorkflowError(ErrKindValidation, "topic is required when entering it directly", nil)
			}
			inputs.ChosenTopic = &topicInput
		}
		inputs.TopicMode = mode
	}

	return inputs, nil
}

// --- Stage: TOPIC_SELECTION ---

func (s *workflowService) EnsureTopics(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageTopicSelection {
		return nil, stageMismatch(session.Stage, entity.StageTopicSelection)
	}

	if len(session.TopicCandidates) > 0 {
		s.cacheHit(sessionId, "topics")
		return s.mapper.SessionToStateResponse(session, nil), nil
	}

	handles, err := s.ensureAttachments(ctx, session)
	if err != nil {
		return nil, s.failRecommendation(ctx, session, newWorkflowError(ErrKindUpload, "failed to upload attachments", err))
	}
	session.CachedAttachments = handles

	resp, err := s.generate(ctx, session.Id, constant.StageLabelRecommendation, buildRecommendationParts(session.UserInputs, handles))
	if err != nil {
		return nil, s.failRecommendation(ctx, session, newWorkflowError(ErrKindBackend, "topic recommendation failed", err))
	}

	var warnings []string
	report, warning := s.account(ctx, session.Id, constant.StageLabelRecommendation, resp)
	if warning != "" {
		warnings = append(warnings, warning)
	}
	session.Usage.Recommendation = report
	session.RecommendationText = resp.Text
	session.UpdatedAt = s.now()

	candidates := offerableTopics(topic.Extract(resp.Text))
	if len(candidates) == 0 {
		s.logger.Warn(workflowModule, "No topics could be extracted", map[string]interface{}{
			"session_id":  sessionId,
			"text_length": len(resp.Text),
		})
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return nil, newWorkflowError(ErrKindExtraction, "no topics could be extracted from the recommendation", nil)
	}

	session.TopicCandidates = candidates
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(workflowModule, "Topics recommended", map[string]interface{}{
		"session_id": sessionId,
		"count":      len(candidates),
	})
	return s.mapper.SessionToStateResponse(session, warnings), nil
}

// failRecommendation clears the whole session and reports cause.
// The user starts over from the input stage.
func (s *workflowService) failRecommendation(ctx context.Context, session *entity.Session, cause *WorkflowError) error {
	s.logger.Error(workflowModule, "Recommendation failed, clearing session", map[string]interface{}{
		"session_id": session.Id,
		"kind":       string(cause.Kind),
		"error":      cause.Error(),
	})
	s.publish(ctx, events.EventBackendFailed, map[string]interface{}{
		"session_id": session.Id,
		"stage":      constant.StageLabelRecommendation,
		"kind":       string(cause.Kind),
		"cleared":    true,
	})

	from := session.Stage
	session.Clear(s.now())
	s.observeTransition(from, session.Stage)

	if err := s.save(ctx, session); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *workflowService) ChooseTopic(ctx context.Context, sessionId string, req *dto.ChooseTopicRequest) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageTopicSelection {
		return nil, stageMismatch(session.Stage, entity.StageTopicSelection)
	}
	if req == nil {
		return nil, newWorkflowError(ErrKindValidation, "request body is required", nil)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, newWorkflowError(ErrKindValidation, "invalid topic", err)
	}
	if !session.HasCandidate(req.Topic) {
		return nil, newWorkflowError(ErrKindValidation, fmt.Sprintf("topic %q is not one of the candidates", req.Topic), nil)
	}

	chosen := req.Topic
	session.UserInputs.ChosenTopic = &chosen
	s.transition(ctx, session, entity.StageGeneration)

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.mapper.SessionToStateResponse(session, nil), nil
}

// --- Stage: GENERATION ---

func (s *workflowService) EnsureFinalDocument(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageGeneration {
		return nil, stageMismatch(session.Stage, entity.StageGeneration)
	}

	if session.HasGenerated() {
		s.cacheHit(sessionId, "document")
		return s.mapper.SessionToStateResponse(session, nil), nil
	}

	// Failures below keep the session so the user can retry
	handles, err := s.ensureAttachments(ctx, session)
	if err != nil {
		s.publishGenerationFailure(ctx, session.Id, ErrKindUpload)
		return nil, newWorkflowError(ErrKindUpload, "failed to upload attachments", err)
	}
	if len(handles) > 0 && len(session.CachedAttachments) == 0 {
		session.CachedAttachments = handles
		session.UpdatedAt = s.now()
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
	}

	resp, err := s.generate(ctx, session.Id, constant.StageLabelGeneration, buildFinalReportParts(session.UserInputs, handles))
	if err != nil {
		s.publishGenerationFailure(ctx, session.Id, ErrKindBackend)
		return nil, newWorkflowError(ErrKindBackend, "report generation failed", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		s.observeBackend(constant.StageLabelGeneration, metrics.OutcomeEmpty)
		s.publishGenerationFailure(ctx, session.Id, ErrKindBackend)
		return nil, newWorkflowError(ErrKindBackend, "report generation returned no text", nil)
	}

	var warnings []string
	report, warning := s.account(ctx, session.Id, constant.StageLabelGeneration, resp)
	if warning != "" {
		warnings = append(warnings, warning)
	}
	session.Usage.Generation = report
	session.GeneratedText = resp.Text
	session.UpdatedAt = s.now()

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(workflowModule, "Report generated", map[string]interface{}{
		"session_id":  sessionId,
		"text_length": len(resp.Text),
	})
	return s.mapper.SessionToStateResponse(session, warnings), nil
}

func (s *workflowService) publishGenerationFailure(ctx context.Context, sessionId string, kind ErrorKind) {
	s.logger.Error(workflowModule, "Generation failed, session preserved", map[string]interface{}{
		"session_id": sessionId,
		"kind":       string(kind),
	})
	s.publish(ctx, events.EventBackendFailed, map[string]interface{}{
		"session_id": sessionId,
		"stage":      constant.StageLabelGeneration,
		"kind":       string(kind),
		"cleared":    false,
	})
}

func (s *workflowService) UpdateDocument(ctx context.Context, sessionId string, req *dto.UpdateDocumentRequest) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.Stage != entity.StageGeneration || !session.HasGenerated() {
		return nil, newWorkflowError(ErrKindValidation, "there is no generated document to edit", nil)
	}
	if req == nil {
		return nil, newWorkflowError(ErrKindValidation, "request body is required", nil)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, newWorkflowError(ErrKindValidation, "invalid document", err)
	}

	session.EditedText = req.Text
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.mapper.SessionToStateResponse(session, nil), nil
}

// --- Any stage ---

func (s *workflowService) Reset(ctx context.Context, sessionId string) (*dto.WorkflowStateResponse, error) {
	unlock := s.lock(sessionId)
	defer unlock()

	session, _, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	from := session.Stage
	session.Clear(s.now())
	s.observeTransition(from, session.Stage)

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(workflowModule, "Session reset", map[string]interface{}{
		"session_id": sessionId,
		"from":       string(from),
	})
	s.publish(ctx, events.EventSessionReset, map[string]interface{}{
		"session_id": sessionId,
		"from":       string(from),
	})
	return s.mapper.SessionToStateResponse(session, nil), nil
}

// --- Helpers ---

func (s *workflowService) lock(sessionId string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionId]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionId] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionId)
		}
		s.locksMu.Unlock()
	}
}

// offerableTopics drops blank items; they cannot be chosen
func offerableTopics(items []string) []string {
	topics := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		topics = append(topics, item)
	}
	return topics
}

// load returns the stored session, or a fresh one when none exists yet
func (s *workflowService) load(ctx context.Context, sessionId string) (*entity.Session, bool, error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, false, newWorkflowError(ErrKindValidation, "session id is required", nil)
	}

	session, found, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return entity.NewSession(sessionId, s.now()), true, nil
	}
	return session, false, nil
}

func (s *workflowService) save(ctx context.Context, session *entity.Session) error {
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *workflowService) transition(ctx context.Context, session *entity.Session, next entity.Stage) {
	from := session.Stage
	session.Stage = next
	session.UpdatedAt = s.now()

	s.observeTransition(from, next)
	s.logger.Info(workflowModule, "Stage changed", map[string]interface{}{
		"session_id": session.Id,
		"from":       string(from),
		"to":         string(next),
	})
	s.publish(ctx, events.EventStageChanged, map[string]interface{}{
		"session_id": session.Id,
		"from":       string(from),
		"to":         string(next),
	})
}

func (s *workflowService) ensureAttachments(ctx context.Context, session *entity.Session) ([]llm.FileHandle, error) {
	handles, uploaded, err := s.attachments.EnsureUploaded(ctx, session.CachedAttachments, session.UserInputs.Attachments)
	if err != nil {
		if s.metrics != nil {
			s.metrics.Uploads.WithLabelValues(metrics.OutcomeFailure).Inc()
		}
		return nil, err
	}

	if uploaded {
		if s.metrics != nil {
			s.metrics.Uploads.WithLabelValues(metrics.OutcomeSuccess).Inc()
		}
		s.logger.Info(workflowModule, "Attachments uploaded", map[string]interface{}{
			"session_id": session.Id,
			"count":      len(handles),
		})
	} else if len(handles) > 0 {
		s.cacheHit(session.Id, "attachments")
	}
	return handles, nil
}

func (s *workflowService) generate(ctx context.Context, sessionId, stage string, parts []llm.Part) (*llm.GenerationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow."+stage)
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionId),
		attribute.Int("request.parts", len(parts)),
	)

	start := time.Now()
	resp, err := s.client.Generate(ctx, parts)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.observeBackend(stage, metrics.OutcomeFailure)
		s.logger.Error(workflowModule, "Backend call failed", map[string]interface{}{
			"session_id":  sessionId,
			"stage":       stage,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return nil, err
	}

	s.observeBackend(stage, metrics.OutcomeSuccess)
	s.logger.Info(workflowModule, "Backend call completed", map[string]interface{}{
		"session_id":  sessionId,
		"stage":       stage,
		"model":       resp.Model,
		"duration_ms": duration.Milliseconds(),
	})
	return resp, nil
}

// account turns usage metadata into a report. Missing metadata is never
// fatal: it comes back as a warning and a nil report.
func (s *workflowService) account(ctx context.Context, sessionId, stage string, resp *llm.GenerationResponse) (*usage.Report, string) {
	report, err := s.accountant.ComputeCost(stage, resp.Usage)
	if err != nil {
		warning := newWorkflowError(ErrKindMetadata, "usage information is unavailable for "+stage, err)
		if s.metrics != nil {
			s.metrics.UsageWarnings.Inc()
		}
		s.logger.Warn(workflowModule, "Usage metadata missing", map[string]interface{}{
			"session_id": sessionId,
			"stage":      stage,
			"error":      err.Error(),
		})
		return nil, warning.Error()
	}

	if s.metrics != nil {
		s.metrics.ObserveUsage(stage, report.InputTokens, report.OutputTokens, report.TotalCost)
	}
	s.publish(ctx, events.EventUsageRecorded, map[string]interface{}{
		"session_id":    sessionId,
		"stage":         stage,
		"model":         resp.Model,
		"input_tokens":  report.InputTokens,
		"output_tokens": report.OutputTokens,
		"total_tokens":  report.TotalTokens,
		"input_cost":    report.InputCost,
		"output_cost":   report.OutputCost,
		"total_cost":    report.TotalCost,
	})
	return report, ""
}

func (s *workflowService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data, s.now())); err != nil {
		s.logger.Warn(workflowModule, "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func (s *workflowService) cacheHit(sessionId, operation string) {
	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(operation).Inc()
	}
	s.logger.Debug(workflowModule, "Served from session cache", map[string]interface{}{
		"session_id": sessionId,
		"operation":  operation,
	})
}

func (s *workflowService) observeBackend(stage, outcome string) {
	if s.metrics != nil {
		s.metrics.BackendCalls.WithLabelValues(stage, outcome).Inc()
	}
}

func (s *workflowService) observeTransition(from, to entity.Stage) {
	if s.metrics != nil && from != to {
		s.metrics.StageTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

func stageMismatch(current, expected entity.Stage) *WorkflowError {
	return newWorkflowError(ErrKindValidation, fmt.Sprintf("stage mismatch: session is in %s, expected %s", current, expected), nil)
}
