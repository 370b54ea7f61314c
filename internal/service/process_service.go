package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"flowforge/internal/domain"
	"flowforge/internal/normalizer"
	"flowforge/internal/pipeline"
	"flowforge/internal/port"
	"flowforge/internal/xlsxexport"
)

// IdealStateUnavailable is returned as the vision when generation fails.
const IdealStateUnavailable = "Unable to generate ideal state. Please check your API credits."

// ChatUnavailable is the assistant reply when the model cannot answer.
const ChatUnavailable = "I'm having trouble processing that. Could you rephrase?"

// ParseInput is the DTO for a parse request.
type ParseInput struct {
	Text              string
	InputType         domain.InputType
	AdditionalContext string
	RequestedBy       string
}

// ChatInput is the DTO for one chat turn.
type ChatInput struct {
	History []domain.ChatMessage
	Message string
}

// ProcessConfig holds the request limits enforced before the pipeline runs.
type ProcessConfig struct {
	MaxInputChars int
	CallTimeout   time.Duration
	ArchivePrefix string
}

// ProcessService defines the process parsing contract.
type ProcessService interface {
	Parse(ctx context.Context, input *ParseInput) (*domain.ParseBatchResult, error)
	GenerateIdealState(ctx context.Context, process *domain.ParsedProcess) (*domain.IdealState, error)
	Chat(ctx context.Context, input *ChatInput) (string, error)
	Export(ctx context.Context, batch *domain.ParseBatchResult) ([]byte, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error)
	GetRunResult(ctx context.Context, id uuid.UUID) (json.RawMessage, error)
	CacheStats(ctx context.Context) (*domain.CacheStats, error)
	ClearCache(ctx context.Context, pattern string) (int, error)
}

type processService struct {
	parser  port.DocumentParser
	gateway port.LLMGateway
	cache   port.ParseCache
	runRepo port.ParseRunRepository
	archive port.ResultArchive
	cfg     ProcessConfig
	now     func() time.Time
}

// NewProcessService creates a new ProcessService implementation.
// cache, runRepo and archive are optional and may be nil.
func NewProcessService(
	parser port.DocumentParser,
	gateway port.LLMGateway,
	parseCache port.ParseCache,
	runRepo port.ParseRunRepository,
	archive port.ResultArchive,
	cfg ProcessConfig,
) ProcessService {
	return &processService{
		parser:  parser,
		gateway: gateway,
		cache:   parseCache,
		runRepo: runRepo,
		archive: archive,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *processService) Parse(ctx context.Context, input *ParseInput) (*domain.ParseBatchResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	if input.InputType == "" {
		input.InputType = domain.InputTypeDocument
	}
	if !domain.AllowedInputTypes[input.InputType] {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedInputType, input.InputType)
	}
	if s.cfg.MaxInputChars > 0 && utf8.RuneCountInString(input.Text) > s.cfg.MaxInputChars {
		return nil, domain.ErrDocumentTooLarge
	}

	start := s.now()
	result, err := s.parser.ParseDocument(ctx, domain.Document{
		Text:              input.Text,
		InputType:         input.InputType,
		AdditionalContext: input.AdditionalContext,
	})
	if err != nil {
		log.Printf("processService.Parse: %v", err)
		return nil, err
	}

	run := &domain.ParseRun{
		ID:           uuid.New(),
		InputType:    input.InputType,
		ProcessCount: result.ProcessCount,
		DurationMs:   s.now().Sub(start).Milliseconds(),
		RequestedBy:  input.RequestedBy,
		CreatedAt:    start.UTC(),
	}
	if result.Meta != nil {
		run.Fingerprint = result.Meta.Fingerprint
		run.Mode = result.Meta.Mode
		run.CacheTier = result.Meta.CacheTier
		run.DetectedCount = result.Meta.DetectedCount
		run.FailedCount = len(result.Meta.FailedTitles)
	}

	if run.Mode != domain.ParseModeCache {
		run.ArchiveKey = s.archiveResult(ctx, run, result)
	}
	s.recordRun(ctx, run)

	return result, nil
}

// archiveResult uploads a fresh batch and returns its key, or "" when the
// archive is disabled or the upload failed.
func (s *processService) archiveResult(ctx context.Context, run *domain.ParseRun, result *domain.ParseBatchResult) string {
	if s.archive == nil {
		return ""
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("processService.archiveResult: marshal: %v", err)
		return ""
	}
	key := ArchiveKey(s.cfg.ArchivePrefix, run.ID, run.CreatedAt)
	if _, err := s.archive.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: "application/json",
	}); err != nil {
		log.Printf("processService.archiveResult: upload %s: %v", key, err)
		return ""
	}
	return key
}

func (s *processService) recordRun(ctx context.Context, run *domain.ParseRun) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		log.Printf("processService.recordRun: run %s: %v", run.ID, err)
	}
}

// ArchiveKey returns {prefix}/parses/{yyyy}/{mm}/{dd}/{id}.json.
func ArchiveKey(prefix string, id uuid.UUID, at time.Time) string {
	return path.Join(prefix, "parses", at.UTC().Format("2006/01/02"), id.String()+".json")
}

func (s *processService) GenerateIdealState(ctx context.Context, process *domain.ParsedProcess) (*domain.IdealState, error) {
	if process == nil || strings.TrimSpace(process.Name) == "" || len(process.Nodes) == 0 {
		return nil, domain.ErrInvalidProcess
	}

	prompt, err := pipeline.BuildIdealStatePrompt(process)
	if err != nil {
		log.Printf("processService.GenerateIdealState: %v", err)
		return unavailableIdealState(), nil
	}

	callCtx := ctx
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	raw, err := s.gateway.Send(callCtx, pipeline.IdealStateSystemPrompt, prompt)
	if err != nil {
		log.Printf("processService.GenerateIdealState: %q: %v", process.Name, err)
		return unavailableIdealState(), nil
	}
	state, err := normalizer.DecodeIdealState(raw)
	if err != nil {
		log.Printf("processService.GenerateIdealState: %q: %v", process.Name, err)
		return unavailableIdealState(), nil
	}
	return state, nil
}

func unavailableIdealState() *domain.IdealState {
	return &domain.IdealState{
		Vision:     IdealStateUnavailable,
		Categories: []domain.IdealCategory{},
		ExpectedOutcomes: domain.ExpectedOutcomes{
			Operational: []string{},
			Business:    []string{},
		},
		EstimatedImpact: map[string]string{},
	}
}

// Chat answers one turn of a documentation conversation. Model failures
// yield ChatUnavailable rather than an error.
func (s *processService) Chat(ctx context.Context, input *ChatInput) (string, error) {
	if strings.TrimSpace(input.Message) == "" {
		return "", domain.ErrEmptyMessage
	}

	callCtx := ctx
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	reply, err := s.gateway.Send(callCtx, pipeline.ChatSystemPrompt, pipeline.BuildChatPrompt(input.History, input.Message))
	if err != nil {
		log.Printf("processService.Chat: %v", err)
		return ChatUnavailable, nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		log.Printf("processService.Chat: empty reply")
		return ChatUnavailable, nil
	}
	return reply, nil
}

func (s *processService) Export(_ context.Context, batch *domain.ParseBatchResult) ([]byte, error) {
	if batch == nil || len(batch.Processes) == 0 {
		return nil, domain.ErrInvalidProcess
	}
	for i := range batch.Processes {
		if strings.TrimSpace(batch.Processes[i].Name) == "" {
			return nil, fmt.Errorf("%w: process %d", domain.ErrInvalidProcess, i+1)
		}
	}
	data, err := xlsxexport.Build(batch)
	if err != nil {
		return nil, fmt.Errorf("processService.Export: %w", err)
	}
	return data, nil
}

func (s *processService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error) {
	if s.runRepo == nil {
		return nil, 0, domain.ErrAuditDisabled
	}
	return s.runRepo.List(ctx, offset, limit)
}

// GetRunResult returns the archived batch of a recorded run. Cache hits are
// never archived and report ErrNotFound.
func (s *processService) GetRunResult(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	if s.runRepo == nil {
		return nil, domain.ErrAuditDisabled
	}
	if s.archive == nil {
		return nil, domain.ErrArchiveDisabled
	}
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.ArchiveKey == "" {
		return nil, fmt.Errorf("%w: run %s has no archived result", domain.ErrNotFound, id)
	}
	data, err := s.archive.Download(ctx, run.ArchiveKey)
	if err != nil {
		return nil, fmt.Errorf("processService.GetRunResult: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("processService.GetRunResult: archived object %s is not JSON", run.ArchiveKey)
	}
	return json.RawMessage(data), nil
}

func (s *processService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheUnavailable
	}
	return s.cache.Stats(ctx)
}

func (s *processService) ClearCache(ctx context.Context, pattern string) (int, error) {
	if s.cache == nil {
		return 0, domain.ErrCacheUnavailable
	}
	n, err := s.cache.Clear(ctx, pattern)
	if err != nil {
		return 0, err
	}
	log.Printf("processService.ClearCache: removed %d keys (pattern %q)", n, pattern)
	return n, nil
}
