// Package pipeline turns a raw document into one or more parsed process graphs.
//
// A parse walks an explicit stage machine:
//
//	CacheCheck -> BoundaryScan -> DirectMulti | AIDetect
//	           -> MultiExtract | SingleExtract -> CacheWrite -> Done
//
// AIDetect failures and a MultiExtract that yields nothing both fall back to
// a single-process extraction of the whole text. Only a failed single
// extraction surfaces as domain.ErrPipelineExhausted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"flowforge/internal/boundary"
	"flowforge/internal/cache"
	"flowforge/internal/config"
	"flowforge/internal/domain"
	"flowforge/internal/metrics"
	"flowforge/internal/normalizer"
	"flowforge/internal/port"
	"flowforge/internal/segment"
)

const additionalContextHeader = "\n\nADDITIONAL CONTEXT:\n"

// Config bounds the work done per request.
type Config struct {
	DetectionMaxChars  int
	ExtractionMaxChars int
	SpanMaxChars       int
	Concurrency        int
	CallTimeout        time.Duration
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		DetectionMaxChars:  30000,
		ExtractionMaxChars: 30000,
		SpanMaxChars:       segment.DefaultSpanMaxChars,
		Concurrency:        4,
		CallTimeout:        120 * time.Second,
	}
}

// ConfigFrom converts the environment-level pipeline settings.
func ConfigFrom(p *config.PipelineConfig) Config {
	return Config{
		DetectionMaxChars:  p.DetectionMaxChars,
		ExtractionMaxChars: p.ExtractionMaxChars,
		SpanMaxChars:       p.SpanMaxChars,
		Concurrency:        p.Concurrency,
		CallTimeout:        p.CallTimeout(),
	}
}

type stage int

const (
	stageCacheCheck stage = iota
	stageBoundaryScan
	stageAIDetect
	stageMultiExtract
	stageSingleExtract
	stageCacheWrite
	stageDone
)

var stageNames = [...]string{"CacheCheck", "BoundaryScan", "AIDetect", "MultiExtract", "SingleExtract", "CacheWrite", "Done"}

func (s stage) String() string {
	return stageNames[s]
}

// run is the state of one ParseDocument call.
type run struct {
	doc       domain.Document
	text      string
	detection domain.DetectionResult
	titles    []string
	result    *domain.ParseBatchResult
	meta      domain.ParseMeta
	err       error
}

// Orchestrator runs the parse stage machine. It is safe for concurrent use.
type Orchestrator struct {
	gateway  port.LLMGateway
	cache    port.ParseCache
	detector *boundary.Detector
	cfg      Config
}

// NewOrchestrator wires the pipeline. cache may be nil to disable caching.
func NewOrchestrator(gateway port.LLMGateway, parseCache port.ParseCache, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.DetectionMaxChars <= 0 {
		cfg.DetectionMaxChars = def.DetectionMaxChars
	}
	if cfg.ExtractionMaxChars <= 0 {
		cfg.ExtractionMaxChars = def.ExtractionMaxChars
	}
	if cfg.SpanMaxChars <= 0 {
		cfg.SpanMaxChars = def.SpanMaxChars
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Orchestrator{
		gateway:  gateway,
		cache:    parseCache,
		detector: boundary.NewDetector(),
		cfg:      cfg,
	}
}

// ParseDocument returns a non-empty batch or an error. A cancelled ctx
// returns ctx.Err() instead of falling back.
func (o *Orchestrator) ParseDocument(ctx context.Context, doc domain.Document) (*domain.ParseBatchResult, error) {
	text := doc.Text
	if doc.AdditionalContext != "" {
		text += additionalContextHeader + doc.AdditionalContext
	}

	r := &run{
		doc:  doc,
		text: text,
		meta: domain.ParseMeta{Fingerprint: cache.Fingerprint(text)},
	}

	for st := stageCacheCheck; st != stageDone; {
		if err := ctx.Err(); err != nil {
			r.err = err
			break
		}
		next := o.step(ctx, r, st)
		if next != st+1 {
			log.Printf("pipeline.Orchestrator.ParseDocument: %s -> %s (%s)", st, next, r.meta.Fingerprint)
		}
		st = next
	}

	if r.err != nil {
		metrics.RecordPipelineRun("error")
		return nil, r.err
	}

	metrics.RecordPipelineRun(string(r.meta.Mode))
	meta := r.meta
	r.result.Meta = &meta
	return r.result, nil
}

func (o *Orchestrator) step(ctx context.Context, r *run, st stage) stage {
	switch st {
	case stageCacheCheck:
		return o.cacheCheck(ctx, r)
	case stageBoundaryScan:
		return o.boundaryScan(r)
	case stageAIDetect:
		return o.aiDetect(ctx, r)
	case stageMultiExtract:
		return o.multiExtract(ctx, r)
	case stageSingleExtract:
		return o.singleExtract(ctx, r)
	case stageCacheWrite:
		if o.cache != nil {
			o.cache.Store(ctx, r.text, r.doc.InputType, r.result)
		}
		return stageDone
	}
	return stageDone
}

func (o *Orchestrator) cacheCheck(ctx context.Context, r *run) stage {
	if o.cache == nil {
		return stageBoundaryScan
	}
	cached, tier, ok := o.cache.Lookup(ctx, r.text, r.doc.InputType)
	if !ok {
		return stageBoundaryScan
	}
	r.result = cached
	r.meta.Mode = domain.ParseModeCache
	r.meta.CacheTier = tier
	r.meta.Approximate = tier.Approximate()
	r.meta.DetectedCount = cached.ProcessCount
	return stageDone
}

func (o *Orchestrator) boundaryScan(r *run) stage {
	r.detection = o.detector.Detect(r.text)
	r.meta.DetectedCount = r.detection.ProcessCount

	if r.detection.ProcessCount >= 2 && r.detection.HighConfidence {
		r.titles = r.detection.TitleStrings()
		r.meta.Mode = domain.ParseModeDirectMulti
		return stageMultiExtract
	}
	return stageAIDetect
}

func (o *Orchestrator) aiDetect(ctx context.Context, r *run) stage {
	truncated := segment.SmartTruncate(r.text, o.cfg.DetectionMaxChars, r.detection.TitleStrings())
	prompt := BuildDetectionPrompt(r.doc.InputType, truncated, r.detection)

	raw, err := o.send(ctx, DetectionSystemPrompt, prompt)
	var reply *domain.DetectionReply
	if err == nil {
		reply, err = normalizer.DecodeDetection(raw)
	}
	if err != nil {
		if ctx.Err() != nil {
			r.err = ctx.Err()
			return stageDone
		}
		log.Printf("pipeline.Orchestrator.aiDetect: detection failed, falling back to single: %v", err)
		r.meta.Mode = domain.ParseModeFallbackSingle
		return stageSingleExtract
	}

	log.Printf("pipeline.Orchestrator.aiDetect: multiple=%t count=%d confidence=%s titles=%q",
		reply.MultipleProcesses, reply.ProcessCount, reply.Confidence, reply.ProcessTitles)

	if reply.MultipleProcesses && reply.ProcessCount >= 2 {
		r.titles = reply.ProcessTitles
		r.meta.DetectedCount = reply.ProcessCount
		r.meta.Mode = domain.ParseModeAIMulti
		return stageMultiExtract
	}
	r.meta.Mode = domain.ParseModeSingle
	return stageSingleExtract
}

// multiExtract runs one extraction per title on a bounded pool. Each item
// writes only its own slot, so output order follows title order and one
// failure never cancels its siblings.
func (o *Orchestrator) multiExtract(ctx context.Context, r *run) stage {
	slots := make([]*domain.ParsedProcess, len(r.titles))
	errs := make([]error, len(r.titles))

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Concurrency)
	for i, title := range r.titles {
		g.Go(func() error {
			slots[i], errs[i] = o.extractProcess(ctx, r.text, title, r.titles)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.err = err
		return stageDone
	}

	var processes []domain.ParsedProcess
	var failed []string
	for i, p := range slots {
		if errs[i] != nil {
			log.Printf("pipeline.Orchestrator.multiExtract: skipping %q: %v", r.titles[i], errs[i])
			metrics.RecordExtractionFailure()
			failed = append(failed, r.titles[i])
			continue
		}
		processes = append(processes, *p)
	}

	if len(processes) == 0 {
		log.Printf("pipeline.Orchestrator.multiExtract: all %d extractions failed, falling back to single", len(r.titles))
		r.meta.Mode = domain.ParseModeFallbackSingle
		return stageSingleExtract
	}

	log.Printf("pipeline.Orchestrator.multiExtract: parsed %d/%d processes", len(processes), len(r.titles))
	r.meta.FailedTitles = failed
	r.result = &domain.ParseBatchResult{
		MultipleProcesses: true,
		ProcessCount:      len(processes),
		Processes:         processes,
	}
	return stageCacheWrite
}

func (o *Orchestrator) extractProcess(ctx context.Context, text, title string, allTitles []string) (*domain.ParsedProcess, error) {
	span := segment.Prefix(segment.ExtractSpan(text, title, allTitles), o.cfg.SpanMaxChars)
	raw, err := o.send(ctx, ProcessSystemPrompt, BuildProcessExtractionPrompt(title, span))
	if err != nil {
		return nil, err
	}
	return normalizer.DecodeProcess(raw)
}

// singleExtract always works on the full text of the request, capped to the
// extraction limit.
func (o *Orchestrator) singleExtract(ctx context.Context, r *run) stage {
	if r.meta.Mode == "" {
		r.meta.Mode = domain.ParseModeSingle
	}
	input := segment.SmartTruncate(r.text, o.cfg.ExtractionMaxChars, r.detection.TitleStrings())

	raw, err := o.send(ctx, SingleSystemPrompt, BuildSingleExtractionPrompt(r.doc.InputType, input))
	var p *domain.ParsedProcess
	if err == nil {
		p, err = normalizer.DecodeProcess(raw)
	}
	if err != nil {
		if ctx.Err() != nil {
			r.err = ctx.Err()
			return stageDone
		}
		log.Printf("pipeline.Orchestrator.singleExtract: %v", err)
		r.err = fmt.Errorf("%w: %w", domain.ErrPipelineExhausted, err)
		return stageDone
	}

	r.result = &domain.ParseBatchResult{
		MultipleProcesses: false,
		ProcessCount:      1,
		Processes:         []domain.ParsedProcess{*p},
	}
	return stageCacheWrite
}

// send applies the per-call deadline. The deadline is derived from the
// request context, so cancelling the request cancels the call.
func (o *Orchestrator) send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if o.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
	}
	out, err := o.gateway.Send(ctx, systemPrompt, userPrompt)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransport) {
		err = fmt.Errorf("%w: call timed out: %w", domain.ErrTransport, err)
	}
	return out, err
}
