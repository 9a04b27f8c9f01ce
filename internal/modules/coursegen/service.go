package coursegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/coursegen-backend/internal/cache"
	"github.com/yungbote/coursegen-backend/internal/data/repos"
	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/enrich"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/ingestion"
	"github.com/yungbote/coursegen-backend/internal/observability"
	"github.com/yungbote/coursegen-backend/internal/platform/apierr"
	"github.com/yungbote/coursegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursegen-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/coursegen-backend/coursegen"

type UploadedFile struct {
	Name string
	Data []byte
}

type GenerateInput struct {
	Documents    []domain.Document
	Files        []UploadedFile
	Settings     domain.GenerationSettings
	ActiveNormID string
	Seed         *int64
	// Enrich requests the optional enhancement pass when an enhancer is configured.
	Enrich   bool
	Progress ProgressFunc
}

type ServiceDeps struct {
	Log       *logger.Logger
	Generator *Generator
	// Optional collaborators. Without a Cache, Runs doubles as the result
	// store: the latest deterministic run for the same input digest is reused.
	Cache         cache.ResultCache
	CacheTTL      time.Duration
	Runs          repos.GenerationRunRepo
	Enhancer      enrich.Enhancer
	EnrichOptions enrich.Options
	Metrics       *observability.Metrics
	Clock         func() time.Time
	NewID         func() string
}

type Service struct {
	log       *logger.Logger
	gen       *Generator
	cache     cache.ResultCache
	cacheTTL  time.Duration
	runs      repos.GenerationRunRepo
	enhancer  enrich.Enhancer
	enrichOpt enrich.Options
	metrics   *observability.Metrics
	now       func() time.Time
	newID     func() string
	tracer    trace.Tracer
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Log == nil || deps.Generator == nil {
		return nil, fmt.Errorf("coursegen: missing deps")
	}
	s := &Service{
		log:       deps.Log.With("service", "CourseGenService"),
		gen:       deps.Generator,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		runs:      deps.Runs,
		enhancer:  deps.Enhancer,
		enrichOpt: deps.EnrichOptions,
		metrics:   deps.Metrics,
		now:       deps.Clock,
		newID:     deps.NewID,
		tracer:    otel.Tracer(tracerName),
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.enrichOpt == (enrich.Options{}) {
		s.enrichOpt = enrich.DefaultOptions()
	}
	return s, nil
}

// Generate extracts uploaded files, runs the deterministic pipeline (or serves
// it from cache), then optionally enriches. Only extraction errors and
// cancellation before the pipeline starts are returned.
// Calls without ctxutil.TraceData get fresh ids so every log line and history
// row of one generation shares a request id.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*domain.GenerationResult, error) {
	ctx, span := s.tracer.Start(ctx, "coursegen.Generate")
	defer span.End()
	ctx, td := ctxutil.EnsureTraceData(ctx, ctxutil.OriginInternal)
	span.SetAttributes(td.Attributes()...)
	log := s.log.With(td.LogFields()...)
	started := time.Now()
	progress := newProgressReporter(in.Progress, 0)

	docs, err := s.extract(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract")
		s.metrics.ObserveGeneration("error", time.Since(started), 0, 0)
		log.Warn("extraction failed", "files", len(in.Files), "error", err)
		return nil, err
	}
	progress.Update("extract", ProgressExtract, "documents extraits")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings := in.Settings.Normalized()
	key := cache.Digest(docs, settings, in.ActiveNormID, in.Seed)
	span.SetAttributes(
		attribute.Int("coursegen.documents", len(docs)),
		attribute.String("coursegen.norm_id", in.ActiveNormID),
		attribute.String("coursegen.input_digest", key),
	)

	progress.Update("analyze", ProgressAnalyze, "analyse du contenu")
	res := s.cached(ctx, log, key)
	if res == nil {
		_, pspan := s.tracer.Start(ctx, "coursegen.pipeline")
		res = s.gen.Generate(Request{
			Documents:    docs,
			Settings:     in.Settings,
			ActiveNormID: in.ActiveNormID,
			Seed:         in.Seed,
		})
		pspan.SetAttributes(
			attribute.Int("coursegen.sections", res.ProcessingStats.SectionsGenerated),
			attribute.Int("coursegen.norm_rules_used", res.NormRulesUsed),
		)
		pspan.End()
		s.store(ctx, log, key, res)
	}
	progress.Update("generate", ProgressGenerate, "cours généré")

	if in.Enrich && s.enhancer != nil {
		s.enrich(ctx, log, res)
		progress.Update("enrich", ProgressEnrich, "enrichissement terminé")
	}

	res.ProcessingStats.ProcessingTimeMs = time.Since(started).Milliseconds()
	s.metrics.ObserveGeneration("ok", time.Since(started), res.ProcessingStats.SectionsGenerated, res.NormRulesUsed)
	s.persist(ctx, log, td, key, settings, in.ActiveNormID, res)
	progress.Update("done", ProgressDone, "terminé")

	log.Info("course generated",
		"course_id", res.Course.ID,
		"sections", res.ProcessingStats.SectionsGenerated,
		"questions", res.ProcessingStats.QuestionsGenerated,
		"norm_rules_used", res.NormRulesUsed,
		"cache_hit", res.ProcessingStats.CacheHit,
		"generated_with_ai", res.GeneratedWithAI,
		"ms", res.ProcessingStats.ProcessingTimeMs,
	)
	return res, nil
}

func (s *Service) extract(ctx context.Context, in GenerateInput) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(in.Documents)+len(in.Files))
	docs = append(docs, in.Documents...)
	if len(in.Files) == 0 {
		return docs, nil
	}
	ctx, span := s.tracer.Start(ctx, "coursegen.extract")
	defer span.End()
	now := s.now()
	for _, f := range in.Files {
		d, err := ingestion.NewDocument(ctx, f.Name, f.Data, now)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// cached returns a re-stamped copy of an earlier result for the same digest,
// or nil. The result cache is authoritative when configured.
func (s *Service) cached(ctx context.Context, log *logger.Logger, key string) *domain.GenerationResult {
	var res *domain.GenerationResult
	if s.cache != nil {
		hit, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("result cache get failed", "error", err)
			return nil
		}
		s.metrics.IncCacheLookup(ok && hit != nil)
		if !ok || hit == nil {
			return nil
		}
		res = hit
	} else {
		res = s.fromHistory(ctx, log, key)
		if res == nil {
			return nil
		}
	}
	now := s.now()
	res.Course.ID = s.newID()
	res.Course.GeneratedAt = now
	res.Course.LastModified = now
	for i := range res.Course.Modules {
		res.Course.Modules[i].CreatedAt = now
		res.Course.Modules[i].UpdatedAt = now
	}
	res.Course.Content.EnsureNonNil()
	res.ProcessingStats.CacheHit = true
	res.GeneratedWithAI = false
	res.ProcessingStats.EnrichedSections = 0
	return res
}

// fromHistory decodes the latest persisted run for key. Enriched runs are
// skipped: their explanations are no longer the deterministic output.
func (s *Service) fromHistory(ctx context.Context, log *logger.Logger, key string) *domain.GenerationResult {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.GetLatestByDigest(ctx, nil, key)
	if err != nil {
		log.Warn("history lookup failed", "error", err)
		return nil
	}
	if run == nil || run.GeneratedWithAI || len(run.Result) == 0 {
		return nil
	}
	var res domain.GenerationResult
	if err := json.Unmarshal(run.Result, &res); err != nil {
		log.Warn("decode stored run failed", "run_id", run.ID, "error", err)
		return nil
	}
	log.Debug("reusing stored run", "run_id", run.ID)
	return &res
}

func (s *Service) store(ctx context.Context, log *logger.Logger, key string, res *domain.GenerationResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
		log.Warn("result cache set failed", "error", err)
	}
}

// enrich replaces the course only after a successful pass; failures are logged.
func (s *Service) enrich(ctx context.Context, log *logger.Logger, res *domain.GenerationResult) {
	ctx, span := s.tracer.Start(ctx, "coursegen.enrich")
	defer span.End()

	out := enrich.Enrich(ctx, s.enhancer, res.Course, s.enrichOpt)
	if out.Err != nil {
		span.RecordError(out.Err)
		log.Warn("enrichment incomplete", "course_id", res.Course.ID, "enhanced", out.EnhancedSections, "error", out.Err)
	}
	if out.EnhancedSections == 0 {
		s.metrics.IncEnrichment("failed")
		return
	}
	if out.Err != nil {
		s.metrics.IncEnrichment("partial")
	} else {
		s.metrics.IncEnrichment("enriched")
	}
	res.Course = out.Course
	res.Course.LastModified = s.now()
	res.GeneratedWithAI = true
	res.ProcessingStats.EnrichedSections = out.EnhancedSections
	span.SetAttributes(attribute.Int("coursegen.enriched_sections", out.EnhancedSections))
}

func (s *Service) persist(ctx context.Context, log *logger.Logger, td *ctxutil.TraceData, key string, settings domain.GenerationSettings, normID string, res *domain.GenerationResult) {
	if s.runs == nil {
		return
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		log.Warn("encode settings failed", "error", err)
		return
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		log.Warn("encode result failed", "error", err)
		return
	}
	now := s.now()
	run := &domain.GenerationRun{
		CourseID:         res.Course.ID,
		Title:            res.Course.Title,
		ActiveNormID:     normID,
		InputDigest:      key,
		RequestID:        td.RequestID,
		Origin:           string(td.Origin),
		Settings:         datatypes.JSON(settingsJSON),
		Result:           datatypes.JSON(resultJSON),
		NormRulesUsed:    res.NormRulesUsed,
		GeneratedWithAI:  res.GeneratedWithAI,
		ProcessingTimeMs: res.ProcessingStats.ProcessingTimeMs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	// persistence must not fail a generation that already succeeded
	if _, err := s.runs.Create(context.WithoutCancel(ctx), nil, []*domain.GenerationRun{run}); err != nil {
		log.Warn("persist generation run failed", "course_id", res.Course.ID, "error", err)
	}
}

var errHistoryDisabled = apierr.New(http.StatusServiceUnavailable, "history_disabled", fmt.Errorf("generation history is not configured"))

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*domain.GenerationRun, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled
	}
	run, err := s.runs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get generation run: %w", err)
	}
	if run == nil {
		return nil, apierr.New(http.StatusNotFound, "generation_not_found", fmt.Errorf("generation %s not found", id))
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]*domain.GenerationRun, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled
	}
	runs, err := s.runs.List(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}
