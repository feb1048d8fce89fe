// Package pipeline wires template loading, claim extraction, claim-text
// parsing and affidavit generation into the single flow shared by the
// CLI, the HTTP function and the MCP server.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
	"github.com/GMettam/batch-affidavit-web/internal/cache"
	"github.com/GMettam/batch-affidavit-web/internal/forms"
	"github.com/GMettam/batch-affidavit-web/internal/gpc"
	"github.com/GMettam/batch-affidavit-web/internal/llm"
	"github.com/GMettam/batch-affidavit-web/internal/model"
	"github.com/GMettam/batch-affidavit-web/internal/worker"
)

// Pipeline orchestrates extraction and generation
type Pipeline struct {
	generator *affidavit.Generator
	extractor *llm.Extractor // never nil; disabled when no provider is configured
	logger    *zap.Logger
}

// New builds a pipeline from configuration. An unreadable template or an
// unknown LLM provider is an error; an unset provider only disables Extract.
func New(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	template, err := forms.Load(cfg.Template.Path)
	if err != nil {
		return nil, err
	}
	gen := affidavit.NewGenerator(template, affidavit.OptionsFromConfig(cfg.Template), logger)

	llmConfig := llm.ConfigFromModel(cfg.LLM)
	provider, err := llm.NewProvider(llmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}

	opts := []llm.ExtractorOption{
		llm.WithLogger(logger),
		llm.WithRateLimiter(newLimiter(cfg.RateLimiting)),
	}
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, llm.WithCache(c, cfg.Cache.DiskTTL))
	}

	return NewWithParts(gen, llm.NewExtractor(provider, llmConfig.Model, opts...), logger), nil
}

// newLimiter builds the provider limiter with any per-provider overrides.
func newLimiter(cfg model.RateLimitingConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for name, r := range cfg.Providers {
		limiter.SetRate(name, r.RequestsPerSecond, r.BurstSize)
	}
	return limiter
}

// NewWithParts assembles a pipeline from prebuilt parts. extractor may be nil.
func NewWithParts(gen *affidavit.Generator, extractor *llm.Extractor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = llm.NewExtractor(nil, "")
	}
	return &Pipeline{generator: gen, extractor: extractor, logger: logger}
}

// CanExtract reports whether claim text can be turned into a case record.
func (p *Pipeline) CanExtract() bool {
	return p.extractor.Enabled()
}

// Extract builds a case record from claim text. The text is kept on the
// record so Generate can fill the registry and lodgement sections from it.
func (p *Pipeline) Extract(ctx context.Context, name, text string) (*model.CaseRecord, error) {
	rec, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	rec.GPCText = text
	p.logger.Debug("Extracted case",
		zap.String("claim", name),
		zap.String("case_number", rec.CaseNumber),
		zap.Strings("defendants", rec.DefendantNames()),
	)
	return rec, nil
}

// Lodgement parses the registry, lodgement date and law firm out of the
// record's claim text. It returns nil when the record carries no text.
func (p *Pipeline) Lodgement(rec *model.CaseRecord) *model.Lodgement {
	if rec.GPCText == "" {
		return nil
	}
	l := gpc.Parse(rec.GPCText)
	return &l
}

// Generate validates rec and fills the affidavit template.
func (p *Pipeline) Generate(ctx context.Context, rec model.CaseRecord) (*affidavit.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec.Normalize()
	if err := affidavit.Validate(&rec, affidavit.ScriptRequiredFields); err != nil {
		return nil, err
	}
	return p.generator.Generate(rec, p.Lodgement(&rec))
}

// ProcessClaim extracts a record from claim text and generates its
// affidavit, serving the first defendant.
func (p *Pipeline) ProcessClaim(ctx context.Context, name, text string) (*model.CaseRecord, *affidavit.Result, error) {
	rec, err := p.Extract(ctx, name, text)
	if err != nil {
		return nil, nil, err
	}

	res, err := p.Generate(ctx, *rec)
	if err != nil {
		return rec, nil, fmt.Errorf("generate %s: %w", name, err)
	}
	return rec, res, nil
}

var _ worker.Source = (*Pipeline)(nil)
