// Package pipeline runs a resume against a job description through every
// configured LLM provider and merges their verdicts.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/analysis"
	"github.com/spigell/resume-scorer/internal/extract"
	"github.com/spigell/resume-scorer/internal/harvest"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/prompt"
)

const (
	DefaultTimeout       = 90 * time.Second
	DefaultMinTextLength = 50
	DefaultPreviewLength = 1000
	DefaultMaxLogLength  = 200
)

// Store keeps a copy of the uploaded document.
type Store interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// Extractor turns a document into text.
type Extractor interface {
	Extract(data []byte, format extract.Format) (string, error)
}

// Fetcher returns the combined text of the given pages.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) string
}

// Options tunes the pipeline. Zero values fall back to the defaults.
type Options struct {
	Timeout       time.Duration
	MinTextLength int
	PreviewLength int
	MaxLogLength  int
}

// Deps aggregates the collaborators used by the pipeline. Store and Fetcher are optional.
type Deps struct {
	Providers []ai.Provider
	Store     Store
	Extractor Extractor
	Fetcher   Fetcher
	Logger    *zap.Logger
}

// Upload is a resume document as received from the caller.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Pipeline analyzes resumes. It is safe for concurrent use.
type Pipeline struct {
	opts Options
	deps Deps
	log  *zap.Logger
}

// New returns a Pipeline. A nil Extractor is replaced by extract.New().
func New(opts Options, deps Deps) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = DefaultMinTextLength
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = DefaultMaxLogLength
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New()
	}

	return &Pipeline{
		opts: opts,
		deps: deps,
		log:  logger.OrNop(deps.Logger),
	}
}

// ProviderNames lists the configured providers in query order.
func (p *Pipeline) ProviderNames() []string {
	names := make([]string, 0, len(p.deps.Providers))
	for _, provider := range p.deps.Providers {
		names = append(names, provider.Name())
	}
	return names
}

// Analyze scores the resume against jobDescription with every provider.
// Individual provider failures never fail the call; they only shrink the
// consensus.
func (p *Pipeline) Analyze(ctx context.Context, upload Upload, jobDescription string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("analysis panicked", zap.Any("panic", r), zap.Stack("stack"))
			result, err = nil, ErrInternal
		}
	}()

	format, err := validate(upload, jobDescription)
	if err != nil {
		return nil, err
	}
	if len(p.deps.Providers) == 0 {
		return nil, ErrUpstreamUnavailable
	}

	start := time.Now()
	hash := sha256.Sum256(upload.Data)
	log := logger.WithFields(p.log, zap.String(logger.FieldResumeHash, hex.EncodeToString(hash[:])))
	result = &Result{ResumeHash: hex.EncodeToString(hash[:])}

	result.ResumeURL, result.Warnings = p.store(ctx, log, upload, format)

	text, err := p.text(log, upload.Data, format)
	if err != nil {
		return nil, err
	}

	links := harvest.Links(text)
	log.Info("harvested external links", zap.Int("count", len(links)))

	external := ""
	if p.deps.Fetcher != nil && len(links) > 0 {
		external = p.deps.Fetcher.Fetch(ctx, links)
	}

	promptText := prompt.Build(prompt.Request{
		ResumeText:      text,
		JobDescription:  jobDescription,
		ExternalContent: external,
	})
	log.Debug("prompt built",
		zap.Int("length", utf8.RuneCountInString(promptText)),
		zap.String("preview", logger.TruncateForLog(promptText, p.opts.MaxLogLength)),
	)

	parsed := p.fanOut(ctx, log, promptText)
	report := analysis.Aggregate(parsed)

	log.Info("analysis finished",
		zap.Int("llm_count", report.LLMCount),
		zap.Int("providers", len(parsed)),
		zap.Duration("elapsed", time.Since(start)),
	)

	result.Success = true
	result.Analysis = report
	result.ExtractedText = preview(text, p.opts.PreviewLength)
	result.ExternalLinks = links
	return result, nil
}

// ExtractText returns the full document text and the links found in it.
func (p *Pipeline) ExtractText(_ context.Context, upload Upload) (*Extraction, error) {
	if len(upload.Data) == 0 {
		return nil, ErrNoFile
	}
	format, err := extract.DetectFormat(upload.Name, upload.ContentType)
	if err != nil {
		return nil, err
	}

	text, err := p.text(p.log, upload.Data, format)
	if err != nil {
		return nil, err
	}

	return &Extraction{
		Success:       true,
		Text:          text,
		Length:        utf8.RuneCountInString(text),
		WordCount:     len(strings.Fields(text)),
		ExternalLinks: harvest.Links(text),
	}, nil
}

func validate(upload Upload, jobDescription string) (extract.Format, error) {
	if len(upload.Data) == 0 {
		return "", ErrNoFile
	}
	if strings.TrimSpace(jobDescription) == "" {
		return "", ErrNoJobDescription
	}
	return extract.DetectFormat(upload.Name, upload.ContentType)
}

func (p *Pipeline) store(ctx context.Context, log *zap.Logger, upload Upload, format extract.Format) (string, []string) {
	if p.deps.Store == nil {
		return "", nil
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = format.ContentType()
	}

	url, err := p.deps.Store.Store(ctx, upload.Data, contentType)
	if err != nil {
		log.Warn("storing resume failed, continuing without a copy", zap.Error(err))
		return "", []string{"resume could not be stored"}
	}

	log.Info("resume stored", zap.String(logger.FieldURL, url))
	return url, nil
}

func (p *Pipeline) text(log *zap.Logger, data []byte, format extract.Format) (string, error) {
	text, err := p.deps.Extractor.Extract(data, format)
	if err != nil {
		log.Warn("text extraction failed", zap.String("format", string(format)), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < p.opts.MinTextLength {
		log.Warn("extracted text is too short", zap.Int("length", n), zap.Int("minimum", p.opts.MinTextLength))
		return "", fmt.Errorf("%w: got %d characters, need at least %d", ErrExtractionFailed, n, p.opts.MinTextLength)
	}

	log.Info("text extracted", zap.String("format", string(format)), zap.Int("length", utf8.RuneCountInString(text)))
	return text, nil
}

// fanOut queries every provider concurrently under the pipeline timeout. The
// result slice follows provider order; entries are nil for failed providers.
func (p *Pipeline) fanOut(ctx context.Context, log *zap.Logger, promptText string) []*analysis.Parsed {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	results := make([]*analysis.Parsed, len(p.deps.Providers))

	var g errgroup.Group
	for i, provider := range p.deps.Providers {
		g.Go(func() error {
			plog := logger.WithProvider(log, provider.Name(), provider.Model())

			reply := ai.Query(ctx, provider, promptText)
			if !reply.OK() {
				plog.Warn("provider failed", zap.Error(reply.Err), zap.Duration("elapsed", reply.Elapsed))
				return nil
			}

			plog.Debug("provider replied",
				zap.Duration("elapsed", reply.Elapsed),
				zap.String("preview", logger.TruncateForLog(reply.Text, p.opts.MaxLogLength)),
			)

			if issues := analysis.Conformance(reply.Text); len(issues) > 0 {
				plog.Debug("reply deviates from the output contract", zap.Strings("issues", issues))
			}

			parsed := analysis.Parse(reply.Text)
			if parsed == nil {
				plog.Warn("reply could not be parsed",
					zap.String("preview", logger.TruncateForLog(reply.Text, p.opts.MaxLogLength)),
				)
				return nil
			}

			results[i] = parsed
			return nil
		})
	}
	_ = g.Wait()

	return results
}
