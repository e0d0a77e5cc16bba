// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/pipeline"
)

const (
	serviceName = "resume-scorer"

	resumeField = "resume"
	jobField    = "jobDescription"
	// jobFieldAlias is accepted for clients of the older form.
	jobFieldAlias = "jd"
)

var allowedExtensions = []string{".pdf", ".docx", ".doc"}

// Analyzer is the pipeline surface used by the handlers.
type Analyzer interface {
	Analyze(ctx context.Context, upload pipeline.Upload, jobDescription string) (*pipeline.Result, error)
	ExtractText(ctx context.Context, upload pipeline.Upload) (*pipeline.Extraction, error)
	ProviderNames() []string
}

// Options configures the HTTP server.
type Options struct {
	BodyLimitMB int
	CORSOrigins string
	// RateLimit caps /analyze requests per client per minute. Zero disables it.
	RateLimit int
	Version   string
}

// Server wraps a fiber app serving the analysis endpoints.
type Server struct {
	app      *fiber.App
	analyzer Analyzer
	version  string
	logger   *zap.Logger
}

// New builds the app and registers its routes.
func New(opts Options, analyzer Analyzer, log *zap.Logger) *Server {
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 10
	}
	if strings.TrimSpace(opts.CORSOrigins) == "" {
		opts.CORSOrigins = "*"
	}

	s := &Server{
		analyzer: analyzer,
		version:  opts.Version,
		logger:   logger.OrNop(log),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               serviceName,
		BodyLimit:             opts.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{AllowOrigins: opts.CORSOrigins}))
	s.app.Use(s.requestLogger)

	analyzeHandlers := []fiber.Handler{}
	if opts.RateLimit > 0 {
		analyzeHandlers = append(analyzeHandlers, limiter.New(limiter.Config{
			Max:               opts.RateLimit,
			Expiration:        time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			LimitReached: func(c *fiber.Ctx) error {
				return fail(c, fiber.StatusTooManyRequests, "Too many requests", "")
			},
		}))
	}
	analyzeHandlers = append(analyzeHandlers, s.analyze)

	s.app.Get("/", s.health)
	s.app.Get("/health", s.health)
	s.app.Post("/analyze", analyzeHandlers...)
	s.app.Post("/extract-text", s.extractText)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	s.logger.Info("server started", zap.String("listen", addr), zap.Strings("providers", s.analyzer.ProviderNames()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down the server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}

type healthResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Providers []string `json:"providers"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Version:   s.version,
		Providers: s.analyzer.ProviderNames(),
	})
}

func (s *Server) analyze(c *fiber.Ctx) error {
	upload, err := readUpload(c)
	if err != nil {
		return failFor(c, err)
	}

	jd := c.FormValue(jobField)
	if strings.TrimSpace(jd) == "" {
		jd = c.FormValue(jobFieldAlias)
	}

	result, err := s.analyzer.Analyze(c.UserContext(), upload, jd)
	if err != nil {
		s.logFailure(c, err)
		return failFor(c, err)
	}

	return c.JSON(result)
}

func (s *Server) extractText(c *fiber.Ctx) error {
	upload, err := readUpload(c)
	if err != nil {
		return failFor(c, err)
	}

	result, err := s.analyzer.ExtractText(c.UserContext(), upload)
	if err != nil {
		s.logFailure(c, err)
		return failFor(c, err)
	}

	return c.JSON(result)
}

func (s *Server) logFailure(c *fiber.Ctx, err error) {
	kind := pipeline.KindOf(err)
	if kind.IsInputError() {
		s.logger.Info("request rejected", zap.String("path", c.Path()), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	s.logger.Error("request failed", zap.String("path", c.Path()), zap.String("kind", string(kind)), zap.Error(err))
}

func readUpload(c *fiber.Ctx) (pipeline.Upload, error) {
	header, err := c.FormFile(resumeField)
	if err != nil {
		return pipeline.Upload{}, pipeline.ErrNoFile
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(allowedExtensions, ext) {
		return pipeline.Upload{}, fmt.Errorf("%w. Allowed: %s", pipeline.ErrUnsupportedFormat, strings.Join(allowedExtensions, ", "))
	}

	file, err := header.Open()
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return pipeline.Upload{}, pipeline.ErrNoFile
	}

	return pipeline.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
