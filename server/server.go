// Package server exposes clause analysis over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	clausescan "github.com/clausescan/clausescan-go"
	"github.com/clausescan/clausescan-go/core"
	"github.com/clausescan/clausescan-go/store"
)

// Server provides the analysis HTTP endpoints
type Server struct {
	echo    *echo.Echo
	rules   *core.RuleManager
	history *store.AnalysisStore
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration
type Config struct {
	Host string
	Port int

	// MaxDocumentBytes caps the accepted document size. Scanning is bounded
	// by input length, so the cap is the backstop against oversized bodies.
	MaxDocumentBytes int
}

// DefaultMaxDocumentBytes caps documents at 1 MiB unless configured otherwise
const DefaultMaxDocumentBytes = 1 << 20

// NewServer creates a new analysis server. The history store is optional;
// when nil, analyses are served without being recorded.
func NewServer(rules *core.RuleManager, history *store.AnalysisStore, logger *zap.Logger, cfg *Config) (*Server, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule manager cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5001,
		}
	}
	if cfg.MaxDocumentBytes == 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		rules:   rules,
		history: history,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/analyze-clauses", s.handleAnalyzeClauses)
	s.echo.GET("/analyses", s.handleRecentAnalyses)
}

// AnalyzeRequest is the request body for POST /analyze-clauses
type AnalyzeRequest struct {
	DocumentText string   `json:"document_text"`
	ClauseTypes  []string `json:"clause_types"`
}

// ErrorResponse is the failure body; detected_clauses stays an empty list so
// clients can render it uniformly
type ErrorResponse struct {
	Error           string       `json:"error"`
	DetectedClauses []core.Match `json:"detected_clauses"`
}

// HealthResponse is the response body for GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// AnalysisSummary is one entry in the GET /analyses listing
type AnalysisSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Categories    []string  `json:"categories"`
	TotalFound    int       `json:"total_found"`
	Returned      int       `json:"returned"`
	Truncated     bool      `json:"truncated"`
	DocumentBytes int       `json:"document_bytes"`
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: clausescan.Version,
	})
}

// handleAnalyzeClauses scans the submitted document for the requested clause
// categories. Zero matches is a normal success with an empty list.
func (s *Server) handleAnalyzeClauses(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.DocumentText == "" {
		return errorJSON(c, http.StatusBadRequest, "no document text provided")
	}

	if len(req.DocumentText) > s.config.MaxDocumentBytes {
		return errorJSON(c, http.StatusBadRequest,
			fmt.Sprintf("document exceeds maximum size of %d bytes", s.config.MaxDocumentBytes))
	}

	// An empty clause_types list scans nothing and succeeds with zero
	// matches, same as any other scan that finds nothing.
	categories := req.ClauseTypes
	rules := s.rules.Active()

	start := time.Now()
	result := core.NewDetector(rules).Detect(req.DocumentText, categories)
	duration := time.Since(start)

	s.logger.Debug("document analyzed",
		zap.Strings("categories", categories),
		zap.Int("total_found", result.TotalFound),
		zap.Int("returned", len(result.Matches)),
		zap.Duration("duration", duration),
	)

	s.recordAnalysis(&store.Analysis{
		Categories:    categories,
		TotalFound:    result.TotalFound,
		Returned:      len(result.Matches),
		Truncated:     result.Truncated(),
		DocumentBytes: len(req.DocumentText),
		Duration:      duration,
	})

	return c.JSON(http.StatusOK, result)
}

// handleRecentAnalyses lists recent analysis records, newest first
func (s *Server) handleRecentAnalyses(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "analysis history is not enabled")
	}

	analyses, err := s.history.Recent(50)
	if err != nil {
		s.logger.Error("failed to list analyses", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list analyses")
	}

	summaries := make([]AnalysisSummary, 0, len(analyses))
	for _, a := range analyses {
		summaries = append(summaries, AnalysisSummary{
			ID:            a.ID,
			CreatedAt:     a.CreatedAt,
			Categories:    a.Categories,
			TotalFound:    a.TotalFound,
			Returned:      a.Returned,
			Truncated:     a.Truncated,
			DocumentBytes: a.DocumentBytes,
		})
	}

	return c.JSON(http.StatusOK, summaries)
}

// recordAnalysis stores an analysis record, best effort: a store failure is
// logged but never fails the analysis response
func (s *Server) recordAnalysis(a *store.Analysis) {
	if s.history == nil {
		return
	}

	if err := s.history.Record(a); err != nil {
		s.logger.Warn("failed to record analysis", zap.Error(err))
	}
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{
		Error:           message,
		DetectedClauses: []core.Match{},
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
