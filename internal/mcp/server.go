// Package mcp implements the stdio JSON-RPC tool surface. Messages are
// newline-delimited JSON-RPC 2.0; every tool response is an envelope with
// analysis metadata and the structured error taxonomy.
package mcp

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"refx/internal/analysis"
	"refx/internal/audit"
	"refx/internal/batch"
	"refx/internal/buildgate"
	"refx/internal/cache"
	"refx/internal/config"
	"refx/internal/refactor"
)

// Server is the stdio tool server.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *slog.Logger
	version string

	cfg          *config.Config
	analysis     *analysis.Service
	engine       *refactor.Engine
	orchestrator *batch.Orchestrator
	gate         *buildgate.Gate
	buildCache   *cache.BuildCache
	auditLog     *audit.Log

	tools map[string]ToolHandler
}

// Options carries the server's collaborators. Gate, BuildCache, and AuditLog
// are optional; a nil gate disables semantic-tier analysis and pre-flight
// validation, a nil cache disables build-result reuse, a nil audit log
// records nothing.
type Options struct {
	Config     *config.Config
	Gate       *buildgate.Gate
	BuildCache *cache.BuildCache
	AuditLog   *audit.Log
}

// NewServer creates a tool server reading stdin and writing stdout.
func NewServer(version string, opts Options, logger *slog.Logger) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	auditLog := opts.AuditLog
	if auditLog == nil {
		auditLog = audit.Disabled()
	}

	engine := refactor.NewEngine(logger)
	s := &Server{
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		logger:       logger,
		version:      version,
		cfg:          cfg,
		analysis:     analysis.NewService(opts.Gate, cfg.Limits, logger),
		engine:       engine,
		orchestrator: batch.NewOrchestrator(engine, logger),
		gate:         opts.Gate,
		buildCache:   opts.BuildCache,
		auditLog:     auditLog,
		tools:        make(map[string]ToolHandler),
	}
	s.registerTools()
	return s
}

// Start runs the message loop until stdin closes or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("server starting", "version", s.version)

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("server shutting down", "reason", err)
			return nil
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("server shutting down (EOF)")
				return nil
			}
			if err == errMalformed {
				s.logger.Error("skipping malformed message")
				_ = s.writeError(nil, ParseError, err.Error())
				continue
			}
			s.logger.Error("stdin read failed", "error", err)
			return err
		}

		response := s.handleMessage(ctx, msg)
		if response != nil {
			if err := s.writeMessage(response); err != nil {
				s.logger.Error("error writing response", "error", err)
			}
		}
	}
}

// SetStdin sets the input stream (for testing).
func (s *Server) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout sets the output stream (for testing).
func (s *Server) SetStdout(w io.Writer) {
	s.stdout = w
}
