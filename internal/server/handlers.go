package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/ai-DevOmer/stager/internal"
	"github.com/ai-DevOmer/stager/internal/manifest"
	"github.com/ai-DevOmer/stager/internal/pipeline"
	"github.com/ai-DevOmer/stager/internal/protocol"
)

// Handles a build command.
//
// Loads the referenced manifest and executes the pipeline against the
// container runtime. The manifest path is resolved on the daemon host;
// client and daemon share a filesystem.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, requestID string, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	pipe, err := manifest.Load(req.Manifest)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	slog.Info("build started",
		"request", requestID,
		"pipeline", pipe.Name,
		"manifest", req.Manifest,
	)

	result, err := pipeline.Run(ctx, s.runtime, pipeline.Options{
		Pipeline: pipe,
		Output:   req.Output,
		Root:     req.Root,
		Platform: req.Platform,
	})
	if err != nil {
		slog.Error("build failed", "request", requestID, "error", err)
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.builds++
	s.mu.Unlock()

	slog.Info("build finished", "request", requestID, "output", result.Output)
	s.respond(conn, protocol.CmdOK, &protocol.BuildResult{Output: result.Output})
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Truncate(time.Second)

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running: true,
		Version: internal.VersionString(),
		Pid:     os.Getpid(),
		Uptime:  uptime.String(),
		Builds:  builds,
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go func() {
		s.Stop()
	}()
}
