package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/auth"
	"github.com/agenthub/agenthub-api/internal/config"
	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/facade"
	"github.com/agenthub/agenthub-api/internal/mcp/tools"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

const serverName = "agenthub-api"
const serverVersion = "1.0.0"
const protocolVersion = "2025-03-26"

// Server is the JSON-RPC tool dispatcher: it authenticates each caller,
// scopes the request to that principal, routes tools/call to the facades,
// and shapes every outcome as a standard response.
type Server struct {
	cfg        *config.Config
	verifier   *auth.Verifier
	facades    *facade.Service
	store      repository.Store
	registry   *tools.Registry
	limiter    *RateLimiter
	hub        *notify.Hub
	httpServer *http.Server
}

// NewServer wires the dispatcher and builds the registry from the tool
// catalog with the feature toggles applied.
func NewServer(cfg *config.Config, verifier *auth.Verifier, facades *facade.Service, store repository.Store, hub *notify.Hub) *Server {
	registry, err := tools.NewRegistry(tools.Catalog(cfg.DisabledTools))
	if err != nil {
		// The catalog is static; a bad entry is a programming error.
		log.Panic().Err(err).Msg("invalid tool catalog")
	}

	return &Server{
		cfg:      cfg,
		verifier: verifier,
		facades:  facades,
		store:    store,
		registry: registry,
		limiter:  NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		hub:      hub,
	}
}

// Registry exposes the tool registry (capability reporting, tests).
func (s *Server) Registry() *tools.Registry { return s.registry }

// Routes builds the HTTP surface: one JSON-RPC endpoint, an SSE stream,
// and unauthenticated liveness probes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/rpc", s.handleRPC)
	r.Get("/events", s.handleEvents)

	log.Info().Msg("HTTP routes registered")
	return r
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Routes(),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is intentionally omitted to support long-lived SSE
		// connections.
	}
	log.Info().Str("addr", addr).Msg("starting server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// bearerToken extracts the credential from Authorization or the legacy
// X-API-Token header.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Token")
}

// authenticate resolves the principal. An absent token yields (nil, nil)
// so unauthenticated liveness tools can run; an invalid token is an error.
func (s *Server) authenticate(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	principal, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	// Record the externally-sourced identity so ownership rows can
	// reference it.
	if err := s.store.Users().Upsert(ctx, principal.UserID, principal.Email, principal.Roles); err != nil {
		return nil, err
	}
	return principal, nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if v := r.Header.Get("MCP-Protocol-Version"); v != "" && v != protocolVersion && v != "2024-11-05" {
		log.Ctx(ctx).Debug().Str("protocol_version", v).Msg("client requested unknown protocol version")
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, nil, ParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		s.sendError(w, req.ID, InvalidRequest, "invalid jsonrpc version")
		return
	}

	principal, err := s.authenticate(ctx, r)
	if err != nil {
		// A presented-but-invalid credential short-circuits every method.
		resp := tools.FromError(err, CorrelationID(ctx))
		s.sendToolResult(w, req.ID, resp)
		return
	}
	if principal != nil {
		ctx = auth.WithPrincipal(ctx, principal)
	}

	switch req.Method {
	case "initialize":
		s.sendResult(w, req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": serverName, "version": serverVersion},
		})

	case "ping":
		s.sendResult(w, req.ID, map[string]any{"status": "ok"})

	case "tools/list":
		s.sendResult(w, req.ID, map[string]any{"tools": s.registry.List()})

	case "tools/call":
		s.handleToolCall(w, ctx, &req, principal)

	default:
		s.sendError(w, req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleToolCall(w http.ResponseWriter, ctx context.Context, req *JSONRPCRequest, principal *auth.Principal) {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		s.sendError(w, req.ID, InvalidParams, "invalid tool call parameters")
		return
	}

	correlationID := CorrelationID(ctx)
	logger := log.Ctx(ctx).With().Str("tool", params.Name).Logger()
	if principal != nil {
		logger = logger.With().Str("user_id", principal.UserID).Logger()

		if allowed, retryAfter := s.limiter.Allow(principal.UserID); !allowed {
			seconds := int(retryAfter.Seconds()) + 1
			s.sendToolResult(w, req.ID, tools.FromError(domain.RateLimited(seconds), correlationID))
			return
		}
	}

	// Each request carries a deadline; expiry surfaces as a timeout error.
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	tc := &tools.Context{
		Principal:     principal,
		Facades:       s.facades,
		Logger:        &logger,
		CorrelationID: correlationID,
		ToolNames:     s.registry.Names(),
	}

	resp, ok := s.registry.Call(callCtx, tc, params.Name, params.Arguments)
	if !ok {
		s.sendError(w, req.ID, MethodNotFound, fmt.Sprintf("tool not found: %s", params.Name))
		return
	}
	if callCtx.Err() == context.DeadlineExceeded {
		resp = tools.FromError(domain.Timeout(), correlationID)
	}

	if !resp.Success {
		logger.Warn().Str("error_code", resp.ErrorCode).Str("message", resp.Message).Msg("tool call failed")
	}
	s.sendToolResult(w, req.ID, resp)
}

// handleEvents streams the caller's change notifications over SSE.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := s.authenticate(ctx, r)
	if err != nil || principal == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := s.hub.Subscribe(principal.UserID)
	defer cancel()

	log.Ctx(ctx).Info().Str("user_id", principal.UserID).Msg("event stream established")

	eventID := 0
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info().Str("user_id", principal.UserID).Msg("event stream closed")
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			eventID++
			fmt.Fprintf(w, "event: %s\n", ev.Name)
			fmt.Fprintf(w, "id: %d\n", eventID)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// sendToolResult wraps a standard response in MCP content format.
func (s *Server) sendToolResult(w http.ResponseWriter, id json.RawMessage, resp *tools.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.sendError(w, id, InternalError, "failed to serialize tool result")
		return
	}
	s.sendResult(w, id, CallResult{
		Content: []ContentBlock{{Type: "text", Text: string(payload)}},
		IsError: !resp.Success,
	})
}

func (s *Server) sendResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  mustMarshal(result),
	})
}

func (s *Server) sendError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // JSON-RPC errors are still HTTP 200
	json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
