package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/gemini-vision-mcp/internal/config"
	"github.com/ironsheep/gemini-vision-mcp/internal/gateway"
)

const (
	serverName      = "gemini-vision"
	protocolVersion = "2024-11-05"
)

// ImageAnalyzer is the model backend used by the analyze_image tool.
// *gateway.Client implements it.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error)
}

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	analyzer ImageAnalyzer
	version  string

	// tools holds handlers by name; order preserves registration order
	// for tools/list.
	tools map[string]toolEntry
	order []string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported in serverInfo.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithAnalyzer replaces the gateway client built from the config.
func WithAnalyzer(a ImageAnalyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// New creates a server from a loaded configuration. The gateway client is
// built here, so a missing API key fails before any request is served.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		version: "dev",
		tools:   make(map[string]toolEntry),
	}
	for _, o := range opts {
		o(s)
	}

	if s.analyzer == nil {
		client, err := gateway.New(cfg.APIKey,
			gateway.WithBaseURL(cfg.BaseURL),
			gateway.WithModel(cfg.Model),
			gateway.WithDebug(cfg.Debug()),
		)
		if err != nil {
			return nil, err
		}
		s.analyzer = client
	}

	s.registerTools()
	return s, nil
}

// Run serves MCP over stdin/stdout until stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC message per line from r and writes responses to
// w. Requests are handled one at a time in arrival order. Lines that are not
// valid JSON are logged and skipped. Lines have no length limit, since a
// prompt can be arbitrarily long.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	encoder := json.NewEncoder(w)

	for {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read error: %w", readErr)
		}

		if line = bytes.TrimSpace(line); len(line) > 0 {
			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				log.Printf("Failed to parse request: %v", err)
			} else if resp := s.handleRequest(ctx, &req); resp != nil {
				if err := encoder.Encode(resp); err != nil {
					log.Printf("Failed to encode response: %v", err)
				}
			}
		}

		// The last line may end at EOF without a newline
		if readErr == io.EOF {
			return nil
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		// Unknown notifications are dropped without a reply
		if req.ID == nil {
			s.debugf("Ignoring notification: %s", req.Method)
			return nil
		}
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": s.version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

func (s *Server) debugf(format string, args ...interface{}) {
	if s.cfg.Debug() {
		log.Printf(format, args...)
	}
}

func (s *Server) infof(format string, args ...interface{}) {
	if s.cfg.Info() {
		log.Printf(format, args...)
	}
}

// errorf always logs; failures are never filtered by level.
func (s *Server) errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
