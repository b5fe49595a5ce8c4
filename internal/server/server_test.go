package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
	"github.com/ironsheep/gemini-vision-mcp/internal/config"
)

// stubAnalyzer records the last request and returns a canned answer.
type stubAnalyzer struct {
	answer string
	err    error

	calls    int
	prompt   string
	data     string
	mimeType string
}

func (a *stubAnalyzer) AnalyzeImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	a.calls++
	a.prompt = prompt
	a.data = imageBase64
	a.mimeType = mimeType
	return a.answer, a.err
}

func testConfig() *config.Config {
	return &config.Config{
		APIKey:   "test-key",
		BaseURL:  config.DefaultBaseURL,
		Model:    config.DefaultModel,
		LogLevel: "error",
	}
}

// newTestServer builds a server backed by a stub analyzer.
func newTestServer(t *testing.T, a *stubAnalyzer) *Server {
	t.Helper()
	s, err := New(testConfig(), WithAnalyzer(a), WithVersion("1.2.3"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.analyzer == nil {
		t.Fatal("New() did not build a gateway client")
	}
	if len(s.tools) != 1 {
		t.Errorf("Expected 1 registered tool, got %d", len(s.tools))
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""

	s, err := New(cfg)
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if s != nil {
		t.Error("Server should be nil on error")
	}
	if !apperr.Is(err, apperr.ConfigError) {
		t.Errorf("Kind: got %v, want config_error", apperr.KindOf(err))
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      "init-1",
		Method:  "initialize",
	}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "init-1" {
		t.Errorf("ID: got %v, want init-1", resp.ID)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "gemini-vision" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
	if serverInfo["version"] != "1.2.3" {
		t.Errorf("serverInfo.version: got %v", serverInfo["version"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      "ping-1",
		Method:  "ping",
	}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	}

	// Notifications don't get responses
	if resp := s.handleRequest(context.Background(), req); resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "nonexistent/method",
	}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "nonexistent/method") {
		t.Errorf("Error message should name the method: %s", resp.Error.Message)
	}
}

func TestServe_MultipleLines(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`this is not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 responses, got %d: %q", len(lines), out.String())
	}

	var ids []float64
	for _, line := range lines {
		var resp struct {
			ID     float64         `json:"id"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("Response is not JSON: %v", err)
		}
		ids = append(ids, resp.ID)
	}
	if ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("Responses out of order: %v", ids)
	}

	if !strings.Contains(lines[2], `"isError":true`) || !strings.Contains(lines[2], "Unknown tool: nope") {
		t.Errorf("Unexpected tools/call response: %s", lines[2])
	}
}

func TestHandleRequest_UnknownNotification(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		Method:  "notifications/cancelled",
		Params:  json.RawMessage(`{"requestId":7}`),
	}

	if resp := s.handleRequest(context.Background(), req); resp != nil {
		t.Errorf("Notifications should not get a response, got %+v", resp)
	}
}

func TestServe_LongLineThenPing(t *testing.T) {
	a := &stubAnalyzer{answer: "a cat"}
	s := newTestServer(t, a)

	longCall, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "long",
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name": "analyze_image",
			"arguments": map[string]interface{}{
				"image_path": "/does/not/exist.png",
				"prompt":     strings.Repeat("describe ", 125*1024),
			},
		},
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if len(longCall) <= 1024*1024 {
		t.Fatalf("Request line should exceed 1 MiB, got %d bytes", len(longCall))
	}

	input := string(longCall) + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":"long"}}` + "\n" +
		`{"jsonrpc":"2.0","id":"after","method":"ping"}`

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(lines))
	}

	var first struct {
		ID     string     `json:"id"`
		Result ToolResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	if first.ID != "long" {
		t.Errorf("First response ID: got %q, want long", first.ID)
	}
	if !first.Result.IsError || !strings.Contains(first.Result.Content[0].Text, "Image file not found") {
		t.Errorf("Unexpected tools/call result: %+v", first.Result)
	}

	var second struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	if second.ID != "after" {
		t.Errorf("Ping response ID: got %q, want after", second.ID)
	}
	if string(second.Result) != "{}" {
		t.Errorf("Ping result: got %s, want {}", second.Result)
	}
}
