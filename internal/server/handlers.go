package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
	"github.com/ironsheep/gemini-vision-mcp/internal/imaging"
	"github.com/pkg/errors"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "analyze_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as a JSON object.
	Arguments json.RawMessage `json:"arguments"`
}

// ContentBlock is one segment of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the MCP tools/call result envelope.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// errImagePathRequired is shown to the caller as-is, without the "Error: "
// prefix other failures get.
var errImagePathRequired = apperr.New(apperr.InvalidInput, "image_path parameter is required")

func textResult(text string, isError bool) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// Tool failures never become JSON-RPC errors. They are reported inside the
// result with isError set, so the client's model can read the message:
//
//	{
//	  "content": [{"type": "text", "text": "Error: Image file not found: /x.png"}],
//	  "isError": true
//	}
//
// Only params that cannot be decoded at all produce a -32602 error.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  s.CallTool(ctx, params),
	}
}

// CallTool looks up the named tool, runs it and wraps the outcome.
func (s *Server) CallTool(ctx context.Context, params ToolCallParams) ToolResult {
	entry, ok := s.tools[params.Name]
	if !ok {
		s.errorf("Tool call failed (%s): unknown tool %q", apperr.UnknownTool, params.Name)
		return textResult("Unknown tool: "+params.Name, true)
	}

	callID := uuid.NewString()
	s.debugf("[%s] tools/call %s", callID, params.Name)

	text, err := entry.handle(ctx, params.Arguments)
	if err != nil {
		s.errorf("[%s] Tool call failed (%s): %v", callID, apperr.KindOf(err), err)
		if errors.Is(err, errImagePathRequired) {
			return textResult(err.Error(), true)
		}
		return textResult("Error: "+err.Error(), true)
	}

	s.debugf("[%s] tools/call %s completed", callID, params.Name)
	return textResult(text, false)
}

// handleAnalyzeImage runs validate, encode and analyze for one image.
func (s *Server) handleAnalyzeImage(ctx context.Context, args json.RawMessage) (string, error) {
	var a analyzeImageArgs
	if len(bytes.TrimSpace(args)) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return "", apperr.Wrap(err, apperr.InvalidInput, "invalid arguments")
		}
	}

	if a.ImagePath == "" {
		return "", errImagePathRequired
	}
	prompt := defaultPrompt
	if a.Prompt != nil {
		prompt = *a.Prompt
	}

	s.infof("Analyzing image: %s with prompt: %s", a.ImagePath, prompt)

	img, err := imaging.ValidateImagePath(a.ImagePath, s.cfg.MaxImageBytes())
	if err != nil {
		return "", err
	}

	enc, err := imaging.EncodeImageBounded(img, s.cfg.MaxImageDimension)
	if err != nil {
		return "", err
	}
	s.debugf("Encoded image %s as %s (%d base64 chars)", img.Path, enc.MIMEType, len(enc.Data))

	analysis, err := s.analyzer.AnalyzeImage(ctx, prompt, enc.Data, enc.MIMEType)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Image Analysis for: %s\n\nPrompt: %s\n\nAnalysis:\n%s", a.ImagePath, prompt, analysis), nil
}
