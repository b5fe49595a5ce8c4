package server

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// toolHandler executes one tool. A returned error becomes an isError result.
type toolHandler func(ctx context.Context, args json.RawMessage) (string, error)

type toolEntry struct {
	tool   Tool
	handle toolHandler
}

const defaultPrompt = "Describe this image in detail"

// analyzeImageArgs is both the decoding target for analyze_image arguments
// and the source of its input schema.
type analyzeImageArgs struct {
	ImagePath string  `json:"image_path" jsonschema:"description=Path to the image file to analyze"`
	Prompt    *string `json:"prompt,omitempty" jsonschema:"description=Prompt describing what you want to know about the image,default=Describe this image in detail"`
}

// registerTools populates the registry. Adding a tool means adding an entry
// here; dispatch in CallTool does not change.
func (s *Server) registerTools() {
	s.register(Tool{
		Name: "analyze_image",
		Description: "Analyze an image using a Gemini vision model. Provide a prompt describing what you want " +
			"to know about the image and the path to the image file. Supports PNG, JPEG, GIF and WebP.",
		InputSchema: schemaFor(&analyzeImageArgs{}),
	}, s.handleAnalyzeImage)
}

func (s *Server) register(tool Tool, handle toolHandler) {
	if _, exists := s.tools[tool.Name]; !exists {
		s.order = append(s.order, tool.Name)
	}
	s.tools[tool.Name] = toolEntry{tool: tool, handle: handle}
}

// ListTools returns the tool descriptors in registration order.
func (s *Server) ListTools() []Tool {
	tools := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name].tool)
	}
	return tools
}

// schemaFor reflects a JSON schema from an argument struct and returns it
// as a plain map, which is what MCP clients receive in inputSchema.
func schemaFor(v interface{}) map[string]interface{} {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	schema := r.Reflect(v)
	schema.Version = ""

	data, err := json.Marshal(schema)
	if err != nil {
		panic("server: reflecting tool schema: " + err.Error())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		panic("server: decoding tool schema: " + err.Error())
	}
	return out
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": s.ListTools(),
		},
	}
}
