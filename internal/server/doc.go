// Package server implements the MCP (Model Context Protocol) server that lets
// a client's model look at images through a hosted vision model.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - analyze_image: Send a local image and a prompt to the model gateway
//     and return its analysis. Arguments: image_path (required), prompt
//     (optional, defaults to "Describe this image in detail").
//
// Tools live in a name-keyed registry (see registerTools). tools/list
// reports them in registration order.
//
// # Error Handling
//
// Tool failures are returned as a normal tools/call result with isError set
// and a single text block:
//   - "Unknown tool: <name>" for unregistered tool names
//   - "image_path parameter is required" when the argument is missing
//   - "Error: <message>" for validation, file, network and gateway failures
//
// JSON-RPC errors are reserved for protocol problems: -32601 for unknown
// methods and -32602 for undecodable tools/call params.
//
// # Usage
//
//	cfg, err := config.Load(config.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package server
