package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// Name and Version identify the server to clients.
const (
	Name    = "diary MCP"
	Version = "dev"
)

const instructions = "Append to and read a monthly personal journal, ask questions about it, " +
	"chart daily satisfaction, neuralgia and exercise, and hold named conversation threads."

// NewServer builds an MCP server exposing the diary tools.
func NewServer(deps Deps) *server.MCPServer {
	srv := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	registerTools(srv, NewService(deps))
	return srv
}

// ServeStdio serves the diary tools over stdin and stdout until the client
// disconnects.
func ServeStdio(deps Deps) error {
	deps.Logger.Info().Msg("Serving MCP over stdio")
	return server.ServeStdio(NewServer(deps))
}
