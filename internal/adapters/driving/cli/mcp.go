package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/knowsync/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server communicates over stdio using JSON-RPC and exposes the ask
and sync tools to MCP-compatible AI assistants.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "knowsync": {
        "command": "/path/to/knowsync",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Answer: answerService,
		Sync:   syncService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	return server.Run(cmd.Context())
}
