package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowver/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server over stdio.

The server exposes the version store to AI assistants through tools
(create_version, version_bump, compare_versions, diff_documents, list_versions,
get_latest_version, get_version, list_workflows) and resources
(flowver://workflows and per-workflow history and changelog).

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "flowver": {
        "command": "/path/to/flowver",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Versions:    versionService,
		Persistence: persistenceService,
	})
	if err != nil {
		return err
	}
	return server.Run(commandContext(cmd))
}
