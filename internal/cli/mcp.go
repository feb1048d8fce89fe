package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/mcpserver"
	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the generator as MCP tools over stdio",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout with the tools:

  generate_affidavit   fill Form 11 for a case
  extract_case         extract case details from claim text (needs an LLM provider)

Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}

		logger.Info("MCP server starting", zap.Bool("extract_case", p.CanExtract()))
		return mcpserver.Run(cmd.Context(), Version, p)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
