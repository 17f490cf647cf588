package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/memogen/internal/mcptools"
)

var flagMCPAddr string

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose the memo store as MCP tools",
	Long: `Run an MCP server exposing memo_status, list_runs, assemble_memo,
preview_correction, and export_memo. Serves on stdio by default; pass
--http to serve the streamable HTTP transport instead.`,
	RunE: runServeMCP,
}

func init() {
	serveMCPCmd.Flags().StringVar(&flagMCPAddr, "http", "", "serve over HTTP on this address (e.g. :8137)")
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	svc := mcptools.NewMemoService(memoStore(), nil)
	if flagMCPAddr != "" {
		return mcptools.RunMCPServerHTTP(cmd.Context(), svc, flagMCPAddr)
	}
	return mcptools.RunMCPServerStdio(cmd.Context(), mcptools.NewMemoMCPServer(svc))
}
