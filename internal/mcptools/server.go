package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMemoMCPServer creates an MCP server with the 5 memo tools registered.
func NewMemoMCPServer(svc *MemoService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "memogen",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memo_status",
		Description: "Get the status of a memo run: which artifacts exist, the next pipeline stage, and whether the run is finalized or escalated.",
	}, svc.GetStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List every company in the memo store with the status of its latest run.",
	}, svc.ListRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assemble_memo",
		Description: "Consolidate a run's section files into the final draft with globally renumbered citations. Fails on citation integrity violations.",
	}, svc.AssembleMemo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_correction",
		Description: "Dry-run a correction instruction YAML: report which sections and how many instances would change, without mutating anything.",
	}, svc.PreviewCorrection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_memo",
		Description: "Export a run as a JSON digest or a standalone HTML page, written into the run directory.",
	}, svc.ExportMemo)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP starts an HTTP server exposing the memo MCP tools.
func RunMCPServerHTTP(ctx context.Context, svc *MemoService, addr string) error {
	server := NewMemoMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
