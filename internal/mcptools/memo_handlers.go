// Package mcptools exposes the memo store over the Model Context Protocol
// so agent tooling can inspect runs, assemble drafts, and dry-run
// corrections through structured tools instead of shelling out.
package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/correct"
	"github.com/dusk-indust/memogen/internal/export"
	"github.com/dusk-indust/memogen/internal/status"
	"github.com/dusk-indust/memogen/internal/store"
)

// MemoService handles MCP tool calls for the memogen server mode. Tools are
// read-mostly: assemble rewrites only the final draft, preview mutates
// nothing.
type MemoService struct {
	store  *store.Store
	engine *correct.Engine
}

// NewMemoService creates a MemoService over the given store.
func NewMemoService(st *store.Store, engine *correct.Engine) *MemoService {
	if engine == nil {
		engine = correct.NewEngine(st, nil, nil)
	}
	return &MemoService{store: st, engine: engine}
}

// GetStatus reports a run's artifacts and what the controller would do next.
func (s *MemoService) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	rs, err := status.GetRunStatus(s.store, input.Company, input.Version)
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	out := GetStatusOutput{
		Company:   rs.Company,
		Version:   rs.Version,
		NextStage: string(rs.NextStage),
		Finalized: rs.Finalized,
		Escalated: rs.Escalated,
		Revisions: rs.Revisions,
	}
	for _, a := range rs.Artifacts {
		out.Artifacts = append(out.Artifacts, ArtifactSummary{
			Name:    a.Name,
			File:    a.File,
			Present: a.Present,
		})
	}
	return nil, out, nil
}

// ListRuns summarizes every company's latest run.
func (s *MemoService) ListRuns(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	runs, err := status.ListRuns(s.store)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}

	var out ListRunsOutput
	for _, rs := range runs {
		out.Runs = append(out.Runs, RunSummary{
			Company:   rs.Company,
			Version:   rs.Version,
			NextStage: string(rs.NextStage),
			Finalized: rs.Finalized,
			Escalated: rs.Escalated,
		})
	}
	return nil, out, nil
}

// AssembleMemo consolidates a run's sections into the final draft.
func (s *MemoService) AssembleMemo(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AssembleInput,
) (*mcp.CallToolResult, AssembleOutput, error) {
	run, err := s.store.OpenRun(input.Company, input.Version)
	if err != nil {
		return nil, AssembleOutput{}, err
	}
	result, err := citations.AssembleRun(run)
	if err != nil {
		return nil, AssembleOutput{}, err
	}

	out := AssembleOutput{
		Document:  run.Path(store.FinalDraft),
		Citations: len(result.Citations),
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, issue.Message)
	}
	return nil, out, nil
}

// PreviewCorrection dry-runs a correction instruction: what would match,
// where, with what variants. Nothing is mutated.
func (s *MemoService) PreviewCorrection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PreviewCorrectionInput,
) (*mcp.CallToolResult, PreviewCorrectionOutput, error) {
	inst, err := correct.LoadInstruction(input.InstructionPath)
	if err != nil {
		return nil, PreviewCorrectionOutput{}, err
	}
	preview, err := s.engine.Preview(ctx, inst)
	if err != nil {
		return nil, PreviewCorrectionOutput{}, err
	}

	out := PreviewCorrectionOutput{Warnings: preview.Warnings}
	for _, a := range preview.Analyses {
		out.Variants = append(out.Variants, a.Variants...)
	}
	for _, m := range preview.Matches {
		out.Matches = append(out.Matches, CorrectionMatch{
			Section: m.Number,
			Slug:    m.Slug,
			Count:   m.Count,
			Sample:  m.Sample,
		})
	}
	return nil, out, nil
}

// ExportMemo writes a run's JSON digest or HTML page into the run directory.
func (s *MemoService) ExportMemo(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	switch input.Format {
	case "", "json":
		if _, err := export.WriteJSON(s.store, input.Company, input.Version); err != nil {
			return nil, ExportOutput{}, err
		}
		run, err := s.store.OpenRun(input.Company, input.Version)
		if err != nil {
			return nil, ExportOutput{}, err
		}
		return nil, ExportOutput{Path: run.Path("export.json")}, nil
	case "html":
		path, err := export.WriteHTML(s.store, input.Company, input.Version)
		if err != nil {
			return nil, ExportOutput{}, err
		}
		return nil, ExportOutput{Path: path}, nil
	default:
		return nil, ExportOutput{}, fmt.Errorf("mcptools: unknown export format %q", input.Format)
	}
}
