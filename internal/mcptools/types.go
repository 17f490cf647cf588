package mcptools

// --- MCP Tool Types for the memogen server mode (serve-mcp) ---
// The MCP Go SDK auto-generates JSON schemas from struct tags, so these
// structs are the tool contracts.

// GetStatusInput is the input for the memo_status MCP tool.
type GetStatusInput struct {
	Company string `json:"company" jsonschema:"company name"`
	Version string `json:"version,omitempty" jsonschema:"run version (vX.Y.Z); default: latest"`
}

// ArtifactSummary is one expected artifact and whether it exists.
type ArtifactSummary struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Present bool   `json:"present"`
}

// GetStatusOutput is the result of the memo_status MCP tool.
type GetStatusOutput struct {
	Company   string            `json:"company"`
	Version   string            `json:"version"`
	NextStage string            `json:"nextStage,omitempty"`
	Finalized bool              `json:"finalized"`
	Escalated bool              `json:"escalated"`
	Revisions int               `json:"revisions"`
	Artifacts []ArtifactSummary `json:"artifacts"`
}

// ListRunsInput is the input for the list_runs MCP tool.
type ListRunsInput struct{}

// RunSummary is a brief overview of one company's latest run.
type RunSummary struct {
	Company   string `json:"company"`
	Version   string `json:"version"`
	NextStage string `json:"nextStage,omitempty"`
	Finalized bool   `json:"finalized"`
	Escalated bool   `json:"escalated"`
}

// ListRunsOutput is the result of the list_runs MCP tool.
type ListRunsOutput struct {
	Runs []RunSummary `json:"runs"`
}

// AssembleInput is the input for the assemble_memo MCP tool.
type AssembleInput struct {
	Company string `json:"company" jsonschema:"company name"`
	Version string `json:"version,omitempty" jsonschema:"run version (vX.Y.Z); default: latest"`
}

// AssembleOutput is the result of the assemble_memo MCP tool.
type AssembleOutput struct {
	Document  string   `json:"document"` // path to the written final draft
	Citations int      `json:"citations"`
	Issues    []string `json:"issues,omitempty"`
}

// PreviewCorrectionInput is the input for the preview_correction MCP tool.
type PreviewCorrectionInput struct {
	InstructionPath string `json:"instructionPath" jsonschema:"path to a correction instruction YAML file"`
}

// CorrectionMatch is one affected section from a correction dry run.
type CorrectionMatch struct {
	Section int    `json:"section"`
	Slug    string `json:"slug"`
	Count   int    `json:"count"`
	Sample  string `json:"sample,omitempty"`
}

// PreviewCorrectionOutput is the result of the preview_correction MCP tool.
type PreviewCorrectionOutput struct {
	Variants []string          `json:"variants,omitempty"`
	Matches  []CorrectionMatch `json:"matches"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ExportInput is the input for the export_memo MCP tool.
type ExportInput struct {
	Company string `json:"company" jsonschema:"company name"`
	Version string `json:"version,omitempty" jsonschema:"run version (vX.Y.Z); default: latest"`
	Format  string `json:"format,omitempty" jsonschema:"export format: json or html (default: json)"`
}

// ExportOutput is the result of the export_memo MCP tool.
type ExportOutput struct {
	Path string `json:"path"` // path to the written export file
}
