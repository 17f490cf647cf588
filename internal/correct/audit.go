package correct

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/memogen/internal/store"
)

// AuditLog is the per-run correction history file. Instructions are
// ephemeral; this log is the only durable record of what was corrected.
const AuditLog = "corrections-log.json"

// AuditEntry records one applied instruction.
type AuditEntry struct {
	ID               string       `json:"id"`
	Time             time.Time    `json:"time"`
	Company          string       `json:"company"`
	SourceVersion    string       `json:"source_version"`
	OutputMode       OutputMode   `json:"output_mode"`
	Corrections      []Correction `json:"corrections"`
	SectionsModified int          `json:"sections_modified"`
	Instances        int          `json:"instances"`
	ModifiedFiles    []string     `json:"modified_files,omitempty"`
	Warnings         []string     `json:"warnings,omitempty"`
}

func appendAudit(run *store.Run, inst *Instruction, result *Result) error {
	entries, err := ReadAudit(run)
	if err != nil {
		return err
	}
	entries = append(entries, AuditEntry{
		ID:               uuid.NewString(),
		Time:             time.Now().UTC(),
		Company:          inst.CompanyName,
		SourceVersion:    inst.SourceVersion,
		OutputMode:       inst.OutputMode,
		Corrections:      inst.Corrections,
		SectionsModified: result.SectionsModified,
		Instances:        result.Instances,
		ModifiedFiles:    result.ModifiedFiles,
		Warnings:         result.Warnings,
	})

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("correct: marshal audit log: %w", err)
	}
	return run.WriteArtifact(AuditLog, raw)
}

// ReadAudit returns the run's correction history, oldest first. A run with
// no log yet has an empty history.
func ReadAudit(run *store.Run) ([]AuditEntry, error) {
	if !run.HasArtifact(AuditLog) {
		return nil, nil
	}
	raw, err := run.ReadArtifact(AuditLog)
	if err != nil {
		return nil, err
	}
	var entries []AuditEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("correct: parse audit log: %w", err)
	}
	return entries, nil
}
