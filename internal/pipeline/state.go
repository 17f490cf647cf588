package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dusk-indust/memogen/internal/store"
)

// InvestmentType selects the memo outline.
type InvestmentType string

const (
	TypeDirect InvestmentType = "direct"
	TypeFund   InvestmentType = "fund"
)

// Mode is the analytical stance of the memo.
type Mode string

const (
	ModeConsider Mode = "consider"
	ModeJustify  Mode = "justify"
)

// SectionState is the in-state copy of one memo section.
type SectionState struct {
	Number int    `json:"number"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Body   string `json:"body"`
	Source string `json:"source"` // deck | research | revision | template | hand-edit
}

// DeckPage is one extracted deck page.
type DeckPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// DeckData is the deck-analysis stage output kept in state.
type DeckData struct {
	Path    string     `json:"path"`
	Pages   []DeckPage `json:"pages"`
	Summary string     `json:"summary,omitempty"`
}

// SourceRef is one research source.
type SourceRef struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// Finding is one researched topic with its sources.
type Finding struct {
	Topic   string      `json:"topic"`
	Content string      `json:"content"`
	Sources []SourceRef `json:"sources,omitempty"`
}

// ResearchData is the research stage output kept in state.
type ResearchData struct {
	Summary  string    `json:"summary,omitempty"`
	Findings []Finding `json:"findings"`
}

// ValidationIssue is one problem the validator found.
type ValidationIssue struct {
	Section int    `json:"section,omitempty"` // 0 = memo-wide
	Problem string `json:"problem"`
}

// ValidationResult is the validate stage output kept in state.
type ValidationResult struct {
	Score  int               `json:"score"` // 0-100
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// EnrichmentFlags enables the optional enrichment stages.
type EnrichmentFlags struct {
	Trademark bool `json:"trademark"`
	Socials   bool `json:"socials"`
	Links     bool `json:"links"`
	Tables    bool `json:"tables"`
	FactCheck bool `json:"fact_check"`
}

// State is the full pipeline record: threaded through every stage, persisted
// to the artifact store after each one, and sufficient on its own to resume
// a run. Routing is a pure function of this struct.
type State struct {
	RunID          string         `json:"run_id"`
	Company        string         `json:"company"`
	InvestmentType InvestmentType `json:"investment_type"`
	Mode           Mode           `json:"mode"`
	Version        string         `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`

	DeckPath          string `json:"deck_path,omitempty"`
	ScorecardTemplate string `json:"scorecard_template,omitempty"`

	Enrichments  EnrichmentFlags `json:"enrichments"`
	MaxRevisions int             `json:"max_revisions"`

	Completed     map[StageID]bool `json:"completed"`
	RevisionCount int              `json:"revision_count"`
	NeedsRevision bool             `json:"needs_revision"`
	Escalated     bool             `json:"escalated"`
	Finalized     bool             `json:"finalized"`

	Sections   map[int]SectionState `json:"sections"`
	Deck       *DeckData            `json:"deck,omitempty"`
	Research   *ResearchData        `json:"research,omitempty"`
	Validation *ValidationResult    `json:"validation,omitempty"`

	Messages []string `json:"messages"`
}

// NewState builds the initial state for a fresh run.
func NewState(run *store.Run, typ InvestmentType, mode Mode) *State {
	return &State{
		RunID:          run.ID,
		Company:        run.Company,
		InvestmentType: typ,
		Mode:           mode,
		Version:        run.Version.String(),
		CreatedAt:      run.CreatedAt,
		MaxRevisions:   DefaultMaxRevisions,
		Completed:      make(map[StageID]bool),
		Sections:       make(map[int]SectionState),
	}
}

// DefaultMaxRevisions bounds the validate/revise loop before escalation.
const DefaultMaxRevisions = 3

// Update is the partial state change a stage returns. Being a closed struct,
// the merge boundary rejects unknown keys and type mismatches by
// construction: a stage can only produce fields declared here.
type Update struct {
	// Sections merges per section number: present entries replace the
	// state's entry for that number, absent numbers are untouched.
	Sections map[int]SectionState

	Deck       *DeckData
	Research   *ResearchData
	Validation *ValidationResult

	// NeedsRevision overwrites the state's flag when non-nil.
	NeedsRevision *bool

	// Messages are appended to the state's audit trail, never replacing it.
	Messages []string
}

// Apply shallow-merges an update into the state: new keys are added,
// existing keys overwritten, and the message list appended.
func (s *State) Apply(u Update) {
	if s.Sections == nil {
		s.Sections = make(map[int]SectionState)
	}
	for n, sec := range u.Sections {
		s.Sections[n] = sec
	}
	if u.Deck != nil {
		s.Deck = u.Deck
	}
	if u.Research != nil {
		s.Research = u.Research
	}
	if u.Validation != nil {
		s.Validation = u.Validation
	}
	if u.NeedsRevision != nil {
		s.NeedsRevision = *u.NeedsRevision
	}
	s.Messages = append(s.Messages, u.Messages...)
}

// Logf appends a formatted progress message to the audit trail.
func (s *State) Logf(format string, args ...any) {
	s.Messages = append(s.Messages, fmt.Sprintf(format, args...))
}

// Marshal serializes the state snapshot for checkpointing.
func (s *State) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pipeline: marshal state: %w", err)
	}
	return data, nil
}

// LoadState reconstructs a state snapshot from a run's state.json.
func LoadState(run *store.Run) (*State, error) {
	data, err := run.ReadState()
	if err != nil {
		return nil, fmt.Errorf("pipeline: no checkpoint to resume from: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("pipeline: corrupt checkpoint: %w", err)
	}
	if s.Completed == nil {
		s.Completed = make(map[StageID]bool)
	}
	if s.Sections == nil {
		s.Sections = make(map[int]SectionState)
	}
	return &s, nil
}

// BoolPtr is a convenience for building Updates.
func BoolPtr(b bool) *bool {
	return &b
}
