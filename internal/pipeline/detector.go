package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// CapabilityLevel describes which external collaborators a run can reach.
// It decides between full LLM-backed generation and the offline template
// fallback; routing itself never depends on it.
type CapabilityLevel int

const (
	// CapOffline has no LLM configured: the writer emits template sections
	// with TODO markers for manual completion.
	CapOffline CapabilityLevel = iota

	// CapLLM has a completion model but no research provider.
	CapLLM

	// CapFull has both a completion model and a research provider.
	CapFull
)

func (c CapabilityLevel) String() string {
	switch c {
	case CapOffline:
		return "offline"
	case CapLLM:
		return "llm-only"
	case CapFull:
		return "full"
	default:
		return "unknown"
	}
}

// DetectCapabilities maps configured credentials to a capability level.
func DetectCapabilities(llmKey, researchKey string) CapabilityLevel {
	switch {
	case llmKey != "" && researchKey != "":
		return CapFull
	case llmKey != "":
		return CapLLM
	default:
		return CapOffline
	}
}

// supportedDeckSuffixes are the deck formats the extractor collaborators
// accept.
var supportedDeckSuffixes = map[string]bool{
	".pdf":  true,
	".pptx": true,
	".key":  true,
	".txt":  true,
}

// ValidateDeckPath checks a deck argument up front: the file must exist and
// carry a supported suffix. Input errors are reported immediately, before
// any state is created.
func ValidateDeckPath(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return &InputError{Msg: "deck file not found: " + path}
	}
	suffix := strings.ToLower(filepath.Ext(path))
	if !supportedDeckSuffixes[suffix] {
		return &InputError{Msg: "unsupported deck format " + suffix + " (want .pdf, .pptx, .key, or .txt)"}
	}
	return nil
}

// InputError marks a caller mistake (bad deck path, malformed input file)
// as opposed to a stage failure.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}
