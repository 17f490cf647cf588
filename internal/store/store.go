// Package store implements the versioned artifact tree that backs every
// memo run. Each company gets a directory of immutable version
// subdirectories plus a "latest" pointer; all pipeline stages read and
// write their artifacts through a Run handle so the numbered path
// conventions stay in one place.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Artifact filenames within a run directory. The numeric prefixes encode
// pipeline stage order and are relied on by external tooling (export,
// scorecard), so they must not change.
const (
	DeckAnalysisJSON = "0-deck-analysis.json"
	DeckAnalysisMD   = "0-deck-analysis.md"
	DeckSectionsDir  = "0-deck-sections"
	ResearchJSON     = "1-research.json"
	ResearchMD       = "1-research.md"
	SectionsDir      = "2-sections"
	ValidationJSON   = "3-validation.json"
	ValidationMD     = "3-validation.md"
	FinalDraft       = "4-final-draft.md"
	StateFile        = "state.json"

	latestPointer = "latest"
)

// Store is the root of the per-company artifact tree.
type Store struct {
	root string
}

// New creates a Store rooted at dir (typically "memos/").
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Slugify converts a company name to its directory slug: lowercased, with
// whitespace collapsed to single dashes and anything outside [a-z0-9-]
// dropped.
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// CompanyDir returns the directory holding all versions for a company.
func (s *Store) CompanyDir(company string) string {
	return filepath.Join(s.root, Slugify(company))
}

// Companies lists the company slugs present in the store, sorted.
func (s *Store) Companies() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read root %s: %w", s.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Versions lists all run versions recorded for a company, ascending.
func (s *Store) Versions(company string) ([]Version, error) {
	dir := s.CompanyDir(company)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read company dir %s: %w", dir, err)
	}

	var versions []Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := ParseVersion(e.Name())
		if err != nil {
			continue // unrelated directory
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })
	return versions, nil
}

// Latest resolves the "latest" pointer for a company. If the pointer file is
// missing it falls back to the highest version directory present.
func (s *Store) Latest(company string) (Version, error) {
	data, err := os.ReadFile(filepath.Join(s.CompanyDir(company), latestPointer))
	if err == nil {
		return ParseVersion(strings.TrimSpace(string(data)))
	}

	versions, err := s.Versions(company)
	if err != nil {
		return Version{}, err
	}
	if len(versions) == 0 {
		return Version{}, fmt.Errorf("store: no runs recorded for company %q", company)
	}
	return versions[len(versions)-1], nil
}

// setLatest rewrites the company's "latest" pointer.
func (s *Store) setLatest(company string, v Version) error {
	p := filepath.Join(s.CompanyDir(company), latestPointer)
	if err := os.WriteFile(p, []byte(v.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("store: write latest pointer: %w", err)
	}
	return nil
}

// CreateRun allocates the next version directory for a company and moves the
// "latest" pointer to it. The previous version, if any, is left untouched.
func (s *Store) CreateRun(company string) (*Run, error) {
	next := Version{Major: 0, Minor: 0, Patch: 1}
	if versions, err := s.Versions(company); err != nil {
		return nil, err
	} else if len(versions) > 0 {
		next = versions[len(versions)-1].Bump()
	}
	return s.createRunAt(company, next)
}

// OpenRun opens an existing run. An empty version resolves via the latest
// pointer.
func (s *Store) OpenRun(company, version string) (*Run, error) {
	var v Version
	var err error
	if version == "" || version == latestPointer {
		v, err = s.Latest(company)
	} else {
		v, err = ParseVersion(version)
	}
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.CompanyDir(company), v.String())
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("store: run %s/%s not found: %w", Slugify(company), v, err)
	}
	return &Run{store: s, Company: company, Version: v, dir: dir}, nil
}

// CloneRun copies an existing run's artifacts into a freshly allocated next
// version and points "latest" at it. Used by the correction engine's
// new-version output mode so history is never rewritten.
func (s *Store) CloneRun(company, fromVersion string) (*Run, error) {
	src, err := s.OpenRun(company, fromVersion)
	if err != nil {
		return nil, err
	}

	next := Version{Major: 0, Minor: 0, Patch: 1}
	if versions, err := s.Versions(company); err != nil {
		return nil, err
	} else if len(versions) > 0 {
		next = versions[len(versions)-1].Bump()
	}

	dst, err := s.createRunAt(company, next)
	if err != nil {
		return nil, err
	}
	if err := copyTree(src.dir, dst.dir); err != nil {
		return nil, fmt.Errorf("store: clone %s -> %s: %w", src.Version, dst.Version, err)
	}
	return dst, nil
}

func (s *Store) createRunAt(company string, v Version) (*Run, error) {
	dir := filepath.Join(s.CompanyDir(company), v.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create run dir %s: %w", dir, err)
	}
	if err := s.setLatest(company, v); err != nil {
		return nil, err
	}
	return &Run{store: s, Company: company, Version: v, dir: dir, ID: uuid.NewString(), CreatedAt: time.Now()}, nil
}

// copyTree recursively copies regular files from src to dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Run is the handle to one version directory. All artifact paths hang off it.
type Run struct {
	store *Store

	Company   string
	Version   Version
	ID        string
	CreatedAt time.Time

	dir string
}

// Dir returns the run's root directory.
func (r *Run) Dir() string {
	return r.dir
}

// Path joins parts onto the run directory.
func (r *Run) Path(parts ...string) string {
	return filepath.Join(append([]string{r.dir}, parts...)...)
}

// SectionFilename returns the canonical filename for a section:
// {NN}-{slug}.md with a zero-padded two-digit number.
func SectionFilename(number int, slug string) string {
	return fmt.Sprintf("%02d-%s.md", number, slug)
}

// sectionFileRe matches "{NN}-{slug}.md".
var sectionFileRe = regexp.MustCompile(`^(\d{2})-(.+)\.md$`)

// SectionFile is one on-disk section artifact.
type SectionFile struct {
	Number int
	Slug   string
	Path   string
	Body   string
}

// WriteSection writes one section body under 2-sections/.
func (r *Run) WriteSection(number int, slug, body string) error {
	return r.WriteArtifact(filepath.Join(SectionsDir, SectionFilename(number, slug)), []byte(body))
}

// ReadSections loads every section file from 2-sections/, ordered by section
// number. Files that do not match the {NN}-{slug}.md convention are ignored.
func (r *Run) ReadSections() ([]SectionFile, error) {
	dir := r.Path(SectionsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read sections dir %s: %w", dir, err)
	}

	var sections []SectionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := sectionFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		number := 0
		fmt.Sscanf(m[1], "%d", &number)
		p := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("store: read section %s: %w", p, err)
		}
		sections = append(sections, SectionFile{
			Number: number,
			Slug:   m[2],
			Path:   p,
			Body:   string(data),
		})
	}

	sort.Slice(sections, func(i, j int) bool { return sections[i].Number < sections[j].Number })
	return sections, nil
}

// WriteArtifact writes an artifact at a path relative to the run directory,
// creating intermediate directories as needed.
func (r *Run) WriteArtifact(rel string, data []byte) error {
	p := r.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("store: mkdir for %s: %w", p, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", p, err)
	}
	return nil
}

// ReadArtifact reads an artifact relative to the run directory.
func (r *Run) ReadArtifact(rel string) ([]byte, error) {
	data, err := os.ReadFile(r.Path(rel))
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", r.Path(rel), err)
	}
	return data, nil
}

// HasArtifact reports whether an artifact exists.
func (r *Run) HasArtifact(rel string) bool {
	_, err := os.Stat(r.Path(rel))
	return err == nil
}

// WriteState persists the pipeline state snapshot.
func (r *Run) WriteState(data []byte) error {
	return r.WriteArtifact(StateFile, data)
}

// ReadState loads the persisted pipeline state snapshot.
func (r *Run) ReadState() ([]byte, error) {
	return r.ReadArtifact(StateFile)
}
