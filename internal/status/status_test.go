package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/store"
)

func artifactByName(t *testing.T, rs *RunStatus, name string) ArtifactInfo {
	t.Helper()
	for _, a := range rs.Artifacts {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("no artifact named %q in status", name)
	return ArtifactInfo{}
}

func TestGetRunStatusScansArtifacts(t *testing.T) {
	st := store.New(t.TempDir())
	run, err := st.CreateRun("Acme Robotics")
	require.NoError(t, err)

	require.NoError(t, run.WriteArtifact(store.ResearchJSON, []byte("{}")))
	require.NoError(t, run.WriteSection(1, "executive-summary", "## 1. Executive Summary\n\ndraft\n"))

	rs, err := GetRunStatus(st, "Acme Robotics", "")
	require.NoError(t, err)

	assert.Equal(t, "Acme Robotics", rs.Company)
	assert.Equal(t, "v0.0.1", rs.Version)
	assert.True(t, artifactByName(t, rs, "Research").Present)
	assert.False(t, artifactByName(t, rs, "Final draft").Present)
	assert.True(t, artifactByName(t, rs, "Sections (1)").Present)
	assert.Empty(t, rs.NextStage, "no checkpoint means no routing answer")
}

func TestGetRunStatusReadsCheckpoint(t *testing.T) {
	st := store.New(t.TempDir())
	run, err := st.CreateRun("Acme Robotics")
	require.NoError(t, err)

	s := pipeline.NewState(run, pipeline.TypeDirect, pipeline.ModeConsider)
	s.Completed[pipeline.StageResearch] = true
	raw, err := s.Marshal()
	require.NoError(t, err)
	require.NoError(t, run.WriteState(raw))

	rs, err := GetRunStatus(st, "Acme Robotics", "latest")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageWrite, rs.NextStage)
	assert.False(t, rs.Finalized)
}

func TestListRunsCoversEveryCompany(t *testing.T) {
	st := store.New(t.TempDir())
	_, err := st.CreateRun("Acme Robotics")
	require.NoError(t, err)
	_, err = st.CreateRun("Lattice Capital")
	require.NoError(t, err)

	runs, err := ListRuns(st)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// ListRuns walks the store by directory, so companies come back as slugs.
	var companies []string
	for _, rs := range runs {
		companies = append(companies, rs.Company)
	}
	assert.ElementsMatch(t, []string{"acme-robotics", "lattice-capital"}, companies)
}
