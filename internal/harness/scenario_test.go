package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
cases:
  - id: c1
flow:
  - case: c1
    action: FASCICOLO.TAKE_COMM
    as: venditore
assertions:
  - type: trace_count
    action: FASCICOLO.TAKE_COMM
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "c1", s.Cases[0].ID)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, "venditore", s.Flow[0].As)
	assert.Nil(t, s.Flow[0].Expect)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: "name is required",
		},
		{
			name: "no seeds",
			yaml: `
name: x
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: "fixtures or cases are required",
		},
		{
			name: "empty flow",
			yaml: `
name: x
cases: [{id: c1}]
flow: []
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: "flow is required",
		},
		{
			name: "unknown action",
			yaml: `
name: x
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.FLY, as: venditore}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: `unknown action "FASCICOLO.FLY"`,
		},
		{
			name: "no actor",
			yaml: `
name: x
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: "as or user is required",
		},
		{
			name: "bad outcome",
			yaml: `
name: x
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore, expect: {outcome: maybe}}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`,
			want: `unknown outcome "maybe"`,
		},
		{
			name: "unknown assertion",
			yaml: `
name: x
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore}]
assertions: [{type: vibes}]
`,
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "available without flag",
			yaml: `
name: x
cases: [{id: c1}]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore}]
assertions: [{type: available, case: c1, as: bo}]
`,
			want: "case, as and available are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlowStep_Actor(t *testing.T) {
	u, err := FlowStep{As: "bof"}.Actor()
	require.NoError(t, err)
	assert.Equal(t, "bof", u.ID)
	assert.Equal(t, "BOF", string(u.Role))

	explicit, err := FlowStep{As: "bof", User: &u}.Actor()
	require.NoError(t, err)
	assert.Equal(t, u, explicit)

	_, err = FlowStep{}.Actor()
	require.Error(t, err)
}

func TestLoadScenario_ResolvesFixtures(t *testing.T) {
	s, err := LoadScenario(filepath.Join("..", "..", "testdata", "scenarios", "reopen_revision.yaml"))
	require.NoError(t, err)
	require.Len(t, s.Fixtures, 1)
	assert.Equal(t, filepath.Join("..", "..", "testdata", "fixtures", "approved.cue"), s.Fixtures[0])
}

func TestLoadScenario_MissingFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	body := `
name: x
fixtures: [nowhere.cue]
flow: [{case: c1, action: FASCICOLO.TAKE_COMM, as: venditore}]
assertions: [{type: trace_count, action: FASCICOLO.TAKE_COMM, count: 1}]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
