package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotJSON(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Seq: 1, Case: "c1", Action: "FASCICOLO.TAKE_COMM", Actor: "ven", Role: "COMMERCIALE", Outcome: "applied", Overall: "S01"})
	result.AddTrace(TraceEvent{Seq: 2, Case: "c1", Action: "FASCICOLO.TAKE_BO", Actor: "bo", Role: "BO", Outcome: "denied", Overall: "S01", Error: "PERMISSION_DENIED"})

	got, err := SnapshotJSON("tiny", result)
	require.NoError(t, err)

	want := `{"scenario_name":"tiny","trace":[` +
		`{"action":"FASCICOLO.TAKE_COMM","actor":"ven","case":"c1","outcome":"applied","overall":"S01","role":"COMMERCIALE","seq":1},` +
		`{"action":"FASCICOLO.TAKE_BO","actor":"bo","case":"c1","error":"PERMISSION_DENIED","outcome":"denied","overall":"S01","role":"BO","seq":2}]}`
	assert.Equal(t, want, string(got))
}

func TestSnapshotJSON_EmptyTrace(t *testing.T) {
	got, err := SnapshotJSON("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(got))
}
