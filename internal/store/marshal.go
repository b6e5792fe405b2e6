package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/fascicolo/internal/ir"
	"github.com/roach88/fascicolo/internal/workflow"
)

// timeLayout is the storage format of event timestamps.
const timeLayout = time.RFC3339Nano

// marshalCase converts a case to canonical JSON TEXT and its content hash.
// The same bytes are stored and hashed, so a stored body always rehashes
// to its hash column.
func marshalCase(c *workflow.Case) (body, hash string, err error) {
	data, err := ir.MarshalCanonical(c)
	if err != nil {
		return "", "", fmt.Errorf("marshal case %s: %w", c.ID, err)
	}
	h, err := ir.CaseHash(c)
	if err != nil {
		return "", "", fmt.Errorf("hash case %s: %w", c.ID, err)
	}
	return string(data), h, nil
}

// unmarshalCase parses a stored case body.
func unmarshalCase(body string) (*workflow.Case, error) {
	var c workflow.Case
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, fmt.Errorf("unmarshal case: %w", err)
	}
	return &c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
