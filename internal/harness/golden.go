package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/reply"
)

// snapshot is the serialized form compared against golden files. Slept
// durations are in seconds to keep the files readable.
type snapshot struct {
	Scenario string              `json:"scenario"`
	Matched  []bool              `json:"matched"`
	Trace    []engine.TraceEvent `json:"trace"`
	Replies  []reply.Call        `json:"replies"`
	SleptSec []float64           `json:"slept_sec,omitempty"`
}

// RunGolden executes a scenario and compares its snapshot against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	snap := snapshot{
		Scenario: scenario.Name,
		Matched:  result.Matched,
		Trace:    result.Trace,
		Replies:  result.Replies,
	}
	for _, d := range result.Slept {
		snap.SleptSec = append(snap.SleptSec, d.Seconds())
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result
}
