// Package harness runs workflow scenarios deterministically: a frozen
// clock, scripted random draws, fixed run tokens, and an in-memory store.
// Every node visit is traced, and traces compare against golden files so a
// behavior change in the engine shows up as a readable diff.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
	"github.com/raikhel/botflow/internal/store"
	"github.com/raikhel/botflow/internal/testutil"
)

// maxRuns bounds how many walks one scenario may start.
const maxRuns = 32

// SeedEntry pre-populates the store before the scenario's events run.
// UserID empty means the global scope.
type SeedEntry struct {
	UserID string
	Key    string
	Value  string
}

// Event is one scripted inbound message. Scheduled events drive the
// scheduler entry point instead of trigger matching and carry no text.
type Event struct {
	UserID    string
	GroupID   string
	MessageID string
	Text      string
	Scheduled bool
}

// Scenario is a deterministic workflow execution script.
type Scenario struct {
	Name     string
	Workflow string // YAML or JSON workflow document
	Now      time.Time
	Seed     []SeedEntry
	Ints     []int     // scripted RandInt draws
	Floats   []float64 // scripted RandFloat draws
	Events   []Event
}

// Result captures everything observable about a scenario run.
type Result struct {
	Matched []bool
	Trace   []engine.TraceEvent
	Replies []reply.Call
	Slept   []time.Duration
}

// Run executes a scenario against a fresh in-memory database.
func Run(scenario *Scenario) (*Result, error) {
	wf, err := flow.Parse([]byte(scenario.Workflow))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: open store: %w", scenario.Name, err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, seed := range scenario.Seed {
		if seed.UserID == "" {
			err = st.SetGlobal(ctx, seed.Key, seed.Value)
		} else {
			err = st.Set(ctx, seed.UserID, seed.Key, seed.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("scenario %s: seed %s: %w", scenario.Name, seed.Key, err)
		}
	}

	now := scenario.Now
	if now.IsZero() {
		now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	clock := testutil.NewClock(now)
	clock.QueueInt(scenario.Ints...)
	clock.QueueFloat(scenario.Floats...)

	tokens := make([]string, maxRuns)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("run-%d", i+1)
	}

	result := &Result{}
	eng := engine.New(
		engine.WithStores(st, st, st),
		engine.WithClock(clock),
		engine.WithRunTokens(engine.NewFixedGenerator(tokens...)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithTrace(func(ev engine.TraceEvent) {
			result.Trace = append(result.Trace, ev)
		}),
	)

	rec := reply.NewRecorder()
	for _, ev := range scenario.Events {
		fe := flow.Event{UserID: ev.UserID, GroupID: ev.GroupID, MessageID: ev.MessageID}
		var matched bool
		if ev.Scheduled {
			matched = eng.ExecuteFromTrigger(ctx, wf, fe, rec)
		} else {
			matched = eng.Execute(ctx, wf, fe, ev.Text, rec)
		}
		result.Matched = append(result.Matched, matched)
	}

	result.Replies = rec.Calls()
	result.Slept = clock.Slept()
	return result, nil
}
