package flow

import (
	"fmt"
)

// TriggerTypes enumerates the recognized trigger match strategies.
// "scheduled" and "timer" never match live text; they fire only from the
// scheduler's sentinel.
var TriggerTypes = map[string]bool{
	"exact":      true,
	"contains":   true,
	"startswith": true,
	"regex":      true,
	"any":        true,
	"scheduled":  true,
	"timer":      true,
}

// requiredParams lists, per node kind, the data keys that must be present
// and non-empty for the node to be executable at all. Kinds absent from
// the map have no structural requirements; their runtime behavior degrades
// per the engine's error model instead.
var requiredParams = map[NodeKind][]string{
	KindTrigger:       {"type"},
	KindCondition:     {"type"},
	KindAction:        {"type"},
	KindSetVar:        {"name"},
	KindStorage:       {"op", "key"},
	KindGlobalStorage: {"op", "key"},
	KindLeaderboard:   {"key"},
	KindMath:          {"op"},
	KindStringOp:      {"op"},
	KindListRandom:    {"items"},
}

// Validate applies the model invariants the CUE schema cannot express:
// unique node IDs, recognized trigger types, and per-kind required
// parameters. Dangling connections are deliberately not an error; they are
// inert at run time.
func Validate(wf *Workflow) error {
	if wf.ID == "" {
		return fmt.Errorf("workflow has no id")
	}

	seen := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if n.ID == "" {
			return fmt.Errorf("workflow %s: node with empty id", wf.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("workflow %s: duplicate node id %q", wf.ID, n.ID)
		}
		seen[n.ID] = true

		for _, key := range requiredParams[n.Kind] {
			if n.Param(key) == "" {
				return fmt.Errorf("workflow %s: node %s (%s) missing required parameter %q",
					wf.ID, n.ID, n.Kind, key)
			}
		}
		if n.Kind == KindTrigger && !TriggerTypes[n.Param("type")] {
			return fmt.Errorf("workflow %s: node %s: unknown trigger type %q",
				wf.ID, n.ID, n.Param("type"))
		}
	}

	for i, c := range wf.Connections {
		if c.From == "" || c.To == "" {
			return fmt.Errorf("workflow %s: connection %d has empty endpoint", wf.ID, i)
		}
		switch c.Output {
		case PortDefault, PortSuccess, PortFailure:
		default:
			return fmt.Errorf("workflow %s: connection %d has unknown output port %q", wf.ID, i, c.Output)
		}
	}
	return nil
}
