// Package engine implements the workflow execution engine.
//
// One walk per inbound event: Execute selects the trigger whose match
// succeeds for the message text, seeds a fresh execution context with the
// trigger's captures, and walks the node graph depth-first. Condition
// nodes route through their success or failure port; every other kind
// performs its effect and continues through the implicit port. Outgoing
// connections are followed in declaration order, and a parent node's side
// effects complete before any child is visited, so chained context reads
// and writes are consistent within a walk.
//
// The engine carries no business logic. Effects go through narrow
// collaborator interfaces: the reply surface, user/global key-value
// storage, ranked storage, and an injected HTTP client for the generic
// HTTP action.
//
// ERROR MODEL:
//
// Nothing in a walk is fatal to the host. Malformed regular expressions,
// unknown condition kinds, storage failures, and expression errors all
// degrade locally: a trigger that cannot match does not fire, a condition
// that cannot evaluate is false, an action that fails logs and the walk
// continues. The one user-visible failure is the generic HTTP action,
// which reports its own error as the reply.
//
// TERMINATION:
//
// The graph may contain connection cycles; no visited set is kept, so a
// cycle re-executes nodes. A per-walk step quota (default 256) bounds
// every walk instead, in place of the unbounded recursion a naive
// traversal would allow. Exceeding the quota logs a warning and stops
// that branch; siblings already scheduled still run.
package engine
