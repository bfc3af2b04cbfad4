// Package flow defines the workflow data model: workflows, nodes,
// connections, and inbound events.
//
// A workflow is a directed graph of typed nodes. Trigger nodes decide
// whether the workflow fires for an inbound message, condition nodes route
// execution through their success/failure ports, and the remaining kinds
// perform one effect or computation each. Node parameters are flat
// string-to-string maps; the schema of each map is polymorphic per kind
// and is validated once at load time, never per event.
//
// Workflows are authored as YAML (or JSON) documents. Load decodes the
// document, checks it against the embedded CUE schema, and then applies
// the per-kind parameter checks that the schema cannot express.
package flow
