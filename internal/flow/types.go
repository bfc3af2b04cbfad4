package flow

// NodeKind identifies the behavior of a node. The Data schema of a node is
// polymorphic per kind; see the package documentation.
type NodeKind string

const (
	KindTrigger       NodeKind = "trigger"
	KindCondition     NodeKind = "condition"
	KindAction        NodeKind = "action"
	KindDelay         NodeKind = "delay"
	KindSetVar        NodeKind = "set_var"
	KindStorage       NodeKind = "storage"
	KindGlobalStorage NodeKind = "global_storage"
	KindLeaderboard   NodeKind = "leaderboard"
	KindMath          NodeKind = "math"
	KindStringOp      NodeKind = "string_op"
	KindListRandom    NodeKind = "list_random"
)

// Output ports. Condition nodes expose exactly two ports; every other kind
// uses the single implicit port (empty string).
const (
	PortSuccess = "success"
	PortFailure = "failure"
	PortDefault = ""
)

// ScheduledText is the synthetic message text the scheduler supplies when
// it drives a workflow. Triggers of type "scheduled" or "timer" match only
// this sentinel. It contains a NUL byte so it can never collide with live
// chat text.
const ScheduledText = "\x00scheduled\x00"

// Node is one unit of workflow behavior.
type Node struct {
	ID   string            `yaml:"id" json:"id"`
	Kind NodeKind          `yaml:"kind" json:"kind"`
	Data map[string]string `yaml:"data,omitempty" json:"data,omitempty"`
}

// Param returns the named data parameter, or "" when absent.
func (n Node) Param(key string) string {
	return n.Data[key]
}

// ParamDefault returns the named data parameter, or def when absent or empty.
func (n Node) ParamDefault(key, def string) string {
	if v, ok := n.Data[key]; ok && v != "" {
		return v
	}
	return def
}

// Connection is a directed edge between two nodes, tagged with the output
// port of the source node. A connection whose From or To references a
// missing node is legal and inert.
type Connection struct {
	From   string `yaml:"from" json:"from"`
	To     string `yaml:"to" json:"to"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Workflow is an identified automation definition: an ordered collection of
// nodes plus the connections between them.
//
// Invariant: node IDs are unique within a workflow (enforced by Validate).
// Connection order is significant: within one walk, outgoing connections
// are followed in declaration order.
type Workflow struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name,omitempty" json:"name,omitempty"`
	Nodes       []Node       `yaml:"nodes" json:"nodes"`
	Connections []Connection `yaml:"connections,omitempty" json:"connections,omitempty"`
}

// NodeByID returns the node with the given ID, or false when absent.
func (w *Workflow) NodeByID(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Triggers returns the workflow's trigger nodes in declaration order.
func (w *Workflow) Triggers() []Node {
	var out []Node
	for _, n := range w.Nodes {
		if n.Kind == KindTrigger {
			out = append(out, n)
		}
	}
	return out
}

// ConnectionsFrom returns the connections leaving node id through the given
// output port, in declaration order.
func (w *Workflow) ConnectionsFrom(id, output string) []Connection {
	var out []Connection
	for _, c := range w.Connections {
		if c.From == id && c.Output == output {
			out = append(out, c)
		}
	}
	return out
}

// Event is a read-only normalized inbound message. GroupID is empty for
// direct messages. The raw message text travels beside the event, not
// inside it, so scheduler-driven walks can reuse the same event shape with
// no text at all.
type Event struct {
	UserID    string `json:"user_id"`
	GroupID   string `json:"group_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}
