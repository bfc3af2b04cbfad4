package testutil

import "github.com/raikhel/botflow/internal/flow"

// Trigger builds a trigger node with the given match type and literal.
func Trigger(id, typ, value string) flow.Node {
	return flow.Node{
		ID:   id,
		Kind: flow.KindTrigger,
		Data: map[string]string{"type": typ, "value": value},
	}
}

// Condition builds a condition node with the given predicate and operand.
func Condition(id, typ, value string) flow.Node {
	return flow.Node{
		ID:   id,
		Kind: flow.KindCondition,
		Data: map[string]string{"type": typ, "value": value},
	}
}

// ReplyText builds an action node that replies with text.
func ReplyText(id, text string) flow.Node {
	return flow.Node{
		ID:   id,
		Kind: flow.KindAction,
		Data: map[string]string{"type": "reply_text", "value": text},
	}
}

// Node builds an arbitrary node.
func Node(id string, kind flow.NodeKind, data map[string]string) flow.Node {
	return flow.Node{ID: id, Kind: kind, Data: data}
}

// Connect builds a connection on the implicit port.
func Connect(from, to string) flow.Connection {
	return flow.Connection{From: from, To: to}
}

// ConnectPort builds a connection on an explicit output port.
func ConnectPort(from, to, output string) flow.Connection {
	return flow.Connection{From: from, To: to, Output: output}
}

// Workflow assembles a workflow from nodes and connections.
func Workflow(id string, nodes []flow.Node, conns []flow.Connection) *flow.Workflow {
	return &flow.Workflow{ID: id, Nodes: nodes, Connections: conns}
}
