package graph

// Ref points at an output of another node. It is resolved by the
// provisioning engine once the referenced node is realized.
type Ref struct {
	Node   string `json:"$node" yaml:"node"`
	Output string `json:"$output" yaml:"output"`
}

// RefTo creates a reference to an output of a node
func RefTo(node, output string) Ref {
	return Ref{Node: node, Output: output}
}
