package graph

// Kind identifies which top-level block a node was registered for.
type Kind string

const (
	KindProvider Kind = "provider"
	KindVariable Kind = "var"
	KindLocal    Kind = "local"
	KindOutput   Kind = "out"
	KindModule   Kind = "module"
	KindResource Kind = "resource"
	KindData     Kind = "data"
	KindBackend  Kind = "backend"
)

// Node is a single top-level block in the dependency graph. Its id has the
// form "<kind>.<name>" (resources and data sources include the block type,
// e.g. "resource.aws_vpc.main").
type Node struct {
	// ID is the stable node id.
	ID string

	// Kind is the block kind the node was registered for.
	Kind Kind

	// DependsOn lists ids this node references.
	DependsOn []string

	// DependedOnBy lists ids that reference this node.
	DependedOnBy []string

	order int
}

// NewNode creates a node with the given id and kind.
func NewNode(id string, kind Kind) *Node {
	return &Node{ID: id, Kind: kind}
}

func (n *Node) addDependency(id string) {
	for _, existing := range n.DependsOn {
		if existing == id {
			return
		}
	}
	n.DependsOn = append(n.DependsOn, id)
}

func (n *Node) addDependent(id string) {
	for _, existing := range n.DependedOnBy {
		if existing == id {
			return
		}
	}
	n.DependedOnBy = append(n.DependedOnBy, id)
}

func (n *Node) ready(resolved map[string]bool) bool {
	for _, dep := range n.DependsOn {
		if !resolved[dep] {
			return false
		}
	}
	return true
}
