package convert

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// reservedPrefixes are traversal roots that never reference another
// top-level node: they are bound within the containing block.
var reservedPrefixes = map[string]bool{
	"count":     true,
	"each":      true,
	"self":      true,
	"path":      true,
	"terraform": true,
}

// discoverReferences walks a block's structured value and returns the node
// ids referenced by its expressions, in discovery order with duplicates
// removed. Strings are re-parsed as HCL templates; unparseable strings
// contribute nothing.
func discoverReferences(value interface{}) []string {
	seen := make(map[string]bool)
	var ids []string
	walkValue(value, func(traversal hcl.Traversal) {
		id, ok := traversalNodeID(traversal)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})
	return ids
}

func walkValue(value interface{}, visit func(hcl.Traversal)) {
	switch v := value.(type) {
	case string:
		expr, diags := hclsyntax.ParseTemplate([]byte(v), "inline", hcl.InitialPos)
		if diags.HasErrors() {
			return
		}
		for _, traversal := range expr.Variables() {
			visit(traversal)
		}
	case []interface{}:
		for _, item := range v {
			walkValue(item, visit)
		}
	case map[string]interface{}:
		for _, key := range sortedNames(v) {
			walkValue(v[key], visit)
		}
	}
}

// traversalNodeID maps a traversal to the node id it references:
// "var.region" to itself, "aws_vpc.main.id" to "resource.aws_vpc.main".
// Reserved roots and too-short traversals produce no id.
func traversalNodeID(traversal hcl.Traversal) (string, bool) {
	parts := traversalParts(traversal)
	if len(parts) == 0 || reservedPrefixes[parts[0]] {
		return "", false
	}

	switch parts[0] {
	case "var", "local", "module":
		if len(parts) < 2 {
			return "", false
		}
		return parts[0] + "." + parts[1], true
	case "data":
		if len(parts) < 3 {
			return "", false
		}
		return "data." + parts[1] + "." + parts[2], true
	default:
		if len(parts) < 2 {
			return "", false
		}
		return "resource." + parts[0] + "." + parts[1], true
	}
}

// traversalParts flattens the leading attribute chain of a traversal,
// stopping at the first index step.
func traversalParts(traversal hcl.Traversal) []string {
	var parts []string
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, s.Name)
		case hcl.TraverseAttr:
			parts = append(parts, s.Name)
		default:
			return parts
		}
	}
	return parts
}

// nodeDisplayName returns the portion of a node id after its kind prefix,
// e.g. "aws_vpc.main" for "resource.aws_vpc.main".
func nodeDisplayName(nodeID string) string {
	_, rest, found := strings.Cut(nodeID, ".")
	if !found {
		return nodeID
	}
	return rest
}
