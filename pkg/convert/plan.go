// Package convert implements the HCL-to-CDKTF conversion pipeline: plan
// validation, scope construction, node enumeration, reference discovery,
// topological emission, framing, and lowering dispatch.
package convert

import (
	"fmt"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Plan is the validated form of the parsed HCL tree. Collections are keyed
// the way Terraform's JSON configuration syntax keys them; enumeration
// helpers provide deterministic iteration.
type Plan struct {
	Terraform   []map[string]interface{}
	Providers   map[string][]map[string]interface{}
	Variables   map[string]map[string]interface{}
	Locals      []map[string]interface{}
	Outputs     map[string]map[string]interface{}
	Modules     map[string][]map[string]interface{}
	Resources   map[string]map[string][]map[string]interface{}
	DataSources map[string]map[string][]map[string]interface{}
}

// ValidatePlan checks the raw JSON-shaped tree against the Terraform block
// grammar and returns the typed plan. Unknown top-level keys and unknown
// attributes inside blocks are accepted; wrong value shapes are rejected
// with the structured path of the offending node.
func ValidatePlan(raw map[string]interface{}) (*Plan, error) {
	plan := &Plan{
		Providers:   make(map[string][]map[string]interface{}),
		Variables:   make(map[string]map[string]interface{}),
		Outputs:     make(map[string]map[string]interface{}),
		Modules:     make(map[string][]map[string]interface{}),
		Resources:   make(map[string]map[string][]map[string]interface{}),
		DataSources: make(map[string]map[string][]map[string]interface{}),
	}

	for key, value := range raw {
		var err error
		switch key {
		case "terraform":
			plan.Terraform, err = blockList(value, []string{"terraform"})
		case "provider":
			plan.Providers, err = namedBlockLists(value, []string{"provider"})
		case "variable":
			plan.Variables, err = namedBlocks(value, []string{"variable"})
		case "locals":
			plan.Locals, err = blockList(value, []string{"locals"})
		case "output":
			plan.Outputs, err = namedBlocks(value, []string{"output"})
		case "module":
			plan.Modules, err = namedBlockLists(value, []string{"module"})
		case "resource":
			plan.Resources, err = typedBlocks(value, []string{"resource"})
		case "data":
			plan.DataSources, err = typedBlocks(value, []string{"data"})
		default:
			// Unknown top-level blocks are accepted for forward
			// compatibility and ignored by the pipeline.
		}
		if err != nil {
			return nil, err
		}
	}

	for name, invocations := range plan.Modules {
		for i, invocation := range invocations {
			if _, ok := invocation["source"].(string); !ok {
				path := []string{"module", name, fmt.Sprintf("%d", i), "source"}
				return nil, errors.SchemaConformanceError(path, "module invocation requires a string source")
			}
		}
	}

	return plan, nil
}

// blockList validates a list of block bodies.
func blockList(value interface{}, path []string) ([]map[string]interface{}, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, errors.SchemaConformanceError(path, "expected a list of blocks")
	}
	out := make([]map[string]interface{}, 0, len(list))
	for i, item := range list {
		body, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.SchemaConformanceError(append(path, fmt.Sprintf("%d", i)), "expected a block body")
		}
		out = append(out, body)
	}
	return out, nil
}

// namedBlocks validates a mapping from name to a single block body. A list
// at the leaf collapses to its first element.
func namedBlocks(value interface{}, path []string) (map[string]map[string]interface{}, error) {
	byName, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.SchemaConformanceError(path, "expected a mapping of names to blocks")
	}
	out := make(map[string]map[string]interface{}, len(byName))
	for name, item := range byName {
		list, err := blockList(item, append(path, name))
		if err != nil {
			// Accept a bare body for convenience when the input was not
			// produced by the HCL boundary.
			if body, ok := item.(map[string]interface{}); ok {
				out[name] = body
				continue
			}
			return nil, err
		}
		if len(list) == 0 {
			return nil, errors.SchemaConformanceError(append(path, name), "expected at least one block")
		}
		out[name] = list[0]
	}
	return out, nil
}

// namedBlockLists validates a mapping from name to a list of block bodies.
func namedBlockLists(value interface{}, path []string) (map[string][]map[string]interface{}, error) {
	byName, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.SchemaConformanceError(path, "expected a mapping of names to block lists")
	}
	out := make(map[string][]map[string]interface{}, len(byName))
	for name, item := range byName {
		list, err := blockList(item, append(path, name))
		if err != nil {
			return nil, err
		}
		out[name] = list
	}
	return out, nil
}

// typedBlocks validates the two-level resource/data shape: type, then name,
// then a list of configurations.
func typedBlocks(value interface{}, path []string) (map[string]map[string][]map[string]interface{}, error) {
	byType, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.SchemaConformanceError(path, "expected a mapping of block types")
	}
	out := make(map[string]map[string][]map[string]interface{}, len(byType))
	for blockType, names := range byType {
		inner, err := namedBlockLists(names, append(path, blockType))
		if err != nil {
			return nil, err
		}
		out[blockType] = inner
	}
	return out, nil
}

// Backend returns the backend type and configuration from the terraform
// blocks, or false when none is declared.
func (p *Plan) Backend() (string, map[string]interface{}, bool) {
	for _, block := range p.Terraform {
		backends, ok := block["backend"].(map[string]interface{})
		if !ok {
			continue
		}
		for _, name := range sortedNames(backends) {
			configs, _ := backends[name].([]interface{})
			for _, config := range configs {
				if body, ok := config.(map[string]interface{}); ok {
					return name, body, true
				}
			}
		}
	}
	return "", nil, false
}

// RequiredProviders returns the merged required_providers table: provider
// name to its source and version constraint.
func (p *Plan) RequiredProviders() map[string]ProviderRequirement {
	out := make(map[string]ProviderRequirement)
	for _, block := range p.Terraform {
		lists, ok := block["required_providers"].([]interface{})
		if !ok {
			continue
		}
		for _, item := range lists {
			table, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			for name, spec := range table {
				req := ProviderRequirement{}
				switch v := spec.(type) {
				case string:
					req.Version = v
				case map[string]interface{}:
					req.Source, _ = v["source"].(string)
					req.Version, _ = v["version"].(string)
				}
				out[name] = req
			}
		}
	}
	return out
}

// ProviderRequirement is one entry of the required_providers table.
type ProviderRequirement struct {
	Source  string
	Version string
}
