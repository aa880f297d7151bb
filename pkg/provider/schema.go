// Package provider models the provider schema catalog consumed by the
// conversion pipeline. The catalog maps fully-qualified provider names to
// the schemas of their resources and data sources, in the shape produced by
// `terraform providers schema -json`.
package provider

import (
	"encoding/json"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Catalog is the full schema input for a conversion: provider schemas keyed
// by FQPN plus module schemas keyed by module name.
type Catalog struct {
	Providers map[string]*Schema       `json:"provider_schemas"`
	Modules   map[string]*ModuleSchema `json:"module_schemas"`
}

// Schema is a single provider's schema.
type Schema struct {
	Provider          *BlockType            `json:"provider"`
	ResourceSchemas   map[string]*BlockType `json:"resource_schemas"`
	DataSourceSchemas map[string]*BlockType `json:"data_source_schemas"`
}

// BlockType wraps a block schema with its format version, matching the
// Terraform CLI JSON output.
type BlockType struct {
	Version int    `json:"version"`
	Block   *Block `json:"block"`
}

// Block describes the attributes and nested blocks of a schema block.
type Block struct {
	Attributes map[string]*Attribute   `json:"attributes"`
	BlockTypes map[string]*NestedBlock `json:"block_types"`
}

// Attribute is a single attribute schema. Type is decoded from the HCL type
// language serialization.
type Attribute struct {
	Type        cty.Type
	Description string
	Required    bool
	Optional    bool
	Computed    bool
	Sensitive   bool
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        json.RawMessage `json:"type"`
		Description string          `json:"description"`
		Required    bool            `json:"required"`
		Optional    bool            `json:"optional"`
		Computed    bool            `json:"computed"`
		Sensitive   bool            `json:"sensitive"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Description = raw.Description
	a.Required = raw.Required
	a.Optional = raw.Optional
	a.Computed = raw.Computed
	a.Sensitive = raw.Sensitive
	a.Type = cty.DynamicPseudoType
	if len(raw.Type) > 0 {
		ty, err := ctyjson.UnmarshalType(raw.Type)
		if err != nil {
			return err
		}
		a.Type = ty
	}
	return nil
}

// NestedBlock is a block nested within another block's schema.
type NestedBlock struct {
	Block       *Block `json:"block"`
	NestingMode string `json:"nesting_mode"`
	MinItems    int    `json:"min_items"`
	MaxItems    int    `json:"max_items"`
}

// ModuleSchema carries the declared inputs and outputs of a module.
type ModuleSchema struct {
	Inputs  map[string]*ModuleInput `json:"inputs"`
	Outputs map[string]struct {
		Description string `json:"description"`
	} `json:"outputs"`
}

// ModuleInput is a single declared module input.
type ModuleInput struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
	Required    bool        `json:"required"`
}

// ProviderName extracts the short provider name from an FQPN, e.g.
// "registry.terraform.io/hashicorp/aws" becomes "aws".
func ProviderName(fqpn string) string {
	parts := strings.Split(fqpn, "/")
	name := parts[len(parts)-1]
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name
}

// LookupProvider finds a provider schema by short name, matching the final
// segment of each FQPN.
func (c *Catalog) LookupProvider(name string) (string, *Schema, bool) {
	for fqpn, schema := range c.Providers {
		if ProviderName(fqpn) == name {
			return fqpn, schema, true
		}
	}
	return "", nil, false
}

// LookupResource finds the schema for a resource type. The owning provider
// is the longest provider short name that prefixes the type.
func (c *Catalog) LookupResource(resourceType string) (*BlockType, bool) {
	schema, ok := c.lookupByType(resourceType)
	if !ok {
		return nil, false
	}
	block, ok := schema.ResourceSchemas[resourceType]
	return block, ok
}

// LookupDataSource finds the schema for a data source type.
func (c *Catalog) LookupDataSource(dataSourceType string) (*BlockType, bool) {
	schema, ok := c.lookupByType(dataSourceType)
	if !ok {
		return nil, false
	}
	block, ok := schema.DataSourceSchemas[dataSourceType]
	return block, ok
}

func (c *Catalog) lookupByType(blockType string) (*Schema, bool) {
	var best *Schema
	bestLen := -1
	for fqpn, schema := range c.Providers {
		name := ProviderName(fqpn)
		if (blockType == name || strings.HasPrefix(blockType, name+"_")) && len(name) > bestLen {
			best = schema
			bestLen = len(name)
		}
	}
	return best, best != nil
}
