package provider

import (
	"strings"
	"sync"
	"unicode"
)

// Generator caches per-provider resource model metadata: the mapping from
// HCL attribute names to host-language property names, derived lazily from
// the catalog on first lookup. A Generator may be shared across conversions;
// all access is mutex-guarded.
type Generator struct {
	catalog *Catalog

	mu     sync.Mutex
	models map[string]*ResourceModel
}

// ResourceModel is the generated metadata for one resource or data source
// type.
type ResourceModel struct {
	// Type is the HCL block type, e.g. "aws_vpc".
	Type string

	// ClassName is the construct class name, e.g. "AwsVpc" for "aws_vpc".
	ClassName string

	// Attributes maps HCL attribute names to host property names.
	Attributes map[string]string
}

// NewGenerator creates a generator over the given catalog.
func NewGenerator(catalog *Catalog) *Generator {
	return &Generator{
		catalog: catalog,
		models:  make(map[string]*ResourceModel),
	}
}

// ResourceModel returns the cached model for a resource type, generating it
// on first use. The second return is false when the catalog has no schema
// for the type.
func (g *Generator) ResourceModel(resourceType string) (*ResourceModel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if model, ok := g.models[resourceType]; ok {
		return model, model != nil
	}

	block, ok := g.catalog.LookupResource(resourceType)
	if !ok {
		block, ok = g.catalog.LookupDataSource(resourceType)
	}
	if !ok {
		// Negative entries are cached too so repeated misses stay cheap.
		g.models[resourceType] = nil
		return nil, false
	}

	model := buildModel(resourceType, block)
	g.models[resourceType] = model
	return model, true
}

func buildModel(resourceType string, block *BlockType) *ResourceModel {
	model := &ResourceModel{
		Type:       resourceType,
		ClassName:  ClassName(resourceType),
		Attributes: make(map[string]string),
	}
	if block.Block != nil {
		for name := range block.Block.Attributes {
			model.Attributes[name] = Camelize(name)
		}
		for name := range block.Block.BlockTypes {
			model.Attributes[name] = Camelize(name)
		}
	}
	return model
}

// ClassName derives the construct class name from a block type by
// PascalCasing its segments: "null_resource" becomes "NullResource".
func ClassName(blockType string) string {
	parts := strings.Split(blockType, "_")
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(pascalSegment(part))
	}
	return b.String()
}

// Camelize converts a snake_case HCL name to camelCase.
func Camelize(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for i, part := range parts {
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(pascalSegment(part))
	}
	return b.String()
}

func pascalSegment(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
