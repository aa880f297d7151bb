package convert

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/architect-io/hcl2cdk/pkg/ast"
	"github.com/architect-io/hcl2cdk/pkg/graph"
	"github.com/architect-io/hcl2cdk/pkg/provider"
)

// metaArguments are resource arguments handled outside the provider schema.
var metaArguments = map[string]bool{
	"count":       true,
	"for_each":    true,
	"depends_on":  true,
	"provider":    true,
	"lifecycle":   true,
	"provisioner": true,
	"connection":  true,
}

// emitter produces the statements for one node once all of its
// dependencies have been emitted.
type emitter func(g *graph.Graph) ([]ast.Stmt, error)

// declare binds a constructor expression to the node's identifier when the
// node has dependents, and emits it bare otherwise.
func declare(g *graph.Graph, nodeID, ident string, value ast.Expr) []ast.Stmt {
	node := g.GetNode(nodeID)
	if node != nil && len(node.DependedOnBy) > 0 {
		return []ast.Stmt{&ast.ConstDecl{Name: ident, Value: value}}
	}
	return []ast.Stmt{&ast.ExprStmt{X: value}}
}

func (c *converter) emitProvider(nodeID, name string, config map[string]interface{}) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)
		logicalName := name
		if alias, ok := config["alias"].(string); ok && alias != "" {
			logicalName = name + "." + alias
		}

		schema := c.providerConfigSchema(name)
		obj := c.translateBody(config, schema, nil)
		ctor := &ast.New{
			Ctor: provider.ClassName(name) + "Provider",
			Args: []ast.Expr{&ast.Ident{Name: "this"}, ast.Str(logicalName), obj},
		}
		return declare(g, nodeID, ident, ctor), nil
	}
}

func (c *converter) emitVariable(nodeID, name string, decl map[string]interface{}) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)

		entries := []ast.ObjectEntry{}
		if typeStr, ok := decl["type"].(string); ok {
			entries = append(entries, ast.ObjectEntry{Key: "type", Value: variableTypeExpr(typeStr)})
		}
		if def, ok := decl["default"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "default", Value: c.tr.translateValue(def, cty.DynamicPseudoType)})
		}
		if desc, ok := decl["description"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "description", Value: c.tr.translateValue(desc, cty.String)})
		}
		if sensitive, ok := decl["sensitive"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "sensitive", Value: c.tr.translateValue(sensitive, cty.Bool)})
		}
		if nullable, ok := decl["nullable"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "nullable", Value: c.tr.translateValue(nullable, cty.Bool)})
		}

		ctor := &ast.New{
			Ctor: "TerraformVariable",
			Args: []ast.Expr{&ast.Ident{Name: "this"}, ast.Str(name), &ast.Object{Entries: entries}},
		}
		return []ast.Stmt{&ast.ConstDecl{Name: ident, Value: ctor}}, nil
	}
}

func (c *converter) emitLocal(nodeID string, value interface{}) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)
		expr := c.tr.translateValue(value, cty.DynamicPseudoType)
		return []ast.Stmt{&ast.ConstDecl{Name: ident, Value: expr}}, nil
	}
}

func (c *converter) emitOutput(nodeID, name string, decl map[string]interface{}) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)

		entries := []ast.ObjectEntry{}
		if value, ok := decl["value"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "value", Value: c.tr.translateValue(value, cty.DynamicPseudoType)})
		}
		if desc, ok := decl["description"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "description", Value: c.tr.translateValue(desc, cty.String)})
		}
		if sensitive, ok := decl["sensitive"]; ok {
			entries = append(entries, ast.ObjectEntry{Key: "sensitive", Value: c.tr.translateValue(sensitive, cty.Bool)})
		}

		ctor := &ast.New{
			Ctor: "TerraformOutput",
			Args: []ast.Expr{&ast.Ident{Name: "this"}, ast.Str(name), &ast.Object{Entries: entries}},
		}
		return declare(g, nodeID, ident, ctor), nil
	}
}

func (c *converter) emitModule(nodeID, name string, invocation map[string]interface{}) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)

		entries := []ast.ObjectEntry{}
		for _, key := range sortedNames(invocation) {
			if key == "source" || key == "version" {
				continue
			}
			entries = append(entries, ast.ObjectEntry{
				Key:   camelize(key),
				Value: c.tr.translateValue(invocation[key], cty.DynamicPseudoType),
			})
		}

		source, _ := invocation["source"].(string)
		ctor := &ast.New{
			Ctor: moduleClassName(source),
			Args: []ast.Expr{&ast.Ident{Name: "this"}, ast.Str(name), &ast.Object{Entries: entries}},
		}
		return declare(g, nodeID, ident, ctor), nil
	}
}

func (c *converter) emitResource(nodeID, blockType, name string, config map[string]interface{}, isData bool) emitter {
	return func(g *graph.Graph) ([]ast.Stmt, error) {
		ident, _ := c.scope.Identifier(nodeID)

		block := lookupBlock(c.scope, blockType, isData)
		obj := c.translateBody(config, block, metaArguments)
		c.appendMetaArguments(obj, config)

		className := provider.ClassName(blockType)
		if isData {
			className = "Data" + className
		}
		ctor := &ast.New{
			Ctor: className,
			Args: []ast.Expr{&ast.Ident{Name: "this"}, ast.Str(name), obj},
		}
		return declare(g, nodeID, ident, ctor), nil
	}
}

// emitBackend lowers the backend block to its framework constructor. The
// statement is prepended to the declaration list during framing.
func (c *converter) emitBackend(backendType string, config map[string]interface{}) []ast.Stmt {
	entries := []ast.ObjectEntry{}
	for _, key := range sortedNames(config) {
		entries = append(entries, ast.ObjectEntry{
			Key:   camelize(key),
			Value: c.tr.translateValue(config[key], cty.DynamicPseudoType),
		})
	}
	ctor := &ast.New{
		Ctor: backendClassName(backendType),
		Args: []ast.Expr{&ast.Ident{Name: "this"}, &ast.Object{Entries: entries}},
	}
	return []ast.Stmt{&ast.ExprStmt{X: ctor}}
}

// translateBody lowers a block body to an object expression. Attribute
// values use the declared schema types; nested block types recurse with the
// nested schema; skipped keys are handled by the caller.
func (c *converter) translateBody(body map[string]interface{}, block *provider.Block, skip map[string]bool) *ast.Object {
	entries := []ast.ObjectEntry{}
	for _, key := range sortedNames(body) {
		if skip != nil && skip[key] {
			continue
		}
		if key == "dynamic" {
			entries = append(entries, c.translateDynamicBlocks(body[key], block)...)
			continue
		}

		value := body[key]
		if block != nil {
			if nested, ok := block.BlockTypes[key]; ok {
				entries = append(entries, ast.ObjectEntry{
					Key:   camelize(key),
					Value: c.translateNestedBlock(value, nested),
				})
				continue
			}
			if attr, ok := block.Attributes[key]; ok {
				entries = append(entries, ast.ObjectEntry{
					Key:   camelize(key),
					Value: c.tr.translateValue(value, attr.Type),
				})
				continue
			}
		}
		entries = append(entries, ast.ObjectEntry{
			Key:   camelize(key),
			Value: c.tr.translateValue(value, cty.DynamicPseudoType),
		})
	}
	return &ast.Object{Entries: entries}
}

// translateNestedBlock lowers the bodies collected for a nested block type.
// Single-nested blocks collapse to one object; list and set nesting keep
// the list shape.
func (c *converter) translateNestedBlock(value interface{}, nested *provider.NestedBlock) ast.Expr {
	bodies, ok := value.([]interface{})
	if !ok {
		if body, ok := value.(map[string]interface{}); ok {
			return c.translateBody(body, nested.Block, nil)
		}
		return c.tr.translateValue(value, cty.DynamicPseudoType)
	}

	if nested.NestingMode == "single" && len(bodies) == 1 {
		if body, ok := bodies[0].(map[string]interface{}); ok {
			return c.translateBody(body, nested.Block, nil)
		}
	}

	elems := make([]ast.Expr, 0, len(bodies))
	for _, item := range bodies {
		if body, ok := item.(map[string]interface{}); ok {
			elems = append(elems, c.translateBody(body, nested.Block, nil))
			continue
		}
		elems = append(elems, c.tr.translateValue(item, cty.DynamicPseudoType))
	}
	return &ast.List{Elems: elems}
}

// translateDynamicBlocks lowers dynamic blocks to comprehensions over their
// for_each collection, with content attributes mapped per element.
func (c *converter) translateDynamicBlocks(value interface{}, block *provider.Block) []ast.ObjectEntry {
	byLabel, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	entries := []ast.ObjectEntry{}
	for _, label := range sortedNames(byLabel) {
		bodies, _ := byLabel[label].([]interface{})
		for _, item := range bodies {
			body, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			forEach, hasForEach := body["for_each"]
			contents, _ := body["content"].([]interface{})
			if !hasForEach || len(contents) == 0 {
				c.scope.Warn("dynamic block %q without for_each and content dropped", label)
				continue
			}
			content, ok := contents[0].(map[string]interface{})
			if !ok {
				continue
			}

			var nestedBlock *provider.Block
			if block != nil {
				if nested, found := block.BlockTypes[label]; found {
					nestedBlock = nested.Block
				}
			}

			entries = append(entries, ast.ObjectEntry{
				Key: camelize(label),
				Value: &ast.ForList{
					ValVar: label,
					Coll:   c.tr.translateValue(forEach, cty.DynamicPseudoType),
					Value:  c.translateBody(content, nestedBlock, nil),
				},
			})
		}
	}
	return entries
}

// appendMetaArguments adds the meta-argument entries to a resource config.
func (c *converter) appendMetaArguments(obj *ast.Object, config map[string]interface{}) {
	if count, ok := config["count"]; ok {
		obj.Entries = append(obj.Entries, ast.ObjectEntry{
			Key:   "count",
			Value: c.tr.translateValue(count, cty.Number),
		})
	}
	if forEach, ok := config["for_each"]; ok {
		obj.Entries = append(obj.Entries, ast.ObjectEntry{
			Key:   "forEach",
			Value: c.tr.translateValue(forEach, cty.DynamicPseudoType),
		})
	}
	if dependsOn, ok := config["depends_on"].([]interface{}); ok {
		refs := make([]ast.Expr, 0, len(dependsOn))
		for _, dep := range dependsOn {
			refs = append(refs, c.dependsOnRef(dep))
		}
		obj.Entries = append(obj.Entries, ast.ObjectEntry{Key: "dependsOn", Value: &ast.List{Elems: refs}})
	}
	if prov, ok := config["provider"]; ok {
		obj.Entries = append(obj.Entries, ast.ObjectEntry{
			Key:   "provider",
			Value: c.tr.translateValue(prov, cty.DynamicPseudoType),
		})
	}
	if lifecycle, ok := config["lifecycle"].([]interface{}); ok && len(lifecycle) > 0 {
		if body, ok := lifecycle[0].(map[string]interface{}); ok {
			obj.Entries = append(obj.Entries, ast.ObjectEntry{
				Key:   "lifecycle",
				Value: c.translateBody(body, nil, nil),
			})
		}
	}
}

// dependsOnRef resolves a depends_on entry to the referenced construct
// identifier when registered, keeping it verbatim otherwise.
func (c *converter) dependsOnRef(dep interface{}) ast.Expr {
	s, ok := dep.(string)
	if !ok {
		return c.tr.translateValue(dep, cty.DynamicPseudoType)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
	for _, id := range discoverReferences(s) {
		if ident, registered := c.scope.Identifier(id); registered {
			return &ast.Ident{Name: ident}
		}
	}
	return &ast.Raw{Text: raw}
}

// lookupBlock returns the schema block for a resource or data source type.
func lookupBlock(s *Scope, blockType string, isData bool) *provider.Block {
	if isData {
		if bt, ok := s.Catalog().LookupDataSource(blockType); ok {
			return bt.Block
		}
		return nil
	}
	if bt, ok := s.Catalog().LookupResource(blockType); ok {
		return bt.Block
	}
	return nil
}

// providerConfigSchema returns the provider-level configuration schema.
func (c *converter) providerConfigSchema(name string) *provider.Block {
	if _, schema, ok := c.scope.Catalog().LookupProvider(name); ok && schema.Provider != nil {
		return schema.Provider.Block
	}
	return nil
}

// variableTypeExpr renders a variable's declared type as a string literal.
// Bare type keywords arrive wrapped as interpolations.
func variableTypeExpr(raw string) ast.Expr {
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, "${"), "}")
	return ast.Str(inner)
}

// moduleClassName derives the generated module binding class from its
// source: the last registry path segment before the provider suffix, e.g.
// "terraform-aws-modules/vpc/aws" becomes "Vpc".
func moduleClassName(source string) string {
	trimmed := strings.Trim(source, "./")
	parts := strings.Split(trimmed, "/")
	segment := parts[len(parts)-1]
	if len(parts) >= 3 {
		// Registry sources are namespace/name/provider.
		segment = parts[len(parts)-2]
	}
	segment = strings.ReplaceAll(segment, "-", "_")
	segment = strings.ReplaceAll(segment, ".", "_")
	return provider.ClassName(segment)
}

// backendClassName maps a backend type to its framework constructor.
func backendClassName(backendType string) string {
	return provider.ClassName(backendType) + "Backend"
}
