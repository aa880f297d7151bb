package convert

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/architect-io/hcl2cdk/internal/ctxlog"
	"github.com/architect-io/hcl2cdk/pkg/ast"
	"github.com/architect-io/hcl2cdk/pkg/errors"
	"github.com/architect-io/hcl2cdk/pkg/graph"
	"github.com/architect-io/hcl2cdk/pkg/hcl2json"
	"github.com/architect-io/hcl2cdk/pkg/lowering"
	"github.com/architect-io/hcl2cdk/pkg/provider"
)

// DefaultCodeContainer is the construct class declarations are written for
// when the caller does not name one.
const DefaultCodeContainer = "cdktf.TerraformStack"

// Options configure a single conversion.
type Options struct {
	// Language is the target language for the emitted program.
	Language string

	// ProviderSchema is the schema catalog consulted for attribute types.
	// Providers absent from the catalog still convert; their declarations
	// are annotated and their attribute types treated as unknown.
	ProviderSchema *provider.Catalog

	// Generator caches per-provider resource models. Optional; a shared
	// generator amortizes model construction across conversions.
	Generator *provider.Generator

	// CodeContainer is the construct class the declarations target.
	// Defaults to DefaultCodeContainer.
	CodeContainer string

	// ThrowOnTranslationError turns lowering diagnostics of error severity
	// into a failed conversion.
	ThrowOnTranslationError bool
}

// Result is the output of one conversion.
type Result struct {
	All     string
	Imports string
	Code    string

	// Providers and Modules list the referenced provider and module
	// bindings as "source@version" strings.
	Providers []string
	Modules   []string

	Stats    Stats
	Warnings []string
}

// Stats summarizes what one conversion produced.
type Stats struct {
	NumberOfModules   int
	NumberOfProviders int
	Resources         map[string]int
	Data              map[string]int
	ConvertedLines    int
	Language          string
}

// converter holds the pipeline state for a single conversion: the validated
// plan, the scope, the translator, and the dependency graph with one deferred
// emitter per node.
type converter struct {
	plan  *Plan
	scope *Scope
	tr    *translator
	graph *graph.Graph

	emitters map[string]emitter
	values   map[string]interface{}
}

// Convert parses Terraform HCL source and produces an equivalent CDKTF
// program in the requested language, with declarations in dependency order.
func Convert(ctx context.Context, source string, opts Options) (*Result, error) {
	if opts.CodeContainer == "" {
		opts.CodeContainer = DefaultCodeContainer
	}

	raw, err := hcl2json.Parse("main.tf", []byte(source))
	if err != nil {
		return nil, err
	}
	plan, err := ValidatePlan(raw)
	if err != nil {
		return nil, err
	}

	scope := NewScope(opts.ProviderSchema, opts.Generator)
	c := &converter{
		plan:     plan,
		scope:    scope,
		tr:       &translator{scope: scope},
		graph:    graph.New(),
		emitters: make(map[string]emitter),
		values:   make(map[string]interface{}),
	}

	if err := c.enumerate(); err != nil {
		return nil, err
	}
	if err := c.discoverEdges(ctx); err != nil {
		return nil, err
	}

	statements, err := c.emit()
	if err != nil {
		return nil, err
	}

	imports, missing := c.planImports(opts.CodeContainer)
	if len(missing) > 0 && len(statements) > 0 {
		note := &ast.Comment{Lines: []string{
			"No provider schema available for: " + strings.Join(missing, ", ") + ".",
			"Attribute names and types for these declarations were not checked.",
		}}
		statements = append([]ast.Stmt{note}, statements...)
	}

	file := &ast.File{Imports: imports, Statements: statements}
	translation, err := lowering.Translate(file, opts.Language)
	if err != nil {
		return nil, err
	}
	if opts.ThrowOnTranslationError {
		if msgs := translation.ErrorMessages(); len(msgs) > 0 {
			return nil, errors.LoweringError(opts.Language, msgs)
		}
	}

	providers := c.providerSources()
	modules := c.moduleSources()
	result := &Result{
		All:       joinSections(translation.Imports, translation.Code),
		Imports:   translation.Imports,
		Code:      translation.Code,
		Providers: providers,
		Modules:   modules,
		Warnings:  scope.Warnings(),
		Stats: Stats{
			NumberOfModules:   len(modules),
			NumberOfProviders: len(providers),
			Resources:         blockCounts(plan.Resources),
			Data:              blockCounts(plan.DataSources),
			ConvertedLines:    countLines(source),
			Language:          opts.Language,
		},
	}
	return result, nil
}

// enumerate registers every top-level block as a graph node with a deferred
// emitter. Registration order is fixed: providers, variables, locals,
// modules, resources, data sources, outputs, each group sorted by name, so
// identical inputs allocate identical identifiers.
func (c *converter) enumerate() error {
	for _, name := range sortedNames(c.plan.Providers) {
		for i, config := range c.plan.Providers[name] {
			id := indexedID("provider."+name, i)
			preferred := name
			if alias, ok := config["alias"].(string); ok && alias != "" {
				preferred = name + "_" + alias
			}
			if err := c.addNode(id, graph.KindProvider, preferred, config, c.emitProvider(id, name, config)); err != nil {
				return err
			}
		}
	}

	for _, name := range sortedNames(c.plan.Variables) {
		decl := c.plan.Variables[name]
		id := "var." + name
		if err := c.addNode(id, graph.KindVariable, camelize(name), decl, c.emitVariable(id, name, decl)); err != nil {
			return err
		}
	}

	locals := c.mergedLocals()
	for _, name := range sortedNames(locals) {
		value := locals[name]
		id := "local." + name
		if err := c.addNode(id, graph.KindLocal, camelize(name), value, c.emitLocal(id, value)); err != nil {
			return err
		}
	}

	for _, name := range sortedNames(c.plan.Modules) {
		for i, invocation := range c.plan.Modules[name] {
			id := indexedID("module."+name, i)
			if err := c.addNode(id, graph.KindModule, camelize(name), invocation, c.emitModule(id, name, invocation)); err != nil {
				return err
			}
		}
	}

	for _, blockType := range sortedNames(c.plan.Resources) {
		byName := c.plan.Resources[blockType]
		for _, name := range sortedNames(byName) {
			for i, config := range byName[name] {
				id := indexedID("resource."+blockType+"."+name, i)
				if err := c.addNode(id, graph.KindResource, camelize(name), config, c.emitResource(id, blockType, name, config, false)); err != nil {
					return err
				}
			}
		}
	}

	for _, blockType := range sortedNames(c.plan.DataSources) {
		byName := c.plan.DataSources[blockType]
		for _, name := range sortedNames(byName) {
			for i, config := range byName[name] {
				id := indexedID("data."+blockType+"."+name, i)
				if err := c.addNode(id, graph.KindData, camelize(name), config, c.emitResource(id, blockType, name, config, true)); err != nil {
					return err
				}
			}
		}
	}

	for _, name := range sortedNames(c.plan.Outputs) {
		decl := c.plan.Outputs[name]
		id := "out." + name
		if err := c.addNode(id, graph.KindOutput, camelize(name), decl, c.emitOutput(id, name, decl)); err != nil {
			return err
		}
	}

	return nil
}

func (c *converter) addNode(id string, kind graph.Kind, preferred string, value interface{}, emit emitter) error {
	// Providers and modules keep their names; every other identifier starts
	// with a lower-case letter.
	if kind != graph.KindProvider && kind != graph.KindModule && preferred != "" {
		runes := []rune(preferred)
		runes[0] = unicode.ToLower(runes[0])
		preferred = string(runes)
	}
	c.scope.Register(id, preferred)
	if err := c.graph.AddNode(graph.NewNode(id, kind)); err != nil {
		return err
	}
	c.values[id] = value
	c.emitters[id] = emit
	return nil
}

// discoverEdges walks every registered node's value and adds one edge per
// reference, directed from the referencee to the referencer. References to
// the node itself or to unregistered ids contribute no edges.
func (c *converter) discoverEdges(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)
	for _, id := range c.graph.NodeIDs() {
		for _, ref := range discoverReferences(c.values[id]) {
			if ref == id {
				continue
			}
			if !c.graph.HasNode(ref) {
				log.Debug("dropping reference to unregistered node", "from", id, "to", ref)
				continue
			}
			if err := c.graph.AddEdge(ref, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit linearizes the graph and invokes each node's emitter. Backend
// statements come first so state configuration precedes every declaration.
func (c *converter) emit() ([]ast.Stmt, error) {
	var statements []ast.Stmt
	if backendType, config, ok := c.plan.Backend(); ok {
		statements = append(statements, c.emitBackend(backendType, config)...)
	}

	nodes, err := c.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		stmts, err := c.emitters[node.ID](c.graph)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmts...)
	}
	return statements, nil
}

// mergedLocals flattens the locals block list into one table. Later blocks
// win when the same name is assigned twice.
func (c *converter) mergedLocals() map[string]interface{} {
	merged := make(map[string]interface{})
	for _, block := range c.plan.Locals {
		for name, value := range block {
			merged[name] = value
		}
	}
	return merged
}

func indexedID(base string, i int) string {
	if i == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, i)
}

func blockCounts(blocks map[string]map[string][]map[string]interface{}) map[string]int {
	counts := make(map[string]int, len(blocks))
	for blockType, byName := range blocks {
		for _, configs := range byName {
			counts[blockType] += len(configs)
		}
	}
	return counts
}

// countLines returns the number of newline-terminated lines in the source,
// counting a trailing partial line as one.
func countLines(source string) int {
	if source == "" {
		return 0
	}
	n := strings.Count(source, "\n")
	if !strings.HasSuffix(source, "\n") {
		n++
	}
	return n
}

func joinSections(imports, code string) string {
	switch {
	case imports == "":
		return code
	case code == "":
		return imports
	default:
		return imports + "\n" + code
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
