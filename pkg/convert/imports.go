package convert

import (
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/ast"
	"github.com/architect-io/hcl2cdk/pkg/provider"
)

// remoteStateDataSource is handled by the framework core rather than a
// provider binding.
const remoteStateDataSource = "terraform_remote_state"

const providerImportHint = `Provider bindings are generated by running "cdktf get".`

// planImports computes the import set for the emitted program: the construct
// base import, the framework core import when any core feature is used, one
// import per referenced provider, and one per distinct module source. It
// returns the imports together with the referenced providers that have no
// schema in the catalog.
func (c *converter) planImports(codeContainer string) ([]ast.Import, []string) {
	core := c.frameworkCoreNames(codeContainer)
	providerNames := c.referencedProviders()
	moduleSources := c.distinctModuleSources()

	if c.graph.Len() == 0 && len(core) == 0 {
		return nil, nil
	}

	imports := []ast.Import{{Names: []string{"Construct"}, From: "constructs"}}
	if len(core) > 0 {
		imports = append(imports, ast.Import{Names: core, From: "cdktf"})
	}

	var missing []string
	for i, name := range providerNames {
		imp := ast.Import{Names: c.providerClassNames(name), From: "./.gen/providers/" + name}
		if i == 0 {
			imp.Comment = []string{providerImportHint}
		}
		imports = append(imports, imp)
		if _, _, ok := c.scope.Catalog().LookupProvider(name); !ok {
			missing = append(missing, name)
		}
	}

	for _, source := range moduleSources {
		imports = append(imports, ast.Import{
			Names: []string{moduleClassName(source)},
			From:  moduleImportPath(source),
		})
	}

	return imports, missing
}

// frameworkCoreNames collects the framework core classes the program uses.
func (c *converter) frameworkCoreNames(codeContainer string) []string {
	names := make(map[string]bool)
	if backendType, _, ok := c.plan.Backend(); ok {
		names[backendClassName(backendType)] = true
	}
	if len(c.plan.Variables) > 0 {
		names["TerraformVariable"] = true
	}
	if len(c.plan.Outputs) > 0 {
		names["TerraformOutput"] = true
	}
	if _, ok := c.plan.DataSources[remoteStateDataSource]; ok {
		names["DataTerraformRemoteState"] = true
	}
	if c.scope.HasTokenCoercion() {
		names["Token"] = true
	}
	if container, ok := strings.CutPrefix(codeContainer, "cdktf."); ok && container != "" {
		names[container] = true
	}
	return sortedNames(names)
}

// referencedProviders returns the short names of every provider the plan
// actually uses, from provider configurations and resource and data source
// types. The requirements table alone does not make a provider referenced.
func (c *converter) referencedProviders() []string {
	names := make(map[string]bool, len(c.plan.Providers))
	for name := range c.plan.Providers {
		names[name] = true
	}
	for blockType := range c.plan.Resources {
		names[c.providerForType(blockType)] = true
	}
	for blockType := range c.plan.DataSources {
		if blockType == remoteStateDataSource {
			continue
		}
		names[c.providerForType(blockType)] = true
	}
	return sortedNames(names)
}

// providerForType maps a resource or data source type to its provider short
// name: the longest catalog provider name prefixing the type, or the first
// underscore-separated segment when the catalog has no match.
func (c *converter) providerForType(blockType string) string {
	best := ""
	for fqpn := range c.scope.Catalog().Providers {
		name := provider.ProviderName(fqpn)
		if blockType != name && !strings.HasPrefix(blockType, name+"_") {
			continue
		}
		if len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return best
	}
	first, _, _ := strings.Cut(blockType, "_")
	return first
}

// providerClassNames collects the binding classes imported from one
// provider: its Provider class when configured, plus one class per resource
// and data source type it owns.
func (c *converter) providerClassNames(name string) []string {
	classes := make(map[string]bool)
	if _, ok := c.plan.Providers[name]; ok {
		classes[provider.ClassName(name)+"Provider"] = true
	}
	for blockType := range c.plan.Resources {
		if c.providerForType(blockType) == name {
			classes[provider.ClassName(blockType)] = true
		}
	}
	for blockType := range c.plan.DataSources {
		if blockType != remoteStateDataSource && c.providerForType(blockType) == name {
			classes["Data"+provider.ClassName(blockType)] = true
		}
	}
	return sortedNames(classes)
}

// providerSources renders the referenced providers as "source@version"
// strings, resolving source and version through the required_providers
// table when declared.
func (c *converter) providerSources() []string {
	reqs := c.plan.RequiredProviders()
	names := c.referencedProviders()
	out := make([]string, 0, len(names))
	for _, name := range names {
		req := reqs[name]
		source := req.Source
		if source == "" {
			source = c.impliedProviderSource(name)
		}
		if req.Version != "" {
			source += "@" + req.Version
		}
		out = append(out, source)
	}
	return out
}

// impliedProviderSource resolves the source of a provider that has no
// required_providers entry: the catalog FQPN when the schema is known,
// otherwise the hashicorp registry namespace Terraform implies.
func (c *converter) impliedProviderSource(name string) string {
	if fqpn, _, ok := c.scope.Catalog().LookupProvider(name); ok {
		parts := strings.Split(fqpn, "/")
		if len(parts) >= 2 {
			return strings.Join(parts[len(parts)-2:], "/")
		}
	}
	return "hashicorp/" + name
}

// moduleSources renders every distinct module invocation source as
// "source@version", in module name order.
func (c *converter) moduleSources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range sortedNames(c.plan.Modules) {
		for _, invocation := range c.plan.Modules[name] {
			source, _ := invocation["source"].(string)
			if source == "" {
				continue
			}
			if version, ok := invocation["version"].(string); ok && version != "" {
				source += "@" + version
			}
			if seen[source] {
				continue
			}
			seen[source] = true
			out = append(out, source)
		}
	}
	return out
}

// distinctModuleSources returns each distinct module source once, without
// version suffixes, in module name order.
func (c *converter) distinctModuleSources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range sortedNames(c.plan.Modules) {
		for _, invocation := range c.plan.Modules[name] {
			source, _ := invocation["source"].(string)
			if source == "" || seen[source] {
				continue
			}
			seen[source] = true
			out = append(out, source)
		}
	}
	return out
}

// moduleImportPath maps a module source to its binding import path. Local
// sources import from their own path; registry sources import generated
// bindings.
func moduleImportPath(source string) string {
	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") {
		return source
	}
	return "./.gen/modules/" + strings.ToLower(moduleClassName(source))
}
