package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/provider"
)

var invalidIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Scope is the per-conversion workspace: the schema catalog, the generator
// cache, the set of identifiers already handed out, and the mapping from
// node ids to emitted identifiers. A Scope lives for exactly one conversion.
type Scope struct {
	catalog   *provider.Catalog
	generator *provider.Generator

	constructs map[string]bool
	variables  map[string]string

	// hasTokenCoercion records whether any translated expression required a
	// framework token coercion helper.
	hasTokenCoercion bool

	warnings []string
}

// NewScope creates a scope over the given catalog. The generator may be
// shared across conversions; when nil a fresh one is created.
func NewScope(catalog *provider.Catalog, generator *provider.Generator) *Scope {
	if catalog == nil {
		catalog = &provider.Catalog{Providers: map[string]*provider.Schema{}}
	}
	if generator == nil {
		generator = provider.NewGenerator(catalog)
	}
	return &Scope{
		catalog:    catalog,
		generator:  generator,
		constructs: make(map[string]bool),
		variables:  make(map[string]string),
	}
}

// Catalog returns the immutable schema catalog.
func (s *Scope) Catalog() *provider.Catalog {
	return s.catalog
}

// Generator returns the resource model cache.
func (s *Scope) Generator() *provider.Generator {
	return s.generator
}

// Register assigns an emitted identifier to a node id, sanitizing the
// preferred name and suffixing on collision. Registering the same node id
// twice returns the already-assigned identifier.
func (s *Scope) Register(nodeID, preferred string) string {
	if existing, ok := s.variables[nodeID]; ok {
		return existing
	}
	ident := s.claim(preferred)
	s.variables[nodeID] = ident
	return ident
}

// Identifier returns the identifier assigned to a node id.
func (s *Scope) Identifier(nodeID string) (string, bool) {
	ident, ok := s.variables[nodeID]
	return ident, ok
}

// claim sanitizes preferred into a valid identifier and reserves it,
// appending _1, _2, ... until the result is unused. Identifier comparison
// is case sensitive, matching the reference target language.
func (s *Scope) claim(preferred string) string {
	ident := sanitizeIdentifier(preferred)
	if !s.constructs[ident] {
		s.constructs[ident] = true
		return ident
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", ident, i)
		if !s.constructs[candidate] {
			s.constructs[candidate] = true
			return candidate
		}
	}
}

// MarkTokenCoercion records that a coercion helper was emitted.
func (s *Scope) MarkTokenCoercion() {
	s.hasTokenCoercion = true
}

// HasTokenCoercion reports whether any coercion helper was emitted.
func (s *Scope) HasTokenCoercion() bool {
	return s.hasTokenCoercion
}

// Warn records a non-fatal conversion warning.
func (s *Scope) Warn(format string, args ...interface{}) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns the accumulated warnings in emission order.
func (s *Scope) Warnings() []string {
	return s.warnings
}

// sanitizeIdentifier maps an HCL name to a valid identifier: invalid
// characters become underscores and a leading digit gains an underscore
// prefix.
func sanitizeIdentifier(name string) string {
	ident := invalidIdentChars.ReplaceAllString(name, "_")
	if ident == "" {
		ident = "_"
	}
	if ident[0] >= '0' && ident[0] <= '9' {
		ident = "_" + ident
	}
	return ident
}

// camelize converts snake_case or kebab-case to camelCase for property and
// variable names.
func camelize(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	return provider.Camelize(name)
}
