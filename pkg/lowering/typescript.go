package lowering

import "github.com/architect-io/hcl2cdk/pkg/ast"

// typescriptBackend is the reference target: the AST renders to TypeScript
// without translation.
type typescriptBackend struct{}

func (typescriptBackend) lower(f *ast.File) *Translation {
	return &Translation{
		Imports: ast.RenderImports(f.Imports),
		Code:    ast.RenderStatements(f.Statements, ""),
	}
}
