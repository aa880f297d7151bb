package lowering

import (
	"fmt"
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/ast"
)

// csharpBackend lowers the program to C#. Construct configuration objects
// become config-class object initializers with PascalCase properties, and
// templates become interpolated strings.
type csharpBackend struct{}

func (csharpBackend) lower(f *ast.File) *Translation {
	r := &csharpRenderer{}
	return &Translation{
		Imports:     r.imports(f.Imports),
		Code:        r.statements(f.Statements),
		Diagnostics: r.diags,
	}
}

type csharpRenderer struct {
	diags []Diagnostic
}

func (r *csharpRenderer) warn(format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (r *csharpRenderer) imports(imports []ast.Import) string {
	var b strings.Builder
	for _, imp := range imports {
		for _, line := range imp.Comment {
			b.WriteString("// " + line + "\n")
		}
		b.WriteString("using " + r.namespace(imp.From) + ";\n")
	}
	return b.String()
}

func (r *csharpRenderer) namespace(from string) string {
	switch from {
	case "constructs":
		return "Constructs"
	case "cdktf":
		return "HashiCorp.Cdktf"
	}
	if segments, ok := genPathSegments(from); ok {
		return "Imports." + pascalCase(segments[len(segments)-1])
	}
	r.warn("local module import %q needs a manual C# namespace", from)
	return "Imports." + pascalCase(strings.Trim(from, "./"))
}

func (r *csharpRenderer) statements(stmts []ast.Stmt) string {
	var b strings.Builder
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Comment:
			for _, line := range s.Lines {
				b.WriteString("// " + line + "\n")
			}
		case *ast.ConstDecl:
			if s.Name == "" {
				b.WriteString(r.expr(s.Value) + ";\n")
				continue
			}
			b.WriteString("var " + s.Name + " = " + r.expr(s.Value) + ";\n")
		case *ast.ExprStmt:
			b.WriteString(r.expr(s.X) + ";\n")
		}
	}
	return b.String()
}

func (r *csharpRenderer) expr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.StringLit:
		return quote(v.Value)
	case *ast.NumberLit:
		return v.Text
	case *ast.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.NullLit:
		return "null"
	case *ast.Raw:
		r.warn("expression kept verbatim, review for C# syntax: %s", v.Text)
		return v.Text
	case *ast.Ident:
		return v.Name
	case *ast.Member:
		return r.expr(v.X) + "." + pascalCase(v.Name)
	case *ast.Index:
		return r.expr(v.X) + "[" + r.expr(v.Key) + "]"
	case *ast.Call:
		return r.callee(v.Callee) + "(" + r.args(v.Args) + ")"
	case *ast.New:
		return r.construct(v)
	case *ast.Template:
		return r.template(v)
	case *ast.Binary:
		return r.operand(v.L) + " " + v.Op + " " + r.operand(v.R)
	case *ast.Unary:
		return v.Op + r.operand(v.X)
	case *ast.Cond:
		return r.operand(v.Cond) + " ? " + r.operand(v.Then) + " : " + r.operand(v.Else)
	case *ast.List:
		return "new[] {" + r.args(v.Elems) + "}"
	case *ast.Object:
		entries := make([]string, len(v.Entries))
		for i, entry := range v.Entries {
			entries[i] = "{ " + quote(entry.Key) + ", " + r.expr(entry.Value) + " }"
		}
		return "new Dictionary<string, object> {" + strings.Join(entries, ", ") + "}"
	case *ast.PropertyAccess:
		path := make([]string, len(v.Path))
		for i, p := range v.Path {
			path[i] = quote(p)
		}
		return "Fn.PropertyAccess(" + r.expr(v.X) + ", new[] {" + strings.Join(path, ", ") + "})"
	case *ast.ForList:
		return r.listComprehension(v)
	case *ast.ForMap:
		r.warn("map comprehension requires manual C# translation")
		return "null /* map comprehension */"
	default:
		r.warn("unhandled expression node %T", e)
		return "null"
	}
}

// callee renders a call target, PascalCasing the final member so framework
// helpers match the C# bindings.
func (r *csharpRenderer) callee(e ast.Expr) string {
	if m, ok := e.(*ast.Member); ok {
		return r.expr(m.X) + "." + pascalCase(m.Name)
	}
	return r.expr(e)
}

// construct renders instantiation; a trailing object argument becomes a
// config-class initializer.
func (r *csharpRenderer) construct(v *ast.New) string {
	args := make([]string, 0, len(v.Args))
	for i, arg := range v.Args {
		obj, ok := arg.(*ast.Object)
		if ok && i == len(v.Args)-1 {
			entries := make([]string, len(obj.Entries))
			for j, entry := range obj.Entries {
				entries[j] = pascalCase(entry.Key) + " = " + r.expr(entry.Value)
			}
			args = append(args, "new "+v.Ctor+"Config {"+strings.Join(entries, ", ")+"}")
			continue
		}
		args = append(args, r.expr(arg))
	}
	return "new " + v.Ctor + "(" + strings.Join(args, ", ") + ")"
}

func (r *csharpRenderer) template(v *ast.Template) string {
	var b strings.Builder
	b.WriteString(`$"`)
	for _, part := range v.Parts {
		if lit, ok := part.(*ast.StringLit); ok {
			escaped := quote(lit.Value)
			escaped = strings.ReplaceAll(escaped, "{", "{{")
			escaped = strings.ReplaceAll(escaped, "}", "}}")
			b.WriteString(escaped[1 : len(escaped)-1])
			continue
		}
		b.WriteString("{" + r.expr(part) + "}")
	}
	b.WriteString(`"`)
	return b.String()
}

func (r *csharpRenderer) listComprehension(v *ast.ForList) string {
	if v.KeyVar != "" {
		r.warn("two-variable list comprehension requires manual C# translation")
		return "null /* list comprehension */"
	}
	var b strings.Builder
	b.WriteString(r.expr(v.Coll))
	if v.Cond != nil {
		b.WriteString(".Where(" + v.ValVar + " => " + r.expr(v.Cond) + ")")
	}
	b.WriteString(".Select(" + v.ValVar + " => " + r.expr(v.Value) + ").ToArray()")
	return b.String()
}

func (r *csharpRenderer) operand(e ast.Expr) string {
	switch e.(type) {
	case *ast.Binary, *ast.Cond, *ast.Unary:
		return "(" + r.expr(e) + ")"
	}
	return r.expr(e)
}

func (r *csharpRenderer) args(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = r.expr(e)
	}
	return strings.Join(parts, ", ")
}
