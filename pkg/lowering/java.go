package lowering

import (
	"fmt"
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/ast"
)

// javaBackend lowers the program to Java. Construct configuration objects
// become Builder chains, lists and maps use the collection factories, and
// comprehensions use streams where the single-variable form allows it.
type javaBackend struct{}

func (javaBackend) lower(f *ast.File) *Translation {
	r := &javaRenderer{}
	return &Translation{
		Imports:     r.imports(f.Imports),
		Code:        r.statements(f.Statements),
		Diagnostics: r.diags,
	}
}

type javaRenderer struct {
	diags []Diagnostic
}

func (r *javaRenderer) warn(format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (r *javaRenderer) imports(imports []ast.Import) string {
	var b strings.Builder
	for _, imp := range imports {
		for _, line := range imp.Comment {
			b.WriteString("// " + line + "\n")
		}
		pkg := r.packageName(imp.From)
		for _, name := range imp.Names {
			b.WriteString("import " + pkg + "." + name + ";\n")
		}
	}
	return b.String()
}

func (r *javaRenderer) packageName(from string) string {
	switch from {
	case "constructs":
		return "software.constructs"
	case "cdktf":
		return "com.hashicorp.cdktf"
	}
	if segments, ok := genPathSegments(from); ok {
		return "imports." + segments[len(segments)-1]
	}
	r.warn("local module import %q needs a manual Java package", from)
	return "imports." + strings.ReplaceAll(strings.Trim(from, "./"), "/", ".")
}

func (r *javaRenderer) statements(stmts []ast.Stmt) string {
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

func (r *javaRenderer) expr(e ast.Expr) string {
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
		r.warn("expression kept verbatim, review for Java syntax: %s", v.Text)
		return v.Text
	case *ast.Ident:
		return v.Name
	case *ast.Member:
		return r.expr(v.X) + "." + v.Name
	case *ast.Index:
		return r.expr(v.X) + ".get(" + r.expr(v.Key) + ")"
	case *ast.Call:
		return r.expr(v.Callee) + "(" + r.args(v.Args) + ")"
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
		return "List.of(" + r.args(v.Elems) + ")"
	case *ast.Object:
		entries := make([]string, 0, len(v.Entries)*2)
		for _, entry := range v.Entries {
			entries = append(entries, quote(entry.Key), r.expr(entry.Value))
		}
		return "Map.of(" + strings.Join(entries, ", ") + ")"
	case *ast.PropertyAccess:
		path := make([]string, len(v.Path))
		for i, p := range v.Path {
			path[i] = quote(p)
		}
		return "Fn.propertyAccess(" + r.expr(v.X) + ", List.of(" + strings.Join(path, ", ") + "))"
	case *ast.ForList:
		return r.listComprehension(v)
	case *ast.ForMap:
		r.warn("map comprehension requires manual Java translation")
		return "null /* map comprehension */"
	default:
		r.warn("unhandled expression node %T", e)
		return "null"
	}
}

// construct renders a Builder chain when the instantiation follows the
// scope, name, config shape the generated bindings use.
func (r *javaRenderer) construct(v *ast.New) string {
	if len(v.Args) == 3 {
		if obj, ok := v.Args[2].(*ast.Object); ok {
			var b strings.Builder
			b.WriteString(v.Ctor + ".Builder.create(" + r.expr(v.Args[0]) + ", " + r.expr(v.Args[1]) + ")")
			for _, entry := range obj.Entries {
				b.WriteString("." + entry.Key + "(" + r.expr(entry.Value) + ")")
			}
			b.WriteString(".build()")
			return b.String()
		}
	}
	return "new " + v.Ctor + "(" + r.args(v.Args) + ")"
}

func (r *javaRenderer) template(v *ast.Template) string {
	parts := make([]string, len(v.Parts))
	for i, part := range v.Parts {
		if lit, ok := part.(*ast.StringLit); ok {
			parts[i] = quote(lit.Value)
			continue
		}
		parts[i] = r.operand(part)
	}
	return strings.Join(parts, " + ")
}

func (r *javaRenderer) listComprehension(v *ast.ForList) string {
	if v.KeyVar != "" {
		r.warn("two-variable list comprehension requires manual Java translation")
		return "null /* list comprehension */"
	}
	var b strings.Builder
	b.WriteString(r.expr(v.Coll) + ".stream()")
	if v.Cond != nil {
		b.WriteString(".filter(" + v.ValVar + " -> " + r.expr(v.Cond) + ")")
	}
	b.WriteString(".map(" + v.ValVar + " -> " + r.expr(v.Value) + ").toList()")
	return b.String()
}

func (r *javaRenderer) operand(e ast.Expr) string {
	switch e.(type) {
	case *ast.Binary, *ast.Cond, *ast.Unary:
		return "(" + r.expr(e) + ")"
	}
	return r.expr(e)
}

func (r *javaRenderer) args(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = r.expr(e)
	}
	return strings.Join(parts, ", ")
}
