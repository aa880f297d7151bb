package lowering

import (
	"fmt"
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/ast"
)

// goBackend lowers the program to Go. Constructors become package-qualified
// New functions, literals are wrapped in jsii pointer helpers, and attribute
// access becomes method calls. Conditionals and comprehensions have no Go
// expression form and are reported as errors.
type goBackend struct{}

func (goBackend) lower(f *ast.File) *Translation {
	r := &goRenderer{packages: make(map[string]string)}
	imports := r.imports(f.Imports)
	return &Translation{
		Imports:     imports,
		Code:        r.statements(f.Statements),
		Diagnostics: r.diags,
	}
}

type goRenderer struct {
	diags []Diagnostic

	// packages maps an imported class name to the package alias that
	// exports it.
	packages map[string]string
}

func (r *goRenderer) warn(format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (r *goRenderer) errorf(format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (r *goRenderer) imports(imports []ast.Import) string {
	if len(imports) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("import (\n")
	b.WriteString("\t\"github.com/aws/jsii-runtime-go\"\n")
	for _, imp := range imports {
		for _, line := range imp.Comment {
			b.WriteString("\t// " + line + "\n")
		}
		path, alias := r.importPath(imp.From)
		for _, name := range imp.Names {
			r.packages[name] = alias
		}
		b.WriteString("\t\"" + path + "\"\n")
	}
	b.WriteString(")\n")
	return b.String()
}

func (r *goRenderer) importPath(from string) (string, string) {
	switch from {
	case "constructs":
		return "github.com/aws/constructs-go/constructs/v10", "constructs"
	case "cdktf":
		return "github.com/hashicorp/terraform-cdk-go/cdktf", "cdktf"
	}
	if segments, ok := genPathSegments(from); ok {
		name := segments[len(segments)-1]
		return "cdk.tf/go/stack/generated/" + name, name
	}
	r.warn("local module import %q needs a manual Go import path", from)
	name := from[strings.LastIndex(from, "/")+1:]
	return strings.Trim(from, "./"), name
}

func (r *goRenderer) statements(stmts []ast.Stmt) string {
	var b strings.Builder
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Comment:
			for _, line := range s.Lines {
				b.WriteString("// " + line + "\n")
			}
		case *ast.ConstDecl:
			if s.Name == "" {
				b.WriteString(r.expr(s.Value) + "\n")
				continue
			}
			b.WriteString(s.Name + " := " + r.expr(s.Value) + "\n")
		case *ast.ExprStmt:
			b.WriteString(r.expr(s.X) + "\n")
		}
	}
	return b.String()
}

func (r *goRenderer) expr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.StringLit:
		return "jsii.String(" + quote(v.Value) + ")"
	case *ast.NumberLit:
		return "jsii.Number(" + v.Text + ")"
	case *ast.BoolLit:
		if v.Value {
			return "jsii.Bool(true)"
		}
		return "jsii.Bool(false)"
	case *ast.NullLit:
		return "nil"
	case *ast.Raw:
		r.warn("expression kept verbatim, review for Go syntax: %s", v.Text)
		return v.Text
	case *ast.Ident:
		if v.Name == "this" {
			return "stack"
		}
		return v.Name
	case *ast.Member:
		return r.expr(v.X) + "." + pascalCase(v.Name) + "()"
	case *ast.Index:
		r.warn("element access may need a framework lookup helper in Go")
		return r.expr(v.X) + "[" + r.expr(v.Key) + "]"
	case *ast.Call:
		return r.call(v)
	case *ast.New:
		return r.construct(v)
	case *ast.Template:
		return r.template(v)
	case *ast.Binary:
		return r.operand(v.L) + " " + v.Op + " " + r.operand(v.R)
	case *ast.Unary:
		return v.Op + r.operand(v.X)
	case *ast.Cond:
		r.errorf("conditional expression requires manual Go translation")
		return "nil /* conditional */"
	case *ast.List:
		return "[]interface{}{" + r.args(v.Elems) + "}"
	case *ast.Object:
		entries := make([]string, len(v.Entries))
		for i, entry := range v.Entries {
			entries[i] = quote(entry.Key) + ": " + r.expr(entry.Value)
		}
		return "map[string]interface{}{" + strings.Join(entries, ", ") + "}"
	case *ast.PropertyAccess:
		path := make([]string, len(v.Path))
		for i, p := range v.Path {
			path[i] = "jsii.String(" + quote(p) + ")"
		}
		return "cdktf.Fn_PropertyAccess(" + r.expr(v.X) + ", &[]*string{" + strings.Join(path, ", ") + "})"
	case *ast.ForList:
		r.errorf("list comprehension requires manual Go translation")
		return "nil /* list comprehension */"
	case *ast.ForMap:
		r.errorf("map comprehension requires manual Go translation")
		return "nil /* map comprehension */"
	default:
		r.warn("unhandled expression node %T", e)
		return "nil"
	}
}

// call renders framework namespace calls in their Go binding form,
// e.g. Token.asString(x) as cdktf.Token_AsString(x).
func (r *goRenderer) call(v *ast.Call) string {
	if m, ok := v.Callee.(*ast.Member); ok {
		if root, ok := m.X.(*ast.Ident); ok && (root.Name == "Fn" || root.Name == "Token") {
			return "cdktf." + root.Name + "_" + pascalCase(m.Name) + "(" + r.args(v.Args) + ")"
		}
	}
	return r.expr(v.Callee) + "(" + r.args(v.Args) + ")"
}

// construct renders instantiation as the generated package's New function;
// a trailing object argument becomes a pointer to the config struct.
func (r *goRenderer) construct(v *ast.New) string {
	pkg, ok := r.packages[v.Ctor]
	if !ok {
		pkg = "cdktf"
	}
	args := make([]string, 0, len(v.Args))
	for i, arg := range v.Args {
		obj, isObj := arg.(*ast.Object)
		if isObj && i == len(v.Args)-1 {
			entries := make([]string, len(obj.Entries))
			for j, entry := range obj.Entries {
				entries[j] = pascalCase(entry.Key) + ": " + r.expr(entry.Value)
			}
			args = append(args, "&"+pkg+"."+v.Ctor+"Config{"+strings.Join(entries, ", ")+"}")
			continue
		}
		args = append(args, r.expr(arg))
	}
	return pkg + ".New" + v.Ctor + "(" + strings.Join(args, ", ") + ")"
}

func (r *goRenderer) template(v *ast.Template) string {
	r.warn("string template operands may need dereferencing in Go")
	parts := make([]string, len(v.Parts))
	for i, part := range v.Parts {
		if lit, ok := part.(*ast.StringLit); ok {
			parts[i] = quote(lit.Value)
			continue
		}
		parts[i] = "*" + r.operand(part)
	}
	return "jsii.String(" + strings.Join(parts, " + ") + ")"
}

func (r *goRenderer) operand(e ast.Expr) string {
	switch e.(type) {
	case *ast.Binary, *ast.Unary:
		return "(" + r.expr(e) + ")"
	}
	return r.expr(e)
}

func (r *goRenderer) args(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = r.expr(e)
	}
	return strings.Join(parts, ", ")
}
