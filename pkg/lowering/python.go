package lowering

import (
	"fmt"
	"strings"

	"github.com/architect-io/hcl2cdk/pkg/ast"
)

// pythonBackend lowers the program to Python. Construct configuration
// objects become keyword arguments, member access is snake_cased, and
// templates become f-strings.
type pythonBackend struct{}

func (pythonBackend) lower(f *ast.File) *Translation {
	r := &pythonRenderer{}
	return &Translation{
		Imports:     r.imports(f.Imports),
		Code:        r.statements(f.Statements),
		Diagnostics: r.diags,
	}
}

type pythonRenderer struct {
	diags []Diagnostic
}

func (r *pythonRenderer) warn(format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (r *pythonRenderer) imports(imports []ast.Import) string {
	var b strings.Builder
	for _, imp := range imports {
		for _, line := range imp.Comment {
			b.WriteString("# " + line + "\n")
		}
		module := r.moduleName(imp.From)
		if len(imp.Names) == 0 {
			b.WriteString("import " + module + "\n")
			continue
		}
		b.WriteString("from " + module + " import " + strings.Join(imp.Names, ", ") + "\n")
	}
	return b.String()
}

func (r *pythonRenderer) moduleName(from string) string {
	if segments, ok := genPathSegments(from); ok {
		// Generated provider and module bindings live under the imports
		// package in a Python project.
		return "imports." + segments[len(segments)-1]
	}
	if strings.HasPrefix(from, "./") || strings.HasPrefix(from, "../") {
		r.warn("local module import %q needs a manual Python import path", from)
		return strings.ReplaceAll(strings.Trim(from, "./"), "/", ".")
	}
	return from
}

func (r *pythonRenderer) statements(stmts []ast.Stmt) string {
	var b strings.Builder
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Comment:
			for _, line := range s.Lines {
				b.WriteString("# " + line + "\n")
			}
		case *ast.ConstDecl:
			if s.Name == "" {
				b.WriteString(r.expr(s.Value) + "\n")
				continue
			}
			b.WriteString(snakeCase(s.Name) + " = " + r.expr(s.Value) + "\n")
		case *ast.ExprStmt:
			b.WriteString(r.expr(s.X) + "\n")
		}
	}
	return b.String()
}

func (r *pythonRenderer) expr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.StringLit:
		if strings.Contains(v.Value, "\n") {
			return `"""` + v.Value + `"""`
		}
		return quote(v.Value)
	case *ast.NumberLit:
		return v.Text
	case *ast.BoolLit:
		if v.Value {
			return "True"
		}
		return "False"
	case *ast.NullLit:
		return "None"
	case *ast.Raw:
		r.warn("expression kept verbatim, review for Python syntax: %s", v.Text)
		return v.Text
	case *ast.Ident:
		if v.Name == "this" {
			return "self"
		}
		return snakeCase(v.Name)
	case *ast.Member:
		return r.expr(v.X) + "." + snakeCase(v.Name)
	case *ast.Index:
		return r.expr(v.X) + "[" + r.expr(v.Key) + "]"
	case *ast.Call:
		return r.expr(v.Callee) + "(" + r.args(v.Args) + ")"
	case *ast.New:
		return r.construct(v)
	case *ast.Template:
		return r.template(v)
	case *ast.Binary:
		return r.operand(v.L) + " " + pythonOp(v.Op) + " " + r.operand(v.R)
	case *ast.Unary:
		if v.Op == "!" {
			return "not " + r.operand(v.X)
		}
		return v.Op + r.operand(v.X)
	case *ast.Cond:
		return r.operand(v.Then) + " if " + r.operand(v.Cond) + " else " + r.operand(v.Else)
	case *ast.List:
		return "[" + r.args(v.Elems) + "]"
	case *ast.Object:
		entries := make([]string, len(v.Entries))
		for i, entry := range v.Entries {
			entries[i] = quote(snakeCase(entry.Key)) + ": " + r.expr(entry.Value)
		}
		return "{" + strings.Join(entries, ", ") + "}"
	case *ast.PropertyAccess:
		path := make([]string, len(v.Path))
		for i, p := range v.Path {
			path[i] = quote(p)
		}
		return "Token.property_access(" + r.expr(v.X) + ", [" + strings.Join(path, ", ") + "])"
	case *ast.ForList:
		return "[" + r.expr(v.Value) + r.comprehensionTail(v.KeyVar, v.ValVar, v.Coll, v.Cond) + "]"
	case *ast.ForMap:
		return "{" + r.expr(v.Key) + ": " + r.expr(v.Value) + r.comprehensionTail(v.KeyVar, v.ValVar, v.Coll, v.Cond) + "}"
	default:
		r.warn("unhandled expression node %T", e)
		return "None"
	}
}

// construct renders instantiation. A trailing object argument flattens into
// keyword arguments, matching the generated Python bindings.
func (r *pythonRenderer) construct(v *ast.New) string {
	args := make([]string, 0, len(v.Args))
	for i, arg := range v.Args {
		obj, ok := arg.(*ast.Object)
		if ok && i == len(v.Args)-1 {
			for _, entry := range obj.Entries {
				args = append(args, snakeCase(entry.Key)+"="+r.expr(entry.Value))
			}
			continue
		}
		args = append(args, r.expr(arg))
	}
	return v.Ctor + "(" + strings.Join(args, ", ") + ")"
}

func (r *pythonRenderer) template(v *ast.Template) string {
	var b strings.Builder
	b.WriteString(`f"`)
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

func (r *pythonRenderer) comprehensionTail(keyVar, valVar string, coll, cond ast.Expr) string {
	vars := snakeCase(valVar)
	iterable := r.expr(coll)
	if keyVar != "" {
		vars = snakeCase(keyVar) + ", " + snakeCase(valVar)
		iterable += ".items()"
	}
	tail := " for " + vars + " in " + iterable
	if cond != nil {
		tail += " if " + r.expr(cond)
	}
	return tail
}

func (r *pythonRenderer) operand(e ast.Expr) string {
	switch e.(type) {
	case *ast.Binary, *ast.Cond, *ast.Unary:
		return "(" + r.expr(e) + ")"
	}
	return r.expr(e)
}

func (r *pythonRenderer) args(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = r.expr(e)
	}
	return strings.Join(parts, ", ")
}

func pythonOp(op string) string {
	switch op {
	case "&&":
		return "and"
	case "||":
		return "or"
	default:
		return op
	}
}
