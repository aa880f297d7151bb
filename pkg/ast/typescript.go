package ast

import (
	"fmt"
	"regexp"
	"strings"
)

// The TypeScript rendering is the reference surface syntax: the conversion
// result's "all"/"imports"/"code" fields are produced here, and lowering
// backends for other languages translate from the same tree.

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// RenderFile renders the complete file: imports, blank line, framed class.
func RenderFile(f *File) string {
	var b strings.Builder
	imports := RenderImports(f.Imports)
	if imports != "" {
		b.WriteString(imports)
		b.WriteString("\n")
	}
	b.WriteString(renderFrame(f))
	return b.String()
}

// RenderImports renders the import section only.
func RenderImports(imports []Import) string {
	var b strings.Builder
	for _, imp := range imports {
		for _, line := range imp.Comment {
			b.WriteString("// " + line + "\n")
		}
		if len(imp.Names) == 0 && imp.Alias != "" {
			fmt.Fprintf(&b, "import * as %s from %q;\n", imp.Alias, imp.From)
			continue
		}
		fmt.Fprintf(&b, "import { %s } from %q;\n", strings.Join(imp.Names, ", "), imp.From)
	}
	return b.String()
}

func renderFrame(f *File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "class %s extends %s {\n", f.ClassName, f.Base)
	b.WriteString("  constructor(scope: Construct, name: string) {\n")
	b.WriteString("    super(scope, name);\n")
	if f.Marker != "" {
		b.WriteString("    // " + f.Marker + "\n")
	}
	body := RenderStatements(f.Statements, "    ")
	b.WriteString(body)
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String()
}

// RenderStatements renders statements at the given indentation.
func RenderStatements(stmts []Stmt, indent string) string {
	var b strings.Builder
	for _, s := range stmts {
		switch st := s.(type) {
		case *Comment:
			for _, line := range st.Lines {
				b.WriteString(indent + "// " + line + "\n")
			}
		case *ConstDecl:
			if st.Name == "" {
				b.WriteString(indent + renderExpr(st.Value, indent) + ";\n")
			} else {
				b.WriteString(indent + "const " + st.Name + " = " + renderExpr(st.Value, indent) + ";\n")
			}
		case *ExprStmt:
			b.WriteString(indent + renderExpr(st.X, indent) + ";\n")
		}
	}
	return b.String()
}

// RenderExpr renders a single expression with no surrounding indentation.
func RenderExpr(e Expr) string {
	return renderExpr(e, "")
}

func renderExpr(e Expr, indent string) string {
	switch x := e.(type) {
	case *StringLit:
		return renderString(x.Value)
	case *NumberLit:
		return x.Text
	case *BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *NullLit:
		return "undefined"
	case *Raw:
		return x.Text
	case *Ident:
		return x.Name
	case *Member:
		return renderOperand(x.X, indent) + "." + x.Name
	case *Index:
		return renderOperand(x.X, indent) + "[" + renderExpr(x.Key, indent) + "]"
	case *Call:
		return renderExpr(x.Callee, indent) + "(" + renderArgs(x.Args, indent) + ")"
	case *New:
		return "new " + x.Ctor + "(" + renderArgs(x.Args, indent) + ")"
	case *Template:
		return renderTemplate(x, indent)
	case *Binary:
		return renderOperand(x.L, indent) + " " + x.Op + " " + renderOperand(x.R, indent)
	case *Unary:
		return x.Op + renderOperand(x.X, indent)
	case *Cond:
		return renderOperand(x.Cond, indent) + " ? " + renderOperand(x.Then, indent) + " : " + renderOperand(x.Else, indent)
	case *List:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = renderExpr(el, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Object:
		return renderObject(x, indent)
	case *PropertyAccess:
		segments := make([]string, len(x.Path))
		for i, p := range x.Path {
			segments[i] = renderString(p)
		}
		return "propertyAccess(" + renderExpr(x.X, indent) + ", [" + strings.Join(segments, ", ") + "])"
	case *ForList:
		return renderForList(x, indent)
	case *ForMap:
		return renderForMap(x, indent)
	}
	return ""
}

// renderOperand parenthesizes compound sub-expressions so operator nesting
// never changes meaning.
func renderOperand(e Expr, indent string) string {
	switch e.(type) {
	case *Binary, *Cond, *Unary:
		return "(" + renderExpr(e, indent) + ")"
	}
	return renderExpr(e, indent)
}

func renderArgs(args []Expr, indent string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderExpr(a, indent)
	}
	return strings.Join(parts, ", ")
}

func renderObject(o *Object, indent string) string {
	if len(o.Entries) == 0 {
		return "{}"
	}
	inner := indent + "  "
	var b strings.Builder
	b.WriteString("{\n")
	for _, entry := range o.Entries {
		key := entry.Key
		if !identPattern.MatchString(key) {
			key = renderString(key)
		}
		b.WriteString(inner + key + ": " + renderExpr(entry.Value, inner) + ",\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

func renderTemplate(t *Template, indent string) string {
	// A template that collapsed to a single non-literal part is emitted
	// directly by the translator, so every template here is a real
	// concatenation.
	var b strings.Builder
	b.WriteString("`")
	for _, part := range t.Parts {
		if lit, ok := part.(*StringLit); ok {
			b.WriteString(escapeTemplateText(lit.Value))
			continue
		}
		b.WriteString("${" + renderExpr(part, indent) + "}")
	}
	b.WriteString("`")
	return b.String()
}

func renderForList(f *ForList, indent string) string {
	coll := renderOperand(f.Coll, indent)
	if f.KeyVar != "" {
		params := "([" + f.KeyVar + ", " + f.ValVar + "])"
		expr := "Object.entries(" + coll + ")"
		if f.Cond != nil {
			expr += ".filter(" + params + " => " + renderExpr(f.Cond, indent) + ")"
		}
		return expr + ".map(" + params + " => " + renderArrowBody(f.Value, indent) + ")"
	}
	expr := coll
	if f.Cond != nil {
		expr += ".filter((" + f.ValVar + ") => " + renderExpr(f.Cond, indent) + ")"
	}
	return expr + ".map((" + f.ValVar + ") => " + renderArrowBody(f.Value, indent) + ")"
}

// renderArrowBody parenthesizes object literals so an arrow body is not
// parsed as a block.
func renderArrowBody(e Expr, indent string) string {
	if _, ok := e.(*Object); ok {
		return "(" + renderExpr(e, indent) + ")"
	}
	return renderExpr(e, indent)
}

func renderForMap(f *ForMap, indent string) string {
	keyVar := f.KeyVar
	if keyVar == "" {
		keyVar = "_" + f.ValVar
	}
	params := "([" + keyVar + ", " + f.ValVar + "])"
	expr := "Object.entries(" + renderOperand(f.Coll, indent) + ")"
	if f.Cond != nil {
		expr += ".filter(" + params + " => " + renderExpr(f.Cond, indent) + ")"
	}
	expr += ".map(" + params + " => [" + renderExpr(f.Key, indent) + ", " + renderExpr(f.Value, indent) + "])"
	return "Object.fromEntries(" + expr + ")"
}

func renderString(s string) string {
	if strings.Contains(s, "\n") {
		return "`" + escapeTemplateText(s) + "`"
	}
	var b strings.Builder
	b.WriteString(`"`)
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(`"`)
	return b.String()
}

func escapeTemplateText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	return s
}
