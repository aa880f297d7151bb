package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/architect-io/hcl2cdk/pkg/ast"
)

// translator converts a block's structured values into AST expressions.
// Strings are re-parsed as HCL templates so references, function calls and
// operators survive the JSON round trip.
type translator struct {
	scope *Scope
}

// translateValue converts a single attribute value. attrType is the
// schema-declared type of the containing attribute, or cty.DynamicPseudoType
// when no schema is available.
func (t *translator) translateValue(value interface{}, attrType cty.Type) ast.Expr {
	switch v := value.(type) {
	case nil:
		return &ast.NullLit{}
	case bool:
		return &ast.BoolLit{Value: v}
	case int64:
		return &ast.NumberLit{Text: strconv.FormatInt(v, 10)}
	case float64:
		return &ast.NumberLit{Text: strconv.FormatFloat(v, 'f', -1, 64)}
	case string:
		return t.translateString(v, attrType)
	case []interface{}:
		elems := make([]ast.Expr, len(v))
		elemType := elementType(attrType)
		for i, item := range v {
			elems[i] = t.translateValue(item, elemType)
		}
		return &ast.List{Elems: elems}
	case map[string]interface{}:
		entries := make([]ast.ObjectEntry, 0, len(v))
		for _, key := range sortedNames(v) {
			entries = append(entries, ast.ObjectEntry{
				Key:   camelizeSchemaKey(key, attrType),
				Value: t.translateValue(v[key], attributeType(attrType, key)),
			})
		}
		return &ast.Object{Entries: entries}
	default:
		return &ast.Raw{Text: fmt.Sprintf("%v", v)}
	}
}

// translateString re-parses a string as an HCL template. Plain text becomes
// a string literal; a single bare interpolation becomes the inner
// expression, with token coercion applied against attrType; mixed templates
// become concatenations.
func (t *translator) translateString(s string, attrType cty.Type) ast.Expr {
	expr, diags := hclsyntax.ParseTemplate([]byte(s), "inline", hcl.InitialPos)
	if diags.HasErrors() {
		return ast.Str(s)
	}

	switch e := expr.(type) {
	case *hclsyntax.TemplateWrapExpr:
		inner := t.translateExpr(e.Wrapped, s)
		return t.coerce(inner, e.Wrapped, attrType)
	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			return ast.Str(s)
		}
		return t.translateTemplate(e, s)
	default:
		return ast.Str(s)
	}
}

func (t *translator) translateTemplate(e *hclsyntax.TemplateExpr, src string) ast.Expr {
	if len(e.Parts) == 1 {
		if lit, ok := e.Parts[0].(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
			return ast.Str(lit.Val.AsString())
		}
		return t.translateExpr(e.Parts[0], src)
	}
	parts := make([]ast.Expr, len(e.Parts))
	for i, part := range e.Parts {
		if lit, ok := part.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
			parts[i] = ast.Str(lit.Val.AsString())
			continue
		}
		parts[i] = t.translateExpr(part, src)
	}
	return &ast.Template{Parts: parts}
}

// translateExpr lowers a parsed HCL expression. src is the surrounding
// source text, used to keep unsupported fragments verbatim.
func (t *translator) translateExpr(expr hclsyntax.Expression, src string) ast.Expr {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return t.literal(e.Val)
	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			value, _ := e.Value(nil)
			return ast.Str(value.AsString())
		}
		return t.translateTemplate(e, src)
	case *hclsyntax.TemplateWrapExpr:
		return t.translateExpr(e.Wrapped, src)
	case *hclsyntax.ScopeTraversalExpr:
		return t.reference(e.Traversal, src)
	case *hclsyntax.RelativeTraversalExpr:
		return t.applyTraversal(t.translateExpr(e.Source, src), e.Traversal, src)
	case *hclsyntax.FunctionCallExpr:
		return t.functionCall(e, src)
	case *hclsyntax.ConditionalExpr:
		return &ast.Cond{
			Cond: t.translateExpr(e.Condition, src),
			Then: t.translateExpr(e.TrueResult, src),
			Else: t.translateExpr(e.FalseResult, src),
		}
	case *hclsyntax.BinaryOpExpr:
		return &ast.Binary{
			Op: binaryOpSpelling(e.Op),
			L:  t.translateExpr(e.LHS, src),
			R:  t.translateExpr(e.RHS, src),
		}
	case *hclsyntax.UnaryOpExpr:
		op := "!"
		if e.Op == hclsyntax.OpNegate {
			op = "-"
		}
		return &ast.Unary{Op: op, X: t.translateExpr(e.Val, src)}
	case *hclsyntax.ParenthesesExpr:
		return t.translateExpr(e.Expression, src)
	case *hclsyntax.TupleConsExpr:
		elems := make([]ast.Expr, len(e.Exprs))
		for i, item := range e.Exprs {
			elems[i] = t.translateExpr(item, src)
		}
		return &ast.List{Elems: elems}
	case *hclsyntax.ObjectConsExpr:
		entries := make([]ast.ObjectEntry, 0, len(e.Items))
		for _, item := range e.Items {
			entries = append(entries, ast.ObjectEntry{
				Key:   t.objectConsKey(item.KeyExpr, src),
				Value: t.translateExpr(item.ValueExpr, src),
			})
		}
		return &ast.Object{Entries: entries}
	case *hclsyntax.IndexExpr:
		return &ast.Index{
			X:   t.translateExpr(e.Collection, src),
			Key: t.translateExpr(e.Key, src),
		}
	case *hclsyntax.SplatExpr:
		return t.splat(e, src)
	case *hclsyntax.ForExpr:
		return t.forExpr(e, src)
	case *hclsyntax.AnonSymbolExpr:
		return &ast.Raw{Text: "item"}
	default:
		t.scope.Warn("unsupported expression kept verbatim: %s", exprSource(expr, src))
		return &ast.Raw{Text: exprSource(expr, src)}
	}
}

func (t *translator) literal(val cty.Value) ast.Expr {
	if val.IsNull() {
		return &ast.NullLit{}
	}
	switch val.Type() {
	case cty.String:
		return ast.Str(val.AsString())
	case cty.Bool:
		return &ast.BoolLit{Value: val.True()}
	case cty.Number:
		bf := val.AsBigFloat()
		return &ast.NumberLit{Text: bf.Text('f', -1)}
	}
	return &ast.Raw{Text: val.GoString()}
}

// reference resolves a traversal against the registered nodes. Known nodes
// become member chains off their emitted identifier; unknown traversals are
// kept verbatim with a warning.
func (t *translator) reference(traversal hcl.Traversal, src string) ast.Expr {
	nodeID, ok := traversalNodeID(traversal)
	if !ok {
		return &ast.Raw{Text: traversalSource(traversal, src)}
	}
	ident, registered := t.scope.Identifier(nodeID)
	if !registered {
		t.scope.Warn("reference to unknown id %q kept verbatim", nodeID)
		return &ast.Raw{Text: traversalSource(traversal, src)}
	}

	kind, _, _ := strings.Cut(nodeID, ".")
	consumed := consumedSteps(kind)

	var base ast.Expr = &ast.Ident{Name: ident}
	rest := traversal[consumed:]

	switch kind {
	case "var":
		base = &ast.Member{X: base, Name: "value"}
		return t.applyTraversal(base, rest, src)
	case "module":
		if len(rest) > 0 {
			if attr, ok := rest[0].(hcl.TraverseAttr); ok {
				base = &ast.Member{X: base, Name: camelize(attr.Name) + "Output"}
				return t.applyTraversal(base, rest[1:], src)
			}
		}
		return t.applyTraversal(base, rest, src)
	default:
		return t.applyTraversal(base, rest, src)
	}
}

// applyTraversal appends the remaining traversal steps to base. Attribute
// names are camelized to match generated resource models.
func (t *translator) applyTraversal(base ast.Expr, traversal hcl.Traversal, src string) ast.Expr {
	expr := base
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			expr = &ast.Member{X: expr, Name: camelize(s.Name)}
		case hcl.TraverseIndex:
			expr = &ast.Index{X: expr, Key: t.literal(s.Key)}
		}
	}
	return expr
}

func (t *translator) functionCall(e *hclsyntax.FunctionCallExpr, src string) ast.Expr {
	if !knownFunctions[e.Name] {
		t.scope.Warn("unknown function %q mapped to framework call", e.Name)
	}
	args := make([]ast.Expr, len(e.Args))
	for i, arg := range e.Args {
		args[i] = t.translateExpr(arg, src)
	}
	return ast.Fn(camelize(e.Name), args...)
}

func (t *translator) splat(e *hclsyntax.SplatExpr, src string) ast.Expr {
	path := []string{"*"}
	if rel, ok := e.Each.(*hclsyntax.RelativeTraversalExpr); ok {
		for _, step := range rel.Traversal {
			if attr, ok := step.(hcl.TraverseAttr); ok {
				path = append(path, camelize(attr.Name))
			}
		}
	}
	return &ast.PropertyAccess{
		X:    t.translateExpr(e.Source, src),
		Path: path,
	}
}

func (t *translator) forExpr(e *hclsyntax.ForExpr, src string) ast.Expr {
	var cond ast.Expr
	if e.CondExpr != nil {
		cond = t.translateExpr(e.CondExpr, src)
	}
	coll := t.translateExpr(e.CollExpr, src)

	if e.KeyExpr == nil {
		return &ast.ForList{
			KeyVar: e.KeyVar,
			ValVar: e.ValVar,
			Coll:   coll,
			Cond:   cond,
			Value:  t.translateExpr(e.ValExpr, src),
		}
	}
	return &ast.ForMap{
		KeyVar: e.KeyVar,
		ValVar: e.ValVar,
		Coll:   coll,
		Cond:   cond,
		Key:    t.translateExpr(e.KeyExpr, src),
		Value:  t.translateExpr(e.ValExpr, src),
	}
}

func (t *translator) objectConsKey(expr hclsyntax.Expression, src string) string {
	if keyExpr, ok := expr.(*hclsyntax.ObjectConsKeyExpr); ok {
		if keyword := hcl.ExprAsKeyword(keyExpr); keyword != "" {
			return keyword
		}
		expr = keyExpr.Wrapped.(hclsyntax.Expression)
	}
	if lit := t.translateExpr(expr, src); lit != nil {
		if s, ok := lit.(*ast.StringLit); ok {
			return s.Value
		}
	}
	return exprSource(expr, src)
}

// coerce wraps a token-yielding reference in the coercion helper matching
// the declared attribute type. References to computed resource and data
// attributes and to module outputs yield tokens at synthesis time.
func (t *translator) coerce(expr ast.Expr, source hclsyntax.Expression, attrType cty.Type) ast.Expr {
	traversalExpr, ok := source.(*hclsyntax.ScopeTraversalExpr)
	if !ok {
		return expr
	}
	if !t.yieldsToken(traversalExpr.Traversal) {
		return expr
	}

	helper := coercionHelper(attrType)
	if helper == "" {
		return expr
	}
	t.scope.MarkTokenCoercion()
	return ast.TokenCoerce(helper, expr)
}

// yieldsToken reports whether a traversal resolves to a value that is a
// framework token at synthesis time: a computed resource or data source
// attribute, or a module output.
func (t *translator) yieldsToken(traversal hcl.Traversal) bool {
	nodeID, ok := traversalNodeID(traversal)
	if !ok {
		return false
	}
	if _, registered := t.scope.Identifier(nodeID); !registered {
		return false
	}

	kind, rest, _ := strings.Cut(nodeID, ".")
	switch kind {
	case "module":
		return true
	case "resource", "data":
		blockType, _, _ := strings.Cut(rest, ".")
		consumed := consumedSteps(kind)
		if len(traversal) <= consumed {
			return false
		}
		attr, ok := traversal[consumed].(hcl.TraverseAttr)
		if !ok {
			return false
		}
		block := lookupBlock(t.scope, blockType, kind == "data")
		if block == nil {
			// Without a schema the reference is assumed computed so the
			// emitted program still type-checks.
			return true
		}
		if schema, ok := block.Attributes[attr.Name]; ok {
			return schema.Computed
		}
		return false
	default:
		return false
	}
}

// coercionHelper picks the Token helper for a declared attribute type.
func coercionHelper(attrType cty.Type) string {
	switch {
	case attrType == cty.String:
		return "asString"
	case attrType == cty.Number:
		return "asNumber"
	case attrType == cty.Bool:
		return "asBoolean"
	case attrType.IsListType() || attrType.IsSetType() || attrType.IsTupleType():
		return "asList"
	default:
		return ""
	}
}

// consumedSteps returns how many traversal steps form the node id for a
// kind: "var.x" consumes two, "aws_vpc.main" consumes two,
// "data.aws_ami.x" consumes three.
func consumedSteps(kind string) int {
	switch kind {
	case "data":
		return 3
	default:
		return 2
	}
}

// elementType returns the element type of a collection type.
func elementType(attrType cty.Type) cty.Type {
	if attrType.IsListType() || attrType.IsSetType() || attrType.IsMapType() {
		return attrType.ElementType()
	}
	return cty.DynamicPseudoType
}

// attributeType returns the declared type of key inside attrType.
func attributeType(attrType cty.Type, key string) cty.Type {
	if attrType.IsObjectType() && attrType.HasAttribute(key) {
		return attrType.AttributeType(key)
	}
	if attrType.IsMapType() {
		return attrType.ElementType()
	}
	return cty.DynamicPseudoType
}

// camelizeSchemaKey camelizes object keys that are schema attribute names;
// free-form map keys (tags, triggers) are kept as written.
func camelizeSchemaKey(key string, attrType cty.Type) string {
	if attrType.IsObjectType() {
		return camelize(key)
	}
	return key
}

func binaryOpSpelling(op *hclsyntax.Operation) string {
	switch op {
	case hclsyntax.OpAdd:
		return "+"
	case hclsyntax.OpSubtract:
		return "-"
	case hclsyntax.OpMultiply:
		return "*"
	case hclsyntax.OpDivide:
		return "/"
	case hclsyntax.OpModulo:
		return "%"
	case hclsyntax.OpEqual:
		return "=="
	case hclsyntax.OpNotEqual:
		return "!="
	case hclsyntax.OpGreaterThan:
		return ">"
	case hclsyntax.OpGreaterThanOrEqual:
		return ">="
	case hclsyntax.OpLessThan:
		return "<"
	case hclsyntax.OpLessThanOrEqual:
		return "<="
	case hclsyntax.OpLogicalAnd:
		return "&&"
	case hclsyntax.OpLogicalOr:
		return "||"
	}
	return "+"
}

func exprSource(expr hclsyntax.Expression, src string) string {
	rng := expr.Range()
	if rng.Start.Byte >= 0 && rng.End.Byte <= len(src) && rng.Start.Byte <= rng.End.Byte {
		return src[rng.Start.Byte:rng.End.Byte]
	}
	return src
}

func traversalSource(traversal hcl.Traversal, src string) string {
	rng := traversal.SourceRange()
	if rng.Start.Byte >= 0 && rng.End.Byte <= len(src) && rng.Start.Byte <= rng.End.Byte {
		return src[rng.Start.Byte:rng.End.Byte]
	}
	var b strings.Builder
	for i, step := range traversalParts(traversal) {
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(step)
	}
	return b.String()
}

// knownFunctions are the Terraform builtins recognized without a warning.
var knownFunctions = map[string]bool{
	"abs": true, "ceil": true, "floor": true, "log": true, "max": true,
	"min": true, "parseint": true, "pow": true, "signum": true,
	"chomp": true, "format": true, "formatlist": true, "indent": true,
	"join": true, "lower": true, "regex": true, "regexall": true,
	"replace": true, "split": true, "strrev": true, "substr": true,
	"title": true, "trim": true, "trimprefix": true, "trimsuffix": true,
	"trimspace": true, "upper": true,
	"alltrue": true, "anytrue": true, "chunklist": true, "coalesce": true,
	"coalescelist": true, "compact": true, "concat": true, "contains": true,
	"distinct": true, "element": true, "flatten": true, "index": true,
	"keys": true, "length": true, "lookup": true, "merge": true,
	"one": true, "range": true, "reverse": true, "setintersection": true,
	"setproduct": true, "setsubtract": true, "setunion": true,
	"slice": true, "sort": true, "sum": true, "transpose": true,
	"values": true, "zipmap": true,
	"base64decode": true, "base64encode": true, "base64gzip": true,
	"csvdecode": true, "jsondecode": true, "jsonencode": true,
	"textdecodebase64": true, "textencodebase64": true, "urlencode": true,
	"yamldecode": true, "yamlencode": true,
	"abspath": true, "dirname": true, "pathexpand": true, "basename": true,
	"file": true, "fileexists": true, "fileset": true, "filebase64": true,
	"templatefile": true,
	"formatdate": true, "timeadd": true, "timestamp": true,
	"base64sha256": true, "base64sha512": true, "bcrypt": true,
	"filebase64sha256": true, "filebase64sha512": true, "filemd5": true,
	"filesha1": true, "filesha256": true, "filesha512": true, "md5": true,
	"rsadecrypt": true, "sha1": true, "sha256": true, "sha512": true,
	"uuid": true, "uuidv5": true,
	"cidrhost": true, "cidrnetmask": true, "cidrsubnet": true,
	"cidrsubnets": true,
	"can": true, "nonsensitive": true, "sensitive": true, "tobool": true,
	"tolist": true, "tomap": true, "tonumber": true, "toset": true,
	"tostring": true, "try": true, "type": true,
}
