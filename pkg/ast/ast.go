// Package ast defines the language-neutral program tree emitted by the
// conversion pipeline. Lowering backends consume this tree to produce
// surface syntax for each target language; the TypeScript renderer in this
// package is the reference rendering.
package ast

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// StringLit is a string literal. Multi-line values render as template
// literals in languages that support them.
type StringLit struct {
	Value string
}

// NumberLit preserves the numeric text verbatim so output is byte-stable.
type NumberLit struct {
	Text string
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// NullLit is the null/None/nil literal.
type NullLit struct{}

// Raw is a verbatim expression fragment. Used for references that did not
// resolve to a known node and are kept literally.
type Raw struct {
	Text string
}

// Ident is a bare identifier.
type Ident struct {
	Name string
}

// Member is property access: X.Name.
type Member struct {
	X    Expr
	Name string
}

// Index is element access: X[Key].
type Index struct {
	X   Expr
	Key Expr
}

// Call invokes Callee with Args.
type Call struct {
	Callee Expr
	Args   []Expr
}

// New instantiates a construct: new Ctor(args...).
type New struct {
	Ctor string
	Args []Expr
}

// Template concatenates parts into a string. Parts that are StringLit
// render inline; other parts render as interpolations.
type Template struct {
	Parts []Expr
}

// Binary is a binary operation. Op is the operator spelling in the
// reference language ("+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=",
// ">=", "&&", "||").
type Binary struct {
	Op string
	L  Expr
	R  Expr
}

// Unary is a unary operation ("!" or "-").
type Unary struct {
	Op string
	X  Expr
}

// Cond is the ternary conditional.
type Cond struct {
	Cond Expr
	Then Expr
	Else Expr
}

// List is a list constructor.
type List struct {
	Elems []Expr
}

// ObjectEntry is a single key/value pair in an Object.
type ObjectEntry struct {
	Key   string
	Value Expr
}

// Object is an object/map constructor. Entries preserve insertion order.
type Object struct {
	Entries []ObjectEntry
}

// PropertyAccess is the framework projection helper over a collection,
// covering splat expressions: x[*].y becomes propertyAccess(x, ["*", "y"]).
type PropertyAccess struct {
	X    Expr
	Path []string
}

// ForList is a list comprehension: [for k, v in coll : value if cond].
// KeyVar is empty for single-variable form.
type ForList struct {
	KeyVar string
	ValVar string
	Coll   Expr
	Cond   Expr
	Value  Expr
}

// ForMap is a map comprehension: {for k, v in coll : key => value if cond}.
type ForMap struct {
	KeyVar string
	ValVar string
	Coll   Expr
	Cond   Expr
	Key    Expr
	Value  Expr
}

func (*StringLit) exprNode()      {}
func (*NumberLit) exprNode()      {}
func (*BoolLit) exprNode()        {}
func (*NullLit) exprNode()        {}
func (*Raw) exprNode()            {}
func (*Ident) exprNode()          {}
func (*Member) exprNode()         {}
func (*Index) exprNode()          {}
func (*Call) exprNode()           {}
func (*New) exprNode()            {}
func (*Template) exprNode()       {}
func (*Binary) exprNode()         {}
func (*Unary) exprNode()          {}
func (*Cond) exprNode()           {}
func (*List) exprNode()           {}
func (*Object) exprNode()         {}
func (*PropertyAccess) exprNode() {}
func (*ForList) exprNode()        {}
func (*ForMap) exprNode()         {}

// Stmt is a top-level statement in the emitted program body.
type Stmt interface {
	stmtNode()
}

// Comment is one or more leading comment lines.
type Comment struct {
	Lines []string
}

// ConstDecl binds an expression to a constant. An empty Name renders as a
// bare expression statement.
type ConstDecl struct {
	Name  string
	Value Expr
}

// ExprStmt is a bare expression statement.
type ExprStmt struct {
	X Expr
}

func (*Comment) stmtNode()   {}
func (*ConstDecl) stmtNode() {}
func (*ExprStmt) stmtNode()  {}

// Import is a named import of one or more symbols from a module.
type Import struct {
	// Names are the imported symbols. Empty with Alias set renders as a
	// namespace import.
	Names []string
	Alias string
	From  string
	// Comment lines are rendered immediately above the import.
	Comment []string
}

// File is a complete emitted program: imports, then statements framed in a
// construct class body.
type File struct {
	Imports []Import

	// ClassName is the generated stack class; Base is the construct it
	// extends (e.g. "TerraformStack").
	ClassName string
	Base      string

	// Marker is emitted as a comment at the top of the constructor body so
	// project tooling can locate the insertion point.
	Marker string

	Statements []Stmt
}

// Fn builds a call into the fixed framework function namespace:
// Fn.name(args...).
func Fn(name string, args ...Expr) *Call {
	return &Call{
		Callee: &Member{X: &Ident{Name: "Fn"}, Name: name},
		Args:   args,
	}
}

// TokenCoerce wraps an expression in a framework token coercion helper,
// e.g. Token.asString(x).
func TokenCoerce(helper string, x Expr) *Call {
	return &Call{
		Callee: &Member{X: &Ident{Name: "Token"}, Name: helper},
		Args:   []Expr{x},
	}
}

// Str is shorthand for a string literal.
func Str(s string) *StringLit { return &StringLit{Value: s} }
