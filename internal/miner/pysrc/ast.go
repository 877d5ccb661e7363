package pysrc

import (
	"strconv"
	"strings"
)

// Expr is an expression node.
type Expr interface{ exprNode() }

// Stmt is a statement node.
type Stmt interface{ stmtNode() }

// ConstKind distinguishes literal constants.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
	ConstBytes
	ConstEllipsis
	ConstImag
)

type (
	// Name is an identifier.
	Name struct{ ID string }

	// Constant is a literal. Text keeps the source spelling of numbers.
	// FString marks f-strings, whose Str is the undecoded template.
	Constant struct {
		Kind    ConstKind
		Str     string
		Int     int64
		Float   float64
		Bool    bool
		Text    string
		FString bool
	}

	Attribute struct {
		Value Expr
		Attr  string
	}

	Subscript struct {
		Value Expr
		Index Expr
	}

	Slice struct{ Lower, Upper, Step Expr }

	Keyword struct {
		Arg   string // empty for **kwargs
		Value Expr
	}

	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []Keyword
	}

	Tuple struct{ Elts []Expr }
	List  struct{ Elts []Expr }
	Set   struct{ Elts []Expr }

	Dict struct {
		Keys   []Expr // nil key for **mapping
		Values []Expr
	}

	Starred struct{ Value Expr }

	BinOp struct {
		Op          string
		Left, Right Expr
	}

	UnaryOp struct {
		Op      string
		Operand Expr
	}

	IfExp struct{ Body, Test, OrElse Expr }

	Lambda struct{ Body Expr }

	NamedExpr struct {
		Target string
		Value  Expr
	}

	CompFor struct {
		Target Expr
		Iter   Expr
		Ifs    []Expr
	}

	// Comprehension covers list, set, dict and generator forms. Open is
	// the opening bracket, empty for a bare generator argument.
	Comprehension struct {
		Open       string
		Key        Expr // dict comprehensions only
		Elt        Expr
		Generators []CompFor
	}
)

func (*Name) exprNode()          {}
func (*Constant) exprNode()      {}
func (*Attribute) exprNode()     {}
func (*Subscript) exprNode()     {}
func (*Slice) exprNode()         {}
func (*Call) exprNode()          {}
func (*Tuple) exprNode()         {}
func (*List) exprNode()          {}
func (*Set) exprNode()           {}
func (*Dict) exprNode()          {}
func (*Starred) exprNode()       {}
func (*BinOp) exprNode()         {}
func (*UnaryOp) exprNode()       {}
func (*IfExp) exprNode()         {}
func (*Lambda) exprNode()        {}
func (*NamedExpr) exprNode()     {}
func (*Comprehension) exprNode() {}

type (
	// Assign covers chained assignment: a = b = value.
	Assign struct {
		Targets []Expr
		Value   Expr
	}

	AugAssign struct {
		Target Expr
		Op     string
		Value  Expr
	}

	ExprStmt struct{ Value Expr }

	For struct {
		Target Expr
		Iter   Expr
		Body   []Stmt
		OrElse []Stmt
	}

	WithItem struct {
		Context Expr
		Target  Expr
	}

	With struct {
		Items []WithItem
		Body  []Stmt
	}

	// Block is any other compound statement (if, while, def, class, try).
	// Its header is not parsed.
	Block struct {
		Keyword string
		Body    []Stmt
	}

	// Simple is a keyword statement the miner has no use for (import,
	// return, pass, del, ...).
	Simple struct{ Keyword string }
)

func (*Assign) stmtNode()    {}
func (*AugAssign) stmtNode() {}
func (*ExprStmt) stmtNode()  {}
func (*For) stmtNode()       {}
func (*With) stmtNode()      {}
func (*Block) stmtNode()     {}
func (*Simple) stmtNode()    {}

// StringValue returns the value of a plain (non f-) string constant.
func StringValue(e Expr) (string, bool) {
	c, ok := e.(*Constant)
	if !ok || c.Kind != ConstString || c.FString {
		return "", false
	}
	return c.Str, true
}

// IntValue returns the value of an integer constant, allowing a unary minus.
func IntValue(e Expr) (int64, bool) {
	if u, ok := e.(*UnaryOp); ok && u.Op == "-" {
		v, ok := IntValue(u.Operand)
		return -v, ok
	}
	c, ok := e.(*Constant)
	if !ok || c.Kind != ConstInt {
		return 0, false
	}
	return c.Int, true
}

// FloatValue returns the value of an int or float constant.
func FloatValue(e Expr) (float64, bool) {
	if u, ok := e.(*UnaryOp); ok && u.Op == "-" {
		v, ok := FloatValue(u.Operand)
		return -v, ok
	}
	c, ok := e.(*Constant)
	if !ok {
		return 0, false
	}
	switch c.Kind {
	case ConstInt:
		return float64(c.Int), true
	case ConstFloat:
		return c.Float, true
	}
	return 0, false
}

// Truthy evaluates a constant with Python truthiness.
func Truthy(e Expr) (bool, bool) {
	c, ok := e.(*Constant)
	if !ok || c.FString {
		return false, false
	}
	switch c.Kind {
	case ConstNone:
		return false, true
	case ConstBool:
		return c.Bool, true
	case ConstInt:
		return c.Int != 0, true
	case ConstFloat, ConstImag:
		return c.Float != 0, true
	case ConstString, ConstBytes:
		return c.Str != "", true
	case ConstEllipsis:
		return true, true
	}
	return false, false
}

// Source renders an expression in a canonical single-line form. Two
// expressions that differ only in whitespace or redundant parentheses
// render identically.
func Source(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
	case *Name:
		b.WriteString(n.ID)
	case *Constant:
		writeConstant(b, n)
	case *Attribute:
		writeExpr(b, n.Value)
		b.WriteByte('.')
		b.WriteString(n.Attr)
	case *Subscript:
		writeExpr(b, n.Value)
		b.WriteByte('[')
		if t, ok := n.Index.(*Tuple); ok && len(t.Elts) > 1 {
			writeList(b, t.Elts)
		} else {
			writeExpr(b, n.Index)
		}
		b.WriteByte(']')
	case *Slice:
		writeExpr(b, n.Lower)
		b.WriteByte(':')
		writeExpr(b, n.Upper)
		if n.Step != nil {
			b.WriteByte(':')
			writeExpr(b, n.Step)
		}
	case *Call:
		writeExpr(b, n.Func)
		b.WriteByte('(')
		writeList(b, n.Args)
		for i, kw := range n.Keywords {
			if i > 0 || len(n.Args) > 0 {
				b.WriteString(", ")
			}
			if kw.Arg == "" {
				b.WriteString("**")
			} else {
				b.WriteString(kw.Arg)
				b.WriteByte('=')
			}
			writeExpr(b, kw.Value)
		}
		b.WriteByte(')')
	case *Tuple:
		b.WriteByte('(')
		writeList(b, n.Elts)
		if len(n.Elts) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *List:
		b.WriteByte('[')
		writeList(b, n.Elts)
		b.WriteByte(']')
	case *Set:
		b.WriteByte('{')
		writeList(b, n.Elts)
		b.WriteByte('}')
	case *Dict:
		b.WriteByte('{')
		for i := range n.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			if n.Keys[i] == nil {
				b.WriteString("**")
			} else {
				writeExpr(b, n.Keys[i])
				b.WriteString(": ")
			}
			writeExpr(b, n.Values[i])
		}
		b.WriteByte('}')
	case *Starred:
		b.WriteByte('*')
		writeExpr(b, n.Value)
	case *BinOp:
		writeOperand(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op)
		b.WriteByte(' ')
		writeOperand(b, n.Right)
	case *UnaryOp:
		b.WriteString(n.Op)
		if n.Op == "not" {
			b.WriteByte(' ')
		}
		writeOperand(b, n.Operand)
	case *IfExp:
		writeOperand(b, n.Body)
		b.WriteString(" if ")
		writeOperand(b, n.Test)
		b.WriteString(" else ")
		writeOperand(b, n.OrElse)
	case *Lambda:
		b.WriteString("lambda: ")
		writeExpr(b, n.Body)
	case *NamedExpr:
		b.WriteByte('(')
		b.WriteString(n.Target)
		b.WriteString(" := ")
		writeExpr(b, n.Value)
		b.WriteByte(')')
	case *Comprehension:
		b.WriteString(n.Open)
		if n.Key != nil {
			writeExpr(b, n.Key)
			b.WriteString(": ")
		}
		writeExpr(b, n.Elt)
		for _, g := range n.Generators {
			b.WriteString(" for ")
			writeExpr(b, g.Target)
			b.WriteString(" in ")
			writeOperand(b, g.Iter)
			for _, cond := range g.Ifs {
				b.WriteString(" if ")
				writeOperand(b, cond)
			}
		}
		b.WriteString(closer(n.Open))
	}
}

func writeOperand(b *strings.Builder, e Expr) {
	switch e.(type) {
	case *BinOp, *IfExp, *Lambda:
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
	default:
		writeExpr(b, e)
	}
}

func writeList(b *strings.Builder, elts []Expr) {
	for i, e := range elts {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, e)
	}
}

func writeConstant(b *strings.Builder, c *Constant) {
	switch c.Kind {
	case ConstNone:
		b.WriteString("None")
	case ConstBool:
		if c.Bool {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case ConstString, ConstBytes:
		if c.FString {
			b.WriteByte('f')
		} else if c.Kind == ConstBytes {
			b.WriteByte('b')
		}
		b.WriteString(quote(c.Str))
	case ConstEllipsis:
		b.WriteString("...")
	default:
		b.WriteString(c.Text)
	}
}

// quote renders s with single quotes in the style of Python's repr.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\x`)
				b.WriteString(strconv.FormatInt(int64(r)+0x100, 16)[1:])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func closer(open string) string {
	switch open {
	case "[":
		return "]"
	case "{":
		return "}"
	case "(":
		return ")"
	}
	return ""
}
