package pysrc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Module is a parsed source file or notebook cell.
type Module struct {
	Body []Stmt
}

// SyntaxError reports a statement that could not be parsed.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

var reserved = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

var simpleKeywords = map[string]bool{
	"pass": true, "break": true, "continue": true, "return": true,
	"import": true, "from": true, "global": true, "nonlocal": true,
	"del": true, "assert": true, "raise": true, "yield": true,
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "|=": true, "^=": true,
	"@=": true,
}

var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

type parser struct {
	toks []Token
	pos  int
	errs []error
}

// Parse parses src into statements. Statements that fail to parse are
// dropped (together with any block they open) and reported in the
// returned errors; the rest of the source is still parsed.
func Parse(src string) (*Module, []error) {
	p := &parser{toks: Tokenize(src)}
	body := p.block(true)
	return &Module{Body: body}, p.errs
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isOp(s string) bool {
	t := p.peek()
	return t.Kind == OP && t.Text == s
}

func (p *parser) isKeyword(s string) bool {
	t := p.peek()
	return t.Kind == NAME && t.Text == s
}

func (p *parser) acceptOp(s string) bool {
	if p.isOp(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(s string) bool {
	if p.isKeyword(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(s string) {
	if !p.acceptOp(s) {
		p.fail("expected %q", s)
	}
}

func (p *parser) expectKeyword(s string) {
	if !p.acceptKeyword(s) {
		p.fail("expected %q", s)
	}
}

func (p *parser) fail(format string, args ...interface{}) {
	t := p.peek()
	found := t.Text
	if found == "" {
		found = t.Kind.String()
	}
	panic(&SyntaxError{Line: t.Line, Msg: fmt.Sprintf(format, args...) + ", found " + found})
}

func (p *parser) block(top bool) []Stmt {
	var out []Stmt
	for {
		switch p.peek().Kind {
		case EOF:
			return out
		case DEDENT:
			if !top {
				return out
			}
			p.next()
		case NEWLINE:
			p.next()
		case INDENT:
			// Stray indentation is tolerated and parsed in place.
			p.next()
			out = append(out, p.block(false)...)
			if p.peek().Kind == DEDENT {
				p.next()
			}
		default:
			out = append(out, p.statement()...)
		}
	}
}

func (p *parser) statement() (stmts []Stmt) {
	start := p.pos
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		se, ok := r.(*SyntaxError)
		if !ok {
			panic(r)
		}
		p.errs = append(p.errs, se)
		p.resync(start)
		stmts = nil
	}()

	if p.isOp("@") {
		p.skipSimple()
		p.endLine()
		return []Stmt{&Simple{Keyword: "@"}}
	}
	if p.isKeyword("async") {
		if nt := p.peekAt(1); nt.Kind == NAME && (nt.Text == "for" || nt.Text == "with" || nt.Text == "def") {
			p.next()
		}
	}
	if t := p.peek(); t.Kind == NAME {
		switch t.Text {
		case "for":
			return []Stmt{p.forStmt()}
		case "with":
			return []Stmt{p.withStmt()}
		case "if", "elif", "else", "while", "try", "except", "finally", "def", "class":
			return []Stmt{p.blockStmt()}
		}
	}
	return p.simpleLine()
}

// resync skips the rest of a failed logical line and any block it opened.
func (p *parser) resync(start int) {
	for {
		t := p.peek()
		if t.Kind == EOF || t.Kind == DEDENT {
			break
		}
		p.next()
		if t.Kind == NEWLINE {
			break
		}
	}
	if p.peek().Kind == INDENT {
		p.skipIndented()
	}
	if p.pos == start && p.peek().Kind != EOF {
		p.next()
	}
}

func (p *parser) skipIndented() {
	depth := 0
	for {
		t := p.next()
		switch t.Kind {
		case INDENT:
			depth++
		case DEDENT:
			depth--
			if depth == 0 {
				return
			}
		case EOF:
			return
		}
	}
}

// skipSimple consumes tokens up to the end of the current simple statement.
func (p *parser) skipSimple() {
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case EOF, NEWLINE, INDENT, DEDENT:
			return
		case OP:
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ";":
				if depth <= 0 {
					return
				}
			}
		}
		p.next()
	}
}

func (p *parser) endLine() {
	switch p.peek().Kind {
	case NEWLINE:
		p.next()
	case EOF, DEDENT:
	default:
		p.fail("expected end of statement")
	}
}

func (p *parser) forStmt() Stmt {
	p.expectKeyword("for")
	s := &For{Target: p.exprList(p.starOrBitOr)}
	p.expectKeyword("in")
	s.Iter = p.exprList(p.starOrTest)
	p.expectOp(":")
	s.Body = p.suite()
	if p.isKeyword("else") {
		if nt := p.peekAt(1); nt.Kind == OP && nt.Text == ":" {
			p.next()
			p.next()
			s.OrElse = p.suite()
		}
	}
	return s
}

func (p *parser) withStmt() Stmt {
	p.expectKeyword("with")
	s := &With{}
	for {
		item := WithItem{Context: p.test()}
		if p.acceptKeyword("as") {
			item.Target = p.starOrBitOr()
		}
		s.Items = append(s.Items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	p.expectOp(":")
	s.Body = p.suite()
	return s
}

// blockStmt parses a compound statement whose header is skipped.
func (p *parser) blockStmt() Stmt {
	kw := p.next().Text
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case NEWLINE, EOF, INDENT, DEDENT:
			p.fail("expected ':' after %s", kw)
		}
		p.next()
		if t.Kind != OP {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ":":
			if depth == 0 {
				return &Block{Keyword: kw, Body: p.suite()}
			}
		}
	}
}

func (p *parser) suite() []Stmt {
	if p.peek().Kind != NEWLINE {
		return p.simpleLine()
	}
	p.next()
	if p.peek().Kind != INDENT {
		p.fail("expected an indented block")
	}
	p.next()
	body := p.block(false)
	if p.peek().Kind == DEDENT {
		p.next()
	}
	return body
}

func (p *parser) simpleLine() []Stmt {
	var out []Stmt
	for {
		out = append(out, p.simpleStmt())
		if !p.acceptOp(";") {
			break
		}
		if k := p.peek().Kind; k == NEWLINE || k == EOF {
			break
		}
	}
	p.endLine()
	return out
}

func (p *parser) simpleStmt() Stmt {
	if t := p.peek(); t.Kind == NAME && simpleKeywords[t.Text] {
		p.next()
		p.skipSimple()
		return &Simple{Keyword: t.Text}
	}
	first := p.exprList(p.starOrTest)
	switch {
	case p.isOp("="):
		targets := []Expr{first}
		for p.acceptOp("=") {
			targets = append(targets, p.exprList(p.starOrTest))
		}
		return &Assign{Targets: targets[:len(targets)-1], Value: targets[len(targets)-1]}
	case p.peek().Kind == OP && augOps[p.peek().Text]:
		op := p.next().Text
		return &AugAssign{Target: first, Op: strings.TrimSuffix(op, "="), Value: p.exprList(p.starOrTest)}
	case p.acceptOp(":"):
		p.test()
		if p.acceptOp("=") {
			return &Assign{Targets: []Expr{first}, Value: p.exprList(p.starOrTest)}
		}
		return &Simple{Keyword: "annotation"}
	}
	return &ExprStmt{Value: first}
}

// exprList parses item (',' item)* [','], returning a Tuple when a comma
// is present.
func (p *parser) exprList(item func() Expr) Expr {
	first := item()
	if !p.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.atListEnd() {
			break
		}
		elts = append(elts, item())
	}
	return &Tuple{Elts: elts}
}

func (p *parser) atListEnd() bool {
	t := p.peek()
	switch t.Kind {
	case NEWLINE, EOF, INDENT, DEDENT:
		return true
	case OP:
		switch t.Text {
		case ")", "]", "}", "=", ";", ":":
			return true
		}
		return augOps[t.Text]
	case NAME:
		return t.Text == "in"
	}
	return false
}

func (p *parser) starOrTest() Expr {
	if p.acceptOp("*") {
		return &Starred{Value: p.bitOr()}
	}
	return p.test()
}

func (p *parser) starOrNamedTest() Expr {
	if p.acceptOp("*") {
		return &Starred{Value: p.bitOr()}
	}
	return p.namedTest()
}

func (p *parser) starOrBitOr() Expr {
	if p.acceptOp("*") {
		return &Starred{Value: p.bitOr()}
	}
	return p.bitOr()
}

func (p *parser) namedTest() Expr {
	if t := p.peek(); t.Kind == NAME {
		if nt := p.peekAt(1); nt.Kind == OP && nt.Text == ":=" {
			p.next()
			p.next()
			return &NamedExpr{Target: t.Text, Value: p.test()}
		}
	}
	return p.test()
}

func (p *parser) test() Expr {
	if p.isKeyword("lambda") {
		return p.lambda()
	}
	body := p.orTest()
	if p.acceptKeyword("if") {
		cond := p.orTest()
		p.expectKeyword("else")
		return &IfExp{Body: body, Test: cond, OrElse: p.test()}
	}
	return body
}

// lambda skips the parameter list and keeps the body.
func (p *parser) lambda() Expr {
	p.next()
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case NEWLINE, EOF, INDENT, DEDENT:
			p.fail("unterminated lambda")
		}
		p.next()
		if t.Kind != OP {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ":":
			if depth == 0 {
				return &Lambda{Body: p.test()}
			}
		}
	}
}

func (p *parser) orTest() Expr {
	left := p.andTest()
	for p.acceptKeyword("or") {
		left = &BinOp{Op: "or", Left: left, Right: p.andTest()}
	}
	return left
}

func (p *parser) andTest() Expr {
	left := p.notTest()
	for p.acceptKeyword("and") {
		left = &BinOp{Op: "and", Left: left, Right: p.notTest()}
	}
	return left
}

func (p *parser) notTest() Expr {
	if p.acceptKeyword("not") {
		return &UnaryOp{Op: "not", Operand: p.notTest()}
	}
	return p.comparison()
}

func (p *parser) comparison() Expr {
	left := p.bitOr()
	for {
		op, ok := p.compareOp()
		if !ok {
			return left
		}
		left = &BinOp{Op: op, Left: left, Right: p.bitOr()}
	}
}

func (p *parser) compareOp() (string, bool) {
	t := p.peek()
	switch t.Kind {
	case OP:
		switch t.Text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.next()
			return t.Text, true
		}
	case NAME:
		switch t.Text {
		case "in":
			p.next()
			return "in", true
		case "is":
			p.next()
			if p.acceptKeyword("not") {
				return "is not", true
			}
			return "is", true
		case "not":
			if nt := p.peekAt(1); nt.Kind == NAME && nt.Text == "in" {
				p.next()
				p.next()
				return "not in", true
			}
		}
	}
	return "", false
}

func (p *parser) bitOr() Expr {
	return p.binary(0)
}

func (p *parser) binary(level int) Expr {
	if level == len(binaryLevels) {
		return p.factor()
	}
	left := p.binary(level + 1)
	for {
		t := p.peek()
		if t.Kind != OP || !slices.Contains(binaryLevels[level], t.Text) {
			return left
		}
		p.next()
		left = &BinOp{Op: t.Text, Left: left, Right: p.binary(level + 1)}
	}
}

func (p *parser) factor() Expr {
	if t := p.peek(); t.Kind == OP && (t.Text == "-" || t.Text == "+" || t.Text == "~") {
		p.next()
		return &UnaryOp{Op: t.Text, Operand: p.factor()}
	}
	return p.power()
}

func (p *parser) power() Expr {
	p.acceptKeyword("await")
	base := p.primary()
	if p.acceptOp("**") {
		return &BinOp{Op: "**", Left: base, Right: p.factor()}
	}
	return base
}

func (p *parser) primary() Expr {
	e := p.atom()
	for {
		switch {
		case p.acceptOp("."):
			if p.peek().Kind != NAME {
				p.fail("expected attribute name")
			}
			e = &Attribute{Value: e, Attr: p.next().Text}
		case p.acceptOp("("):
			e = p.call(e)
		case p.acceptOp("["):
			e = &Subscript{Value: e, Index: p.subscriptList()}
			p.expectOp("]")
		default:
			return e
		}
	}
}

func (p *parser) call(fn Expr) Expr {
	c := &Call{Func: fn}
	for !p.acceptOp(")") {
		switch {
		case p.acceptOp("*"):
			c.Args = append(c.Args, &Starred{Value: p.test()})
		case p.acceptOp("**"):
			c.Keywords = append(c.Keywords, Keyword{Value: p.test()})
		case p.peek().Kind == NAME && p.peekAt(1).Kind == OP && p.peekAt(1).Text == "=":
			name := p.next().Text
			p.next()
			c.Keywords = append(c.Keywords, Keyword{Arg: name, Value: p.test()})
		default:
			arg := p.namedTest()
			if p.isCompFor() {
				arg = &Comprehension{Elt: arg, Generators: p.compFor()}
			}
			c.Args = append(c.Args, arg)
		}
		if !p.acceptOp(",") {
			p.expectOp(")")
			break
		}
	}
	return c
}

func (p *parser) isCompFor() bool {
	if p.isKeyword("for") {
		return true
	}
	nt := p.peekAt(1)
	return p.isKeyword("async") && nt.Kind == NAME && nt.Text == "for"
}

func (p *parser) compFor() []CompFor {
	var gens []CompFor
	for p.isCompFor() {
		p.acceptKeyword("async")
		p.expectKeyword("for")
		g := CompFor{Target: p.exprList(p.starOrBitOr)}
		p.expectKeyword("in")
		g.Iter = p.orTest()
		for p.acceptKeyword("if") {
			g.Ifs = append(g.Ifs, p.orTest())
		}
		gens = append(gens, g)
	}
	return gens
}

func (p *parser) subscriptList() Expr {
	first := p.sliceItem()
	if !p.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.sliceItem())
	}
	return &Tuple{Elts: elts}
}

func (p *parser) sliceItem() Expr {
	var lower Expr
	if !p.isOp(":") {
		lower = p.starOrNamedTest()
		if !p.isOp(":") {
			return lower
		}
	}
	p.expectOp(":")
	s := &Slice{Lower: lower}
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Upper = p.test()
	}
	if p.acceptOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Step = p.test()
	}
	return s
}

func (p *parser) atom() Expr {
	t := p.peek()
	switch t.Kind {
	case NAME:
		switch t.Text {
		case "True", "False":
			p.next()
			return &Constant{Kind: ConstBool, Bool: t.Text == "True", Text: t.Text}
		case "None":
			p.next()
			return &Constant{Kind: ConstNone, Text: t.Text}
		}
		if reserved[t.Text] {
			p.fail("unexpected keyword")
		}
		p.next()
		return &Name{ID: t.Text}
	case NUMBER:
		p.next()
		return number(t.Text)
	case STRING:
		return p.stringLit()
	case OP:
		switch t.Text {
		case "(":
			p.next()
			return p.paren()
		case "[":
			p.next()
			return p.list()
		case "{":
			p.next()
			return p.dictOrSet()
		case "...":
			p.next()
			return &Constant{Kind: ConstEllipsis, Text: t.Text}
		}
	}
	p.fail("unexpected token")
	return nil
}

func number(text string) *Constant {
	c := &Constant{Text: text}
	lower := strings.ToLower(strings.ReplaceAll(text, "_", ""))
	switch {
	case strings.HasSuffix(lower, "j"):
		c.Kind = ConstImag
		c.Float, _ = strconv.ParseFloat(strings.TrimSuffix(lower, "j"), 64)
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0o"), strings.HasPrefix(lower, "0b"):
		c.Kind = ConstInt
		c.Int, _ = strconv.ParseInt(lower, 0, 64)
	case strings.ContainsAny(lower, ".e"):
		c.Kind = ConstFloat
		c.Float, _ = strconv.ParseFloat(lower, 64)
	default:
		if v, err := strconv.ParseInt(lower, 10, 64); err == nil {
			c.Kind, c.Int = ConstInt, v
		} else {
			c.Kind = ConstFloat
			c.Float, _ = strconv.ParseFloat(lower, 64)
		}
	}
	return c
}

// stringLit joins adjacent string literals.
func (p *parser) stringLit() Expr {
	c := &Constant{Kind: ConstString}
	var b strings.Builder
	for p.peek().Kind == STRING {
		t := p.next()
		if strings.Contains(t.Prefix, "f") {
			c.FString = true
		}
		if strings.Contains(t.Prefix, "b") {
			c.Kind = ConstBytes
		}
		b.WriteString(t.Value)
	}
	c.Str = b.String()
	return c
}

func (p *parser) paren() Expr {
	if p.acceptOp(")") {
		return &Tuple{}
	}
	first := p.starOrNamedTest()
	if p.isCompFor() {
		e := &Comprehension{Open: "(", Elt: first, Generators: p.compFor()}
		p.expectOp(")")
		return e
	}
	if !p.isOp(",") {
		p.expectOp(")")
		return first
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		elts = append(elts, p.starOrNamedTest())
	}
	p.expectOp(")")
	return &Tuple{Elts: elts}
}

func (p *parser) list() Expr {
	if p.acceptOp("]") {
		return &List{}
	}
	first := p.starOrNamedTest()
	if p.isCompFor() {
		e := &Comprehension{Open: "[", Elt: first, Generators: p.compFor()}
		p.expectOp("]")
		return e
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.starOrNamedTest())
	}
	p.expectOp("]")
	return &List{Elts: elts}
}

func (p *parser) dictOrSet() Expr {
	if p.acceptOp("}") {
		return &Dict{}
	}
	d := &Dict{}
	if p.acceptOp("**") {
		d.Keys = append(d.Keys, nil)
		d.Values = append(d.Values, p.bitOr())
	} else {
		first := p.starOrTest()
		if !p.acceptOp(":") {
			return p.setTail(first)
		}
		value := p.test()
		if p.isCompFor() {
			e := &Comprehension{Open: "{", Key: first, Elt: value, Generators: p.compFor()}
			p.expectOp("}")
			return e
		}
		d.Keys = append(d.Keys, first)
		d.Values = append(d.Values, value)
	}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		if p.acceptOp("**") {
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, p.bitOr())
			continue
		}
		key := p.test()
		p.expectOp(":")
		d.Keys = append(d.Keys, key)
		d.Values = append(d.Values, p.test())
	}
	p.expectOp("}")
	return d
}

func (p *parser) setTail(first Expr) Expr {
	if p.isCompFor() {
		e := &Comprehension{Open: "{", Elt: first, Generators: p.compFor()}
		p.expectOp("}")
		return e
	}
	elts := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		elts = append(elts, p.starOrTest())
	}
	p.expectOp("}")
	return &Set{Elts: elts}
}
