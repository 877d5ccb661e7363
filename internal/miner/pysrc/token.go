// Package pysrc tokenizes and parses the subset of Python found in
// notebook plotting cells. It is tolerant: malformed statements are
// reported and skipped rather than failing the whole source.
package pysrc

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	NEWLINE
	INDENT
	DEDENT
	NAME
	NUMBER
	STRING
	OP
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case INDENT:
		return "INDENT"
	case DEDENT:
		return "DEDENT"
	case NAME:
		return "NAME"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	default:
		return "OP"
	}
}

// Token is a lexical token. For strings, Value holds the decoded text and
// Prefix the lower-cased literal prefix (r, b, f, ...).
type Token struct {
	Kind   Kind
	Text   string
	Value  string
	Prefix string
	Line   int
}

var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "->", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", ":=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">", "(", ")", "[", "]",
	"{", "}", ",", ":", ".", ";", "=", "!",
}

type tokenizer struct {
	src     string
	pos     int
	line    int
	depth   int
	indents []int
	toks    []Token
	pending bool // the current logical line has produced tokens
}

// Tokenize splits src into tokens, synthesizing NEWLINE, INDENT and DEDENT
// the way Python does. It never fails: unterminated strings end at the end
// of their line and unbalanced brackets are clamped.
func Tokenize(src string) []Token {
	t := &tokenizer{src: strings.ReplaceAll(src, "\r\n", "\n"), line: 1, indents: []int{0}}
	t.run()
	return t.toks
}

func (t *tokenizer) emit(kind Kind, text string) {
	t.toks = append(t.toks, Token{Kind: kind, Text: text, Line: t.line})
	if kind != INDENT && kind != DEDENT && kind != NEWLINE {
		t.pending = true
	}
}

func (t *tokenizer) run() {
	atLineStart := true
	for t.pos < len(t.src) {
		if atLineStart && t.depth == 0 {
			if !t.indentation() {
				continue
			}
			atLineStart = false
		}
		if t.pos >= len(t.src) {
			break
		}
		c := t.src[t.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f' || c == '\r':
			t.pos++
		case c == '\n':
			t.pos++
			if t.depth == 0 {
				if t.pending {
					t.emit(NEWLINE, "")
					t.pending = false
				}
				atLineStart = true
			}
			t.line++
		case c == '#':
			t.skipComment()
		case c == '\\' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '\n':
			t.pos += 2
			t.line++
		case c == '"' || c == '\'':
			t.readString("")
		case isDigit(c) || (c == '.' && t.pos+1 < len(t.src) && isDigit(t.src[t.pos+1])):
			t.readNumber()
		default:
			r, size := utf8.DecodeRuneInString(t.src[t.pos:])
			if isIdentStart(r) {
				t.readName()
				continue
			}
			if !t.readOperator() {
				// Unknown character ($, ?, backticks): keep it as an operator
				// so the parser can report and skip the statement.
				t.emit(OP, t.src[t.pos:t.pos+size])
				t.pos += size
			}
		}
	}
	if t.pending {
		t.emit(NEWLINE, "")
	}
	for len(t.indents) > 1 {
		t.indents = t.indents[:len(t.indents)-1]
		t.emit(DEDENT, "")
	}
	t.emit(EOF, "")
}

// indentation measures the leading whitespace of a line. It returns false
// when the line is blank or a comment, having consumed it.
func (t *tokenizer) indentation() bool {
	col := 0
scan:
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			break scan
		}
		t.pos++
	}
	if t.pos >= len(t.src) {
		return false
	}
	switch t.src[t.pos] {
	case '\n':
		t.pos++
		t.line++
		return false
	case '#':
		t.skipComment()
		return false
	case '\r':
		t.pos++
		return false
	}
	top := t.indents[len(t.indents)-1]
	if col > top {
		t.indents = append(t.indents, col)
		t.emit(INDENT, "")
	}
	for col < t.indents[len(t.indents)-1] && len(t.indents) > 1 {
		t.indents = t.indents[:len(t.indents)-1]
		t.emit(DEDENT, "")
	}
	return true
}

func (t *tokenizer) skipComment() {
	for t.pos < len(t.src) && t.src[t.pos] != '\n' {
		t.pos++
	}
}

func (t *tokenizer) readName() {
	start := t.pos
	for t.pos < len(t.src) {
		r, size := utf8.DecodeRuneInString(t.src[t.pos:])
		if !isIdentPart(r) {
			break
		}
		t.pos += size
	}
	name := t.src[start:t.pos]
	if t.pos < len(t.src) && (t.src[t.pos] == '"' || t.src[t.pos] == '\'') && isStringPrefix(name) {
		t.readString(strings.ToLower(name))
		return
	}
	t.emit(NAME, name)
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (t *tokenizer) readNumber() {
	start := t.pos
	src := t.src
	if src[t.pos] == '0' && t.pos+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[t.pos+1])) {
		t.pos += 2
		for t.pos < len(src) && (isHexDigit(src[t.pos]) || src[t.pos] == '_') {
			t.pos++
		}
		t.emit(NUMBER, src[start:t.pos])
		return
	}
	digits := func() {
		for t.pos < len(src) && (isDigit(src[t.pos]) || src[t.pos] == '_') {
			t.pos++
		}
	}
	digits()
	if t.pos < len(src) && src[t.pos] == '.' {
		t.pos++
		digits()
	}
	if t.pos < len(src) && (src[t.pos] == 'e' || src[t.pos] == 'E') {
		save := t.pos
		t.pos++
		if t.pos < len(src) && (src[t.pos] == '+' || src[t.pos] == '-') {
			t.pos++
		}
		if t.pos < len(src) && isDigit(src[t.pos]) {
			digits()
		} else {
			t.pos = save
		}
	}
	if t.pos < len(src) && (src[t.pos] == 'j' || src[t.pos] == 'J') {
		t.pos++
	}
	t.emit(NUMBER, src[start:t.pos])
}

func (t *tokenizer) readOperator() bool {
	for _, op := range operators {
		if strings.HasPrefix(t.src[t.pos:], op) {
			switch op {
			case "(", "[", "{":
				t.depth++
			case ")", "]", "}":
				if t.depth > 0 {
					t.depth--
				}
			}
			t.emit(OP, op)
			t.pos += len(op)
			return true
		}
	}
	return false
}

func (t *tokenizer) readString(prefix string) {
	start := t.pos - len(prefix)
	startLine := t.line
	quote := t.src[t.pos]
	triple := strings.HasPrefix(t.src[t.pos:], strings.Repeat(string(quote), 3))
	raw := strings.Contains(prefix, "r")
	if triple {
		t.pos += 3
	} else {
		t.pos++
	}

	var b strings.Builder
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == '\\' && t.pos+1 < len(t.src) {
			next := t.src[t.pos+1]
			if next == '\n' {
				t.line++
			}
			if raw {
				b.WriteByte(c)
				b.WriteByte(next)
				t.pos += 2
				continue
			}
			t.pos += 2
			t.decodeEscape(&b, next, prefix)
			continue
		}
		if triple && strings.HasPrefix(t.src[t.pos:], strings.Repeat(string(quote), 3)) {
			t.pos += 3
			break
		}
		if !triple && c == quote {
			t.pos++
			break
		}
		if !triple && c == '\n' {
			break
		}
		if c == '\n' {
			t.line++
		}
		b.WriteByte(c)
		t.pos++
	}
	t.toks = append(t.toks, Token{
		Kind:   STRING,
		Text:   t.src[start:t.pos],
		Value:  b.String(),
		Prefix: prefix,
		Line:   startLine,
	})
	t.pending = true
}

func (t *tokenizer) decodeEscape(b *strings.Builder, c byte, prefix string) {
	switch c {
	case '\n':
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'x':
		if t.pos+2 <= len(t.src) {
			if v, err := strconv.ParseUint(t.src[t.pos:t.pos+2], 16, 8); err == nil {
				b.WriteRune(rune(v))
				t.pos += 2
				return
			}
		}
		b.WriteString(`\x`)
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if !strings.Contains(prefix, "b") && t.pos+n <= len(t.src) {
			if v, err := strconv.ParseUint(t.src[t.pos:t.pos+n], 16, 32); err == nil {
				b.WriteRune(rune(v))
				t.pos += n
				return
			}
		}
		b.WriteByte('\\')
		b.WriteByte(c)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
