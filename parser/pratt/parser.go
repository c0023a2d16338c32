// Copyright © 2024 The Expreva authors

// Package pratt implements the expreva expression parser: a top-down
// operator precedence parser producing the nested-list AST consumed by the
// evaluator.
package pratt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/token"
)

// tupleHead marks an argument aggregate built by the comma operator.  The
// marker never survives parsing: calls, pipes, arrays, and lambda argument
// lists all unpack it, and a stray aggregate becomes a list literal.
const tupleHead = ","

// ParseError reports a parse failure with the statements successfully
// parsed before it, so hosts can display partial output.
type ParseError struct {
	Message string
	Line    int
	Column  int
	Partial []*expreva.Val
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: parse error: %s", e.Line, e.Column, e.Message)
}

// LexError reports input the tokenizer could not match.
type LexError struct {
	Message string
	Line    int
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: lex error: %s", e.Line, e.Column, e.Message)
}

// Parser consumes a token source and produces AST values.
type Parser struct {
	src *TokenSource
}

// New initializes a parser reading from src.
func New(src *TokenSource) *Parser {
	return &Parser{src: src}
}

func (p *Parser) cur() *token.Token {
	return p.src.Current()
}

func (p *Parser) advance() *token.Token {
	t := p.cur()
	p.src.Advance()
	return t
}

func (p *Parser) check(typ token.Type, text string) bool {
	t := p.cur()
	return t.Type == typ && (text == "" || t.Text == text)
}

func (p *Parser) accept(typ token.Type, text string) bool {
	if p.check(typ, text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(typ token.Type, text string) (*token.Token, error) {
	if !p.check(typ, text) {
		want := typ.String()
		if text != "" {
			want = fmt.Sprintf("%q", text)
		}
		return nil, p.errorf("expected %s, got %s", want, describeToken(p.cur()))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, v ...interface{}) error {
	tok := p.cur()
	perr := &ParseError{Message: fmt.Sprintf(format, v...)}
	if tok != nil && tok.Source != nil {
		perr.Line = tok.Source.Line
		perr.Column = tok.Source.Col
	}
	return perr
}

func describeToken(t *token.Token) string {
	if t == nil || t.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// Program parses statements until EOF.  Multiple statements fold into the
// right-associated sequence shape ((s1 ; s2) ; s3) which the evaluator runs
// like a do block.
func (p *Parser) Program() (*expreva.Val, error) {
	var stmts []*expreva.Val
	for {
		for p.accept(token.SEMICOLON, "") {
		}
		if p.cur().Type == token.EOF {
			break
		}
		stmt, err := p.Statement()
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Partial = stmts
			}
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	switch len(stmts) {
	case 0:
		return expreva.Nil(), nil
	case 1:
		return stmts[0], nil
	}
	acc := stmts[0]
	for _, stmt := range stmts[1:] {
		acc = expreva.List(acc, expreva.Symbol(";"), stmt)
	}
	return acc, nil
}

// Statement parses a single expression statement.
func (p *Parser) Statement() (*expreva.Val, error) {
	v, err := p.expr(powerNone)
	if err != nil {
		return nil, err
	}
	if v.HeadSymbol() == tupleHead {
		// A bare comma sequence at statement level reads as a list literal.
		cells := append([]*expreva.Val{expreva.Symbol("list")}, v.Cells[1:]...)
		return expreva.List(cells...), nil
	}
	return v, nil
}

func (p *Parser) expr(minbp int) (*expreva.Val, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Type == token.EOF || lbp(tok) <= minbp {
			return left, nil
		}
		left, err = p.infix(left, tok)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) prefix() (*expreva.Val, error) {
	tok := p.cur()
	switch tok.Type {
	case token.NUMBER:
		p.advance()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", tok.Text)
		}
		return at(expreva.Number(f), tok), nil
	case token.STRING:
		p.advance()
		s, err := unquote(tok.Text)
		if err != nil {
			return nil, p.errorf("malformed string literal: %s", err)
		}
		return at(expreva.Quote(expreva.String(s)), tok), nil
	case token.NAME:
		return p.prefixName()
	case token.OP:
		return p.prefixOp()
	case token.PAREN:
		if tok.Text == "(" {
			return p.group()
		}
		return nil, p.errorf("unexpected %s", describeToken(tok))
	case token.BRACKET:
		switch tok.Text {
		case "[":
			return p.array()
		case "{":
			return p.object()
		}
		return nil, p.errorf("unexpected %s", describeToken(tok))
	case token.ERROR:
		lexErr := &LexError{Message: tok.Text}
		if tok.Source != nil {
			lexErr.Line = tok.Source.Line
			lexErr.Column = tok.Source.Col
		}
		return nil, lexErr
	case token.EOF:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected %s", describeToken(tok))
	}
}

func (p *Parser) prefixName() (*expreva.Val, error) {
	tok := p.cur()
	switch tok.Text {
	case "true":
		p.advance()
		return expreva.True(), nil
	case "false":
		p.advance()
		return expreva.False(), nil
	case "nil":
		p.advance()
		return expreva.Nil(), nil
	case "if":
		return p.ifExpr()
	case "not":
		p.advance()
		x, err := p.expr(powerPrefix)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("!"), x), tok), nil
	case "macro":
		p.advance()
		x, err := p.expr(powerPrefix)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("~"), x), tok), nil
	case "return":
		p.advance()
		if p.beginsExpression() {
			return p.expr(powerNone)
		}
		return expreva.Nil(), nil
	case "then", "else", "and", "or", "in":
		return nil, p.errorf("unexpected keyword %q", tok.Text)
	default:
		p.advance()
		return at(expreva.Symbol(tok.Text), tok), nil
	}
}

func (p *Parser) prefixOp() (*expreva.Val, error) {
	tok := p.cur()
	switch tok.Text {
	case "-", "+", "!", "~", "...":
		p.advance()
		x, err := p.expr(powerPrefix)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol(tok.Text), x), tok), nil
	default:
		return nil, p.errorf("unexpected operator %q", tok.Text)
	}
}

// beginsExpression reports whether the current token can start an
// expression, used to decide if a noise word swallows what follows.
func (p *Parser) beginsExpression() bool {
	tok := p.cur()
	switch tok.Type {
	case token.NUMBER, token.STRING:
		return true
	case token.NAME:
		return tok.Text != "then" && tok.Text != "else"
	case token.OP:
		switch tok.Text {
		case "-", "+", "!", "~", "...":
			return true
		}
		return false
	case token.PAREN:
		return tok.Text == "("
	case token.BRACKET:
		return tok.Text == "[" || tok.Text == "{"
	default:
		return false
	}
}

func (p *Parser) ifExpr() (*expreva.Val, error) {
	tok, err := p.expect(token.NAME, "if")
	if err != nil {
		return nil, err
	}
	cond, err := p.expr(powerConditional)
	if err != nil {
		return nil, err
	}
	p.accept(token.NAME, "then")
	cons, err := p.expr(powerConditional)
	if err != nil {
		return nil, err
	}
	if p.accept(token.NAME, "else") {
		alt, err := p.expr(powerConditional)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("if"), cond, cons, alt), tok), nil
	}
	return at(expreva.List(expreva.Symbol("if"), cond, cons), tok), nil
}

// group parses a parenthesized expression.  When the closing paren is
// followed by =>, the contents are re-read as a lambda argument list via the
// token source's single-slot bookmark.
func (p *Parser) group() (*expreva.Val, error) {
	open, err := p.expect(token.PAREN, "(")
	if err != nil {
		return nil, err
	}
	if p.accept(token.PAREN, ")") {
		if p.accept(token.OP, "=>") {
			body, err := p.expr(powerAssign - 1)
			if err != nil {
				return nil, err
			}
			return at(expreva.List(expreva.Symbol("lambda"), expreva.List(), body), open), nil
		}
		return expreva.Nil(), nil
	}
	p.src.Save()
	inner, err := p.expr(powerNone)
	if err != nil {
		p.src.Discard()
		return nil, err
	}
	if _, err := p.expect(token.PAREN, ")"); err != nil {
		p.src.Discard()
		return nil, err
	}
	if p.check(token.OP, "=>") {
		p.src.Restore()
		return p.lambdaFromParams(open)
	}
	p.src.Discard()
	return inner, nil
}

// lambdaFromParams re-reads a parenthesized argument list after the parser
// has seen that => follows the group.  The cursor sits on the first token
// inside the parens.
func (p *Parser) lambdaFromParams(open *token.Token) (*expreva.Val, error) {
	var params []*expreva.Val
	for {
		d, err := p.paramDef()
		if err != nil {
			return nil, err
		}
		params = append(params, d)
		if !p.accept(token.COMMA, "") {
			break
		}
	}
	if _, err := p.expect(token.PAREN, ")"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.OP, "=>"); err != nil {
		return nil, err
	}
	body, err := p.expr(powerAssign - 1)
	if err != nil {
		return nil, err
	}
	return at(expreva.List(expreva.Symbol("lambda"), expreva.List(params...), body), open), nil
}

func (p *Parser) paramDef() (*expreva.Val, error) {
	if p.accept(token.OP, "...") {
		name, err := p.expect(token.NAME, "")
		if err != nil {
			return nil, err
		}
		return expreva.List(expreva.Symbol("..."), expreva.Symbol(name.Text)), nil
	}
	name, err := p.expect(token.NAME, "")
	if err != nil {
		return nil, err
	}
	if p.accept(token.OP, "=") {
		d, err := p.expr(powerComma)
		if err != nil {
			return nil, err
		}
		return expreva.List(expreva.Symbol("def"), expreva.Symbol(name.Text), d), nil
	}
	return expreva.Symbol(name.Text), nil
}

func (p *Parser) array() (*expreva.Val, error) {
	open, err := p.expect(token.BRACKET, "[")
	if err != nil {
		return nil, err
	}
	if p.accept(token.BRACKET, "]") {
		return at(expreva.List(expreva.Symbol("list")), open), nil
	}
	inner, err := p.expr(powerNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.BRACKET, "]"); err != nil {
		return nil, err
	}
	cells := append([]*expreva.Val{expreva.Symbol("list")}, spreadTuple(inner)...)
	return at(expreva.List(cells...), open), nil
}

func (p *Parser) object() (*expreva.Val, error) {
	open, err := p.expect(token.BRACKET, "{")
	if err != nil {
		return nil, err
	}
	pairs := []*expreva.Val{expreva.Symbol("obj")}
	for !p.check(token.BRACKET, "}") {
		if p.accept(token.OP, "...") {
			e, err := p.expr(powerComma)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, expreva.List(expreva.Symbol("..."), e))
		} else {
			pair, err := p.objectEntry()
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
		if !p.accept(token.COMMA, "") {
			break
		}
	}
	if _, err := p.expect(token.BRACKET, "}"); err != nil {
		return nil, err
	}
	return at(expreva.List(pairs...), open), nil
}

func (p *Parser) objectEntry() (*expreva.Val, error) {
	tok := p.cur()
	var key *expreva.Val
	var shorthand *expreva.Val
	switch {
	case tok.Type == token.NAME:
		p.advance()
		key = expreva.Quote(expreva.String(tok.Text))
		shorthand = expreva.Symbol(tok.Text)
	case tok.Type == token.NUMBER:
		p.advance()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", tok.Text)
		}
		key = expreva.Number(f)
	case tok.Type == token.STRING:
		p.advance()
		s, err := unquote(tok.Text)
		if err != nil {
			return nil, p.errorf("malformed string literal: %s", err)
		}
		key = expreva.Quote(expreva.String(s))
	case tok.Type == token.PAREN && tok.Text == "(":
		p.advance()
		e, err := p.expr(powerNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.PAREN, ")"); err != nil {
			return nil, err
		}
		key = e
	default:
		return nil, p.errorf("expected object key, got %s", describeToken(tok))
	}
	if p.accept(token.OP, ":") {
		v, err := p.expr(powerComma)
		if err != nil {
			return nil, err
		}
		return expreva.List(key, v), nil
	}
	if shorthand == nil {
		return nil, p.errorf("expected \":\" after object key")
	}
	return expreva.List(key, shorthand), nil
}

func (p *Parser) infix(left *expreva.Val, tok *token.Token) (*expreva.Val, error) {
	switch tok.Type {
	case token.COMMA:
		p.advance()
		right, err := p.expr(powerComma)
		if err != nil {
			return nil, err
		}
		if left.HeadSymbol() == tupleHead {
			left.Cells = append(left.Cells, right)
			return left, nil
		}
		return expreva.List(expreva.Symbol(tupleHead), left, right), nil
	case token.PAREN:
		return p.call(left)
	case token.BRACKET:
		return p.indexMember(left)
	case token.OP, token.NAME:
		return p.infixOp(left, tok)
	default:
		return nil, p.errorf("unexpected %s", describeToken(tok))
	}
}

func (p *Parser) call(callee *expreva.Val) (*expreva.Val, error) {
	if _, err := p.expect(token.PAREN, "("); err != nil {
		return nil, err
	}
	if p.accept(token.PAREN, ")") {
		return expreva.List(callee), nil
	}
	args, err := p.expr(powerNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.PAREN, ")"); err != nil {
		return nil, err
	}
	cells := append([]*expreva.Val{callee}, spreadTuple(args)...)
	return expreva.List(cells...), nil
}

func (p *Parser) indexMember(base *expreva.Val) (*expreva.Val, error) {
	if _, err := p.expect(token.BRACKET, "["); err != nil {
		return nil, err
	}
	key, err := p.expr(powerNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.BRACKET, "]"); err != nil {
		return nil, err
	}
	return appendMember(base, key), nil
}

func (p *Parser) infixOp(left *expreva.Val, tok *token.Token) (*expreva.Val, error) {
	switch tok.Text {
	case "=":
		p.advance()
		if err := p.checkAssignTarget(left); err != nil {
			return nil, err
		}
		rhs, err := p.expr(rbp(tok))
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("def"), left, rhs), tok), nil
	case "+=", "-=", "*=", "/=":
		p.advance()
		if err := p.checkAssignTarget(left); err != nil {
			return nil, err
		}
		rhs, err := p.expr(rbp(tok))
		if err != nil {
			return nil, err
		}
		op := expreva.Symbol(tok.Text[:1])
		update := expreva.List(op, left, rhs)
		return at(expreva.List(expreva.Symbol("def"), left, update), tok), nil
	case "++", "--":
		p.advance()
		if err := p.checkAssignTarget(left); err != nil {
			return nil, err
		}
		op := expreva.Symbol(tok.Text[:1])
		update := expreva.List(op, left, expreva.Number(1))
		return at(expreva.List(expreva.Symbol("def"), left, update), tok), nil
	case "?":
		p.advance()
		cons, err := p.expr(powerNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.OP, ":"); err != nil {
			return nil, err
		}
		alt, err := p.expr(rbp(tok))
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("if"), left, cons, alt), tok), nil
	case "->":
		p.advance()
		right, err := p.expr(powerProduct)
		if err != nil {
			return nil, err
		}
		return at(pipe(left, right), tok), nil
	case "=>":
		p.advance()
		params, err := lambdaParams(left)
		if err != nil {
			return nil, p.errorf("%s", err)
		}
		body, err := p.expr(powerAssign - 1)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("lambda"), params, body), tok), nil
	case ".":
		p.advance()
		return p.member(left)
	case "!":
		p.advance()
		return at(expreva.List(expreva.Symbol("factorial"), left), tok), nil
	case "and", "&&":
		p.advance()
		right, err := p.expr(powerLogical)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("&&"), left, right), tok), nil
	case "or", "||":
		p.advance()
		right, err := p.expr(powerLogical)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("||"), left, right), tok), nil
	case "in":
		p.advance()
		right, err := p.expr(powerComparison)
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol("in"), left, right), tok), nil
	default:
		if infixPowers[tok.Text] == 0 {
			return nil, p.errorf("unexpected %s", describeToken(tok))
		}
		p.advance()
		right, err := p.expr(rbp(tok))
		if err != nil {
			return nil, err
		}
		return at(expreva.List(expreva.Symbol(tok.Text), left, right), tok), nil
	}
}

// member parses one member access after a dot.
func (p *Parser) member(base *expreva.Val) (*expreva.Val, error) {
	tok := p.cur()
	var key *expreva.Val
	switch {
	case tok.Type == token.NAME:
		p.advance()
		key = expreva.Quote(expreva.String(tok.Text))
	case tok.Type == token.NUMBER:
		p.advance()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", tok.Text)
		}
		key = expreva.Number(f)
	case tok.Type == token.STRING:
		p.advance()
		s, err := unquote(tok.Text)
		if err != nil {
			return nil, p.errorf("malformed string literal: %s", err)
		}
		key = expreva.Quote(expreva.String(s))
	case tok.Type == token.PAREN && tok.Text == "(":
		p.advance()
		e, err := p.expr(powerNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.PAREN, ")"); err != nil {
			return nil, err
		}
		key = e
	default:
		return nil, p.errorf("expected member name, got %s", describeToken(tok))
	}
	return appendMember(base, key), nil
}

func appendMember(base, key *expreva.Val) *expreva.Val {
	if base.Kind == expreva.KList && base.HeadSymbol() == "get" {
		base.Cells = append(base.Cells, key)
		return base
	}
	return expreva.List(expreva.Symbol("get"), base, key)
}

func (p *Parser) checkAssignTarget(left *expreva.Val) error {
	if left.Kind == expreva.KSymbol {
		return nil
	}
	if left.Kind == expreva.KList && left.HeadSymbol() == "get" {
		return nil
	}
	return p.errorf("cannot assign to %s", expreva.PrintSyntaxTree(left))
}

// pipe rewrites x -> f as a call of f with x prepended to any existing
// arguments.
func pipe(left, right *expreva.Val) *expreva.Val {
	args := spreadTuple(left)
	if right.Kind != expreva.KList {
		cells := append([]*expreva.Val{right}, args...)
		return expreva.List(cells...)
	}
	switch right.HeadSymbol() {
	case "lambda", "λ", "get", "list", "obj", "if", "`":
		cells := append([]*expreva.Val{right}, args...)
		return expreva.List(cells...)
	}
	cells := make([]*expreva.Val, 0, len(right.Cells)+len(args))
	cells = append(cells, right.Cells[0])
	cells = append(cells, args...)
	cells = append(cells, right.Cells[1:]...)
	return expreva.List(cells...)
}

// lambdaParams converts the left operand of => into a formal argument list.
func lambdaParams(left *expreva.Val) (*expreva.Val, error) {
	if left.Kind == expreva.KSymbol {
		return expreva.List(left), nil
	}
	if left.HeadSymbol() == tupleHead {
		params := make([]*expreva.Val, 0, len(left.Cells)-1)
		for _, cell := range left.Cells[1:] {
			switch {
			case cell.Kind == expreva.KSymbol:
				params = append(params, cell)
			case cell.HeadSymbol() == "def" && cell.Len() == 3:
				params = append(params, cell)
			case cell.HeadSymbol() == "..." && cell.Len() == 2:
				params = append(params, cell)
			default:
				return nil, fmt.Errorf("invalid lambda argument: %s", expreva.PrintSyntaxTree(cell))
			}
		}
		return expreva.List(params...), nil
	}
	return nil, fmt.Errorf("invalid lambda argument list: %s", expreva.PrintSyntaxTree(left))
}

func spreadTuple(v *expreva.Val) []*expreva.Val {
	if v.HeadSymbol() == tupleHead {
		return v.Cells[1:]
	}
	return []*expreva.Val{v}
}

// at stamps v with tok's source location.
func at(v *expreva.Val, tok *token.Token) *expreva.Val {
	if tok != nil && tok.Source != nil {
		v.Source = tok.Source
	}
	return v
}

// unquote decodes a single- or double-quoted string literal using JSON
// string escape rules.
func unquote(text string) (string, error) {
	if len(text) < 2 {
		return "", fmt.Errorf("unterminated string")
	}
	quote := text[0]
	if text[len(text)-1] != quote {
		return "", fmt.Errorf("unterminated string")
	}
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var buf strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			buf.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch body[i] {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case '\\', '/', '\'', '"', '`':
			buf.WriteByte(body[i])
		case 'u':
			if i+4 >= len(body) {
				return "", fmt.Errorf("truncated unicode escape")
			}
			n, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape \\u%s", body[i+1:i+5])
			}
			i += 4
			r := rune(n)
			if utf16.IsSurrogate(r) && i+6 < len(body) && body[i+1] == '\\' && body[i+2] == 'u' {
				n2, err := strconv.ParseUint(body[i+3:i+7], 16, 32)
				if err == nil {
					if dec := utf16.DecodeRune(r, rune(n2)); dec != 0xFFFD {
						buf.WriteRune(dec)
						i += 6
						continue
					}
				}
			}
			buf.WriteRune(r)
		default:
			buf.WriteByte(body[i])
		}
	}
	return buf.String(), nil
}
