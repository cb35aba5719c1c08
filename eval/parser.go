package eval

import (
	"io"
	"strconv"
	"strings"
)

// Precedence, lowest to highest: || ; && ; ==,!=,<,>,<=,>=,in,is,as ;
// +,- ; *,/ ; ^ (right-assoc) ; unary !,- ; postfix member/index/dot.
const (
	powLowest int = iota
	powOr
	powAnd
	powCompare
	powAdd
	powMul
	powPow
	powUnary
	powPostfix
)

var bindings = map[rune]int{
	Or:      powOr,
	And:     powAnd,
	Eq:      powCompare,
	Ne:      powCompare,
	Lt:      powCompare,
	Le:      powCompare,
	Gt:      powCompare,
	Ge:      powCompare,
	KwIn:    powCompare,
	KwIs:    powCompare,
	KwAs:    powCompare,
	Add:     powAdd,
	Sub:     powAdd,
	Mul:     powMul,
	Div:     powMul,
	Pow:     powPow,
	Lsquare: powPostfix,
	Dot:     powPostfix,
}

const maxQueryPatterns = 6

// Parser is a Pratt parser over a fully-tokenised input, modelled on
// eval/parser.go's prefix/infix dispatch tables. Tokenising the whole
// input up front (rather than streaming token-by-token from the
// Scanner) is what lets statement parsing cheaply backtrack when
// deciding whether `p = e` is a pattern assignment or a plain
// expression.
type Parser struct {
	toks []Token
	pos  int

	prefix map[rune]func() (Expression, error)
	infix  map[rune]func(Expression) (Expression, error)
}

func NewParser(r io.Reader) *Parser {
	sc := NewScanner(r)
	p := &Parser{
		prefix: make(map[rune]func() (Expression, error)),
		infix:  make(map[rune]func(Expression) (Expression, error)),
	}
	for {
		tok := sc.Next()
		p.toks = append(p.toks, tok)
		if tok.Type == EOF || tok.Type == Invalid {
			break
		}
	}

	p.registerPrefix(Number, p.parseNumberLit)
	p.registerPrefix(StringTok, p.parseStringLit)
	p.registerPrefix(Template, p.parseTemplateLit)
	p.registerPrefix(Keyword, p.parseKeywordLit)
	p.registerPrefix(Type, p.parseTypeLit)
	p.registerPrefix(Ident, p.parseIdentOrCall)
	p.registerPrefix(Lsquare, p.parseArrayLit)
	p.registerPrefix(Lbrace, p.parseObjectLit)
	p.registerPrefix(Lparen, p.parseGroup)
	p.registerPrefix(Not, p.parseUnary)
	p.registerPrefix(Sub, p.parseUnary)

	p.registerInfix(Add, p.parseBinary)
	p.registerInfix(Sub, p.parseBinary)
	p.registerInfix(Mul, p.parseBinary)
	p.registerInfix(Div, p.parseBinary)
	p.registerInfix(Pow, p.parseBinary)
	p.registerInfix(Eq, p.parseBinary)
	p.registerInfix(Ne, p.parseBinary)
	p.registerInfix(Lt, p.parseBinary)
	p.registerInfix(Le, p.parseBinary)
	p.registerInfix(Gt, p.parseBinary)
	p.registerInfix(Ge, p.parseBinary)
	p.registerInfix(KwIn, p.parseBinary)
	p.registerInfix(And, p.parseLogical)
	p.registerInfix(Or, p.parseLogical)
	p.registerInfix(KwIs, p.parseIs)
	p.registerInfix(KwAs, p.parseAs)
	p.registerInfix(Lsquare, p.parseMember)
	p.registerInfix(Dot, p.parseDot)

	return p
}

func (p *Parser) registerPrefix(kind rune, fn func() (Expression, error)) { p.prefix[kind] = fn }
func (p *Parser) registerInfix(kind rune, fn func(Expression) (Expression, error)) {
	p.infix[kind] = fn
}

func (p *Parser) curr() Token { return p.toks[p.pos] }

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *Parser) is(kind rune) bool  { return p.curr().Type == kind }
func (p *Parser) done() bool         { return p.is(EOF) }
func (p *Parser) mark() int          { return p.pos }
func (p *Parser) rewind(mark int)    { p.pos = mark }

func (p *Parser) expect(kind rune) (Token, error) {
	if !p.is(kind) {
		return Token{}, unexpected(p.curr(), tokenName(kind))
	}
	tok := p.curr()
	p.next()
	return tok, nil
}

// Parse parses the whole input as a single statement (possibly a
// sequence).
func (p *Parser) Parse() (Statement, error) {
	stmt, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, unexpected(p.curr())
	}
	return stmt, nil
}

func (p *Parser) parseSequence() (Statement, error) {
	var stmts []Statement
	for {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
		if !p.is(Semicolon) {
			break
		}
		p.next()
		if p.done() {
			break
		}
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return SeqStmt{Stmts: stmts}, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	if p.is(Dot) {
		return p.parseBagCommand()
	}
	if p.is(KwLet) {
		return p.parseLetStmt()
	}
	mark := p.mark()
	if pat, err := p.tryParsePattern(); err == nil && p.is(Assign) {
		p.next()
		expr, err := p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
		return AssignStmt{Pattern: pat, Expr: expr, Bind: false}, nil
	}
	p.rewind(mark)
	expr, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	return ExprStmt{Expr: expr}, nil
}

func (p *Parser) parseLetStmt() (Statement, error) {
	p.next() // let
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Assign); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	return AssignStmt{Pattern: pat, Expr: expr, Bind: true}, nil
}

// ---- expressions ----

func (p *Parser) parseExpression(pow int) (Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for !p.done() && pow < bindings[p.curr().Type] {
		fn, ok := p.infix[p.curr().Type]
		if !ok {
			break
		}
		left, err = fn(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (Expression, error) {
	fn, ok := p.prefix[p.curr().Type]
	if !ok {
		return nil, unexpected(p.curr())
	}
	return fn()
}

func (p *Parser) parseNumberLit() (Expression, error) {
	tok := p.curr()
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return nil, parseErrorf(tok, "invalid integer literal %q", tok.Literal)
	}
	p.next()
	return LiteralExpr{Value: Int(n)}, nil
}

func (p *Parser) parseStringLit() (Expression, error) {
	tok := p.curr()
	p.next()
	return LiteralExpr{Value: String(tok.Literal)}, nil
}

func (p *Parser) parseKeywordLit() (Expression, error) {
	tok := p.curr()
	p.next()
	switch tok.Literal {
	case "true":
		return LiteralExpr{Value: Bool(true)}, nil
	case "false":
		return LiteralExpr{Value: Bool(false)}, nil
	case "null":
		return LiteralExpr{Value: Null{}}, nil
	default:
		return nil, parseErrorf(tok, "unexpected keyword %q", tok.Literal)
	}
}

func (p *Parser) parseTypeLit() (Expression, error) {
	tok := p.curr()
	tag, ok := tagByName(tok.Literal)
	if !ok {
		return nil, parseErrorf(tok, "unknown type %q", tok.Literal)
	}
	p.next()
	return TypeLiteralExpr{Of: tag}, nil
}

func (p *Parser) parseIdentOrCall() (Expression, error) {
	tok := p.curr()
	p.next()
	if !p.is(Lparen) {
		return IdentExpr{Name: tok.Literal}, nil
	}
	p.next()
	var args []Expression
	for !p.done() && !p.is(Rparen) {
		arg, err := p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.is(Comma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(Rparen); err != nil {
		return nil, err
	}
	if tok.Literal == "type" && len(args) == 1 {
		return TypeOfExpr{Expr: args[0]}, nil
	}
	return CallExpr{Name: tok.Literal, Args: args}, nil
}

func (p *Parser) parseArrayLit() (Expression, error) {
	if _, err := p.expect(Lsquare); err != nil {
		return nil, err
	}
	var elems []ArrayElem
	for !p.done() && !p.is(Rsquare) {
		spread := false
		if p.is(Ellipsis) {
			spread = true
			p.next()
		}
		e, err := p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, ArrayElem{Expr: e, Spread: spread})
		if p.is(Comma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(Rsquare); err != nil {
		return nil, err
	}
	return ArrayExpr{Elems: elems}, nil
}

func (p *Parser) parseObjectLit() (Expression, error) {
	if _, err := p.expect(Lbrace); err != nil {
		return nil, err
	}
	var props []Property
	for !p.done() && !p.is(Rbrace) {
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
		if p.is(Comma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(Rbrace); err != nil {
		return nil, err
	}
	return ObjectExpr{Props: props}, nil
}

func (p *Parser) parseProperty() (Property, error) {
	if p.is(Ellipsis) {
		p.next()
		e, err := p.parseExpression(powLowest)
		if err != nil {
			return Property{}, err
		}
		return Property{Spread: e}, nil
	}
	key, err := p.parsePropKey()
	if err != nil {
		return Property{}, err
	}
	if !p.is(Colon) {
		if key.isComputed() || key.Static == "" {
			return Property{}, unexpected(p.curr(), tokenName(Colon))
		}
		return Property{Key: key, Shorthand: key.Static}, nil
	}
	p.next()
	val, err := p.parseExpression(powLowest)
	if err != nil {
		return Property{}, err
	}
	return Property{Key: key, Value: val}, nil
}

func (p *Parser) parsePropKey() (PropKey, error) {
	switch {
	case p.is(Ident):
		tok := p.curr()
		p.next()
		return PropKey{Static: tok.Literal}, nil
	case p.is(StringTok):
		tok := p.curr()
		p.next()
		return PropKey{Static: tok.Literal}, nil
	case p.is(Lsquare):
		p.next()
		e, err := p.parseExpression(powLowest)
		if err != nil {
			return PropKey{}, err
		}
		if _, err := p.expect(Rsquare); err != nil {
			return PropKey{}, err
		}
		return PropKey{Computed: e}, nil
	default:
		return PropKey{}, unexpected(p.curr(), "identifier", "string", "[")
	}
}

func (p *Parser) parseGroup() (Expression, error) {
	p.next()
	e, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Rparen); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	op := p.curr().Type
	p.next()
	expr, err := p.parseExpression(powUnary)
	if err != nil {
		return nil, err
	}
	return UnaryExpr{Op: op, Expr: expr}, nil
}

func (p *Parser) parseBinary(left Expression) (Expression, error) {
	op := p.curr().Type
	pow := bindings[op]
	p.next()
	if op == Pow {
		pow-- // right-associative
	}
	right, err := p.parseExpression(pow)
	if err != nil {
		return nil, err
	}
	return BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseLogical(left Expression) (Expression, error) {
	op := p.curr().Type
	p.next()
	right, err := p.parseExpression(bindings[op])
	if err != nil {
		return nil, err
	}
	return LogicalExpr{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseIs(left Expression) (Expression, error) {
	p.next()
	right, err := p.parseExpression(powCompare)
	if err != nil {
		return nil, err
	}
	return IsTypeExpr{Expr: left, Of: right}, nil
}

func (p *Parser) parseAs(left Expression) (Expression, error) {
	p.next()
	right, err := p.parseExpression(powCompare)
	if err != nil {
		return nil, err
	}
	return CastExpr{Expr: left, Of: right}, nil
}

func (p *Parser) parseMember(left Expression) (Expression, error) {
	p.next()
	idx, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Rsquare); err != nil {
		return nil, err
	}
	return MemberExpr{Target: left, Index: idx}, nil
}

func (p *Parser) parseDot(left Expression) (Expression, error) {
	p.next()
	tok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	return DotExpr{Target: left, Name: tok.Literal}, nil
}

// parseTemplateLit splits a raw backtick body (captured verbatim by the
// Scanner, `${`/`}` included) into literal-text and expression chunks,
// re-parsing each `${...}` as a fresh, fully-precedenced expression.
func (p *Parser) parseTemplateLit() (Expression, error) {
	tok := p.curr()
	p.next()
	chunks, err := splitTemplate(tok.Literal)
	if err != nil {
		return nil, err
	}
	return TemplateExpr{Chunks: chunks}, nil
}

func splitTemplate(raw string) ([]TemplateChunk, error) {
	var chunks []TemplateChunk
	var text strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			if text.Len() > 0 {
				chunks = append(chunks, TemplateChunk{Text: text.String()})
				text.Reset()
			}
			depth := 1
			j := i + 2
			for ; j < len(runes) && depth > 0; j++ {
				switch runes[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			sub := string(runes[i+2 : j-1])
			expr, err := ParseExpr(sub)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, TemplateChunk{Expr: expr})
			i = j - 1
			continue
		}
		text.WriteRune(runes[i])
	}
	if text.Len() > 0 {
		chunks = append(chunks, TemplateChunk{Text: text.String()})
	}
	return chunks, nil
}

// ---- patterns ----

func (p *Parser) tryParsePattern() (Pattern, error) {
	return p.parsePattern()
}

func (p *Parser) parsePattern() (Pattern, error) {
	switch {
	case p.is(Discard):
		p.next()
		if p.is(KwIs) {
			p.next()
			tok, err := p.expect(Type)
			if err != nil {
				return nil, err
			}
			tag, _ := tagByName(tok.Literal)
			return TypedDiscardPattern{Of: tag}, nil
		}
		return DiscardPattern{}, nil
	case p.is(Ident):
		tok := p.curr()
		p.next()
		if p.is(KwIs) {
			p.next()
			typTok, err := p.expect(Type)
			if err != nil {
				return nil, err
			}
			tag, _ := tagByName(typTok.Literal)
			return TypedCapturePattern{Name: tok.Literal, Of: tag}, nil
		}
		return CapturePattern{Name: tok.Literal}, nil
	case p.is(Number):
		tok := p.curr()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, parseErrorf(tok, "invalid integer literal %q", tok.Literal)
		}
		p.next()
		return LiteralPattern{Value: Int(n)}, nil
	case p.is(Sub):
		p.next()
		tok, err := p.expect(Number)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, parseErrorf(tok, "invalid integer literal %q", tok.Literal)
		}
		return LiteralPattern{Value: Int(-n)}, nil
	case p.is(StringTok):
		tok := p.curr()
		p.next()
		return LiteralPattern{Value: String(tok.Literal)}, nil
	case p.is(Keyword):
		tok := p.curr()
		p.next()
		switch tok.Literal {
		case "true":
			return LiteralPattern{Value: Bool(true)}, nil
		case "false":
			return LiteralPattern{Value: Bool(false)}, nil
		case "null":
			return LiteralPattern{Value: Null{}}, nil
		default:
			return nil, parseErrorf(tok, "unexpected keyword %q in pattern", tok.Literal)
		}
	case p.is(Lsquare):
		return p.parseArrayPattern()
	case p.is(Lbrace):
		return p.parseObjectPattern()
	default:
		return nil, unexpected(p.curr())
	}
}

func (p *Parser) parseArrayPattern() (Pattern, error) {
	p.next() // [
	var (
		items []ArrayItem
		rest  = RestExact
		name  string
	)
	for !p.done() && !p.is(Rsquare) {
		if p.is(Ellipsis) {
			p.next()
			if p.is(Ident) {
				rest = RestCollect
				name = p.curr().Literal
				p.next()
			} else {
				rest = RestDiscard
			}
			break
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		items = append(items, ArrayItem{Pattern: pat})
		if p.is(Comma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(Rsquare); err != nil {
		return nil, err
	}
	return ArrayPattern{Items: items, Rest: rest, RestName: name}, nil
}

func (p *Parser) parseObjectPattern() (Pattern, error) {
	p.next() // {
	var (
		items []ObjectItem
		rest  = RestExact
		name  string
	)
	for !p.done() && !p.is(Rbrace) {
		if p.is(Ellipsis) {
			p.next()
			if p.is(Ident) {
				rest = RestCollect
				name = p.curr().Literal
				p.next()
			} else {
				rest = RestDiscard
			}
			break
		}
		item, err := p.parseObjectPatternItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.is(Comma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(Rbrace); err != nil {
		return nil, err
	}
	return ObjectPattern{Items: items, Rest: rest, RestName: name}, nil
}

func (p *Parser) parseObjectPatternItem() (ObjectItem, error) {
	key, err := p.parsePropKey()
	if err != nil {
		return ObjectItem{}, err
	}
	if p.is(Colon) {
		p.next()
		pat, err := p.parsePattern()
		if err != nil {
			return ObjectItem{}, err
		}
		return ObjectItem{Key: key, Pattern: pat}, nil
	}
	if key.isComputed() {
		return ObjectItem{}, unexpected(p.curr(), tokenName(Colon))
	}
	if p.is(KwIs) {
		p.next()
		typTok, err := p.expect(Type)
		if err != nil {
			return ObjectItem{}, err
		}
		tag, _ := tagByName(typTok.Literal)
		return ObjectItem{Key: key, Pattern: TypedCapturePattern{Name: key.Static, Of: tag}, Single: true}, nil
	}
	return ObjectItem{Key: key, Pattern: CapturePattern{Name: key.Static}, Single: true}, nil
}
