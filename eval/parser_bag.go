package eval

// Bag commands (§6). A leading Dot only ever appears at the start of a
// statement (DotExpr is produced by the infix table, never by a prefix
// parse), so there is no ambiguity with member access.

type BagStmt struct {
	Name      string
	HasSchema bool
	Pattern   Pattern
	Predicate Expression
	Limit     Expression
}

type InsertStmt struct {
	Exprs []Expression
}

type QueryStmt struct {
	Patterns   []Pattern
	Projection Expression
	Predicate  Expression
	Limit      Expression
	Repeat     bool // true for .queryx (with-repetition)
}

type DeleteStmt struct {
	Pattern   Pattern
	Predicate Expression
	Limit     Expression
}

type PopStmt struct {
	Expr Expression
}

// ChangeStmt is `.change PATTERN into EXPR [where GUARD] [limit N]`:
// replace every journal entry matching PATTERN (and GUARD) with EXPR
// evaluated in the match environment, re-validated against the bag's
// own schema. All-or-nothing, like Insert.
type ChangeStmt struct {
	Pattern    Pattern
	Projection Expression
	Predicate  Expression
	Limit      Expression
}

// MoveStmt is `.move (BAG) [PATTERN] [into EXPR] [where GUARD] [limit N]`:
// remove every journal entry matching PATTERN (and GUARD) from the
// current bag and insert it, optionally reshaped by EXPR, into BAG. When
// PATTERN is omitted the parser sets Pattern to DiscardPattern, which
// matches every entry; a nil Projection keeps the matched value
// unchanged. All-or-nothing against the target's schema.
type MoveStmt struct {
	ToBag      string
	Pattern    Pattern
	Projection Expression
	Predicate  Expression
	Limit      Expression
}

type DumpStmt struct {
	Name string
}

type LoadStmt struct {
	Name string
}

type InspectStmt struct {
	Expr Expression
}

type PatternStmt struct {
	Pattern Pattern
}

type ClearStmt struct{}

func (p *Parser) parseBagCommand() (Statement, error) {
	p.next() // dot
	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	switch name.Literal {
	case "bag":
		return p.parseBagStmt()
	case "insert":
		return p.parseInsertStmt()
	case "query":
		return p.parseQueryStmt(false)
	case "queryx":
		return p.parseQueryStmt(true)
	case "delete":
		return p.parseDeleteStmt()
	case "pop":
		return p.parsePopStmt()
	case "change":
		return p.parseChangeStmt()
	case "move":
		return p.parseMoveStmt()
	case "dump":
		return p.parseNameStmt(func(n string) Statement { return DumpStmt{Name: n} })
	case "load":
		return p.parseNameStmt(func(n string) Statement { return LoadStmt{Name: n} })
	case "inspect":
		return p.parseInspectStmt()
	case "pattern":
		return p.parsePatternStmt()
	case "clear":
		return ClearStmt{}, nil
	default:
		return nil, parseErrorf(name, "unknown bag command %q", name.Literal)
	}
}

func (p *Parser) atCommandEnd() bool {
	return p.done() || p.is(Semicolon) || p.is(KwInto) || p.is(KwWhere) || p.is(KwLimit)
}

func (p *Parser) parseBagStmt() (Statement, error) {
	if p.atCommandEnd() {
		return BagStmt{}, nil
	}
	nameTok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	stmt := BagStmt{Name: nameTok.Literal}
	if !p.is(KwAs) {
		return stmt, nil
	}
	p.next()
	stmt.HasSchema = true
	stmt.Pattern, err = p.parsePattern()
	if err != nil {
		return nil, err
	}
	if p.is(KwWhere) {
		p.next()
		stmt.Predicate, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwLimit) {
		p.next()
		stmt.Limit, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseInsertStmt() (Statement, error) {
	var exprs []Expression
	for {
		e, err := p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.is(Semicolon) {
			break
		}
		p.next()
	}
	return InsertStmt{Exprs: exprs}, nil
}

func (p *Parser) parsePatternList() ([]Pattern, error) {
	var pats []Pattern
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		pats = append(pats, pat)
		if !p.is(Semicolon) {
			break
		}
		mark := p.mark()
		p.next()
		if p.atCommandEnd() {
			p.rewind(mark)
			break
		}
	}
	if len(pats) > maxQueryPatterns {
		return nil, parseErrorf(p.curr(), "query has %d patterns, limit is %d", len(pats), maxQueryPatterns)
	}
	return pats, nil
}

func (p *Parser) parseQueryStmt(repeat bool) (Statement, error) {
	stmt := QueryStmt{Repeat: repeat}
	if p.atCommandEnd() {
		stmt.Patterns = []Pattern{DiscardPattern{}}
	} else {
		pats, err := p.parsePatternList()
		if err != nil {
			return nil, err
		}
		stmt.Patterns = pats
	}
	var err error
	if p.is(KwInto) {
		p.next()
		stmt.Projection, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwWhere) {
		p.next()
		stmt.Predicate, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwLimit) {
		p.next()
		stmt.Limit, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseDeleteStmt() (Statement, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	stmt := DeleteStmt{Pattern: pat}
	if p.is(KwWhere) {
		p.next()
		stmt.Predicate, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwLimit) {
		p.next()
		stmt.Limit, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parsePopStmt() (Statement, error) {
	e, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	return PopStmt{Expr: e}, nil
}

func (p *Parser) parseChangeStmt() (Statement, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwInto); err != nil {
		return nil, err
	}
	proj, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	stmt := ChangeStmt{Pattern: pat, Projection: proj}
	if p.is(KwWhere) {
		p.next()
		stmt.Predicate, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwLimit) {
		p.next()
		stmt.Limit, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseMoveStmt() (Statement, error) {
	if _, err := p.expect(Lparen); err != nil {
		return nil, err
	}
	toTok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Rparen); err != nil {
		return nil, err
	}
	stmt := MoveStmt{ToBag: toTok.Literal, Pattern: DiscardPattern{}}
	if !p.atCommandEnd() && !p.is(KwInto) {
		stmt.Pattern, err = p.parsePattern()
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwInto) {
		p.next()
		stmt.Projection, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwWhere) {
		p.next()
		stmt.Predicate, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	if p.is(KwLimit) {
		p.next()
		stmt.Limit, err = p.parseExpression(powLowest)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseNameStmt(build func(string) Statement) (Statement, error) {
	tok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	return build(tok.Literal), nil
}

func (p *Parser) parseInspectStmt() (Statement, error) {
	e, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	return InspectStmt{Expr: e}, nil
}

func (p *Parser) parsePatternStmt() (Statement, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	return PatternStmt{Pattern: pat}, nil
}
