package eval

var tokenNames = map[rune]string{
	EOF: "<eof>", Invalid: "<invalid>", Ident: "identifier", Keyword: "keyword",
	Type: "type", Number: "number", StringTok: "string", Template: "template",
	Discard: "_", Lparen: "(", Rparen: ")", Lbrace: "{", Rbrace: "}",
	Lsquare: "[", Rsquare: "]", Comma: ",", Colon: ":", Semicolon: ";",
	Dot: ".", Ellipsis: "...", Assign: "=", Not: "!", And: "&&", Or: "||",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=", Add: "+",
	Sub: "-", Mul: "*", Div: "/", Pow: "^", KwIn: "in", KwIs: "is",
	KwAs: "as", KwLet: "let", KwInto: "into", KwWhere: "where", KwLimit: "limit",
}

func tokenName(t rune) string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return "?"
}

func (t Token) String() string {
	if t.Literal != "" {
		return tokenName(t.Type) + "(" + t.Literal + ")"
	}
	return tokenName(t.Type)
}
