package routepattern

type tokenKind uint8

const (
	tokenLiteral tokenKind = iota
	tokenParam
	tokenWildcard
	tokenOptionalOpen
	tokenOptionalClose
	tokenGroupOpen
	tokenGroupClose
)

// token is a lexical unit of a template. For params and wildcards text holds
// the name; for literals it holds the raw literal text.
type token struct {
	text   string
	offset int
	kind   tokenKind
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// tokenize splits a template into tokens. It never fails: bracket balance is
// checked by the parser.
func tokenize(template string) []token {
	var (
		tokens  []token
		litFrom = -1
	)

	flush := func(end int) {
		if litFrom >= 0 && end > litFrom {
			tokens = append(tokens, token{kind: tokenLiteral, text: template[litFrom:end], offset: litFrom})
		}
		litFrom = -1
	}

	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == ':' && i+1 < len(template) && isWordByte(template[i+1]):
			flush(i)
			j := i + 1
			for j < len(template) && isWordByte(template[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenParam, text: template[i+1 : j], offset: i})
			i = j
		case c == '*':
			flush(i)
			j := i + 1
			for j < len(template) && isWordByte(template[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWildcard, text: template[i+1 : j], offset: i})
			i = j
		case c == '[' || c == ']' || c == '{' || c == '}':
			flush(i)
			tokens = append(tokens, token{kind: structuralKind(c), offset: i})
			i++
		default:
			if litFrom < 0 {
				litFrom = i
			}
			i++
		}
	}
	flush(len(template))

	return tokens
}

func structuralKind(c byte) tokenKind {
	switch c {
	case '[':
		return tokenOptionalOpen
	case ']':
		return tokenOptionalClose
	case '{':
		return tokenGroupOpen
	default:
		return tokenGroupClose
	}
}
