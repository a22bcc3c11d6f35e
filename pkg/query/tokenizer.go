package query

import (
	"regexp"
	"strings"
)

var pairPattern = regexp.MustCompile(`^(\w+)=(.*)$`)

// Token es un par clave=valor de la query string.
type Token struct {
	Name  string
	Value string
}

// Tokens es la bolsa de pares en el orden en que llegaron.
type Tokens []Token

// Tokenize decodifica la query string y la parte en pares clave=valor.
// Los segmentos que no cumplen la gramática se descartan sin abortar el resto.
func Tokenize(raw string) Tokens {
	decoded := unescape(raw)
	if decoded == "" {
		return nil
	}

	var tokens Tokens
	seen := make(map[string]int)
	for _, segment := range strings.Split(decoded, "&") {
		m := pairPattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		name, value := m[1], m[2]

		// Una clave repetida sobrescribe el valor pero conserva su posición.
		if i, ok := seen[name]; ok {
			tokens[i].Value = value
			continue
		}
		seen[name] = len(tokens)
		tokens = append(tokens, Token{Name: name, Value: value})
	}
	return tokens
}

// Lookup devuelve el último valor cuya clave coincide sin distinguir mayúsculas.
func (t Tokens) Lookup(name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, tok := range t {
		if strings.EqualFold(tok.Name, name) {
			value, found = tok.Value, true
		}
	}
	return value, found
}

// unescape decodifica como url.QueryUnescape, pero deja tal cual las secuencias
// %xx inválidas en lugar de descartar la decodificación de toda la cadena.
func unescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
