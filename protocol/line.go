package protocol

import (
	"errors"
	"strings"
)

// LineEncoder writes one command per line: SET <key> <value> or GET <key>.
type LineEncoder struct{}

func (LineEncoder) Encode(op Operation) []byte {
	var line string
	if op.Kind == OpWrite {
		line = FormatLine("SET", op.Key, EscapeValue(op.Value))
	} else {
		line = FormatLine("GET", op.Key)
	}
	return append([]byte(line), '\n')
}

// FormatLine joins a verb and its already escaped arguments with single spaces.
func FormatLine(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + " " + strings.Join(args, " ")
}

// EscapeValue quotes a value that the server would otherwise split or misread.
// Values holding a space or a double quote are wrapped in double quotes and every inner
// double quote becomes \". Anything else is returned unchanged.
func EscapeValue(v string) string {
	if !strings.ContainsAny(v, ` "`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

var ErrMalformedQuoted = errors.New("malformed quoted value")

// UnescapeValue reverses EscapeValue. Unquoted input is returned as is.
func UnescapeValue(v string) (string, error) {
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	if len(v) < 2 || !strings.HasSuffix(v, `"`) {
		return "", ErrMalformedQuoted
	}
	body := v[1 : len(v)-1]
	for i := 0; i < len(body); i++ {
		// every quote inside the body must carry its escape
		if body[i] == '"' && (i == 0 || body[i-1] != '\\') {
			return "", ErrMalformedQuoted
		}
	}
	return strings.ReplaceAll(body, `\"`, `"`), nil
}
