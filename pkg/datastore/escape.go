package datastore

import (
	"fmt"
	"strings"
)

const quote = '"'

// Escape quote-wraps a payload containing a comma, a quote or a line
// terminator, doubling internal quotes. Other payloads are returned as is.
func Escape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Unescape reverses Escape. Text that is not quote-wrapped is returned as is.
func Unescape(s string) string {
	if len(s) < 2 || s[0] != quote || s[len(s)-1] != quote {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}

// splitFields splits comma separated, possibly quoted fields. A quoted field
// must be closed and followed by a comma or the end of input; an unquoted
// field may not contain a quote.
func splitFields(s string) ([]string, error) {
	var out []string
	i := 0
	for {
		if i < len(s) && s[i] == quote {
			j := i + 1
			for {
				k := strings.IndexByte(s[j:], quote)
				if k < 0 {
					return nil, fmt.Errorf("unterminated quoted field")
				}
				j += k
				if j+1 < len(s) && s[j+1] == quote {
					j += 2
					continue
				}
				break
			}
			out = append(out, Unescape(s[i:j+1]))
			i = j + 1
			if i == len(s) {
				return out, nil
			}
			if s[i] != ',' {
				return nil, fmt.Errorf("unexpected %q after quoted field", s[i])
			}
			i++
			continue
		}

		k := strings.IndexByte(s[i:], ',')
		field := s[i:]
		if k >= 0 {
			field = s[i : i+k]
		}
		if strings.IndexByte(field, quote) >= 0 {
			return nil, fmt.Errorf("stray quote in unquoted field %q", field)
		}
		out = append(out, field)
		if k < 0 {
			return out, nil
		}
		i += k + 1
	}
}

// splitMatrix parses a matrix literal "(f1,f2,...)" into unescaped fields.
func splitMatrix(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("matrix value %q is not enclosed in parentheses", s)
	}
	return splitFields(s[1 : len(s)-1])
}
