package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// normalizeJSONC blanks comments and trailing commas with spaces so decoder
// offsets still point at the original line and column.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)
	if err := blankComments(out); err != nil {
		return "", err
	}
	blankTrailingCommas(out)
	return string(out), nil
}

func blankComments(buf []byte) error {
	var s scanState
	for i := 0; i < len(buf); i++ {
		if s.inString(buf[i]) {
			continue
		}
		if buf[i] != '/' || i+1 >= len(buf) {
			continue
		}
		switch buf[i+1] {
		case '/':
			for i < len(buf) && buf[i] != '\n' && buf[i] != '\r' {
				buf[i] = ' '
				i++
			}
		case '*':
			start := i
			buf[i], buf[i+1] = ' ', ' '
			i += 2
			closed := false
			for ; i < len(buf); i++ {
				if buf[i] == '*' && i+1 < len(buf) && buf[i+1] == '/' {
					buf[i], buf[i+1] = ' ', ' '
					i++
					closed = true
					break
				}
				if !isJSONWhitespace(buf[i]) {
					buf[i] = ' '
				}
			}
			if !closed {
				line, col := offsetToLineCol(string(buf), int64(start+1))
				return fmt.Errorf("line %d column %d: unterminated block comment in JSONC", line, col)
			}
		}
	}
	return nil
}

func blankTrailingCommas(buf []byte) {
	var s scanState
	for i := 0; i < len(buf); i++ {
		if s.inString(buf[i]) || buf[i] != ',' {
			continue
		}
		j := i + 1
		for j < len(buf) && isJSONWhitespace(buf[j]) {
			j++
		}
		if j < len(buf) && (buf[j] == '}' || buf[j] == ']') {
			buf[i] = ' '
		}
	}
}

// scanState tracks whether the scanner is inside a JSON string literal.
type scanState struct {
	str    bool
	escape bool
}

// inString consumes ch and reports whether it belongs to a string literal.
func (s *scanState) inString(ch byte) bool {
	if s.str {
		switch {
		case s.escape:
			s.escape = false
		case ch == '\\':
			s.escape = true
		case ch == '"':
			s.str = false
		}
		return true
	}
	if ch == '"' {
		s.str = true
		return true
	}
	return false
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
