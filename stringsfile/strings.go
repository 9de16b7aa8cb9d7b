// Package stringsfile implements reading and writing of Apple .strings
// string tables.
//
// Format: a comment block followed by a quoted key/value assignment,
// repeated per entry:
//
//	/*Label on the cancel button*/
//	"CANCEL_ACTION" = "Cancel";
//
// Entries are kept in document order so that round-trip serialization
// reproduces the source structure. Values are escaped on output
// (quote and newline) and unescaped on input.
package stringsfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// Entry is one string-table record: a key, its value, and the comment
// that precedes it. The comment carries translator metadata and may be
// empty.
type Entry struct {
	Key     string
	Value   string
	Comment string
}

// ParseError describes malformed .strings input.
type ParseError struct {
	Path string // source file, empty when parsing raw content
	Line int    // 1-based line of the offending token
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .strings file from disk.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return entries, nil
}

// Parse parses .strings content from a byte slice.
// Entries are returned in source order; duplicate keys are kept as-is.
func Parse(data []byte) ([]Entry, error) {
	p := &parser{src: string(data), line: 1}
	var entries []Entry

	for {
		p.skipSpace()
		if p.eof() {
			return entries, nil
		}

		comment := ""
		if p.peek2() == "/*" {
			c, err := p.readComment()
			if err != nil {
				return nil, err
			}
			comment = c
			p.skipSpace()
		}

		if p.eof() {
			// Trailing comment without an entry — tolerated and dropped,
			// matching the two-line block format.
			return entries, nil
		}

		key, err := p.readQuoted()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if p.eof() || p.src[p.pos] != '=' {
			return nil, &ParseError{Line: p.line, Msg: fmt.Sprintf("expected '=' after key %q", key)}
		}
		p.pos++

		p.skipSpace()
		value, err := p.readQuoted()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if !p.eof() && p.src[p.pos] == ';' {
			p.pos++
		} else {
			return nil, &ParseError{Line: p.line, Msg: fmt.Sprintf("expected ';' after value for key %q", key)}
		}

		entries = append(entries, Entry{Key: key, Value: value, Comment: comment})
	}
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek2() string {
	if p.pos+2 > len(p.src) {
		return ""
	}
	return p.src[p.pos : p.pos+2]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		if c == '\n' {
			p.line++
		} else if c != ' ' && c != '\t' && c != '\r' {
			return
		}
		p.pos++
	}
}

// readComment consumes a /*...*/ block and returns the inner text.
func (p *parser) readComment() (string, error) {
	start := p.line
	p.pos += 2
	end := strings.Index(p.src[p.pos:], "*/")
	if end < 0 {
		return "", &ParseError{Line: start, Msg: "unterminated comment"}
	}
	text := p.src[p.pos : p.pos+end]
	p.line += strings.Count(text, "\n")
	p.pos += end + 2
	return text, nil
}

// readQuoted consumes a double-quoted string and returns its unescaped
// content. Backslash escapes the next character, so \" does not close
// the string.
func (p *parser) readQuoted() (string, error) {
	start := p.line
	if p.eof() || p.src[p.pos] != '"' {
		return "", &ParseError{Line: start, Msg: "expected opening quote"}
	}
	p.pos++

	var raw strings.Builder
	for {
		if p.eof() {
			return "", &ParseError{Line: start, Msg: "unterminated quoted string"}
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return Unescape(raw.String()), nil
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", &ParseError{Line: start, Msg: "unterminated escape sequence"}
			}
			raw.WriteByte(c)
			raw.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case '\n':
			p.line++
			raw.WriteByte(c)
			p.pos++
		default:
			raw.WriteByte(c)
			p.pos++
		}
	}
}

// ---------------------------------------------------------------------------
// Escaping
// ---------------------------------------------------------------------------

// Escape prepares a value for serialization: literal quotes become \"
// and literal newlines become the two-character sequence \n.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// Unescape inverts Escape.
func Unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\n`, "\n")
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises entries back to .strings format, one two-line block
// plus a blank separator per entry, in the given order.
func Marshal(entries []Entry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("/*")
		b.WriteString(e.Comment)
		b.WriteString("*/\n\"")
		b.WriteString(e.Key)
		b.WriteString("\" = \"")
		b.WriteString(Escape(e.Value))
		b.WriteString("\";\n\n")
	}
	return []byte(b.String())
}
