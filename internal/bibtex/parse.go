// Package bibtex reads and writes citation-database text in BibTeX form.
package bibtex

import (
	"fmt"
	"os"
	"strings"
)

// Reserved field names. They are upper case so they never collide with the
// citation fields, which are always stored lower case.
const (
	FieldEntryType = "ENTRYTYPE"
	FieldKey       = "ID"
)

// Entry is one parsed citation block: lowercased field names mapped to
// whitespace-collapsed values, plus the reserved entry type and key.
type Entry map[string]string

// Type returns the lowercased entry type (article, inproceedings, ...).
func (e Entry) Type() string { return e[FieldEntryType] }

// Key returns the citation key.
func (e Entry) Key() string { return e[FieldKey] }

// Get returns a field value by case-insensitive name, trimmed.
func (e Entry) Get(name string) string {
	return strings.TrimSpace(e[strings.ToLower(name)])
}

type state int

const (
	stateSeekEntry state = iota
	stateEntryType
	stateEntryKey
	stateFieldName
	stateBraceValue
	stateQuotedValue
	stateBareValue
	stateDone
)

// parser walks the input once. Each state consumes bytes from pos and names
// the next state; stateDone ends the walk, either at end of input or at an
// entry that cannot be closed.
type parser struct {
	src     string
	pos     int
	entries []Entry

	cur    Entry
	closer byte // '}' or ')' for the entry being read
	field  string
	parts  []string // pieces of a '#'-concatenated value
}

// Parse extracts every complete entry from text. It never fails: malformed
// fields end the entry they appear in, and a truncated entry stops parsing,
// returning the entries collected before it.
func Parse(text string) []Entry {
	p := &parser{src: text}
	st := stateSeekEntry
	for st != stateDone {
		switch st {
		case stateSeekEntry:
			st = p.seekEntry()
		case stateEntryType:
			st = p.entryType()
		case stateEntryKey:
			st = p.entryKey()
		case stateFieldName:
			st = p.fieldName()
		case stateBraceValue:
			st = p.braceValue()
		case stateQuotedValue:
			st = p.quotedValue()
		case stateBareValue:
			st = p.bareValue()
		}
	}
	return p.entries
}

// ParseFile reads and parses a BibTeX file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex file: %w", err)
	}
	return Parse(string(data)), nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) seekEntry() state {
	i := strings.IndexByte(p.src[p.pos:], '@')
	if i < 0 {
		return stateDone
	}
	p.pos += i + 1
	return stateEntryType
}

func (p *parser) entryType() state {
	start := p.pos
	for !p.eof() && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	typ := strings.ToLower(p.src[start:p.pos])
	p.skipSpace()
	if typ == "" || p.eof() || (p.src[p.pos] != '{' && p.src[p.pos] != '(') {
		if p.eof() {
			return stateDone
		}
		return stateSeekEntry
	}

	p.closer = '}'
	if p.src[p.pos] == '(' {
		p.closer = ')'
	}

	switch typ {
	case "comment", "preamble", "string":
		if !p.skipBlock() {
			return stateDone
		}
		return stateSeekEntry
	}

	p.pos++
	p.cur = Entry{FieldEntryType: typ}
	return stateEntryKey
}

func (p *parser) entryKey() state {
	start := p.pos
	for !p.eof() {
		switch c := p.src[p.pos]; {
		case c == ',':
			p.cur[FieldKey] = strings.TrimSpace(p.src[start:p.pos])
			p.pos++
			return stateFieldName
		case c == p.closer:
			// An entry with a key and no fields.
			p.cur[FieldKey] = strings.TrimSpace(p.src[start:p.pos])
			p.pos++
			p.finishEntry()
			return stateSeekEntry
		case c == '@':
			// The previous block never got a key; resync on this one.
			return stateSeekEntry
		}
		p.pos++
	}
	return stateDone
}

func (p *parser) fieldName() state {
	for !p.eof() && (isSpace(p.src[p.pos]) || p.src[p.pos] == ',') {
		p.pos++
	}
	if p.eof() {
		return stateDone
	}
	if p.src[p.pos] == p.closer {
		p.pos++
		p.finishEntry()
		return stateSeekEntry
	}

	start := p.pos
	if isLetter(p.src[p.pos]) {
		for !p.eof() && isFieldByte(p.src[p.pos]) {
			p.pos++
		}
	}
	name := strings.ToLower(p.src[start:p.pos])
	p.skipSpace()
	if name == "" || p.eof() || p.src[p.pos] != '=' {
		return p.abandonFields()
	}
	p.pos++
	p.field = name
	p.parts = p.parts[:0]
	return p.startValue()
}

// startValue dispatches on the first byte of a value.
func (p *parser) startValue() state {
	p.skipSpace()
	if p.eof() {
		return stateDone
	}
	switch p.src[p.pos] {
	case '{':
		p.pos++
		return stateBraceValue
	case '"':
		p.pos++
		return stateQuotedValue
	default:
		return stateBareValue
	}
}

func (p *parser) braceValue() state {
	start, depth := p.pos, 1
	for ; !p.eof(); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return p.endValue(value)
			}
		}
	}
	return stateDone
}

func (p *parser) quotedValue() state {
	start, depth := p.pos, 0
	for !p.eof() {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return p.endValue(value)
			}
		}
		p.pos++
	}
	return stateDone
}

func (p *parser) bareValue() state {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == ',' || c == '#' || c == '\n' || c == '\r' || c == p.closer {
			return p.endValue(strings.TrimSpace(p.src[start:p.pos]))
		}
		p.pos++
	}
	return stateDone
}

// endValue records one piece of a value and either continues a '#'
// concatenation or stores the field.
func (p *parser) endValue(value string) state {
	p.parts = append(p.parts, value)
	save := p.pos
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == '#' {
		p.pos++
		return p.startValue()
	}
	p.pos = save
	p.cur[p.field] = collapseSpace(strings.Join(p.parts, ""))
	return stateFieldName
}

// abandonFields skips the rest of an entry whose field list is garbled. The
// entry keeps the fields read so far, matching how far a reader could trust
// it.
func (p *parser) abandonFields() state {
	depth := 1
	for ; !p.eof(); p.pos++ {
		c := p.src[p.pos]
		switch {
		case c == '{':
			depth++
		case c == '}' || c == ')':
			if c == p.closer && depth == 1 {
				p.pos++
				p.finishEntry()
				return stateSeekEntry
			}
			if c == '}' {
				depth--
			}
		}
	}
	return stateDone
}

// skipBlock consumes a balanced @comment/@preamble/@string block starting at
// its opening delimiter.
func (p *parser) skipBlock() bool {
	open, depth := p.src[p.pos], 0
	for ; !p.eof(); p.pos++ {
		switch p.src[p.pos] {
		case open:
			depth++
		case p.closer:
			depth--
			if depth == 0 {
				p.pos++
				return true
			}
		}
	}
	return false
}

func (p *parser) finishEntry() {
	p.entries = append(p.entries, p.cur)
	p.cur = nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func isFieldByte(c byte) bool {
	return isNameByte(c) || c == ':' || c == '.'
}
