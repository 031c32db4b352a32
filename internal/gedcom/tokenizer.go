// Package gedcom turns GEDCOM text into family graph entities.
//
// The pipeline is Tokenizer → Build → Import. Only the subset of GEDCOM that
// carries people, families, events, notes and sources is understood; every
// other record is tokenized and ignored.
package gedcom

import (
	"iter"
	"strconv"
	"strings"
)

// Line is one tokenized GEDCOM line.
type Line struct {
	Number int
	Level  int
	XRef   string
	Tag    string
	Value  string
}

// Tokenizer yields the lines of a GEDCOM text in order. It is single-pass:
// once drained it cannot be restarted.
type Tokenizer struct {
	text    string
	pos     int
	number  int
	line    Line
	skipped int
}

// NewTokenizer returns a tokenizer over text. A leading byte order mark is
// ignored.
func NewTokenizer(text string) *Tokenizer {
	return &Tokenizer{text: strings.TrimPrefix(text, "\ufeff")}
}

// Next advances to the next well-formed line. Malformed lines are skipped
// and counted.
func (t *Tokenizer) Next() bool {
	for t.pos < len(t.text) {
		raw := t.readRaw()
		t.number++

		if strings.TrimSpace(raw) == "" {
			continue
		}

		line, ok := parseLine(raw)
		if !ok {
			t.skipped++
			continue
		}
		line.Number = t.number
		t.line = line
		return true
	}
	return false
}

// Line returns the line produced by the last successful call to Next.
func (t *Tokenizer) Line() Line { return t.line }

// Skipped returns how many non-blank lines were malformed so far.
func (t *Tokenizer) Skipped() int { return t.skipped }

// Lines drains the tokenizer as a sequence.
func (t *Tokenizer) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for t.Next() {
			if !yield(t.line) {
				return
			}
		}
	}
}

// readRaw returns the text up to the next CR, LF or CRLF.
func (t *Tokenizer) readRaw() string {
	rest := t.text[t.pos:]
	i := strings.IndexAny(rest, "\r\n")
	if i < 0 {
		t.pos = len(t.text)
		return rest
	}
	t.pos += i + 1
	if rest[i] == '\r' && i+1 < len(rest) && rest[i+1] == '\n' {
		t.pos++
	}
	return rest[:i]
}

// parseLine splits "LEVEL [@XREF@] TAG [VALUE]".
func parseLine(raw string) (Line, bool) {
	s := strings.TrimLeft(raw, " \t")

	levelStr, rest, _ := strings.Cut(s, " ")
	level, err := strconv.Atoi(levelStr)
	if err != nil || level < 0 || level > 99 {
		return Line{}, false
	}

	rest = strings.TrimLeft(rest, " ")
	var line Line
	line.Level = level

	if strings.HasPrefix(rest, "@") {
		end := strings.Index(rest[1:], "@")
		if end < 0 {
			return Line{}, false
		}
		line.XRef = rest[1 : end+1]
		rest = strings.TrimLeft(rest[end+2:], " ")
	}

	tag, value, _ := strings.Cut(rest, " ")
	if tag == "" {
		return Line{}, false
	}
	line.Tag = strings.ToUpper(tag)
	line.Value = value
	return line, true
}

// pointer returns the id inside an "@ID@" value, or "" if v is not a pointer.
func pointer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 3 || v[0] != '@' || v[len(v)-1] != '@' {
		return ""
	}
	return v[1 : len(v)-1]
}
