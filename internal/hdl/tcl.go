package hdl

import (
	"os"
	"strings"
)

// WordKind records how a Tcl word was quoted.
type WordKind int

const (
	WordBare WordKind = iota
	WordQuoted
	WordBraced
	WordCommand
)

// Word is one word of a Tcl command. Quoted and braced words have their
// delimiters removed; command substitutions keep their brackets.
type Word struct {
	Text string
	Kind WordKind
	Line int
}

// Command is a Tcl command with the line it starts on.
type Command struct {
	Words []Word
	Line  int
}

// Name is the first word of the command.
func (c Command) Name() string {
	if len(c.Words) == 0 {
		return ""
	}
	return c.Words[0].Text
}

// Arg returns the i-th argument, or "" when absent.
func (c Command) Arg(i int) string {
	if i+1 >= len(c.Words) {
		return ""
	}
	return c.Words[i+1].Text
}

// Args returns the arguments following the command name.
func (c Command) Args() []Word {
	if len(c.Words) < 2 {
		return nil
	}
	return c.Words[1:]
}

// ParseTclFile reads and splits a Tcl script.
func ParseTclFile(path string) ([]Command, error) {
	// #nosec G304 -- scripts are discovered under the repository root.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTcl(string(data), 1), nil
}

// ParseTcl splits a script into commands. It understands enough of the Tcl
// syntax for the build scripts: comments, backslash continuations, ";"
// separators and nested quotes, braces and brackets. Unbalanced input is
// closed at the end of the script.
func ParseTcl(src string, firstLine int) []Command {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	s := &tclScanner{src: src, line: firstLine}
	var cmds []Command
	for {
		cmd, ok := s.command()
		if !ok {
			return cmds
		}
		if len(cmd.Words) > 0 {
			cmds = append(cmds, cmd)
		}
	}
}

type tclScanner struct {
	src  string
	pos  int
	line int
}

func (s *tclScanner) eof() bool { return s.pos >= len(s.src) }

func (s *tclScanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

// command reads words until the end of the command.
func (s *tclScanner) command() (Command, bool) {
	if !s.skipBlank() {
		return Command{}, false
	}
	cmd := Command{Line: s.line}
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			s.advance()
		case s.continuation():
			s.advance()
			s.advance()
		case c == '\n' || c == ';':
			s.advance()
			return cmd, true
		default:
			cmd.Words = append(cmd.Words, s.word())
		}
	}
	return cmd, true
}

// skipBlank skips separators and comments preceding a command and reports
// whether a command follows.
func (s *tclScanner) skipBlank() bool {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == ';' || c == '\r':
			s.advance()
		case s.continuation():
			s.advance()
			s.advance()
		case c == '#':
			s.skipComment()
		default:
			return true
		}
	}
	return false
}

func (s *tclScanner) continuation() bool {
	return s.src[s.pos] == '\\' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n'
}

func (s *tclScanner) skipComment() {
	for !s.eof() {
		c := s.advance()
		if c == '\\' && !s.eof() {
			s.advance()
			continue
		}
		if c == '\n' {
			return
		}
	}
}

func (s *tclScanner) word() Word {
	line := s.line
	switch s.src[s.pos] {
	case '{':
		s.advance()
		return Word{Text: s.until('{', '}'), Kind: WordBraced, Line: line}
	case '"':
		s.advance()
		return Word{Text: s.quoted(), Kind: WordQuoted, Line: line}
	}
	start := s.pos
	kind := WordBare
	if s.src[s.pos] == '[' {
		kind = WordCommand
	}
	for !s.eof() {
		c := s.src[s.pos]
		switch c {
		case ' ', '\t', '\n', ';', '\r':
			return Word{Text: s.src[start:s.pos], Kind: kind, Line: line}
		case '[':
			s.advance()
			s.until('[', ']')
		case '\\':
			s.advance()
			if !s.eof() {
				s.advance()
			}
		default:
			s.advance()
		}
	}
	return Word{Text: s.src[start:s.pos], Kind: kind, Line: line}
}

// until consumes a balanced block whose opening delimiter was already read
// and returns its content.
func (s *tclScanner) until(open, closing byte) string {
	start := s.pos
	depth := 1
	for !s.eof() {
		c := s.advance()
		switch c {
		case '\\':
			if !s.eof() {
				s.advance()
			}
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s.src[start : s.pos-1]
			}
		}
	}
	return s.src[start:]
}

func (s *tclScanner) quoted() string {
	start := s.pos
	for !s.eof() {
		c := s.advance()
		switch c {
		case '\\':
			if !s.eof() {
				s.advance()
			}
		case '[':
			s.until('[', ']')
		case '"':
			return s.src[start : s.pos-1]
		}
	}
	return s.src[start:]
}

// ListItems expands a list-valued word: `[list a "b" c]`, a braced list or a
// single value.
func ListItems(w Word) []string {
	text := strings.TrimSpace(w.Text)
	switch w.Kind {
	case WordCommand:
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
		cmds := ParseTcl(inner, 1)
		if len(cmds) == 0 || cmds[0].Name() != "list" {
			return nil
		}
		var out []string
		for _, a := range cmds[0].Args() {
			out = append(out, a.Text)
		}
		return out
	case WordBraced:
		var out []string
		for _, c := range ParseTcl(text, 1) {
			for _, a := range c.Words {
				out = append(out, a.Text)
			}
		}
		return out
	default:
		if text == "" {
			return nil
		}
		return []string{text}
	}
}

// Walk visits every command of a script, descending into braced words such
// as proc and if bodies.
func Walk(cmds []Command, fn func(Command)) {
	for _, c := range cmds {
		fn(c)
		for _, w := range c.Words[1:] {
			if w.Kind == WordBraced {
				Walk(ParseTcl(w.Text, w.Line), fn)
			}
		}
	}
}
