package textfile

import (
	"strings"
)

// AssignmentMatcher matches shell assignments "NAME=..." and "export NAME=...".
func AssignmentMatcher(name string) Matcher {
	return func(line string) (bool, bool) {
		rest, commented := stripComment(line)
		rest = strings.TrimPrefix(rest, "export ")
		rest = strings.TrimLeft(rest, " \t")
		return strings.HasPrefix(rest, name+"="), commented
	}
}

// SetAssignment replaces or appends the assignment of name with line, which is written verbatim.
func (f *File) SetAssignment(name, line string) bool {
	return f.Replace(AssignmentMatcher(name), line)
}

// code returns line without its trailing "#" comment.
func code(line string) string {
	before, _, _ := strings.Cut(line, "#")
	return before
}

// listBlock locates the first active "name=( ... )" assignment, which may span several lines.
// Parentheses inside comments do not open or close the block.
func (f *File) listBlock(name string) (start, stop int, ok bool) {
	match := AssignmentMatcher(name)
	for i, line := range f.lines {
		if matched, commented := match(line); !matched || commented {
			continue
		}
		if !strings.Contains(code(line), "(") {
			return i, i, true
		}
		for j := i; j < len(f.lines); j++ {
			if strings.Contains(code(f.lines[j]), ")") {
				return i, j, true
			}
		}
		return i, len(f.lines) - 1, true
	}
	return 0, 0, false
}

// List returns the items of a parenthesized array assignment such as plugins=(git sudo).
func (f *File) List(name string) ([]string, bool) {
	start, stop, ok := f.listBlock(name)
	if !ok {
		return nil, false
	}

	// Drop comments line by line first, they may contain parentheses of their own
	stripped := make([]string, 0, stop-start+1)
	for _, line := range f.lines[start : stop+1] {
		stripped = append(stripped, code(line))
	}
	block := strings.Join(stripped, "\n")

	_, body, parenthesized := strings.Cut(block, "(")
	if parenthesized {
		body, _, _ = strings.Cut(body, ")")
	} else {
		_, body, _ = strings.Cut(block, "=")
	}

	var items []string
	items = append(items, strings.Fields(body)...)
	return items, true
}

// trailer returns whatever follows the closing parenthesis on the block's last line,
// typically a comment, so a rewrite can keep it.
func (f *File) trailer(start, stop int) string {
	last := f.lines[stop]
	if !strings.Contains(code(f.lines[start]), "(") {
		return ""
	}
	i := strings.Index(code(last), ")")
	if i < 0 {
		return ""
	}
	return last[i+1:]
}

// SetList rewrites the array assignment as a single line, appending it when absent.
// Text after the closing parenthesis, such as a comment, is kept.
func (f *File) SetList(name string, items []string) bool {
	line := name + "=(" + strings.Join(items, " ") + ")"
	start, stop, ok := f.listBlock(name)
	if !ok {
		before := len(f.lines)
		f.lines = append(f.lines, line)
		return len(f.lines) != before
	}
	before := f.String()
	line += f.trailer(start, stop)
	rest := append([]string{line}, f.lines[stop+1:]...)
	f.lines = append(f.lines[:start], rest...)
	return f.String() != before
}
