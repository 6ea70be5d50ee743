// Package textfile edits line-oriented configuration files (sshd_config, .zshrc)
// in place: matched lines are replaced, everything else is kept verbatim.
package textfile

import (
	"strings"
)

// Matcher reports whether a line configures the entry being edited and whether
// that line is commented out.
type Matcher func(line string) (matched, commented bool)

// File is a parsed configuration file.
type File struct {
	lines    []string
	boundary func(line string) bool
}

// Option configures Parse.
type Option func(*File)

// WithBoundary limits edits to the lines before the first line for which fn is true.
// Appended entries are inserted just before that line.
func WithBoundary(fn func(line string) bool) Option {
	return func(f *File) { f.boundary = fn }
}

// Parse splits content into lines.
func Parse(content string, opts ...Option) *File {
	f := &File{}
	if content != "" {
		f.lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Lines returns a copy of the current lines.
func (f *File) Lines() []string {
	return append([]string(nil), f.lines...)
}

// String serializes the file with a trailing newline.
func (f *File) String() string {
	if len(f.lines) == 0 {
		return ""
	}
	return strings.Join(f.lines, "\n") + "\n"
}

// end is the index of the first line outside the editable region.
func (f *File) end() int {
	if f.boundary == nil {
		return len(f.lines)
	}
	for i, line := range f.lines {
		if f.boundary(line) {
			return i
		}
	}
	return len(f.lines)
}

// Replace sets the entry selected by match to replacement. The first matching line,
// commented or not, is overwritten; later active matches are dropped so exactly one
// effective line remains. Without any match the line is appended to the editable region.
// It reports whether the file content changed.
func (f *File) Replace(match Matcher, replacement string) bool {
	end := f.end()
	before := f.String()

	found := false
	out := make([]string, 0, len(f.lines)+1)
	for i, line := range f.lines {
		if i >= end {
			out = append(out, line)
			continue
		}
		matched, commented := match(line)
		switch {
		case !matched:
			out = append(out, line)
		case !found:
			out = append(out, replacement)
			found = true
		case commented:
			out = append(out, line)
		}
	}
	if !found {
		// Insert at the boundary, which may have moved if duplicates were dropped.
		at := len(out) - (len(f.lines) - end)
		out = append(out[:at], append([]string{replacement}, out[at:]...)...)
	}
	f.lines = out
	return f.String() != before
}

// Find returns the first active line within the editable region selected by match.
func (f *File) Find(match Matcher) (string, bool) {
	end := f.end()
	for _, line := range f.lines[:end] {
		if matched, commented := match(line); matched && !commented {
			return line, true
		}
	}
	return "", false
}

// stripComment removes leading whitespace and a single comment marker.
func stripComment(line string) (rest string, commented bool) {
	rest = strings.TrimLeft(line, " \t")
	if strings.HasPrefix(rest, "#") {
		return strings.TrimLeft(strings.TrimPrefix(rest, "#"), " \t"), true
	}
	return rest, false
}
