package textfile

import (
	"strings"
)

// DirectiveMatcher matches "Key value" or "Key=value" lines, case-insensitively on the key
// as sshd does. Commented lines such as "#PermitRootLogin prohibit-password" match too.
func DirectiveMatcher(key string) Matcher {
	return func(line string) (bool, bool) {
		rest, commented := stripComment(line)
		name, _ := splitDirective(rest)
		return name != "" && strings.EqualFold(name, key), commented
	}
}

func splitDirective(rest string) (name, value string) {
	i := strings.IndexAny(rest, " \t=")
	if i < 0 {
		return rest, ""
	}
	return rest[:i], strings.TrimSpace(strings.TrimLeft(rest[i:], " \t="))
}

// IsMatchBlock reports whether line opens an sshd "Match" block.
func IsMatchBlock(line string) bool {
	rest, commented := stripComment(line)
	if commented {
		return false
	}
	name, _ := splitDirective(rest)
	return strings.EqualFold(name, "Match")
}

// SetDirective writes "key value" using replace-or-append.
func (f *File) SetDirective(key, value string) bool {
	return f.Replace(DirectiveMatcher(key), key+" "+value)
}

// Directive returns the value of the effective (first active) line for key.
func (f *File) Directive(key string) (string, bool) {
	line, ok := f.Find(DirectiveMatcher(key))
	if !ok {
		return "", false
	}
	rest, _ := stripComment(line)
	_, value := splitDirective(rest)
	return value, true
}

// Count returns how many active lines in the editable region set key.
func (f *File) Count(key string) int {
	match := DirectiveMatcher(key)
	n := 0
	for _, line := range f.lines[:f.end()] {
		if matched, commented := match(line); matched && !commented {
			n++
		}
	}
	return n
}
