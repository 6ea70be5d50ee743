package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FakeRunner is a scripted Runner for tests. Responses are keyed by the full
// command line ("name arg1 arg2"); unscripted commands succeed with empty output.
type FakeRunner struct {
	Responses map[string]FakeResponse
	// Paths lists binaries LookPath resolves; anything else is "not found".
	Paths map[string]string
	// Hook, when set, runs after a command is recorded and before its scripted response.
	Hook  func(line string)
	Calls []string
}

// FakeResponse is the scripted result of one command line.
type FakeResponse struct {
	Output string
	Err    error
}

// NewFakeRunner returns a FakeRunner that resolves the given binaries to /usr/bin/<name>.
func NewFakeRunner(binaries ...string) *FakeRunner {
	f := &FakeRunner{Responses: map[string]FakeResponse{}, Paths: map[string]string{}}
	for _, b := range binaries {
		f.Paths[b] = "/usr/bin/" + b
	}
	return f
}

// On scripts the response for a command line.
func (f *FakeRunner) On(line, output string, err error) {
	f.Responses[line] = FakeResponse{Output: output, Err: err}
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.Calls = append(f.Calls, line)
	if f.Hook != nil {
		f.Hook(line)
	}
	resp := f.Responses[line]
	return []byte(resp.Output), resp.Err
}

// LookPath implements Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Called reports whether a command line starting with prefix was run.
func (f *FakeRunner) Called(prefix string) bool {
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
