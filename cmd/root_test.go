package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRejectsPositionalArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"web01"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || err.Error() != "unknown option: web01" {
		t.Fatalf("err = %v, want unknown option: web01", err)
	}
}

func TestRejectsUnknownFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--hostname", "web01"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown flag: --hostname") {
		t.Fatalf("err = %v, want unknown flag error", err)
	}
}

func TestRenameFlagIsOptional(t *testing.T) {
	cmd := newRootCmd()
	if f := cmd.Flags().Lookup("rename"); f == nil || f.DefValue != "" {
		t.Fatalf("rename flag = %+v", f)
	}
	if err := cmd.Args(cmd, nil); err != nil {
		t.Fatalf("Args(nil) = %v", err)
	}
}
