package cmd

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{
		"ping", "find", "action", "gesture", "launch", "capture",
		"compare-bounds", "consistency", "listen", "observe", "do", "serve",
	}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name     string
		flagType string
	}{
		{"url", "string"},
		{"timeout", "duration"},
		{"format", "string"},
		{"pretty", "bool"},
		{"log-level", "string"},
		{"config", "string"},
		{"strict", "bool"},
	}

	for _, tt := range tests {
		f := flags.Lookup(tt.name)
		if f == nil {
			t.Errorf("expected flag %q not found", tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("flag %q: expected type %q, got %q", tt.name, tt.flagType, f.Value.Type())
		}
	}
}

// flagTypes checks a command's local flags.
func flagTypes(t *testing.T, name string, want map[string]string) {
	t.Helper()
	var found bool
	for _, c := range rootCmd.Commands() {
		if c.Name() != name {
			continue
		}
		found = true
		for flag, typ := range want {
			f := c.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("%s: expected flag --%s to exist", name, flag)
				continue
			}
			if f.Value.Type() != typ {
				t.Errorf("%s: flag --%s: expected type %q, got %q", name, flag, typ, f.Value.Type())
			}
		}
	}
	if !found {
		t.Errorf("%s command not registered on root", name)
	}
}
