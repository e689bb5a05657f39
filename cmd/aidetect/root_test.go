package main

import (
	"testing"
	"time"
)

func TestRootCommand_RegistersCommands(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"serve", "detect", "health", "version"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("%s command not registered: cmd=%v err=%v", name, cmd, err)
		}
	}
}

func TestCommandUsesStructuredLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "serve", args: []string{"serve"}, want: true},
		{name: "detect", args: []string{"detect"}, want: false},
		{name: "health", args: []string{"health"}, want: false},
		{name: "version", args: []string{"version"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := rootCmd.Find(tc.args)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tc.args, err)
			}
			if got := commandUsesStructuredLogging(cmd); got != tc.want {
				t.Fatalf("commandUsesStructuredLogging(%q) = %v, want %v", cmd.CommandPath(), got, tc.want)
			}
		})
	}
}

func TestSweepInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ttl  string
		want string
	}{
		{ttl: "0s", want: "10s"},
		{ttl: "30m0s", want: "5m0s"},
		{ttl: "2m0s", want: "30s"},
	}
	for _, tc := range tests {
		ttl, err := time.ParseDuration(tc.ttl)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error = %v", tc.ttl, err)
		}
		if got := sweepInterval(ttl).String(); got != tc.want {
			t.Fatalf("sweepInterval(%s) = %s, want %s", tc.ttl, got, tc.want)
		}
	}
}
