package main

import (
	"strings"
	"testing"

	"github.com/SanyCska/serials-bot/internal/store"
)

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCommand()

	want := []string{"run", "status", "config", "test-notify", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}

	if flag := cmd.PersistentFlags().Lookup("config"); flag == nil {
		t.Error("root command missing persistent --config flag")
	}
}

func TestRenderStatsTable(t *testing.T) {
	out := renderStatsTable(store.Stats{Users: 3, Series: 7, Watching: 5})
	for _, want := range []string{"Users", "Series", "Watching links", "3", "7", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRedact(t *testing.T) {
	if redact("") != "" {
		t.Error("empty secret should stay empty")
	}
	if redact("token") == "token" {
		t.Error("secret leaked through redact")
	}
}
