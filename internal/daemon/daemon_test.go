package daemon_test

import (
	"testing"

	"github.com/SanyCska/serials-bot/internal/daemon"
	"github.com/SanyCska/serials-bot/internal/testsupport"
)

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error when dependencies missing")
	}
}
