package textutil

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	got := EscapeMarkdown("M*A*S*H [pilot] _cut_ `raw`")
	want := "M\\*A\\*S\\*H \\[pilot] \\_cut\\_ \\`raw\\`"
	if got != want {
		t.Errorf("EscapeMarkdown() = %q, want %q", got, want)
	}

	if got := EscapeMarkdown("Severance"); got != "Severance" {
		t.Errorf("plain text changed: %q", got)
	}
}
