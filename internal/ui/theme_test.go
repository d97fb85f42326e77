package ui

import "testing"

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestGetThemeFallsBackToDracula(t *testing.T) {
	if got := GetTheme("nope").Name; got != "Dracula" {
		t.Fatalf("GetTheme(nope) = %q, want Dracula", got)
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		if th.GlamourStyle == "" {
			t.Fatalf("theme %q has no glamour style", name)
		}
		for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
			if th.LevelColors[level] == "" {
				t.Fatalf("theme %q has no color for %s", name, level)
			}
		}
	}
}
