package styles

import "testing"

func TestSetThemeSelectsByConfigName(t *testing.T) {
	t.Cleanup(func() { Current = TokyoNight })

	if !SetTheme("dracula") {
		t.Fatal("dracula should be selectable")
	}
	if Current.Name != "Dracula" {
		t.Fatalf("Current = %q, want Dracula", Current.Name)
	}

	if !SetTheme("  TokyoNight ") {
		t.Fatal("name matching should ignore case and whitespace")
	}
	if Current.Name != "Tokyo Night" {
		t.Fatalf("Current = %q, want Tokyo Night", Current.Name)
	}
}

func TestSetThemeUnknownKeepsCurrent(t *testing.T) {
	t.Cleanup(func() { Current = TokyoNight })

	SetTheme("dracula")
	if SetTheme("solarized") {
		t.Fatal("unknown theme name should report false")
	}
	if Current.Name != "Dracula" {
		t.Fatalf("unknown name must not change the theme, got %q", Current.Name)
	}
}
