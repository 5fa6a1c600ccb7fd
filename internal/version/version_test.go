package version

import "testing"

func TestFull(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := Full(); got != "wx version dev (built from source)" {
		t.Errorf("Full() with dev = %q, want %q", got, "wx version dev (built from source)")
	}

	Version = "1.2.3"
	if got := Full(); got != "wx version 1.2.3" {
		t.Errorf("Full() with 1.2.3 = %q, want %q", got, "wx version 1.2.3")
	}
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "dev"
	if got := UserAgent(); got != "wx/dev (https://github.com/meteocli/wx)" {
		t.Errorf("UserAgent() with dev = %q", got)
	}

	Version = "1.0.0"
	if got := UserAgent(); got != "wx/1.0.0 (https://github.com/meteocli/wx)" {
		t.Errorf("UserAgent() with 1.0.0 = %q", got)
	}
}
