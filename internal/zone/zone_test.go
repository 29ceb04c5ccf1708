package zone

import "testing"

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "base", "base"},
		{"spaces", "North Base", "north_base"},
		{"punctuation collapsed", "My Cool Zone!!", "my_cool_zone"},
		{"mixed runs", "a--b__c  d", "a_b_c_d"},
		{"leading and trailing junk", "  ***Spawn*** ", "spawn"},
		{"digits kept", "Outpost 7", "outpost_7"},
		{"already canonical", "north_base", "north_base"},
		{"only junk", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveID(tt.in)
			if got != tt.want {
				t.Errorf("DeriveID(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Deterministic.
			if again := DeriveID(tt.in); again != got {
				t.Errorf("DeriveID(%q) not deterministic: %q then %q", tt.in, got, again)
			}
			for _, r := range got {
				if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
					t.Errorf("DeriveID(%q) contains %q outside [a-z0-9_]", tt.in, r)
				}
			}
			if len(got) > 0 && (got[0] == '_' || got[len(got)-1] == '_') {
				t.Errorf("DeriveID(%q) = %q has a leading or trailing underscore", tt.in, got)
			}
		})
	}
}
