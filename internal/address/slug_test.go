package address

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"123 Main St", "123-main-st", false},
		{"123 Main St. #4B", "123-main-st-unit-4b", false},
		{"500 Ocean Ave, Unit 12", "500-ocean-ave-unit-12", false},
		{"  42   Elm   Street  ", "42-elm-street", false},
		{"O'Brien Way 9", "obrien-way-9", false},
		{"###", "unit-unit-unit", false},
		{"", "", true},
		{"   ", "", true},
		{"!!!", "", true},
	}

	for _, tt := range tests {
		got, err := Slug(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Slug(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Slug(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateSlug(t *testing.T) {
	if err := ValidateSlug("123-main-st"); err != nil {
		t.Errorf("expected valid slug, got %v", err)
	}
	for _, s := range []string{"", "-leading", "UPPER", "has space"} {
		if err := ValidateSlug(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
