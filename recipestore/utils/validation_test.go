package utils

import (
	"strings"
	"testing"
)

func TestIsValidHexColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  bool
	}{
		{name: "uppercase", color: "#49B64E", want: true},
		{name: "lowercase", color: "#e26c2d", want: true},
		{name: "missing hash", color: "49B64E", want: false},
		{name: "short", color: "#FFF", want: false},
		{name: "long", color: "#49B64E0", want: false},
		{name: "non-hex digits", color: "#49B64G", want: false},
		{name: "empty", color: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidHexColor(tt.color); got != tt.want {
				t.Errorf("IsValidHexColor(%q) = %v, want %v", tt.color, got, tt.want)
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want bool
	}{
		{name: "simple", slug: "breakfast", want: true},
		{name: "with dashes", slug: "quick-and-easy", want: true},
		{name: "with digits", slug: "top-10", want: true},
		{name: "uppercase", slug: "Breakfast", want: false},
		{name: "leading dash", slug: "-breakfast", want: false},
		{name: "trailing dash", slug: "breakfast-", want: false},
		{name: "double dash", slug: "quick--easy", want: false},
		{name: "spaces", slug: "quick easy", want: false},
		{name: "empty", slug: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "plain", username: "chef_anna", want: true},
		{name: "email style", username: "anna@example.com", want: true},
		{name: "dots and dashes", username: "anna.k-v+test", want: true},
		{name: "spaces", username: "chef anna", want: false},
		{name: "empty", username: "", want: false},
		{name: "too long", username: strings.Repeat("a", 151), want: false},
		{name: "max length", username: strings.Repeat("a", 150), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidUsername(tt.username); got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Breakfast", want: "breakfast"},
		{name: "spaces", in: "Quick and Easy", want: "quick-and-easy"},
		{name: "punctuation", in: "Soups & Stews!", want: "soups-stews"},
		{name: "leading junk", in: "  --Dinner", want: "dinner"},
		{name: "digits kept", in: "Top 10 Salads", want: "top-10-salads"},
		{name: "non-latin dropped", in: "Завтрак", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSlug(tt.in); got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeHexColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  string
	}{
		{name: "lowercase uppercased", color: "#e26c2d", want: "#E26C2D"},
		{name: "already uppercase", color: "#49B64E", want: "#49B64E"},
		{name: "invalid unchanged", color: "49B64E", want: "49B64E"},
		{name: "empty unchanged", color: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHexColor(tt.color); got != tt.want {
				t.Errorf("NormalizeHexColor(%q) = %q, want %q", tt.color, got, tt.want)
			}
		})
	}
}
