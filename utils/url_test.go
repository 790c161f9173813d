package utils

import "testing"

func TestEncodeURLWithSpacesStreamIcons(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://cdn.provider.tv/icons/My Channel HD.png", "http://cdn.provider.tv/icons/My%20Channel%20HD.png"},
		{"https://img.provider.tv/covers/Breaking Bad.jpg", "https://img.provider.tv/covers/Breaking%20Bad.jpg"},
		{"http://cdn.provider.tv/poster.jpg?title=The Matrix", "http://cdn.provider.tv/poster.jpg?title=The%20Matrix"},
		{"http://cdn.provider.tv/clean.png", "http://cdn.provider.tv/clean.png"},
	}
	for _, tt := range tests {
		got, err := EncodeURLWithSpaces(tt.in)
		if err != nil {
			t.Fatalf("EncodeURLWithSpaces(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("EncodeURLWithSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeURLWithSpacesInvalidURL(t *testing.T) {
	if _, err := EncodeURLWithSpaces("http://cdn.provider.tv/%zz bad.png"); err == nil {
		t.Error("expected error for unparsable URL")
	}
}
