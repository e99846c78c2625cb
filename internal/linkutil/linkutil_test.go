package linkutil

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"promotional text around full link",
			"Check out this dance https://www.tiktok.com/@alice/video/123456789?x=1 so cool!",
			"https://www.tiktok.com/@alice/video/123456789?x=1",
		},
		{
			"trailing punctuation",
			"watch https://vm.tiktok.com/ZMabc123/!!",
			"https://vm.tiktok.com/ZMabc123/",
		},
		{
			"sentence end",
			"see https://vt.tiktok.com/ZSxyz.",
			"https://vt.tiktok.com/ZSxyz",
		},
		{
			"mobile html path",
			"https://m.tiktok.com/v/7234567890123456789.html?u=1;",
			"https://m.tiktok.com/v/7234567890123456789.html?u=1",
		},
		{
			"pattern order beats position",
			"first https://vm.tiktok.com/ZMshort then https://www.tiktok.com/@bob/video/42",
			"https://www.tiktok.com/@bob/video/42",
		},
		{
			"position decides within a pattern",
			"https://vm.tiktok.com/AAA and https://vm.tiktok.com/BBB",
			"https://vm.tiktok.com/AAA",
		},
		{
			"bare domain without scheme",
			"  www.tiktok.com/@bob/video/42  ",
			"www.tiktok.com/@bob/video/42",
		},
		{"unrelated text", "  just words ", "  just words "},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.input); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			"Check out this dance https://www.tiktok.com/@alice/video/123456789?x=1 so cool!",
			"https://www.tiktok.com/@alice/video/123456789",
		},
		{"https://www.tiktok.com/@bob/video/42?is_from_webapp=1&sender_device=pc", "https://www.tiktok.com/@bob/video/42"},
		{"https://www.tiktok.com/@bob/video/42#comments", "https://www.tiktok.com/@bob/video/42"},
		{"https://vm.tiktok.com/ZMabc123/", "https://vm.tiktok.com/ZMabc123"},
		{"www.tiktok.com/@bob/video/42/", "https://www.tiktok.com/@bob/video/42"},
		{"http://vm.tiktok.com/ZMabc123/", "https://vm.tiktok.com/ZMabc123"},
		{"see http://www.tiktok.com/@bob/video/42?x=1", "https://www.tiktok.com/@bob/video/42"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotentOnCanonical(t *testing.T) {
	canonical := []string{
		"https://www.tiktok.com/@alice/video/123456789",
		"https://www.tiktok.com/@alice.b_c/photo/7300000000000000000",
		"https://vm.tiktok.com/ZMabc123",
		"https://vt.tiktok.com/ZSxyz",
		"https://www.tiktok.com/t/ZTRabc",
		"https://m.tiktok.com/v/7234567890123456789.html",
	}
	for _, u := range canonical {
		if got := Clean(Extract(u)); got != u {
			t.Errorf("Clean(Extract(%q)) = %q, want unchanged", u, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.tiktok.com/@bob/video/42", true},
		{"https://tiktok.com/@bob/video/42", true},
		{"https://vm.tiktok.com/ZMabc", true},
		{"https://vt.tiktok.com/ZSabc", true},
		{"https://m.tiktok.com/v/42.html", true},
		{"HTTPS://WWW.TIKTOK.COM/@bob/video/42", true},
		{"https://www.tiktok.com", false},
		{"https://evil.com/tiktok.com/", false},
		{"https://nottiktok.com/@bob", false},
		{"https://example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValid(tt.url); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsShortLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://vm.tiktok.com/ZMabc", true},
		{"https://vt.tiktok.com/ZSabc", true},
		{"https://www.tiktok.com/t/ZTRabc", true},
		{"https://www.tiktok.com/@bob/video/42", false},
		{"https://m.tiktok.com/v/42.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsShortLink(tt.url); got != tt.want {
				t.Errorf("IsShortLink(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.tiktok.com/@bob/video/7234567890123456789", "7234567890123456789"},
		{"https://www.tiktok.com/@bob/photo/7300000000000000001", "7300000000000000001"},
		{"https://m.tiktok.com/v/42.html", "42"},
		{"https://vm.tiktok.com/ZMabc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := VideoID(tt.url); got != tt.want {
				t.Errorf("VideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
