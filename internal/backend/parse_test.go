package backend

import (
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeobfuscate(t *testing.T) {
	target := "https://v16m.tiktokcdn.com/abc/video.mp4?x=1"
	encoded := base64.StdEncoding.EncodeToString([]byte(target))
	rawEncoded := base64.RawURLEncoding.EncodeToString([]byte(target))

	tests := []struct {
		name string
		href string
		want string
	}{
		{"std base64", "https://tikcdn.io/ssstik/1/" + encoded, target},
		{"raw url base64", "https://ssscdn.io/ssstik/a/" + rawEncoded, target},
		{"other host untouched", "https://example.com/a/b/c/" + encoded, "https://example.com/a/b/c/" + encoded},
		{"too short", "https://tikcdn.io/x", "https://tikcdn.io/x"},
		{"not a url", "https://tikcdn.io/ssstik/1/" + base64.StdEncoding.EncodeToString([]byte("hello")), "https://tikcdn.io/ssstik/1/aGVsbG8="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deobfuscate(tt.href); got != tt.want {
				t.Errorf("deobfuscate(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	links := []string{
		"https://a.example/1.mp4",
		"https://a.example/1.mp4",
		"https://b.example/2.mp4",
		"https://tikcdn.io/3.mp4",
		"https://a.example/song.mp3",
		"https://tikcdn.io/song.mp3",
	}
	rules := linkRules{
		video: func(l string) bool { return regexp.MustCompile(`\.mp4$`).MatchString(l) },
		audio: func(l string) bool { return regexp.MustCompile(`\.mp3$`).MatchString(l) },
	}

	t.Run("no preference keeps document order", func(t *testing.T) {
		videos, audio := classify(links, rules, "")
		if diff := cmp.Diff([]string{"https://a.example/1.mp4", "https://b.example/2.mp4"}, videos); diff != "" {
			t.Errorf("videos (-want +got):\n%s", diff)
		}
		if audio != "https://a.example/song.mp3" {
			t.Errorf("audio = %q", audio)
		}
	})

	t.Run("preferred host first", func(t *testing.T) {
		videos, audio := classify(links, rules, "tikcdn.io")
		if diff := cmp.Diff([]string{"https://tikcdn.io/3.mp4", "https://a.example/1.mp4"}, videos); diff != "" {
			t.Errorf("videos (-want +got):\n%s", diff)
		}
		if audio != "https://tikcdn.io/song.mp3" {
			t.Errorf("audio = %q", audio)
		}
	})
}

func TestParseStats(t *testing.T) {
	got := parseStats("1.2K Likes\n345 Comments 12 Shares\n56,000 Views")
	want := stats{likes: 1200, comments: 345, shares: 12, views: 56000}
	if got != want {
		t.Errorf("parseStats() = %+v, want %+v", got, want)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		num, suffix string
		want        int64
	}{
		{"1,234", "", 1234},
		{"1.234", "", 1234},
		{"1.2", "K", 1200},
		{"3,5", "m", 3500000},
		{"2", "B", 2000000000},
		{"0.1", "k", 100},
	}

	for _, tt := range tests {
		t.Run(tt.num+tt.suffix, func(t *testing.T) {
			if got := parseCount(tt.num, tt.suffix); got != tt.want {
				t.Errorf("parseCount(%q, %q) = %d, want %d", tt.num, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestSplitMusic(t *testing.T) {
	title, author := splitMusic("  alice - original sound ")
	if title != "original sound" || author != "alice" {
		t.Errorf("splitMusic() = (%q, %q)", title, author)
	}
	title, author = splitMusic("just a title")
	if title != "just a title" || author != "" {
		t.Errorf("splitMusic() = (%q, %q)", title, author)
	}
}

func TestHandleSkipsCSSAtRules(t *testing.T) {
	p := newPage(`<style>@media (max-width: 600px) {}</style><p>by @bob.dance</p>`)
	if got := handle(p); got != "bob.dance" {
		t.Errorf("handle() = %q, want %q", got, "bob.dance")
	}
}

func TestFirstMatchOrder(t *testing.T) {
	p := newPage(`<div class="b">second</div><div class="a">first</div>`)
	got := firstMatch(p, selectText(".missing"), selectText(".a"), selectText(".b"))
	if got != "first" {
		t.Errorf("firstMatch() = %q, want %q", got, "first")
	}
	if got := firstMatch(p, selectText(".missing")); got != "" {
		t.Errorf("firstMatch() = %q, want empty", got)
	}
}

func TestPatternStripsMarkup(t *testing.T) {
	p := newPage(`<p class="x">Tom &amp; <b>Jerry</b></p>`)
	got := pattern(regexp.MustCompile(`class="x">(.*?)</p>`))(p)
	if got != "Tom & Jerry" {
		t.Errorf("pattern() = %q", got)
	}
}
