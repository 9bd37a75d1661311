package utils

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPrettyTime(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := PrettyTime(tt.in); got != tt.want {
			t.Errorf("PrettyTime(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeMd(t *testing.T) {
	got := EscapeMd("**bold** _it_ `code` [link](x)")
	want := `\*\*bold\*\* \_it\_ \` + "`" + `code\` + "`" + ` \[link\](x)`
	if got != want {
		t.Fatalf("EscapeMd = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("é", 150)
	got := Truncate(long, 100)
	if utf8.RuneCountInString(got) != 100 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated to %d runes: %q", utf8.RuneCountInString(got), got)
	}
}

func TestFFmpegHeaders(t *testing.T) {
	got := FFmpegHeaders(map[string]string{"referer": " https://www.youtube.com/ ", "user-agent": "test"})
	lines := strings.Split(strings.TrimSuffix(got, "\r\n"), "\r\n")
	want := []string{
		"Accept: */*",
		"Accept-Language: en-US,en;q=0.9",
		"Connection: keep-alive",
		"Referer: https://www.youtube.com/",
		"User-Agent: test",
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("headers = %q", lines)
	}

	if !strings.Contains(FFmpegHeaders(nil), "User-Agent: Mozilla/5.0") {
		t.Fatal("default user agent missing")
	}
}

func TestRunShell(t *testing.T) {
	out, err := RunShell(context.Background(), "echo hello; echo oops >&2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "hello") || !strings.Contains(string(out), "oops") {
		t.Fatalf("output = %q", out)
	}

	out, err = RunShell(context.Background(), "echo failing; exit 3")
	if err == nil {
		t.Fatal("expected exit error")
	}
	if !strings.Contains(string(out), "failing") {
		t.Fatalf("output on failure = %q", out)
	}
}
