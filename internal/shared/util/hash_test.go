package util

import (
	"errors"
	"strings"
	"testing"
)

func TestHashUserKey(t *testing.T) {
	guest := HashUserKey("guest:g1")
	if guest != HashUserKey("guest:g1") {
		t.Fatalf("expected stable hash, got %s", guest)
	}
	if guest == HashUserKey("google:g1") {
		t.Fatalf("expected guest and account principals to hash apart")
	}
	if len(guest) != 64 || strings.Trim(guest, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 lowercase hex characters, got %q", guest)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "ada-lovelace-modern.pdf", want: "ada-lovelace-modern.pdf"},
		{in: " a/b\\c.html ", want: "a_b_c.html"},
		{in: "say \"hi\"\n.json", want: "say hi.json"},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}

	for _, bad := range []string{"../etc/passwd", "   ", "\"\""} {
		if _, err := SanitizeFileName(bad); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("SanitizeFileName(%q): expected ErrInvalidFileName, got %v", bad, err)
		}
	}

	long, err := SanitizeFileName(strings.Repeat("x", 200) + ".pdf")
	if err != nil || len(long) != MaxFileNameLength || !strings.HasSuffix(long, ".pdf") {
		t.Fatalf("expected truncated name keeping the extension, got %q (%v)", long, err)
	}
}
