package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"Main_st *5*", MarkdownV1, `Main\_st \*5\*`},
		{"[a]`b`", MarkdownV1, "\\[a]\\`b\\`"},
		{"1.5-2!", MarkdownV2, `1\.5\-2\!`},
		{"plain", MarkdownV2, "plain"},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("EscapeMarkdown(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("EscapeMarkdown(%q, %d) = %q, want %q", tc.in, tc.version, got, tc.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatalf("unknown version accepted")
	}
}

func TestDerefString(t *testing.T) {
	v := "day-night"
	if got := DerefString(&v, "-"); got != v {
		t.Fatalf("DerefString = %q", got)
	}
	if got := DerefString(nil, "-"); got != "-" {
		t.Fatalf("DerefString(nil) = %q", got)
	}
}
