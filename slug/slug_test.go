package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "punctuation becomes separator", input: "Hello, World! How's it going?", want: "hello-world-how-s-it-going"},
		{name: "accents folded", input: "Crème Brûlée", want: "creme-brulee"},
		{name: "german umlauts folded", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "leading and trailing noise", input: "  --Go 1.24--  ", want: "go-1-24"},
		{name: "underscores are separators", input: "snake_case_title", want: "snake-case-title"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},
		{name: "mixed script keeps ascii part", input: "Django 入门", want: "django"},
		{name: "only cjk", input: "你好世界", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "already a slug", input: "my-blog-post-2026", want: "my-blog-post-2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_ConsistentCase(t *testing.T) {
	for _, input := range []string{"HELLO WORLD", "Hello World", "hElLo WoRlD"} {
		if got := Generate(input); got != "hello-world" {
			t.Errorf("Generate(%q) = %q, want hello-world", input, got)
		}
	}
}

func TestMakeFallsBackForUnfoldableInput(t *testing.T) {
	if got := Make("Go Tips", "post"); got != "go-tips" {
		t.Fatalf("Make kept fallback for foldable input: %q", got)
	}

	a := Make("你好", "post")
	b := Make("你好", "post")
	if !strings.HasPrefix(a, "post-") || len(a) != len("post-")+8 {
		t.Fatalf("unexpected fallback slug %q", a)
	}
	if a == b {
		t.Fatalf("fallback slugs should differ, both were %q", a)
	}
	if !Valid(a) {
		t.Fatalf("fallback slug %q is not valid", a)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"hello-world": true,
		"a":           true,
		"2026":        true,
		"Hello":       false,
		"-hello":      false,
		"hello--x":    false,
		"hello_world": false,
		"":            false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}
