package searchindex

import (
	"errors"
	"testing"

	"enchant/internal/apperr"
)

func TestParseQuery(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"hello", `"hello"`},
		{"hello world", `("hello" AND "world")`},
		{"hello AND world", `("hello" AND "world")`},
		{"hello OR world", `("hello" OR "world")`},
		{"a b OR c", `(("a" AND "b") OR "c")`},
		{"hello NOT world", `("hello" NOT "world")`},
		{"hello AND NOT world", `("hello" NOT "world")`},
		{"hello -world", `("hello" NOT "world")`},
		{`"good morning" vietnam`, `("good morning" AND "vietnam")`},
		{"(a OR b) c", `(("a" OR "b") AND "c")`},
		{"run*", `"run" *`},
		{"don't stop", `("don't" AND "stop")`},
		{`say "hi"`, `("say" AND "hi")`},
		{"content:hello", `"hello"`},
		{"hello !!! world", `("hello" AND "world")`},
		{"near", `"near"`},
		{"你好", `"你好"`},
	}
	for _, tc := range cases {
		got, err := ParseQuery(tc.input)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseQuery(%q) = %s want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseQueryRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", "   ", "!!!", "NOT hello", "-hello", "hello OR", "OR hello", "(hello", "hello)", "hello NOT", "hello AND", "AND hello", "hello AND AND world", "(hello AND) world"} {
		_, err := ParseQuery(input)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("ParseQuery(%q): expected invalid input, got %v", input, err)
		}
	}
}
