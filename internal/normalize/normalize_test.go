package normalize

import (
	"testing"
	"testing/quick"
)

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"a", "a"},
		{"  a  b  ", "a b"},
		{"ਸਤਿ\n\n  ਨਾਮੁ\t॥", "ਸਤਿ ਨਾਮੁ ॥"},
		{"a  b", "a b"},
		{"\r\nline1\r\nline2\r\n", "line1 line2"},
	}
	for _, c := range cases {
		if got := Text(c.in); got != c.want {
			t.Fatalf("Text(%q)：期望 %q，实际 %q", c.in, c.want, got)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	f := func(s string) bool {
		once := Text(s)
		return Text(once) == once
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatalf("Text 不满足幂等：%v", err)
	}
}

func TestLen_CountsRunes(t *testing.T) {
	if got := Len("ਸਤਿ"); got != 3 {
		t.Fatalf("期望 3 个字符，实际 %d", got)
	}
	if got := Len(""); got != 0 {
		t.Fatalf("期望 0，实际 %d", got)
	}
}
