package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) 不期望错误：%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q)=%v，期望 %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("未知级别应报错")
	}
}

func TestNew(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := New(Options{Level: "debug", Development: dev})
		if err != nil {
			t.Fatalf("development=%v 不期望错误：%v", dev, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("development=%v：debug 级别应启用", dev)
		}
	}
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("无效级别应报错")
	}
}
