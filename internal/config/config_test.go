package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/fallback"
)

func TestLoadEffective_NoFileUsesDefaults(t *testing.T) {
	eff, err := LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != "" {
		t.Fatalf("未使用配置文件时 Path 应为空，实际 %q", eff.Path)
	}
	if eff.Listen != DefaultListen || eff.Provider != DefaultProvider {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.Source.URL != DefaultURL || eff.Source.Origin != DefaultOrigin {
		t.Fatalf("默认 source 不符合预期：%+v", eff.Source)
	}
	if eff.Thresholds != fallback.DefaultThresholds() {
		t.Fatalf("默认阈值不符合预期：%+v", eff.Thresholds)
	}
	if diff := cmp.Diff(fallback.DefaultContent(), eff.Content); diff != "" {
		t.Fatalf("默认文案不符合预期 (-want +got):\n%s", diff)
	}
	if eff.Location != time.Local {
		t.Fatalf("未配置 timezone 时应使用 time.Local")
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "missing.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_PartialFileKeepsDefaults(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`
listen: ":9090"
timezone: UTC
source:
  timeout: 3s
  accept_language: "pa-IN,pa;q=0.9"
fallback:
  thresholds:
    primary_min: 40
  content:
    provenance: "Mirror"
locators:
  english:
    - select: ".english"
      index: -1
log:
  level: debug
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != filepath.Join(cwd, FileName) {
		t.Fatalf("Path 不符合预期：%q", eff.Path)
	}
	if eff.Listen != ":9090" || eff.Source.Timeout != 3*time.Second {
		t.Fatalf("文件值未生效：%+v", eff)
	}
	if eff.Source.URL != DefaultURL {
		t.Fatalf("未写的字段应保留默认值：%q", eff.Source.URL)
	}
	if eff.Thresholds.PrimaryMin != 40 || eff.Thresholds.TranslationMin != fallback.DefaultTranslationMin {
		t.Fatalf("阈值合并不符合预期：%+v", eff.Thresholds)
	}
	if eff.Content.Provenance != "Mirror" || eff.Content.DegradedError != fallback.DefaultContent().DegradedError {
		t.Fatalf("文案合并不符合预期：%+v", eff.Content)
	}
	if eff.Location != time.UTC {
		t.Fatalf("timezone=UTC 未生效：%v", eff.Location)
	}
	ss := eff.Locators[domain.FieldEnglish]
	if len(ss) != 1 || ss[0].Select != ".english" || ss[0].Index != -1 {
		t.Fatalf("locators 解析不符合预期：%+v", eff.Locators)
	}
	if eff.Log.Level != "debug" {
		t.Fatalf("log.level 不符合预期：%q", eff.Log.Level)
	}
	if eff.Policy().Location != time.UTC || eff.HTTPOptions().Timeout != 3*time.Second {
		t.Fatalf("派生配置不符合预期")
	}
	if got := eff.HTTPOptions().AcceptLanguage; got != "pa-IN,pa;q=0.9" {
		t.Fatalf("source.accept_language 未传给 HTTP client：%q", got)
	}
}

func TestLoadEffective_CLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "custom.yaml"), []byte(`
listen: ":9090"
source:
  url: "https://a.example.test/index.php"
  timeout: 3s
log:
  level: warn
`))

	// 未显式指定的 flag 不覆盖文件值，即使其值非零。
	eff, err := LoadEffective(cwd, CLIArgs{
		ConfigPath:   "custom.yaml",
		Listen:       ":1",
		SourceURL:    "https://b.example.test/",
		SourceURLSet: true,
		Timeout:      time.Second,
		TimeoutSet:   true,
		LogLevel:     "error",
		LogLevelSet:  true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Listen != ":9090" {
		t.Fatalf("ListenSet=false 时不应覆盖：%q", eff.Listen)
	}
	if eff.Source.URL != "https://b.example.test/" || eff.Source.Timeout != time.Second || eff.Log.Level != "error" {
		t.Fatalf("CLI 覆盖未生效：%+v", eff)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":         "listen: [",
		"empty provider":   "provider: '  '",
		"source url":       "source: {url: 'ftp://x/y'}",
		"origin":           "source: {origin: 'not a url'}",
		"timeout":          "source: {timeout: 0s}",
		"timezone":         "timezone: Mars/Olympus",
		"short canonical":  "fallback: {content: {canonical: {gurmukhi: 'ੴ'}}}",
		"threshold":        "fallback: {thresholds: {translation_min: 500}}",
		"unknown field":    "locators: {nope: [{select: 'p'}]}",
		"bad selector":     "locators: {date: [{select: '['}]}",
		"bad pattern":      "locators: {ang: [{select: 'p', pattern: '('}]}",
		"log level":        "log: {level: loud}",
		"empty listen":     "listen: ''",
		"readability+attr": "locators: {english: [{mode: readability, attr: href}]}",
	}
	for name, body := range cases {
		cwd := t.TempDir()
		writeFile(t, filepath.Join(cwd, FileName), []byte(body))

		_, err := LoadEffective(cwd, CLIArgs{})
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%s：期望 %q，实际 err=%v (code=%q)", name, ErrCodeInvalid, err, Code(err))
		}
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
