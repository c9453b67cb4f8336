package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/fallback"
	"github.com/John-Robertt/hukam/internal/infra/httpx"
	"github.com/John-Robertt/hukam/internal/locate"
	"github.com/John-Robertt/hukam/internal/logging"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是 cwd 下自动发现的配置文件名（可选）。
	FileName = "hukam.yaml"

	DefaultListen   = ":8080"
	DefaultProvider = "sgpc"
	DefaultURL      = "https://hs.sgpc.net/index.php"
	DefaultOrigin   = "https://hs.sgpc.net"
)

// CLIArgs 保留“是否显式指定”的信息：只有显式给出的 flag 才覆盖配置文件。
type CLIArgs struct {
	ConfigPath string

	Listen    string
	ListenSet bool

	SourceURL    string
	SourceURLSet bool

	Timeout    time.Duration
	TimeoutSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 hukam.yaml 的解析结构。
// 解析前先填入默认值，因此文件里只需要写要改的字段。
type FileConfig struct {
	Listen   string       `yaml:"listen"`
	Provider string       `yaml:"provider"`
	Timezone string       `yaml:"timezone"`
	Source   SourceConfig `yaml:"source"`

	Fallback FallbackConfig `yaml:"fallback"`

	// Locators 按字段覆盖默认定位规则；未出现的字段沿用 provider 内置规则。
	Locators map[domain.FieldName][]locate.Strategy `yaml:"locators"`

	Log logging.Options `yaml:"log"`
}

type SourceConfig struct {
	URL            string        `yaml:"url"`
	Origin         string        `yaml:"origin"`
	Timeout        time.Duration `yaml:"timeout"`
	ProxyURL       string        `yaml:"proxy_url"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
}

type FallbackConfig struct {
	Thresholds fallback.Thresholds `yaml:"thresholds"`
	Content    fallback.Content    `yaml:"content"`
}

// EffectiveConfig 是合并并校验后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Path 是实际读取的配置文件；未使用配置文件时为空。
	Path string

	Listen   string
	Provider string
	Location *time.Location
	Source   SourceConfig

	Thresholds fallback.Thresholds
	Content    fallback.Content
	Locators   map[domain.FieldName][]locate.Strategy

	Log logging.Options
}

// HTTPOptions 返回抓取 client 的构造参数。
func (e EffectiveConfig) HTTPOptions() httpx.Options {
	return httpx.Options{
		Timeout:        e.Source.Timeout,
		ProxyURL:       e.Source.ProxyURL,
		UserAgent:      e.Source.UserAgent,
		AcceptLanguage: e.Source.AcceptLanguage,
	}
}

// Policy 返回按配置构造的兜底策略。
func (e EffectiveConfig) Policy() fallback.Policy {
	return fallback.Policy{Thresholds: e.Thresholds, Content: e.Content, Location: e.Location}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Defaults 返回内置默认配置。
func Defaults() FileConfig {
	return FileConfig{
		Listen:   DefaultListen,
		Provider: DefaultProvider,
		Source: SourceConfig{
			URL:     DefaultURL,
			Origin:  DefaultOrigin,
			Timeout: httpx.DefaultTimeout,
		},
		Fallback: FallbackConfig{
			Thresholds: fallback.DefaultThresholds(),
			Content:    fallback.DefaultContent(),
		},
		Log: logging.Options{Level: logging.DefaultLevel},
	}
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/hukam.yaml（可选，不存在时全部使用默认值）
//
// 覆盖优先级（固定）：CLI 显式 flag > 配置文件 > 内置默认
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}
	return merge(cli, fc, cfgPath)
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error { return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err} }

	if cli.ListenSet {
		fc.Listen = cli.Listen
	}
	if cli.SourceURLSet {
		fc.Source.URL = cli.SourceURL
	}
	if cli.TimeoutSet {
		fc.Source.Timeout = cli.Timeout
	}
	if cli.LogLevelSet {
		fc.Log.Level = cli.LogLevel
	}

	listen := strings.TrimSpace(fc.Listen)
	if listen == "" {
		return EffectiveConfig{}, invalid(errors.New("listen 不能为空"))
	}

	// provider 名是否已注册由 provider.Registry 判定，这里只要求非空。
	provider := strings.ToLower(strings.TrimSpace(fc.Provider))
	if provider == "" {
		return EffectiveConfig{}, invalid(errors.New("provider 不能为空"))
	}

	src := fc.Source
	src.URL = strings.TrimSpace(src.URL)
	src.Origin = strings.TrimRight(strings.TrimSpace(src.Origin), "/")
	src.ProxyURL = strings.TrimSpace(src.ProxyURL)
	src.UserAgent = strings.TrimSpace(src.UserAgent)
	src.AcceptLanguage = strings.TrimSpace(src.AcceptLanguage)
	if err := validateHTTPURL("source.url", src.URL); err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	if err := validateHTTPURL("source.origin", src.Origin); err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	if src.Timeout <= 0 {
		return EffectiveConfig{}, invalid(fmt.Errorf("source.timeout 必须大于 0，实际 %v", src.Timeout))
	}
	if src.ProxyURL != "" {
		if _, err := url.Parse(src.ProxyURL); err != nil {
			return EffectiveConfig{}, invalid(fmt.Errorf("source.proxy_url 无效：%w", err))
		}
	}

	loc := time.Local
	if tz := strings.TrimSpace(fc.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return EffectiveConfig{}, invalid(fmt.Errorf("timezone 无效：%w", err))
		}
		loc = l
	}

	th := fc.Fallback.Thresholds
	if err := fc.Fallback.Content.Validate(th); err != nil {
		return EffectiveConfig{}, invalid(fmt.Errorf("fallback 无效：%w", err))
	}

	// 只做语法校验；真正的 Locator 由 provider 合并默认规则后构造。
	if _, err := locate.New(src.Origin, fc.Locators); err != nil {
		return EffectiveConfig{}, invalid(fmt.Errorf("locators 无效：%w", err))
	}

	if _, err := logging.ParseLevel(fc.Log.Level); err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	return EffectiveConfig{
		Path:       cfgPath,
		Listen:     listen,
		Provider:   provider,
		Location:   loc,
		Source:     src,
		Thresholds: th,
		Content:    fc.Fallback.Content,
		Locators:   copyLocators(fc.Locators),
		Log:        fc.Log,
	}, nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", name, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", name, raw)
	}
	return nil
}

func copyLocators(in map[domain.FieldName][]locate.Strategy) map[domain.FieldName][]locate.Strategy {
	if len(in) == 0 {
		return nil
	}
	out := make(map[domain.FieldName][]locate.Strategy, len(in))
	for k, v := range in {
		out[k] = append([]locate.Strategy(nil), v...)
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 在默认值之上解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	fc = Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, false, nil
		}
		return fc, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, true, err
	}
	return fc, true, nil
}
