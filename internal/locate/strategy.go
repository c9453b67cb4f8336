package locate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Mode 决定 Strategy 的取值方式。
type Mode string

const (
	// ModeSelector 是默认模式：CSS selector + 可选 find/attr/pattern。
	ModeSelector Mode = ""
	// ModeReadability 取整页的“正文”文本（go-readability），用于页面结构漂移时的兜底。
	ModeReadability Mode = "readability"
)

// Strategy 是一条字段定位规则。
//
// 取值顺序：Select 选出候选 -> Index 取其一 -> Find 在其内部再选（取全部文本）
// -> Attr 取属性（否则取文本）-> 规范化 -> Pattern 提取子串。
type Strategy struct {
	Mode Mode `yaml:"mode,omitempty" json:"mode,omitempty"`

	Select string `yaml:"select,omitempty" json:"select,omitempty"`
	// Index：0 表示第一个，-1 表示最后一个，n 表示第 n 个（从 0 计）。
	Index   int    `yaml:"index,omitempty" json:"index,omitempty"`
	Find    string `yaml:"find,omitempty" json:"find,omitempty"`
	Attr    string `yaml:"attr,omitempty" json:"attr,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	re *regexp.Regexp
}

// Compile 校验 selector 语法并预编译 pattern。
// 配置加载时调用：页面结构漂移只需要改配置，但写错的配置必须在启动时暴露。
func (s *Strategy) Compile() error {
	switch s.Mode {
	case ModeReadability:
		if strings.TrimSpace(s.Select) != "" || strings.TrimSpace(s.Find) != "" || strings.TrimSpace(s.Attr) != "" {
			return errors.New("readability 模式不支持 select/find/attr")
		}
	case ModeSelector:
		if strings.TrimSpace(s.Select) == "" {
			return errors.New("select 不能为空")
		}
		if _, err := cascadia.ParseGroup(s.Select); err != nil {
			return fmt.Errorf("select 无效 %q：%w", s.Select, err)
		}
		if strings.TrimSpace(s.Find) != "" {
			if _, err := cascadia.ParseGroup(s.Find); err != nil {
				return fmt.Errorf("find 无效 %q：%w", s.Find, err)
			}
		}
	default:
		return fmt.Errorf("未知 mode：%q", s.Mode)
	}

	s.re = nil
	if strings.TrimSpace(s.Pattern) != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return fmt.Errorf("pattern 无效 %q：%w", s.Pattern, err)
		}
		s.re = re
	}
	return nil
}

// String 用于日志中的 Via 字段。
func (s Strategy) String() string {
	if s.Mode == ModeReadability {
		return "readability"
	}
	var b strings.Builder
	b.WriteString(s.Select)
	if s.Index != 0 {
		fmt.Fprintf(&b, "[%d]", s.Index)
	}
	if s.Find != "" {
		b.WriteString(" >> ")
		b.WriteString(s.Find)
	}
	if s.Attr != "" {
		b.WriteString(" @")
		b.WriteString(s.Attr)
	}
	return b.String()
}
