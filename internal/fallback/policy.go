// Package fallback 决定抓取结果是否可用，并在不可用时用固定兜底内容替换。
package fallback

import (
	"time"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/normalize"
)

// DateLayout 是 en-US 的长日期格式，例如 "Friday, October 16, 2026"。
const DateLayout = "Monday, January 2, 2006"

// Decisions 记录本次 Apply 触发了哪些兜底步骤（用于日志与测试）。
type Decisions struct {
	DateFilled            bool
	CanonicalGroup        bool
	TranslationNotice     bool
	TransliterationNotice bool
	Incomplete            []domain.FieldName
}

// Any 表示至少有一步兜底被触发。
func (d Decisions) Any() bool {
	return d.DateFilled || d.CanonicalGroup || d.TranslationNotice || d.TransliterationNotice
}

// Policy 是无状态的兜底策略；构造后可被并发请求共享。
//
// 约束：
// - 兜底顺序固定：date -> canonical 组 -> English 提示 -> 音译提示
// - canonical 组替换是全有或全无：不允许同一组内混合实时内容与兜底内容
// - Apply 的输出一定满足 Thresholds（Content 已在配置加载时校验）
type Policy struct {
	Thresholds Thresholds
	Content    Content

	// Now 与 Location 决定 date 兜底使用的“当前日期”；为空时使用 time.Now / time.Local。
	Now      func() time.Time
	Location *time.Location
}

// New 用内置阈值与文案构造 Policy。
func New() Policy {
	return Policy{Thresholds: DefaultThresholds(), Content: DefaultContent()}
}

// Today 返回 date 兜底使用的长日期字符串。
func (p Policy) Today() string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc).Format(DateLayout)
}

// Apply 把规范化后的抽取结果转换为最终 Reading。
func (p Policy) Apply(ext domain.Extraction) (domain.Reading, Decisions) {
	var d Decisions
	d.Incomplete = ext.Missing()

	r := domain.Reading{
		Date:            ext.Get(domain.FieldDate).Value,
		DateNanakshahi:  ext.Get(domain.FieldDateNanakshahi).Value,
		Ang:             ext.Get(domain.FieldAng).Value,
		Raag:            ext.Get(domain.FieldRaag).Value,
		Gurmukhi:        ext.Get(domain.FieldGurmukhi).Value,
		Transliteration: ext.Get(domain.FieldTransliteration).Value,
		Punjabi:         ext.Get(domain.FieldPunjabi).Value,
		English:         ext.Get(domain.FieldEnglish).Value,
		AudioHukamnama:  ext.Get(domain.FieldAudioHukamnama).Value,
		AudioKatha:      ext.Get(domain.FieldAudioKatha).Value,
		PDFLink:         ext.Get(domain.FieldPDFLink).Value,
		Source:          p.Content.LiveSource,
	}

	if !ext.Get(domain.FieldDate).Found || r.Date == "" {
		r.Date = p.Today()
		d.DateFilled = true
	}

	gurmukhi := ext.Get(domain.FieldGurmukhi)
	if !gurmukhi.Found || normalize.Len(r.Gurmukhi) < p.Thresholds.PrimaryMin {
		p.fillCanonical(&r)
		d.CanonicalGroup = true
	} else if english := ext.Get(domain.FieldEnglish); !english.Found || normalize.Len(r.English) < p.Thresholds.TranslationMin {
		r.English = normalize.Text(p.Content.TranslationUnavailable)
		d.TranslationNotice = true
	}

	if r.Transliteration == "" && r.English != "" && r.Gurmukhi != "" {
		r.Transliteration = normalize.Text(p.Content.TransliterationUnavailable)
		d.TransliterationNotice = true
	}
	return r, d
}

// Canonical 返回抓取/解析失败时使用的完整兜底记录。
func (p Policy) Canonical() domain.Reading {
	r := domain.Reading{
		Date:           p.Today(),
		DateNanakshahi: normalize.Text(p.Content.Canonical.DateNanakshahi),
		Source:         p.Content.FallbackSource,
	}
	p.fillCanonical(&r)
	return r
}

func (p Policy) fillCanonical(r *domain.Reading) {
	c := p.Content.Canonical
	r.Gurmukhi = normalize.Text(c.Gurmukhi)
	r.Raag = normalize.Text(c.Raag)
	r.Transliteration = normalize.Text(c.Transliteration)
	r.English = normalize.Text(c.English)
	r.Punjabi = normalize.Text(c.Punjabi)
	r.Ang = normalize.Text(c.Ang)
}
