package fallback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/hukam/internal/normalize"
)

const (
	DefaultPrimaryMin     = 50
	DefaultTranslationMin = 20
	// CanonicalAng 是兜底内容使用的 ang 哨兵值（Mool Mantar 位于第 1 页）。
	CanonicalAng = "1"
)

// Thresholds 是“抓取结果是否可信”的启发式长度阈值（按字符计）。
// 短字符串通常意味着抓到的是标签/残片而不是正文；数值可调，不是精确校验。
type Thresholds struct {
	PrimaryMin     int `yaml:"primary_min" json:"primary_min"`
	TranslationMin int `yaml:"translation_min" json:"translation_min"`
}

// Canonical 是固定的兜底经文（Mool Mantar）及其音译/翻译/解释。
type Canonical struct {
	DateNanakshahi  string `yaml:"date_nanakshahi" json:"date_nanakshahi"`
	Ang             string `yaml:"ang" json:"ang"`
	Raag            string `yaml:"raag" json:"raag"`
	Gurmukhi        string `yaml:"gurmukhi" json:"gurmukhi"`
	Transliteration string `yaml:"transliteration" json:"transliteration"`
	Punjabi         string `yaml:"punjabi" json:"punjabi"`
	English         string `yaml:"english" json:"english"`
}

// Content 汇总 fallback 用到的全部固定文案（可由配置整体替换，测试也可注入）。
type Content struct {
	Canonical Canonical `yaml:"canonical" json:"canonical"`

	TranslationUnavailable     string `yaml:"translation_unavailable" json:"translation_unavailable"`
	TransliterationUnavailable string `yaml:"transliteration_unavailable" json:"transliteration_unavailable"`

	// LiveSource / FallbackSource 写入 Reading.Source，标识数据来源。
	LiveSource     string `yaml:"live_source" json:"live_source"`
	FallbackSource string `yaml:"fallback_source" json:"fallback_source"`

	// Provenance 写入成功响应的 provenance 字段。
	Provenance string `yaml:"provenance" json:"provenance"`
	// DegradedError / DegradedNote 写入降级响应的 error / note 字段。
	DegradedError string `yaml:"degraded_error" json:"degraded_error"`
	DegradedNote  string `yaml:"degraded_note" json:"degraded_note"`
}

// DefaultThresholds 返回内置阈值（50 / 20）。
func DefaultThresholds() Thresholds {
	return Thresholds{PrimaryMin: DefaultPrimaryMin, TranslationMin: DefaultTranslationMin}
}

// DefaultContent 返回内置的 SGPC 兜底文案。
func DefaultContent() Content {
	return Content{
		Canonical: Canonical{
			DateNanakshahi:  "ਨਾਨਕਸ਼ਾਹੀ ਕੈਲੰਡਰ",
			Ang:             CanonicalAng,
			Raag:            "ਮੂਲ ਮੰਤਰ",
			Gurmukhi:        "ੴ ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ ਨਿਰਭਉ ਨਿਰਵੈਰੁ ਅਕਾਲ ਮੂਰਤਿ ਅਜੂਨੀ ਸੈਭੰ ਗੁਰ ਪ੍ਰਸਾਦਿ ॥",
			Transliteration: "Ik Onkar Sat Nam Karta Purakh Nirbhau Nirvair Akal Moorat Ajooni Saibhang Gur Prasad",
			Punjabi:         "ਇਹ ਮੂਲ ਮੰਤਰ ਹੈ, ਸਿੱਖ ਧਰਮ ਦਾ ਬੁਨਿਆਦੀ ਮੰਤਰ। ਇਹ ਪਰਮਾਤਮਾ ਦੇ ਮੁੱਢਲੇ ਸੁਭਾਅ ਦਾ ਵਰਣਨ ਕਰਦਾ ਹੈ - ਇੱਕ ਸਿਰਜਣਹਾਰ ਜੋ ਸੱਚ ਹੈ, ਨਿਡਰ ਹੈ, ਵੈਰ ਰਹਿਤ ਹੈ, ਸਮੇਂ ਤੋਂ ਪਰੇ ਹੈ, ਅਤੇ ਸਵੈ-ਮੌਜੂਦ ਹੈ। ਗੁਰੂ ਦੀ ਕਿਰਪਾ ਨਾਲ, ਅਸੀਂ ਇਸ ਦਿਵੀ ਸੱਚ ਨੂੰ ਸਮਝ ਸਕਦੇ ਹਾਂ। ਅੱਜ ਦੇ ਖਾਸ ਹੁਕਮਨਾਮੇ ਲਈ ਕਿਰਪਾ ਕਰਕੇ ਗੁਰਦਵਾਰੇ ਜਾਓ ਜਾਂ SGPC ਦੀ ਵੈੱਬਸਾਈਟ ਸਿੱਧੇ ਚੈੱਕ ਕਰੋ।",
			English:         "One Universal Creator God. Truth Is The Name. Creative Being Personified. No Fear. No Hatred. Image Of The Undying. Beyond Birth. Self-Existent. By Guru's Grace.",
		},
		TranslationUnavailable:     "English translation not available for today's Hukamnama. Please visit your local Gurdwara or check the SGPC website directly for the complete translation. The Gurmukhi text and Punjabi explanation are available above.",
		TransliterationUnavailable: "Transliteration not available - please refer to the Gurmukhi text above",
		LiveSource:                 "Sri Harmandir Sahib, Amritsar (SGPC)",
		FallbackSource:             "Sri Harmandir Sahib, Amritsar (SGPC) - Fallback Content",
		Provenance:                 "SGPC Website",
		DegradedError:              "Unable to fetch current Hukamnama",
		DegradedNote:               "Fallback content provided. Please visit SGPC website or local Gurdwara for today's Hukamnama.",
	}
}

// Validate 保证兜底内容自身满足阈值：否则 fallback 之后仍可能输出不合格记录。
func (c Content) Validate(th Thresholds) error {
	if th.PrimaryMin < 0 || th.TranslationMin < 0 {
		return fmt.Errorf("阈值不能为负数：%+v", th)
	}
	var errs []error
	if n := normalize.Len(normalize.Text(c.Canonical.Gurmukhi)); n < th.PrimaryMin {
		errs = append(errs, fmt.Errorf("canonical.gurmukhi 长度 %d 小于 primary_min=%d", n, th.PrimaryMin))
	}
	if n := normalize.Len(normalize.Text(c.Canonical.English)); n < th.TranslationMin {
		errs = append(errs, fmt.Errorf("canonical.english 长度 %d 小于 translation_min=%d", n, th.TranslationMin))
	}
	if n := normalize.Len(normalize.Text(c.TranslationUnavailable)); n < th.TranslationMin {
		errs = append(errs, fmt.Errorf("translation_unavailable 长度 %d 小于 translation_min=%d", n, th.TranslationMin))
	}
	if strings.TrimSpace(c.TransliterationUnavailable) == "" {
		errs = append(errs, errors.New("transliteration_unavailable 不能为空"))
	}
	if strings.TrimSpace(c.Canonical.Ang) == "" {
		errs = append(errs, errors.New("canonical.ang 不能为空"))
	}
	return errors.Join(errs...)
}
