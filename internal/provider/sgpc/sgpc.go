// Package sgpc 实现 hs.sgpc.net 每日 Hukamnama 页面的抓取与字段定位。
package sgpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/locate"
	providerx "github.com/John-Robertt/hukam/internal/provider"
)

const (
	Name = "sgpc"

	DefaultURL    = "https://hs.sgpc.net/index.php"
	DefaultOrigin = "https://hs.sgpc.net"

	// MaxBodyBytes 是单次抓取允许读取的最大响应体。
	MaxBodyBytes = 4 << 20
)

// Provider 实现 SGPC 页面的抓取与解析。
//
// 约束：
// - Fetch 对配置的 URL 只发一次 GET，不缓存、不重试
// - Parse 是纯函数（只依赖输入 html），字段缺失不算错误
type Provider struct {
	URL     string
	Locator *locate.Locator
}

// New 用默认定位规则构造 Provider；overrides 中出现的字段整体替换默认规则。
func New(pageURL, origin string, overrides map[domain.FieldName][]locate.Strategy) (*Provider, error) {
	if strings.TrimSpace(pageURL) == "" {
		pageURL = DefaultURL
	}
	if strings.TrimSpace(origin) == "" {
		origin = DefaultOrigin
	}
	l, err := locate.New(origin, MergeLocators(DefaultLocators(), overrides))
	if err != nil {
		return nil, err
	}
	return &Provider{URL: strings.TrimSpace(pageURL), Locator: l}, nil
}

func (*Provider) Name() string { return Name }

// Fetch 抓取当日页面；非 2xx 返回 *provider.HTTPStatusError。
// 响应体按 Content-Type 声明的编码转为 UTF-8；空响应体不是错误。
func (p *Provider) Fetch(ctx context.Context, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, p.URL, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, p.URL, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, p.URL, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.URL, &providerx.HTTPStatusError{URL: p.URL, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, p.URL, err
	}
	if len(raw) > MaxBodyBytes {
		return nil, p.URL, fmt.Errorf("响应体超过上限 %d 字节", MaxBodyBytes)
	}
	b, err := decodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, p.URL, fmt.Errorf("解码响应体失败：%w", err)
	}
	return b, p.URL, nil
}

// decodeBody 把原始响应体转为 UTF-8。
// 上限按原始字节计：解码后变长（latin-1）或变短（utf-16）都不影响判定。
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	if len(raw) == 0 {
		return []byte{}, nil
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Parse 构建文档并逐字段定位。空页面不是错误：所有字段 Found=false，由兜底策略吸收。
func (p *Provider) Parse(html []byte, _ string) (domain.Extraction, error) {
	if p.Locator == nil {
		return nil, errors.New("locator 未初始化")
	}
	doc, err := locate.Parse(html)
	if err != nil {
		return nil, err
	}
	return p.Locator.Locate(doc), nil
}

// DefaultLocators 返回当前 SGPC 页面布局对应的定位规则。
// 页面改版时优先通过配置 locators 覆盖，而不是改这里。
func DefaultLocators() map[domain.FieldName][]locate.Strategy {
	const (
		card      = ".hukamnama-card"
		card2     = ".hukamnama-card2"
		cardDates = card + " .customDate strong"
	)
	return map[domain.FieldName][]locate.Strategy{
		domain.FieldDate:           {{Select: ".customDate strong"}},
		domain.FieldDateNanakshahi: {{Select: cardDates}},
		domain.FieldAng:            {{Select: cardDates, Index: -1, Pattern: `\(ਅੰਗ:\s*(\d+)\)`}},
		domain.FieldRaag:           {{Select: card + " h4.hukamnama-title"}},
		domain.FieldGurmukhi:       {{Select: card + " .hukamnama-text"}},
		domain.FieldPunjabi:        {{Select: card2, Find: ".hukamnama-text"}},
		domain.FieldEnglish:        {{Select: card2, Index: -1, Find: ".hukamnama-text"}},
		domain.FieldAudioHukamnama: {
			{Select: "audio", Attr: "src"},
			{Select: "audio", Find: "source", Attr: "src"},
		},
		domain.FieldAudioKatha: {
			{Select: "audio", Index: 1, Attr: "src"},
			{Select: "audio", Index: 1, Find: "source", Attr: "src"},
		},
		domain.FieldPDFLink: {{Select: `a[href*="pdfdownload.php"]`, Attr: "href"}},
	}
}

// MergeLocators 返回 base 的副本，overrides 中非空的字段整体替换对应规则。
func MergeLocators(base, overrides map[domain.FieldName][]locate.Strategy) map[domain.FieldName][]locate.Strategy {
	out := make(map[domain.FieldName][]locate.Strategy, len(base)+len(overrides))
	for k, v := range base {
		out[k] = append([]locate.Strategy(nil), v...)
	}
	for k, v := range overrides {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]locate.Strategy(nil), v...)
	}
	return out
}
