package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.9,pa;q=0.8"
)

// Options 是抓取 client 的可配置项；零值字段使用默认值。
type Options struct {
	Timeout        time.Duration
	ProxyURL       string
	UserAgent      string
	AcceptLanguage string
}

// Transport 把“浏览器请求头 + 强制不走缓存 + 代理/keep-alive 策略”固化为统一策略。
//
// 约束：
// - 不做重试：每次检索最多一次出站请求，失败由上层降级
// - 调用方显式设置的请求头不覆盖
type Transport struct {
	Base *http.Transport

	Header http.Header

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	r := cloneRequest(req)
	for k, vs := range t.Header {
		if r.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

func cloneRequest(req *http.Request) *http.Request {
	// Clone 会复制 Header 等，避免在 RoundTripper 内部“污染”调用方的 request。
	return req.Clone(req.Context())
}

// BrowserHeader 返回模拟普通浏览器、且强制拿最新内容的请求头。
// 不设置 Accept-Encoding：交给 net/http 自动协商 gzip 并透明解压。
func BrowserHeader(userAgent, acceptLanguage string) http.Header {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		acceptLanguage = DefaultAcceptLanguage
	}
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", DefaultAccept)
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	return h
}

// NewClient 构造用于抓取上游页面的 HTTP client。
//
// 规则：
// - 显式总超时（默认 10s），超时即 fetch_failed
// - proxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
func NewClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	disableKeepAlives := false
	proxyURL := strings.TrimSpace(opts.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	tr := &Transport{
		Base:              base,
		Header:            BrowserHeader(opts.UserAgent, opts.AcceptLanguage),
		DisableKeepAlives: disableKeepAlives,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}
