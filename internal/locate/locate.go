// Package locate 是 Structural Extractor：按字段名把“有序的 selector 策略列表”应用到 HTML 文档上。
//
// 约束：
// - Locate 对任何输入都不报错：字段要么有值，要么 Found=false
// - 字段之间互相独立，单个字段缺失不影响其它字段
// - 页面结构只体现在 Locator 配置里，代码不假设具体布局
package locate

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/normalize"
)

// Locator 是只读的字段定位表；构造后可被并发请求共享。
type Locator struct {
	origin string
	fields map[domain.FieldName][]Strategy
}

// New 复制并编译 fields；origin 用于把相对 URL 解析为绝对 URL。
func New(origin string, fields map[domain.FieldName][]Strategy) (*Locator, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	out := make(map[domain.FieldName][]Strategy, len(fields))
	for name, ss := range fields {
		if !name.Valid() {
			return nil, fmt.Errorf("未知字段：%q", name)
		}
		cp := make([]Strategy, len(ss))
		copy(cp, ss)
		for i := range cp {
			if err := cp[i].Compile(); err != nil {
				return nil, fmt.Errorf("字段 %s 第 %d 条策略：%w", name, i, err)
			}
		}
		out[name] = cp
	}
	return &Locator{origin: origin, fields: out}, nil
}

// Strategies 返回某字段的策略副本（启动时打印生效规则用）。
func (l *Locator) Strategies(f domain.FieldName) []Strategy {
	return append([]Strategy(nil), l.fields[f]...)
}

// Parse 构建可遍历的文档结构。这是 Extractor 唯一可能失败的地方（parse_failed）。
func Parse(html []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(html))
}

// Locate 对 doc 逐字段执行策略，第一个得到非空值的策略胜出。
func (l *Locator) Locate(doc *goquery.Document) domain.Extraction {
	ext := make(domain.Extraction, len(domain.Fields))
	for _, name := range domain.Fields {
		ext[name] = domain.Field{}
	}
	if doc == nil || l == nil {
		return ext
	}

	for _, name := range domain.Fields {
		for _, s := range l.fields[name] {
			v, ok := l.apply(doc, s)
			if !ok {
				continue
			}
			if name.IsURL() {
				v = ResolveURL(l.origin, v)
			}
			ext[name] = domain.Field{Value: v, Found: true, Via: s.String()}
			break
		}
	}
	return ext
}

func (l *Locator) apply(doc *goquery.Document, s Strategy) (string, bool) {
	var raw string
	switch s.Mode {
	case ModeReadability:
		raw = l.readable(doc)
	default:
		sel := doc.Find(s.Select).Eq(s.Index)
		if sel.Length() == 0 {
			return "", false
		}
		if strings.TrimSpace(s.Find) != "" {
			sel = sel.Find(s.Find)
			if sel.Length() == 0 {
				return "", false
			}
		}
		if s.Attr != "" {
			v, ok := sel.Attr(s.Attr)
			if !ok {
				return "", false
			}
			raw = v
		} else {
			raw = sel.Text()
		}
	}

	v := normalize.Text(raw)
	if v != "" && s.re != nil {
		m := s.re.FindStringSubmatch(v)
		switch {
		case m == nil:
			return "", false
		case len(m) > 1:
			v = normalize.Text(m[1])
		default:
			v = normalize.Text(m[0])
		}
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// readable 取整页正文文本；失败视为未找到。
func (l *Locator) readable(doc *goquery.Document) string {
	h, err := doc.Html()
	if err != nil || strings.TrimSpace(h) == "" {
		return ""
	}
	var pageURL *url.URL
	if l.origin != "" {
		if u, err := url.Parse(l.origin + "/"); err == nil {
			pageURL = u
		}
	}
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}
	}
	article, err := readability.FromReader(strings.NewReader(h), pageURL)
	if err != nil {
		return ""
	}
	return article.TextContent
}

// ResolveURL 把可能是相对路径的 ref 解析为绝对 URL：
// - http:// 或 https:// 开头：原样返回
// - // 开头：补 https:
// - 其它：以 origin 根目录为基准按 RFC 3986 解析（处理 ./、../、?query、#fragment）
func ResolveURL(origin, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	base, err := url.Parse(origin + "/")
	if err != nil {
		return origin + "/" + strings.TrimLeft(ref, "/")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return origin + "/" + strings.TrimLeft(ref, "/")
	}
	return base.ResolveReference(u).String()
}
