package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/hukam/internal/domain"
)

// Provider 把“站点变化”限制在 provider 包内部；检索流程只依赖统一接口与稳定的 Extraction。
//
// 约束：
// - Fetch 每次请求只发一次 GET：不做缓存、不做重试
// - Parse 必须是纯函数：相同输入 => 相同输出；字段缺失不是错误
// - Parse 只在无法构建文档结构时返回错误（parse_failed）
type Provider interface {
	Name() string
	Fetch(ctx context.Context, c *http.Client) (html []byte, pageURL string, err error)
	Parse(html []byte, pageURL string) (domain.Extraction, error)
}
