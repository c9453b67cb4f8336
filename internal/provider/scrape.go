package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/hukam/internal/domain"
)

const (
	StageFetch = "fetch"
	StageParse = "parse"
	StageOK    = "ok"
)

// Attempt 记录一次 provider 尝试（用于解释降级原因）。
type Attempt struct {
	Provider string // provider name（小写）
	Stage    string // "fetch" / "parse" / "ok"
	Err      error  // nil when Stage=="ok"
}

// FetchParse 抓取并解析一次。
//
// 返回值：
// - ext：逐字段的抽取结果（缺失字段是常态）
// - pageURL：实际抓取的页面 URL
// - html：抓取到的原始 HTML（用于快照）
func FetchParse(ctx context.Context, p Provider, c *http.Client) (ext domain.Extraction, pageURL string, html []byte, err error) {
	ext, pageURL, html, _, err = FetchParseTrace(ctx, p, c)
	return ext, pageURL, html, err
}

// FetchParseTrace 与 FetchParse 相同，但额外返回尝试链路。
// 不做重试：fetch 失败即返回，调用方负责降级。
func FetchParseTrace(ctx context.Context, p Provider, c *http.Client) (ext domain.Extraction, pageURL string, html []byte, attempts []Attempt, err error) {
	if p == nil {
		return nil, "", nil, nil, errors.New("provider 不能为空")
	}
	name := p.Name()

	h, u, ferr := p.Fetch(ctx, c)
	if ferr != nil {
		attempts = append(attempts, Attempt{Provider: name, Stage: StageFetch, Err: ferr})
		return nil, u, nil, attempts, &Error{Provider: name, Stage: StageFetch, Err: ferr}
	}

	e, perr := p.Parse(h, u)
	if perr != nil {
		attempts = append(attempts, Attempt{Provider: name, Stage: StageParse, Err: perr})
		return nil, u, h, attempts, &Error{Provider: name, Stage: StageParse, Err: perr}
	}

	attempts = append(attempts, Attempt{Provider: name, Stage: StageOK})
	return e, u, h, attempts, nil
}

// Error 是 provider 阶段的可追溯错误。
// 上层据此把失败归类为 fetch_failed / parse_failed。
type Error struct {
	Provider string // provider name（小写）
	Stage    string // "fetch" 或 "parse"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode 把 err 映射为对外的 error_code；非 provider 错误一律视为 fetch_failed。
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Stage == StageParse {
		return domain.ErrCodeParseFailed
	}
	return domain.ErrCodeFetchFailed
}
